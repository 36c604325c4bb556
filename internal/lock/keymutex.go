// Package lock provides in-process serialization of mutations on a
// single subscription.  Every write path (attendance mark, pause,
// resume, extend, cancel, makeup completion) takes the subscription's
// key before starting its database transaction, so two requests
// touching the same subscription never interleave their
// read-modify-write of remaining_classes or the pause list.  The
// optimistic version column in the subscriptions table remains the
// backstop for multi-replica deployments.
package lock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// KeyMutex is a set of mutexes addressed by subscription ID.  Unused
// entries are dropped as soon as the last holder releases them, so
// the map does not grow with the number of subscriptions ever seen.
type KeyMutex struct {
	mu      sync.Mutex
	entries map[uint64]*entry
}

// NewKeyMutex returns an empty KeyMutex ready for use.
func NewKeyMutex() *KeyMutex {
	return &KeyMutex{entries: make(map[uint64]*entry)}
}

// Lock acquires the mutex for key, blocking until it is available,
// and returns the matching unlock function.  The unlock function must
// be called exactly once, typically via defer.
func (k *KeyMutex) Lock(key uint64) func() {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}
