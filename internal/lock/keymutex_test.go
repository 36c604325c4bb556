package lock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyMutexSerializesSameKey(t *testing.T) {
	km := NewKeyMutex()
	const workers = 32
	const rounds = 100

	counter := 0
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				unlock := km.Lock(7)
				counter++ // data race unless the lock serializes us
				unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, workers*rounds, counter)
}

func TestKeyMutexIndependentKeys(t *testing.T) {
	km := NewKeyMutex()
	unlockA := km.Lock(1)
	// A different key must not block.
	done := make(chan struct{})
	go func() {
		unlockB := km.Lock(2)
		unlockB()
		close(done)
	}()
	<-done
	unlockA()
}

func TestKeyMutexCleansUpEntries(t *testing.T) {
	km := NewKeyMutex()
	unlock := km.Lock(42)
	unlock()
	km.mu.Lock()
	defer km.mu.Unlock()
	assert.Empty(t, km.entries)
}
