// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios.
package repository

import "errors"

// ErrConflict is returned when a delete or update cannot be
// performed because of conflicting state, such as attempting to
// delete a dance class that still has subscriptions. Handlers
// should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrVersionConflict is returned when an optimistic version check on
// a subscription row fails: another writer bumped the version between
// our read and our write. The operation is safe to retry after
// reloading. Handlers translate this into HTTP 409 with a retryable
// hint.
var ErrVersionConflict = errors.New("subscription modified concurrently")
