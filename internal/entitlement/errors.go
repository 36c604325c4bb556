// Package entitlement owns the subscription lifecycle arithmetic: how
// much usable value a membership has left, how pauses stretch its
// timeline, which attendance writes consume a class count, the makeup
// request state machine and the derived subscription status.  All
// functions here are pure; persistence and serialization live in the
// repository and handler layers.
package entitlement

import "errors"

// ErrInvalidState is returned when ledger arithmetic is requested for
// a counts subscription whose total_classes was never set.  Handlers
// should translate this into an HTTP 500, since such a row violates
// the creation validation and cannot be produced through the API.
var ErrInvalidState = errors.New("counts subscription without total_classes")

// ErrCapacityExceeded is a soft failure: a consuming attendance write
// landed on a subscription that has no classes left.  The write is
// still recorded (over-attendance happens in the real world) and the
// caller is expected to surface a warning rather than block.
var ErrCapacityExceeded = errors.New("no remaining classes on subscription")

// ErrPauseOverlap is returned when a requested pause interval overlaps
// an existing pause or lies outside the subscription's validity
// window.  Handlers translate this into HTTP 409.
var ErrPauseOverlap = errors.New("pause interval overlaps or out of window")

// ErrAlreadyPaused is returned when a pause is requested while an open
// pause exists.  A subscription has at most one open pause at a time.
var ErrAlreadyPaused = errors.New("subscription already has an open pause")

// ErrNotPaused is returned by Resume when there is no open pause to
// close.
var ErrNotPaused = errors.New("subscription has no open pause")

// ErrOutOfWindow is returned when an attendance date falls outside the
// subscription's [start_date, effective_end_date] window and no
// administrative override was requested.
var ErrOutOfWindow = errors.New("date outside subscription validity window")

// ErrInvalidTransition is returned when a makeup request is asked to
// move to a state its current state does not permit.  The request is
// left unchanged.
var ErrInvalidTransition = errors.New("invalid makeup state transition")
