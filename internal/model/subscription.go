package model

import "time"

// Subscription accounting modes.  The type is immutable after
// creation: a days subscription burns calendar time between StartDate
// and its effective end date, a counts subscription burns a class
// count each time a consuming attendance status is recorded.
const (
	SubTypeDays   = "days"
	SubTypeCounts = "counts"
)

// Subscription is a membership binding one student to one dance class
// as stored in the `subscriptions` table.  Remaining entitlement and
// the externally visible status are derived at read time from this
// snapshot together with the attached pauses; status is never stored.
//
// Version is an optimistic concurrency token.  Every mutation of the
// row (attendance consumption, pause, resume, extend, cancel) bumps
// it, and writers that lose the race get ErrVersionConflict from the
// repository.
//
// Fields:
//  ID               – primary key identifier.
//  StudentID        – student owning the subscription.
//  ClassID          – dance class the subscription is for.
//  Type             – days or counts, immutable.
//  StartDate        – first valid calendar date (DATE, UTC midnight).
//  EndDate          – nominal last valid date.  The effective end date
//                     adds accumulated pause time; EndDate itself is
//                     never rewritten by pause bookkeeping.
//  TotalClasses     – counts type only: classes purchased.
//  RemainingClasses – counts type only: classes left, 0..TotalClasses.
//  PricePaid        – amount paid at purchase, used by revenue stats.
//  CancelledAt      – set when the subscription is cancelled (terminal).
//  Version          – optimistic lock counter.
//  Pauses           – ordered pause intervals, oldest first.
type Subscription struct {
	ID               uint64              `json:"id"`
	StudentID        uint64              `json:"student_id"`
	ClassID          uint64              `json:"class_id"`
	Type             string              `json:"type"`
	StartDate        time.Time           `json:"start_date"`
	EndDate          time.Time           `json:"end_date"`
	TotalClasses     *uint32             `json:"total_classes,omitempty"`
	RemainingClasses *uint32             `json:"remaining_classes,omitempty"`
	PricePaid        uint32              `json:"price_paid"`
	CancelledAt      *time.Time          `json:"cancelled_at,omitempty"`
	Version          uint64              `json:"version"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
	Pauses           []SubscriptionPause `json:"pauses,omitempty"` // loaded from subscription_pauses
}

// SubscriptionPause is one pause interval of a subscription as stored
// in the `subscription_pauses` table.  A nil EndDate marks the pause
// as still open (ongoing); at most one open pause may exist per
// subscription, and Resume closes it at the current date.
//
// Fields:
//  ID             – primary key identifier.
//  SubscriptionID – owning subscription.
//  StartDate      – first paused date.
//  EndDate        – last paused date, nil while the pause is open.
//  Reason         – free-form reason given by the admin.
type SubscriptionPause struct {
	ID             uint64     `json:"id"`
	SubscriptionID uint64     `json:"subscription_id"`
	StartDate      time.Time  `json:"start_date"`
	EndDate        *time.Time `json:"end_date"` // NULL = open
	Reason         string     `json:"reason"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Open reports whether the pause has not been resumed yet.
func (p SubscriptionPause) Open() bool { return p.EndDate == nil }
