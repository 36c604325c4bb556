package entitlement

import (
	"time"

	"github.com/iliyamo/dance-studio-admin/internal/model"
)

// IsConsuming reports whether an attendance status occupies a class
// slot and therefore burns one class of a counts subscription.
// present and late both hold a spot in the room; makeup does the same
// at the substitute occurrence.  absent and excused leave the
// entitlement untouched.
func IsConsuming(status string) bool {
	switch status {
	case model.AttendancePresent, model.AttendanceLate, model.AttendanceMakeup:
		return true
	}
	return false
}

// LedgerResult describes the outcome of applying one attendance
// transition to a subscription.
//
// Remaining is the class count after the transition; for days
// subscriptions it mirrors the input and carries no meaning.  Changed
// is true when the count actually moved, so callers skip the
// subscription UPDATE when false.  Depleted is true when the
// transition brought the count to zero.  Warning holds
// ErrCapacityExceeded when a consuming write landed on an already
// empty subscription; the write still stands.
type LedgerResult struct {
	Remaining uint32
	Changed   bool
	Depleted  bool
	Warning   error
}

// ApplyAttendance computes the remaining-class adjustment for an
// attendance cell moving from oldStatus to newStatus.  oldStatus is
// empty for a first write.  Consumption is driven by the transition,
// not by the final value: rewriting a cell with the same consuming
// status twice charges exactly once, and flipping present to absent
// gives the charged class back.  The count is clamped to
// [0, total_classes] in all cases.
//
// Days subscriptions track no counter, so the call is a no-op for
// them.  A counts subscription with no TotalClasses is corrupt and
// yields ErrInvalidState.
func ApplyAttendance(sub *model.Subscription, oldStatus, newStatus string) (LedgerResult, error) {
	if sub.Type != model.SubTypeCounts {
		return LedgerResult{}, nil
	}
	if sub.TotalClasses == nil {
		return LedgerResult{}, ErrInvalidState
	}
	total := *sub.TotalClasses
	remaining := total
	if sub.RemainingClasses != nil {
		remaining = *sub.RemainingClasses
	}

	wasConsuming := oldStatus != "" && IsConsuming(oldStatus)
	nowConsuming := IsConsuming(newStatus)

	res := LedgerResult{Remaining: remaining}
	switch {
	case nowConsuming && !wasConsuming:
		if remaining == 0 {
			// Over-attendance: record it, warn, stay floored.
			res.Depleted = true
			res.Warning = ErrCapacityExceeded
			return res, nil
		}
		remaining--
		res.Remaining = remaining
		res.Changed = true
		res.Depleted = remaining == 0
	case !nowConsuming && wasConsuming:
		if remaining < total {
			remaining++
			res.Remaining = remaining
			res.Changed = true
		}
	}
	return res, nil
}

// PauseDays returns the calendar length of a pause in whole days.  An
// open pause is measured provisionally up to today so that a paused
// subscription stops burning time the moment the pause starts.
func PauseDays(p model.SubscriptionPause, today time.Time) int {
	end := today
	if p.EndDate != nil {
		end = *p.EndDate
	}
	d := daysBetween(p.StartDate, end)
	if d < 0 {
		return 0
	}
	return d
}

// EffectiveEndDate is the nominal end date shifted forward by the
// accumulated pause time, end_date plus the summed pause durations.
// The stored
// end_date is never rewritten; every window check and status
// resolution goes through this function instead.
func EffectiveEndDate(sub *model.Subscription, today time.Time) time.Time {
	total := 0
	for _, p := range sub.Pauses {
		total += PauseDays(p, today)
	}
	return sub.EndDate.AddDate(0, 0, total)
}

// DaysRemaining returns the number of calendar days a days
// subscription still covers, floored at zero.  For counts
// subscriptions the value is not meaningful and 0 is returned.
func DaysRemaining(sub *model.Subscription, today time.Time) int {
	if sub.Type != model.SubTypeDays {
		return 0
	}
	d := daysBetween(today, EffectiveEndDate(sub, today))
	if d < 0 {
		return 0
	}
	return d
}

// InWindow reports whether date lies inside the subscription's
// validity window [start_date, effective_end_date].
func InWindow(sub *model.Subscription, date, today time.Time) bool {
	if date.Before(sub.StartDate) {
		return false
	}
	return !date.After(EffectiveEndDate(sub, today))
}

// daysBetween counts whole days from a to b, negative when b precedes
// a.  Both arguments are expected to be DATE values at UTC midnight,
// which is how the repository layer materializes MySQL DATE columns.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}
