package entitlement

import (
	"time"

	"github.com/iliyamo/dance-studio-admin/internal/model"
)

// OpenPause returns the subscription's open pause, or nil when none
// exists.  The repository loads pauses oldest first, so the open pause
// is always the last entry when present, but the whole slice is
// scanned to stay independent of load order.
func OpenPause(sub *model.Subscription) *model.SubscriptionPause {
	for i := range sub.Pauses {
		if sub.Pauses[i].Open() {
			return &sub.Pauses[i]
		}
	}
	return nil
}

// ValidatePause checks a requested pause interval against the
// subscription's current state.  end may be the zero time to request
// an open-ended pause that a later Resume will close.
//
// Rules, checked in order: an open pause already exists yields
// ErrAlreadyPaused; a start before start_date or a start/end past the
// effective end date, an end (when given) before start, or an
// interval touching an existing pause all yield ErrPauseOverlap.
//
// The subscription is not mutated; on nil error the caller persists
// the new pause row and the effective end date shifts automatically
// through EffectiveEndDate.
func ValidatePause(sub *model.Subscription, start, end, today time.Time) error {
	if OpenPause(sub) != nil {
		return ErrAlreadyPaused
	}
	eff := EffectiveEndDate(sub, today)
	if start.Before(sub.StartDate) || start.After(eff) {
		return ErrPauseOverlap
	}
	open := end.IsZero()
	if !open {
		if end.Before(start) || end.After(eff) {
			return ErrPauseOverlap
		}
	}
	for _, p := range sub.Pauses {
		pEnd := eff // defensive; closed pauses always carry an end date
		if p.EndDate != nil {
			pEnd = *p.EndDate
		}
		// Intervals are inclusive on both sides.  An open request runs
		// to infinity, so only its start matters against pEnd.
		if !start.After(pEnd) && (open || !end.Before(p.StartDate)) {
			return ErrPauseOverlap
		}
	}
	return nil
}

// Resume closes the subscription's open pause at today's date and
// returns the closed pause so the caller can persist the end date.
// When the pause started in the future, it is closed at its own start
// date so the interval never runs backwards.
func Resume(sub *model.Subscription, today time.Time) (*model.SubscriptionPause, error) {
	p := OpenPause(sub)
	if p == nil {
		return nil, ErrNotPaused
	}
	end := today
	if end.Before(p.StartDate) {
		end = p.StartDate
	}
	p.EndDate = &end
	return p, nil
}
