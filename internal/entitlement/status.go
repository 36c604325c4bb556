package entitlement

import (
	"time"

	"github.com/iliyamo/dance-studio-admin/internal/model"
)

// Derived subscription statuses.  Status is computed from the
// subscription snapshot on every read and is never persisted, so the
// stored row cannot drift out of sync with the rules below.
const (
	StatusActive    = "active"
	StatusPaused    = "paused"
	StatusExpired   = "expired"
	StatusCancelled = "cancelled"
)

// ResolveStatus derives the externally visible status of a
// subscription as of today.  Precedence, highest first:
//
//   cancelled – an explicit cancellation is terminal and overrides
//               everything else.
//   paused    – an open pause exists whose interval covers today.
//   expired   – today is past the effective end date, or a counts
//               subscription has no classes left even though the
//               calendar window is still open.
//   active    – everything else.
func ResolveStatus(sub *model.Subscription, today time.Time) string {
	if sub.CancelledAt != nil {
		return StatusCancelled
	}
	if p := OpenPause(sub); p != nil && !today.Before(p.StartDate) {
		return StatusPaused
	}
	if today.After(EffectiveEndDate(sub, today)) {
		return StatusExpired
	}
	if sub.Type == model.SubTypeCounts && sub.RemainingClasses != nil && *sub.RemainingClasses == 0 {
		return StatusExpired
	}
	return StatusActive
}
