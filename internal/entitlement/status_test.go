package entitlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/dance-studio-admin/internal/model"
)

func TestResolveStatusActive(t *testing.T) {
	sub := daysSub(date(2024, 1, 1), date(2024, 1, 31))
	assert.Equal(t, StatusActive, ResolveStatus(sub, date(2024, 1, 15)))
	assert.Equal(t, StatusActive, ResolveStatus(sub, date(2024, 1, 31)))
}

func TestResolveStatusExpiredByDate(t *testing.T) {
	sub := daysSub(date(2024, 1, 1), date(2024, 1, 31))
	assert.Equal(t, StatusExpired, ResolveStatus(sub, date(2024, 2, 1)))
}

func TestResolveStatusCountsExhaustionExpiresEarly(t *testing.T) {
	sub := countsSub(10, 0)
	// Window still open, but nothing left to attend.
	assert.Equal(t, StatusExpired, ResolveStatus(sub, date(2024, 2, 1)))

	sub.RemainingClasses = u32(1)
	assert.Equal(t, StatusActive, ResolveStatus(sub, date(2024, 2, 1)))
}

func TestResolveStatusPaused(t *testing.T) {
	sub := daysSub(date(2024, 1, 1), date(2024, 1, 31))
	sub.Pauses = []model.SubscriptionPause{{StartDate: date(2024, 1, 10)}}
	assert.Equal(t, StatusPaused, ResolveStatus(sub, date(2024, 1, 10)))
	assert.Equal(t, StatusPaused, ResolveStatus(sub, date(2024, 1, 20)))
	// Pause scheduled for the future does not mask active.
	assert.Equal(t, StatusActive, ResolveStatus(sub, date(2024, 1, 9)))

	end := date(2024, 1, 15)
	sub.Pauses[0].EndDate = &end
	// Closed pause no longer reports paused, only stretches the window.
	assert.Equal(t, StatusActive, ResolveStatus(sub, date(2024, 1, 20)))
	assert.Equal(t, StatusActive, ResolveStatus(sub, date(2024, 2, 5)))
	assert.Equal(t, StatusExpired, ResolveStatus(sub, date(2024, 2, 6)))
}

func TestResolveStatusCancelledOverridesAll(t *testing.T) {
	now := time.Now().UTC()
	sub := countsSub(10, 0)
	sub.CancelledAt = &now
	sub.Pauses = []model.SubscriptionPause{{StartDate: date(2024, 1, 10)}}
	assert.Equal(t, StatusCancelled, ResolveStatus(sub, date(2024, 1, 20)))
	assert.Equal(t, StatusCancelled, ResolveStatus(sub, date(2030, 1, 1)))
}
