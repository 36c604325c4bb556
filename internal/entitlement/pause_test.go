package entitlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/dance-studio-admin/internal/model"
)

func pausedSub(pauses ...model.SubscriptionPause) *model.Subscription {
	sub := daysSub(date(2024, 1, 1), date(2024, 3, 31))
	sub.Pauses = pauses
	return sub
}

func closed(start, end time.Time) model.SubscriptionPause {
	return model.SubscriptionPause{StartDate: start, EndDate: &end}
}

func TestValidatePauseAccepts(t *testing.T) {
	today := date(2024, 1, 5)
	sub := pausedSub()
	assert.NoError(t, ValidatePause(sub, date(2024, 2, 1), date(2024, 2, 10), today))
	// Open-ended pause: zero end time.
	assert.NoError(t, ValidatePause(sub, date(2024, 2, 1), time.Time{}, today))
	// Same-day pause, the interval the admin UI typically submits.
	assert.NoError(t, ValidatePause(sub, date(2024, 2, 1), date(2024, 2, 1), today))
}

func TestValidatePauseRejectsSecondOpenPause(t *testing.T) {
	sub := pausedSub(model.SubscriptionPause{StartDate: date(2024, 1, 10)})
	err := ValidatePause(sub, date(2024, 2, 1), date(2024, 2, 5), date(2024, 1, 15))
	assert.ErrorIs(t, err, ErrAlreadyPaused)
	// The pause list must be left as it was.
	assert.Len(t, sub.Pauses, 1)
	assert.Nil(t, sub.Pauses[0].EndDate)
}

func TestValidatePauseRejectsOverlap(t *testing.T) {
	today := date(2024, 1, 5)
	sub := pausedSub(closed(date(2024, 2, 1), date(2024, 2, 10)))

	cases := []struct {
		name       string
		start, end time.Time
	}{
		{"inside existing", date(2024, 2, 3), date(2024, 2, 7)},
		{"straddles start", date(2024, 1, 28), date(2024, 2, 1)},
		{"straddles end", date(2024, 2, 10), date(2024, 2, 20)},
		{"covers existing", date(2024, 1, 20), date(2024, 3, 1)},
		{"open over existing", date(2024, 1, 20), time.Time{}},
	}
	for _, tc := range cases {
		assert.ErrorIs(t, ValidatePause(sub, tc.start, tc.end, today), ErrPauseOverlap, tc.name)
	}
	// Adjacent but disjoint intervals are fine.
	assert.NoError(t, ValidatePause(sub, date(2024, 2, 11), date(2024, 2, 15), today))
}

func TestValidatePauseRejectsOutsideWindow(t *testing.T) {
	today := date(2024, 1, 5)
	sub := pausedSub()
	assert.ErrorIs(t, ValidatePause(sub, date(2023, 12, 20), date(2024, 1, 2), today), ErrPauseOverlap)
	assert.ErrorIs(t, ValidatePause(sub, date(2024, 4, 1), date(2024, 4, 5), today), ErrPauseOverlap)
	assert.ErrorIs(t, ValidatePause(sub, date(2024, 3, 20), date(2024, 4, 5), today), ErrPauseOverlap)
	// Reversed interval.
	assert.ErrorIs(t, ValidatePause(sub, date(2024, 2, 10), date(2024, 2, 1), today), ErrPauseOverlap)
}

func TestResumeClosesOpenPause(t *testing.T) {
	sub := pausedSub(
		closed(date(2024, 1, 5), date(2024, 1, 8)),
		model.SubscriptionPause{StartDate: date(2024, 2, 1)},
	)
	today := date(2024, 2, 7)
	p, err := Resume(sub, today)
	require.NoError(t, err)
	require.NotNil(t, p.EndDate)
	assert.Equal(t, today, *p.EndDate)
	// 3 + 6 paused days on a Mar 31 end date.
	assert.Equal(t, date(2024, 4, 9), EffectiveEndDate(sub, today))
}

func TestResumeWithoutOpenPause(t *testing.T) {
	sub := pausedSub(closed(date(2024, 1, 5), date(2024, 1, 8)))
	_, err := Resume(sub, date(2024, 2, 1))
	assert.ErrorIs(t, err, ErrNotPaused)
}

func TestResumeFuturePauseClampsToStart(t *testing.T) {
	sub := pausedSub(model.SubscriptionPause{StartDate: date(2024, 3, 1)})
	p, err := Resume(sub, date(2024, 2, 1))
	require.NoError(t, err)
	assert.Equal(t, date(2024, 3, 1), *p.EndDate)
}
