package entitlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/dance-studio-admin/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func u32(v uint32) *uint32 { return &v }

func countsSub(total, remaining uint32) *model.Subscription {
	return &model.Subscription{
		ID:               1,
		Type:             model.SubTypeCounts,
		StartDate:        date(2024, 1, 1),
		EndDate:          date(2024, 3, 31),
		TotalClasses:     u32(total),
		RemainingClasses: u32(remaining),
	}
}

func daysSub(start, end time.Time) *model.Subscription {
	return &model.Subscription{
		ID:        2,
		Type:      model.SubTypeDays,
		StartDate: start,
		EndDate:   end,
	}
}

func TestApplyAttendanceFirstConsumingWrite(t *testing.T) {
	sub := countsSub(10, 10)
	res, err := ApplyAttendance(sub, "", model.AttendancePresent)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, uint32(9), res.Remaining)
	assert.False(t, res.Depleted)
	assert.NoError(t, res.Warning)
}

func TestApplyAttendanceIdempotentRewrite(t *testing.T) {
	sub := countsSub(10, 9)
	// Same consuming status again, no charge.
	res, err := ApplyAttendance(sub, model.AttendancePresent, model.AttendancePresent)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, uint32(9), res.Remaining)
}

func TestApplyAttendanceRoundTripRestoresCount(t *testing.T) {
	sub := countsSub(10, 10)

	res, err := ApplyAttendance(sub, "", model.AttendancePresent)
	require.NoError(t, err)
	require.Equal(t, uint32(9), res.Remaining)
	sub.RemainingClasses = u32(res.Remaining)

	res, err = ApplyAttendance(sub, model.AttendancePresent, model.AttendanceAbsent)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, uint32(10), res.Remaining)
	sub.RemainingClasses = u32(res.Remaining)

	res, err = ApplyAttendance(sub, model.AttendanceAbsent, model.AttendancePresent)
	require.NoError(t, err)
	assert.Equal(t, uint32(9), res.Remaining)
}

func TestApplyAttendanceIncrementCappedAtTotal(t *testing.T) {
	sub := countsSub(10, 10)
	// Corrective edit on a full subscription must not push past total.
	res, err := ApplyAttendance(sub, model.AttendancePresent, model.AttendanceExcused)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, uint32(10), res.Remaining)
}

func TestApplyAttendanceDepletionAndOverAttendance(t *testing.T) {
	sub := countsSub(2, 1)
	res, err := ApplyAttendance(sub, "", model.AttendanceLate)
	require.NoError(t, err)
	assert.True(t, res.Depleted)
	assert.Equal(t, uint32(0), res.Remaining)
	assert.NoError(t, res.Warning)

	sub.RemainingClasses = u32(0)
	// A further consuming write is over-attendance: floored, soft warning.
	res, err = ApplyAttendance(sub, "", model.AttendanceMakeup)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, uint32(0), res.Remaining)
	assert.ErrorIs(t, res.Warning, ErrCapacityExceeded)
}

func TestApplyAttendanceNonConsumingStatuses(t *testing.T) {
	sub := countsSub(10, 10)
	for _, st := range []string{model.AttendanceAbsent, model.AttendanceExcused} {
		res, err := ApplyAttendance(sub, "", st)
		require.NoError(t, err)
		assert.False(t, res.Changed, st)
		assert.Equal(t, uint32(10), res.Remaining, st)
	}
}

func TestApplyAttendanceDaysTypeIsNoop(t *testing.T) {
	sub := daysSub(date(2024, 1, 1), date(2024, 1, 31))
	res, err := ApplyAttendance(sub, "", model.AttendancePresent)
	require.NoError(t, err)
	assert.False(t, res.Changed)
}

func TestApplyAttendanceMissingTotalIsInvalidState(t *testing.T) {
	sub := countsSub(10, 10)
	sub.TotalClasses = nil
	_, err := ApplyAttendance(sub, "", model.AttendancePresent)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestRemainingStaysWithinBounds(t *testing.T) {
	// Invariant: 0 <= remaining <= total after any write sequence.
	sub := countsSub(3, 3)
	seq := []struct{ old, new string }{
		{"", model.AttendancePresent},
		{model.AttendancePresent, model.AttendanceAbsent},
		{model.AttendanceAbsent, model.AttendanceLate},
		{"", model.AttendancePresent},
		{"", model.AttendanceMakeup},
		{"", model.AttendancePresent}, // over-attendance
		{model.AttendancePresent, model.AttendanceExcused},
	}
	for _, step := range seq {
		res, err := ApplyAttendance(sub, step.old, step.new)
		require.NoError(t, err)
		require.LessOrEqual(t, res.Remaining, *sub.TotalClasses)
		sub.RemainingClasses = u32(res.Remaining)
	}
}

func TestEffectiveEndDateAddsPauseDurations(t *testing.T) {
	sub := daysSub(date(2024, 1, 1), date(2024, 1, 31))
	end := date(2024, 1, 15)
	sub.Pauses = []model.SubscriptionPause{
		{StartDate: date(2024, 1, 10), EndDate: &end},
	}
	// 5 paused days push the end date from Jan 31 to Feb 5.
	assert.Equal(t, date(2024, 2, 5), EffectiveEndDate(sub, date(2024, 1, 20)))
}

func TestEffectiveEndDateOpenPauseRunsToToday(t *testing.T) {
	sub := daysSub(date(2024, 1, 1), date(2024, 1, 31))
	sub.Pauses = []model.SubscriptionPause{{StartDate: date(2024, 1, 10)}}
	assert.Equal(t, date(2024, 2, 2), EffectiveEndDate(sub, date(2024, 1, 12)))
	// A pause that has not started yet contributes nothing.
	assert.Equal(t, date(2024, 1, 31), EffectiveEndDate(sub, date(2024, 1, 9)))
}

func TestDaysRemaining(t *testing.T) {
	sub := daysSub(date(2024, 1, 1), date(2024, 1, 31))
	assert.Equal(t, 30, DaysRemaining(sub, date(2024, 1, 1)))
	assert.Equal(t, 0, DaysRemaining(sub, date(2024, 2, 15)))
	assert.Equal(t, 0, DaysRemaining(countsSub(5, 5), date(2024, 1, 1)))
}

func TestInWindow(t *testing.T) {
	sub := daysSub(date(2024, 1, 1), date(2024, 1, 31))
	today := date(2024, 1, 20)
	assert.True(t, InWindow(sub, date(2024, 1, 1), today))
	assert.True(t, InWindow(sub, date(2024, 1, 31), today))
	assert.False(t, InWindow(sub, date(2023, 12, 31), today))
	assert.False(t, InWindow(sub, date(2024, 2, 1), today))

	end := date(2024, 1, 15)
	sub.Pauses = []model.SubscriptionPause{{StartDate: date(2024, 1, 10), EndDate: &end}}
	// Pause time extends the accepted window.
	assert.True(t, InWindow(sub, date(2024, 2, 5), today))
	assert.False(t, InWindow(sub, date(2024, 2, 6), today))
}
