package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitasa/social-scheduler/internal/models"
)

func baseRule() *models.ScheduleRule {
	return &models.ScheduleRule{
		IsActive:  true,
		Frequency: models.FrequencyDaily,
		TimeOfDay: "09:00",
		Timezone:  "UTC",
	}
}

func TestNextDaily(t *testing.T) {
	rule := baseRule()

	// Before today's slot: fires today.
	next, ok := Next(rule, time.Date(2026, 3, 10, 5, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), next)

	// Past today's slot: fires tomorrow.
	next, ok = Next(rule, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC), next)
}

func TestNextDailyWallClockZone(t *testing.T) {
	rule := baseRule()
	rule.Timezone = "Asia/Kolkata"

	// 09:00 IST is 03:30 UTC.
	after := time.Date(2026, 3, 10, 5, 0, 0, 0, time.UTC)
	next, ok := Next(rule, after)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 11, 3, 30, 0, 0, time.UTC), next)
	assert.Equal(t, time.UTC, next.Location())
}

func TestNextWeekly(t *testing.T) {
	rule := baseRule()
	rule.Frequency = models.FrequencyWeekly
	rule.TimeOfDay = "12:00"
	rule.DaysOfWeek = []int64{1, 3} // Monday, Wednesday

	// 2026-03-10 is a Tuesday; the next slot is Wednesday the 11th.
	next, ok := Next(rule, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC), next)
	assert.Contains(t, []time.Weekday{time.Monday, time.Wednesday}, next.Weekday())
}

func TestNextWeeklyWithoutDays(t *testing.T) {
	rule := baseRule()
	rule.Frequency = models.FrequencyWeekly

	_, ok := Next(rule, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	assert.False(t, ok)
}

func TestNextMonthlyAnchorShortMonth(t *testing.T) {
	rule := baseRule()
	rule.Frequency = models.FrequencyMonthly
	rule.RecurrenceType = models.RecurrenceDate
	rule.AnchorDay = 31
	rule.TimeOfDay = "10:00"

	// February 2026 has 28 days, so the anchor falls back to the 28th.
	next, ok := Next(rule, time.Date(2026, 1, 31, 11, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 2, 28, 10, 0, 0, 0, time.UTC), next)
}

func TestNextMonthlyNthWeekday(t *testing.T) {
	rule := baseRule()
	rule.Frequency = models.FrequencyMonthly
	rule.RecurrenceType = models.RecurrenceNthWeekday
	rule.Nth = 2
	rule.NthWeekday = int(time.Tuesday)
	rule.TimeOfDay = "09:00"

	// March 2026 starts on a Sunday; the second Tuesday is the 10th.
	next, ok := Next(rule, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), next)
}

func TestNextMonthlySkipsMonthsWithoutNth(t *testing.T) {
	rule := baseRule()
	rule.Frequency = models.FrequencyMonthly
	rule.RecurrenceType = models.RecurrenceNthWeekday
	rule.Nth = 5
	rule.NthWeekday = int(time.Friday)
	rule.TimeOfDay = "09:00"

	// March and April 2026 have only four Fridays; May's fifth is the 29th.
	next, ok := Next(rule, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 5, 29, 9, 0, 0, 0, time.UTC), next)
}

func TestNextSkipDateMovesSlot(t *testing.T) {
	rule := baseRule()
	rule.Frequency = models.FrequencyWeekly
	rule.DaysOfWeek = []int64{int64(time.Friday)}
	rule.SkipDates = []string{"2026-12-25"}

	// Christmas 2026 is a Friday; the slot moves to the next Friday, it is
	// not dropped.
	next, ok := Next(rule, time.Date(2026, 12, 20, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, time.Date(2027, 1, 1, 9, 0, 0, 0, time.UTC), next)
}

func TestNextSkipDatesConsumed(t *testing.T) {
	rule := baseRule()
	rule.SkipDates = []string{"2026-03-11", "2026-03-12", "2026-03-13"}

	next, ok := Next(rule, time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC), next)
}

func TestNextIsPureAndAdvances(t *testing.T) {
	rule := baseRule()
	after := time.Date(2026, 3, 10, 5, 0, 0, 0, time.UTC)

	first, ok := Next(rule, after)
	require.True(t, ok)
	second, ok := Next(rule, after)
	require.True(t, ok)
	assert.Equal(t, first, second)

	// Feeding a result back in always moves strictly forward.
	cursor := first
	for i := 0; i < 5; i++ {
		next, ok := Next(rule, cursor)
		require.True(t, ok)
		assert.True(t, next.After(cursor))
		cursor = next
	}
}

func TestNextInactiveRule(t *testing.T) {
	rule := baseRule()
	rule.IsActive = false

	_, ok := Next(rule, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	assert.False(t, ok)
}

func TestNextBadZoneOrTime(t *testing.T) {
	rule := baseRule()
	rule.Timezone = "Nowhere/Invalid"
	_, ok := Next(rule, time.Now())
	assert.False(t, ok)

	rule = baseRule()
	rule.TimeOfDay = "25:99"
	_, ok = Next(rule, time.Now())
	assert.False(t, ok)
}
