// Package recurrence computes rule firing times. Evaluation is a pure
// function of the rule and a reference instant; nothing in here touches
// storage or the clock.
package recurrence

import (
	"time"

	"github.com/unitasa/social-scheduler/internal/models"
)

// Next returns the first instant strictly after `after` at which the rule is
// due, in UTC. The second return value is false when the rule is inactive or
// its cadence can never produce an occurrence (bad zone, bad time of day,
// weekly rule without days).
func Next(r *models.ScheduleRule, after time.Time) (time.Time, bool) {
	if r == nil || !r.IsActive {
		return time.Time{}, false
	}

	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.Time{}, false
	}

	tod, err := time.Parse(models.TimeOfDayLayout, r.TimeOfDay)
	if err != nil {
		return time.Time{}, false
	}
	hour, min := tod.Hour(), tod.Minute()

	skip := make(map[string]struct{}, len(r.SkipDates))
	for _, d := range r.SkipDates {
		skip[d] = struct{}{}
	}

	// Each skipped candidate consumes a distinct entry of skip_dates, so
	// len+1 rounds are always enough to either land or give up.
	cursor := after
	for i := 0; i <= len(r.SkipDates); i++ {
		candidate, ok := nextOccurrence(r, cursor.In(loc), hour, min, loc)
		if !ok {
			return time.Time{}, false
		}

		if _, skipped := skip[candidate.Format(models.SkipDateLayout)]; !skipped {
			return candidate.UTC(), true
		}

		// Resume the same cadence search from the end of the skipped day so
		// the slot is moved, not lost.
		y, m, d := candidate.Date()
		cursor = time.Date(y, m, d+1, 0, 0, 0, 0, loc).Add(-time.Nanosecond)
	}

	return time.Time{}, false
}

// nextOccurrence finds the first cadence occurrence strictly after cursor,
// ignoring skip dates. cursor and the result are in the rule's zone.
func nextOccurrence(r *models.ScheduleRule, cursor time.Time, hour, min int, loc *time.Location) (time.Time, bool) {
	y, m, d := cursor.Date()

	switch r.Frequency {
	case models.FrequencyDaily:
		t := time.Date(y, m, d, hour, min, 0, 0, loc)
		if t.After(cursor) {
			return t, true
		}
		return time.Date(y, m, d+1, hour, min, 0, 0, loc), true

	case models.FrequencyWeekly:
		if len(r.DaysOfWeek) == 0 {
			return time.Time{}, false
		}
		days := make(map[time.Weekday]struct{}, len(r.DaysOfWeek))
		for _, dow := range r.DaysOfWeek {
			days[time.Weekday(dow)] = struct{}{}
		}
		for i := 0; i <= 7; i++ {
			t := time.Date(y, m, d+i, hour, min, 0, 0, loc)
			if _, ok := days[t.Weekday()]; ok && t.After(cursor) {
				return t, true
			}
		}
		return time.Time{}, false

	case models.FrequencyMonthly:
		if r.RecurrenceType == models.RecurrenceNthWeekday {
			return nextNthWeekday(cursor, r.Nth, time.Weekday(r.NthWeekday), hour, min, loc)
		}
		return nextAnchorDay(cursor, r.AnchorDay, hour, min, loc)
	}

	return time.Time{}, false
}

// nextAnchorDay finds the next month whose anchor-day occurrence lies after
// cursor. Months shorter than the anchor fall back to their last day.
func nextAnchorDay(cursor time.Time, anchor, hour, min int, loc *time.Location) (time.Time, bool) {
	if anchor < 1 || anchor > 31 {
		return time.Time{}, false
	}
	y, m, _ := cursor.Date()
	for i := 0; i < 13; i++ {
		month := m + time.Month(i)
		day := anchor
		if last := daysInMonth(y, month, loc); day > last {
			day = last
		}
		t := time.Date(y, month, day, hour, min, 0, 0, loc)
		if t.After(cursor) {
			return t, true
		}
	}
	return time.Time{}, false
}

// nextNthWeekday finds the next month that contains an nth occurrence of the
// weekday after cursor. Months without one (a missing 5th Friday, say) are
// skipped entirely.
func nextNthWeekday(cursor time.Time, nth int, weekday time.Weekday, hour, min int, loc *time.Location) (time.Time, bool) {
	if nth < 1 || nth > 5 {
		return time.Time{}, false
	}
	y, m, _ := cursor.Date()
	// Up to 14 months covers the worst 5th-weekday gap with headroom.
	for i := 0; i < 14; i++ {
		month := m + time.Month(i)
		first := time.Date(y, month, 1, hour, min, 0, 0, loc)
		offset := (int(weekday) - int(first.Weekday()) + 7) % 7
		day := 1 + offset + (nth-1)*7
		if day > daysInMonth(y, month, loc) {
			continue
		}
		t := time.Date(y, month, day, hour, min, 0, 0, loc)
		if t.After(cursor) {
			return t, true
		}
	}
	return time.Time{}, false
}

func daysInMonth(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
