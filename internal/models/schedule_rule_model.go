package models

import (
	"time"

	"github.com/lib/pq"
)

type ScheduleRule struct {
	ID             int64          `db:"id" json:"id"`
	UserID         int64          `db:"user_id" json:"user_id"`
	Name           string         `db:"name" json:"name"`
	Platforms      pq.StringArray `db:"platforms" json:"platforms"`
	IsActive       bool           `db:"is_active" json:"is_active"`
	Frequency      string         `db:"frequency" json:"frequency"`
	TimeOfDay      string         `db:"time_of_day" json:"time_of_day"` // "15:04" wall clock
	Timezone       string         `db:"timezone" json:"timezone"`
	DaysOfWeek     pq.Int64Array  `db:"days_of_week" json:"days_of_week"` // Sunday=0
	RecurrenceType string         `db:"recurrence_type" json:"recurrence_type"`
	AnchorDay      int            `db:"anchor_day" json:"anchor_day"`
	Nth            int            `db:"nth" json:"nth"`
	NthWeekday     int            `db:"nth_weekday" json:"nth_weekday"`
	SkipDates      pq.StringArray `db:"skip_dates" json:"skip_dates"` // "2006-01-02" in the rule zone
	GenerationMode string         `db:"generation_mode" json:"generation_mode"`
	ContentSeed    string         `db:"content_seed" json:"content_seed"`
	Topic          string         `db:"topic" json:"topic"`
	Tone           string         `db:"tone" json:"tone"`
	ContentType    string         `db:"content_type" json:"content_type"`
	ThemePreset    string         `db:"theme_preset" json:"theme_preset"`
	Creativity     int            `db:"creativity" json:"creativity"`
	Humor          int            `db:"humor" json:"humor"`
	Length         int            `db:"length" json:"length"`
	Autopost       bool           `db:"autopost" json:"autopost"`
	NextRunAt      time.Time      `db:"next_run_at" json:"next_run_at"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

const (
	RecurrenceDate       = "date"
	RecurrenceNthWeekday = "nth_weekday"
)

const (
	GenerationManual    = "manual"
	GenerationAutomatic = "automatic"
)

// SkipDateLayout is the calendar-date format used for skip_dates entries.
const SkipDateLayout = "2006-01-02"

// TimeOfDayLayout is the wall-clock format for a rule's posting time.
const TimeOfDayLayout = "15:04"
