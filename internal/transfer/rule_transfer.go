package transfer

// RecurrenceConfig narrows a monthly cadence: either a plain calendar-day
// anchor or an "nth weekday of the month" pattern.
type RecurrenceConfig struct {
	Type      string `json:"type"`
	AnchorDay int    `json:"anchor_day,omitempty"`
	Nth       int    `json:"nth,omitempty"`
	Weekday   int    `json:"weekday,omitempty"`
}

type ContentVariation struct {
	Creativity int `json:"creativity"`
	Humor      int `json:"humor"`
	Length     int `json:"length"`
}

type RuleCreation struct {
	Name             string            `json:"name"`
	Platforms        []string          `json:"platforms"`
	IsActive         *bool             `json:"is_active"`
	Frequency        string            `json:"frequency"`
	TimeOfDay        string            `json:"time_of_day"`
	Timezone         string            `json:"timezone"`
	DaysOfWeek       []int             `json:"days_of_week"`
	RecurrenceConfig *RecurrenceConfig `json:"recurrence_config"`
	SkipDates        []string          `json:"skip_dates"`
	GenerationMode   string            `json:"generation_mode"`
	ContentSeed      string            `json:"content_seed"`
	Topic            string            `json:"topic"`
	Tone             string            `json:"tone"`
	ContentType      string            `json:"content_type"`
	ThemePreset      string            `json:"theme_preset"`
	ContentVariation *ContentVariation `json:"content_variation"`
	Autopost         bool              `json:"autopost"`
}
