package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitasa/social-scheduler/internal/models"
	"github.com/unitasa/social-scheduler/internal/repository"
	"github.com/unitasa/social-scheduler/internal/transfer"
)

func validRuleRequest() *transfer.RuleCreation {
	return &transfer.RuleCreation{
		Name:           "weekday roundup",
		Platforms:      []string{models.PlatformTwitter},
		Frequency:      models.FrequencyWeekly,
		TimeOfDay:      "09:00",
		Timezone:       "UTC",
		DaysOfWeek:     []int{1, 3, 5},
		GenerationMode: models.GenerationAutomatic,
		Topic:          "release notes",
		Autopost:       true,
	}
}

func TestBuildRuleValid(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	rule, ferr := buildRule(7, validRuleRequest(), now, 0)
	require.Nil(t, ferr)
	assert.Equal(t, int64(7), rule.UserID)
	assert.True(t, rule.IsActive)
	assert.Equal(t, []int64{1, 3, 5}, []int64(rule.DaysOfWeek))

	// 2026-03-10 is a Tuesday; the first Mon/Wed/Fri slot is Wednesday the 11th.
	assert.Equal(t, time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC), rule.NextRunAt)
}

func TestBuildRuleValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*transfer.RuleCreation)
		field  string
	}{
		{"missing name", func(r *transfer.RuleCreation) { r.Name = "" }, "name"},
		{"no platforms", func(r *transfer.RuleCreation) { r.Platforms = nil }, "platforms"},
		{"unknown platform", func(r *transfer.RuleCreation) { r.Platforms = []string{"friendster"} }, "platforms"},
		{"bad frequency", func(r *transfer.RuleCreation) { r.Frequency = "fortnightly" }, "frequency"},
		{"weekly without days", func(r *transfer.RuleCreation) { r.DaysOfWeek = nil }, "days_of_week"},
		{"day out of range", func(r *transfer.RuleCreation) { r.DaysOfWeek = []int{7} }, "days_of_week"},
		{"bad time of day", func(r *transfer.RuleCreation) { r.TimeOfDay = "9am" }, "time_of_day"},
		{"missing timezone", func(r *transfer.RuleCreation) { r.Timezone = "" }, "timezone"},
		{"bad timezone", func(r *transfer.RuleCreation) { r.Timezone = "Mars/Olympus" }, "timezone"},
		{"bad skip date", func(r *transfer.RuleCreation) { r.SkipDates = []string{"25-12-2026"} }, "skip_dates"},
		{"automatic without topic", func(r *transfer.RuleCreation) {
			r.GenerationMode = models.GenerationAutomatic
			r.Topic = ""
		}, "topic"},
		{"manual without seed", func(r *transfer.RuleCreation) {
			r.GenerationMode = models.GenerationManual
			r.ContentSeed = ""
		}, "content_seed"},
		{"bad generation mode", func(r *transfer.RuleCreation) { r.GenerationMode = "psychic" }, "generation_mode"},
		{"variation out of range", func(r *transfer.RuleCreation) {
			r.ContentVariation = &transfer.ContentVariation{Creativity: 101, Humor: 50, Length: 50}
		}, "content_variation.creativity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRuleRequest()
			tt.mutate(req)

			_, ferr := buildRule(7, req, time.Now(), 0)
			require.NotNil(t, ferr)
			assert.Contains(t, ferr, tt.field)
		})
	}
}

func TestBuildRuleMonthlyNthValidation(t *testing.T) {
	req := validRuleRequest()
	req.Frequency = models.FrequencyMonthly
	req.RecurrenceConfig = &transfer.RecurrenceConfig{
		Type:    models.RecurrenceNthWeekday,
		Nth:     6,
		Weekday: 9,
	}

	_, ferr := buildRule(7, req, time.Now(), 0)
	require.NotNil(t, ferr)
	assert.Contains(t, ferr, "recurrence_config.nth")
	assert.Contains(t, ferr, "recurrence_config.weekday")
}

func TestBuildRuleMonthlyAnchorDefaultsToCreationDay(t *testing.T) {
	req := validRuleRequest()
	req.Frequency = models.FrequencyMonthly
	req.RecurrenceConfig = nil
	req.DaysOfWeek = nil

	now := time.Date(2026, 3, 17, 8, 0, 0, 0, time.UTC)
	rule, ferr := buildRule(7, req, now, 0)
	require.Nil(t, ferr)
	assert.Equal(t, 17, rule.AnchorDay)
	assert.Equal(t, models.RecurrenceDate, rule.RecurrenceType)
}

type fakeRuleRepo struct {
	repository.ScheduleRuleRepository
	rules   map[int64]*models.ScheduleRule
	updated *models.ScheduleRule
}

func (r *fakeRuleRepo) GetByID(ctx context.Context, id int64) (*models.ScheduleRule, error) {
	return r.rules[id], nil
}

func (r *fakeRuleRepo) Update(ctx context.Context, rule *models.ScheduleRule) error {
	r.updated = rule
	return nil
}

func TestUpdateKeepsMonthlyAnchor(t *testing.T) {
	req := validRuleRequest()
	req.Frequency = models.FrequencyMonthly
	req.RecurrenceConfig = nil
	req.DaysOfWeek = nil

	created := time.Date(2026, 3, 31, 8, 0, 0, 0, time.UTC)
	rule, ferr := buildRule(7, req, created, 0)
	require.Nil(t, ferr)
	require.Equal(t, 31, rule.AnchorDay)
	rule.ID = 42
	rule.CreatedAt = created

	repo := &fakeRuleRepo{rules: map[int64]*models.ScheduleRule{42: rule}}
	svc := NewRuleService(repo)

	// A rename-only edit on April 3 must not move a day-31 cadence to day 3.
	edit := validRuleRequest()
	edit.Name = "renamed"
	edit.Frequency = models.FrequencyMonthly
	edit.RecurrenceConfig = nil
	edit.DaysOfWeek = nil

	require.NoError(t, svc.Update(context.Background(), 7, 42, edit))
	require.NotNil(t, repo.updated)
	assert.Equal(t, 31, repo.updated.AnchorDay)
	assert.Equal(t, "renamed", repo.updated.Name)
}

func TestUpdateExplicitAnchorWins(t *testing.T) {
	req := validRuleRequest()
	req.Frequency = models.FrequencyMonthly
	req.RecurrenceConfig = nil
	req.DaysOfWeek = nil

	rule, ferr := buildRule(7, req, time.Date(2026, 3, 31, 8, 0, 0, 0, time.UTC), 0)
	require.Nil(t, ferr)
	rule.ID = 42

	repo := &fakeRuleRepo{rules: map[int64]*models.ScheduleRule{42: rule}}
	svc := NewRuleService(repo)

	edit := validRuleRequest()
	edit.Frequency = models.FrequencyMonthly
	edit.DaysOfWeek = nil
	edit.RecurrenceConfig = &transfer.RecurrenceConfig{Type: models.RecurrenceDate, AnchorDay: 15}

	require.NoError(t, svc.Update(context.Background(), 7, 42, edit))
	require.NotNil(t, repo.updated)
	assert.Equal(t, 15, repo.updated.AnchorDay)
}

func TestBuildRuleInactiveSkipsNextRun(t *testing.T) {
	req := validRuleRequest()
	inactive := false
	req.IsActive = &inactive

	rule, ferr := buildRule(7, req, time.Now(), 0)
	require.Nil(t, ferr)
	assert.False(t, rule.IsActive)
	assert.True(t, rule.NextRunAt.IsZero())
}
