package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/unitasa/social-scheduler/internal/models"
	"github.com/unitasa/social-scheduler/internal/recurrence"
	"github.com/unitasa/social-scheduler/internal/repository"
	"github.com/unitasa/social-scheduler/internal/transfer"
)

var ErrRuleNotFound = errors.New("schedule rule not found")

type RuleService interface {
	Create(ctx context.Context, userID int64, req *transfer.RuleCreation) (int64, error)
	Get(ctx context.Context, userID, ruleID int64) (*models.ScheduleRule, error)
	List(ctx context.Context, userID int64) ([]*models.ScheduleRule, error)
	Update(ctx context.Context, userID, ruleID int64, req *transfer.RuleCreation) error
	Delete(ctx context.Context, userID, ruleID int64) error
}

type ruleService struct {
	rules repository.ScheduleRuleRepository
}

func NewRuleService(rules repository.ScheduleRuleRepository) RuleService {
	return &ruleService{rules: rules}
}

func (s *ruleService) Create(ctx context.Context, userID int64, req *transfer.RuleCreation) (int64, error) {
	rule, ferr := buildRule(userID, req, time.Now(), 0)
	if ferr != nil {
		return 0, ferr
	}

	id, err := s.rules.Create(ctx, rule)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (s *ruleService) Get(ctx context.Context, userID, ruleID int64) (*models.ScheduleRule, error) {
	rule, err := s.rules.GetByID(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if rule == nil || rule.UserID != userID {
		return nil, ErrRuleNotFound
	}
	return rule, nil
}

func (s *ruleService) List(ctx context.Context, userID int64) ([]*models.ScheduleRule, error) {
	return s.rules.ListByUserID(ctx, userID)
}

// Update replaces the whole rule definition and recomputes next_run_at from
// the new cadence, so an edit never fires a stale slot.
func (s *ruleService) Update(ctx context.Context, userID, ruleID int64, req *transfer.RuleCreation) error {
	existing, err := s.Get(ctx, userID, ruleID)
	if err != nil {
		return err
	}

	rule, ferr := buildRule(userID, req, time.Now(), existing.AnchorDay)
	if ferr != nil {
		return ferr
	}
	rule.ID = existing.ID
	rule.CreatedAt = existing.CreatedAt

	if err := s.rules.Update(ctx, rule); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (s *ruleService) Delete(ctx context.Context, userID, ruleID int64) error {
	owned, err := s.rules.CheckByUserID(ctx, ruleID, userID)
	if err != nil {
		return err
	}
	if !owned {
		return ErrRuleNotFound
	}

	removed, err := s.rules.Remove(ctx, ruleID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrRuleNotFound
	}
	return nil
}

// buildRule validates the request and assembles a persistable rule, including
// its initial next_run_at. Invalid input comes back as transfer.FieldErrors,
// never silently corrected. anchorFallback carries the rule's existing anchor
// day through edits; zero means there is none and the anchor derives from now.
func buildRule(userID int64, req *transfer.RuleCreation, now time.Time, anchorFallback int) (*models.ScheduleRule, transfer.FieldErrors) {
	errs := transfer.FieldErrors{}

	if req.Name == "" {
		errs["name"] = "name is required"
	}

	if len(req.Platforms) == 0 {
		errs["platforms"] = "at least one platform is required"
	} else {
		for _, p := range req.Platforms {
			if !models.IsValidPlatform(p) {
				errs["platforms"] = fmt.Sprintf("unknown platform %q", p)
				break
			}
		}
	}

	switch req.Frequency {
	case models.FrequencyDaily:
	case models.FrequencyWeekly:
		if len(req.DaysOfWeek) == 0 {
			errs["days_of_week"] = "weekly rules need at least one day"
		}
		for _, d := range req.DaysOfWeek {
			if d < 0 || d > 6 {
				errs["days_of_week"] = "days must be 0 (Sunday) through 6 (Saturday)"
				break
			}
		}
	case models.FrequencyMonthly:
	default:
		errs["frequency"] = "frequency must be daily, weekly or monthly"
	}

	if _, err := time.Parse(models.TimeOfDayLayout, req.TimeOfDay); err != nil {
		errs["time_of_day"] = "time_of_day must be HH:MM"
	}

	loc := time.UTC
	if req.Timezone == "" {
		errs["timezone"] = "timezone is required"
	} else if l, err := time.LoadLocation(req.Timezone); err != nil {
		errs["timezone"] = "unknown IANA timezone"
	} else {
		loc = l
	}

	recurrenceType := models.RecurrenceDate
	anchorDay := 0
	nth, nthWeekday := 0, 0
	if req.Frequency == models.FrequencyMonthly {
		if rc := req.RecurrenceConfig; rc != nil && rc.Type == models.RecurrenceNthWeekday {
			recurrenceType = models.RecurrenceNthWeekday
			nth, nthWeekday = rc.Nth, rc.Weekday
			if nth < 1 || nth > 5 {
				errs["recurrence_config.nth"] = "nth must be between 1 and 5"
			}
			if nthWeekday < 0 || nthWeekday > 6 {
				errs["recurrence_config.weekday"] = "weekday must be 0 through 6"
			}
		} else {
			if rc != nil && rc.Type != "" && rc.Type != models.RecurrenceDate {
				errs["recurrence_config.type"] = "type must be date or nth_weekday"
			}
			if rc != nil && rc.AnchorDay != 0 {
				anchorDay = rc.AnchorDay
			} else if anchorFallback != 0 {
				// An edit without an explicit anchor keeps the anchor the
				// rule already has; only creation derives it from today.
				anchorDay = anchorFallback
			} else {
				// Default anchor is the day of month the rule was created on.
				anchorDay = now.In(loc).Day()
			}
			if anchorDay < 1 || anchorDay > 31 {
				errs["recurrence_config.anchor_day"] = "anchor_day must be between 1 and 31"
			}
		}
	}

	for _, d := range req.SkipDates {
		if _, err := time.Parse(models.SkipDateLayout, d); err != nil {
			errs["skip_dates"] = fmt.Sprintf("%q is not a YYYY-MM-DD date", d)
			break
		}
	}

	switch req.GenerationMode {
	case models.GenerationManual:
		if req.ContentSeed == "" {
			errs["content_seed"] = "manual rules need content_seed"
		}
	case models.GenerationAutomatic:
		if req.Topic == "" {
			errs["topic"] = "automatic rules need a topic"
		}
	default:
		errs["generation_mode"] = "generation_mode must be manual or automatic"
	}

	creativity, humor, length := 50, 0, 50
	if v := req.ContentVariation; v != nil {
		creativity, humor, length = v.Creativity, v.Humor, v.Length
		for field, val := range map[string]int{"creativity": creativity, "humor": humor, "length": length} {
			if val < 0 || val > 100 {
				errs["content_variation."+field] = "must be between 0 and 100"
			}
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	days := make(pq.Int64Array, len(req.DaysOfWeek))
	for i, d := range req.DaysOfWeek {
		days[i] = int64(d)
	}

	rule := &models.ScheduleRule{
		UserID:         userID,
		Name:           req.Name,
		Platforms:      pq.StringArray(req.Platforms),
		IsActive:       active,
		Frequency:      req.Frequency,
		TimeOfDay:      req.TimeOfDay,
		Timezone:       req.Timezone,
		DaysOfWeek:     days,
		RecurrenceType: recurrenceType,
		AnchorDay:      anchorDay,
		Nth:            nth,
		NthWeekday:     nthWeekday,
		SkipDates:      pq.StringArray(req.SkipDates),
		GenerationMode: req.GenerationMode,
		ContentSeed:    req.ContentSeed,
		Topic:          req.Topic,
		Tone:           req.Tone,
		ContentType:    req.ContentType,
		ThemePreset:    req.ThemePreset,
		Creativity:     creativity,
		Humor:          humor,
		Length:         length,
		Autopost:       req.Autopost,
	}

	if next, ok := recurrence.Next(rule, now); ok {
		rule.NextRunAt = next
	} else if active {
		return nil, transfer.FieldErrors{"skip_dates": "rule can never fire with this cadence and skip list"}
	}

	return rule, nil
}
