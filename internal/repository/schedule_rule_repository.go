package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/unitasa/social-scheduler/internal/models"
)

type ScheduleRuleRepository interface {
	Create(ctx context.Context, rule *models.ScheduleRule) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.ScheduleRule, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.ScheduleRule, error)
	ListDue(ctx context.Context, now time.Time) ([]*models.ScheduleRule, error)
	Update(ctx context.Context, rule *models.ScheduleRule) error
	SetNextRunAt(ctx context.Context, ruleID int64, nextRunAt time.Time, active bool) error
	CheckByUserID(ctx context.Context, ruleID, userID int64) (bool, error)
	Remove(ctx context.Context, id int64) (bool, error)
}

type scheduleRuleRepository struct {
	db *sql.DB
}

func NewScheduleRuleRepository(db *sql.DB) ScheduleRuleRepository {
	return &scheduleRuleRepository{db: db}
}

const scheduleRuleColumns = `id, user_id, name, platforms, is_active, frequency, time_of_day, timezone,
	days_of_week, recurrence_type, anchor_day, nth, nth_weekday, skip_dates,
	generation_mode, content_seed, topic, tone, content_type, theme_preset,
	creativity, humor, length, autopost, next_run_at, created_at, updated_at`

func scanScheduleRule(row interface{ Scan(...any) error }) (*models.ScheduleRule, error) {
	var rule models.ScheduleRule
	err := row.Scan(
		&rule.ID,
		&rule.UserID,
		&rule.Name,
		&rule.Platforms,
		&rule.IsActive,
		&rule.Frequency,
		&rule.TimeOfDay,
		&rule.Timezone,
		&rule.DaysOfWeek,
		&rule.RecurrenceType,
		&rule.AnchorDay,
		&rule.Nth,
		&rule.NthWeekday,
		&rule.SkipDates,
		&rule.GenerationMode,
		&rule.ContentSeed,
		&rule.Topic,
		&rule.Tone,
		&rule.ContentType,
		&rule.ThemePreset,
		&rule.Creativity,
		&rule.Humor,
		&rule.Length,
		&rule.Autopost,
		&rule.NextRunAt,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *scheduleRuleRepository) Create(ctx context.Context, rule *models.ScheduleRule) (int64, error) {
	query := `
		INSERT INTO schedule_rules (
			user_id, name, platforms, is_active, frequency, time_of_day, timezone,
			days_of_week, recurrence_type, anchor_day, nth, nth_weekday, skip_dates,
			generation_mode, content_seed, topic, tone, content_type, theme_preset,
			creativity, humor, length, autopost, next_run_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		rule.UserID,
		rule.Name,
		pq.Array([]string(rule.Platforms)),
		rule.IsActive,
		rule.Frequency,
		rule.TimeOfDay,
		rule.Timezone,
		pq.Array([]int64(rule.DaysOfWeek)),
		rule.RecurrenceType,
		rule.AnchorDay,
		rule.Nth,
		rule.NthWeekday,
		pq.Array([]string(rule.SkipDates)),
		rule.GenerationMode,
		rule.ContentSeed,
		rule.Topic,
		rule.Tone,
		rule.ContentType,
		rule.ThemePreset,
		rule.Creativity,
		rule.Humor,
		rule.Length,
		rule.Autopost,
		rule.NextRunAt,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *scheduleRuleRepository) GetByID(ctx context.Context, id int64) (*models.ScheduleRule, error) {
	query := `SELECT ` + scheduleRuleColumns + ` FROM schedule_rules WHERE id = $1`

	rule, err := scanScheduleRule(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return rule, nil
}

func (r *scheduleRuleRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.ScheduleRule, error) {
	query := `SELECT ` + scheduleRuleColumns + ` FROM schedule_rules WHERE user_id = $1 ORDER BY id`
	return r.list(ctx, query, userID)
}

// ListDue returns active rules whose cached next_run_at has arrived.
func (r *scheduleRuleRepository) ListDue(ctx context.Context, now time.Time) ([]*models.ScheduleRule, error) {
	query := `SELECT ` + scheduleRuleColumns + `
		FROM schedule_rules
		WHERE is_active = TRUE AND next_run_at <= $1
		ORDER BY next_run_at, id`
	return r.list(ctx, query, now)
}

func (r *scheduleRuleRepository) list(ctx context.Context, query string, args ...any) ([]*models.ScheduleRule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var rules []*models.ScheduleRule
	for rows.Next() {
		rule, err := scanScheduleRule(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func (r *scheduleRuleRepository) Update(ctx context.Context, rule *models.ScheduleRule) error {
	query := `
		UPDATE schedule_rules
		SET name = $1,
			platforms = $2,
			is_active = $3,
			frequency = $4,
			time_of_day = $5,
			timezone = $6,
			days_of_week = $7,
			recurrence_type = $8,
			anchor_day = $9,
			nth = $10,
			nth_weekday = $11,
			skip_dates = $12,
			generation_mode = $13,
			content_seed = $14,
			topic = $15,
			tone = $16,
			content_type = $17,
			theme_preset = $18,
			creativity = $19,
			humor = $20,
			length = $21,
			autopost = $22,
			next_run_at = $23,
			updated_at = $24
		WHERE id = $25
	`
	_, err := r.db.ExecContext(ctx, query,
		rule.Name,
		pq.Array([]string(rule.Platforms)),
		rule.IsActive,
		rule.Frequency,
		rule.TimeOfDay,
		rule.Timezone,
		pq.Array([]int64(rule.DaysOfWeek)),
		rule.RecurrenceType,
		rule.AnchorDay,
		rule.Nth,
		rule.NthWeekday,
		pq.Array([]string(rule.SkipDates)),
		rule.GenerationMode,
		rule.ContentSeed,
		rule.Topic,
		rule.Tone,
		rule.ContentType,
		rule.ThemePreset,
		rule.Creativity,
		rule.Humor,
		rule.Length,
		rule.Autopost,
		rule.NextRunAt,
		time.Now(),
		rule.ID,
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// SetNextRunAt is the single write path used after a firing. active=false
// parks rules whose cadence produced no further occurrence.
func (r *scheduleRuleRepository) SetNextRunAt(ctx context.Context, ruleID int64, nextRunAt time.Time, active bool) error {
	query := `
		UPDATE schedule_rules
		SET next_run_at = $1,
			is_active = $2,
			updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, nextRunAt, active, time.Now(), ruleID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *scheduleRuleRepository) CheckByUserID(ctx context.Context, ruleID, userID int64) (bool, error) {
	query := "SELECT 1 FROM schedule_rules WHERE id = $1 AND user_id = $2"

	var result int
	err := r.db.QueryRowContext(ctx, query, ruleID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *scheduleRuleRepository) Remove(ctx context.Context, id int64) (bool, error) {
	query := `DELETE FROM schedule_rules WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected > 0, nil
}
