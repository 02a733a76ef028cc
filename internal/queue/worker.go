package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/unitasa/social-scheduler/internal/lifecycle"
	"github.com/unitasa/social-scheduler/internal/models"
	"github.com/unitasa/social-scheduler/internal/transfer"
)

// HandleRuleFireTask materializes one firing of one rule. The cursor was
// already advanced by the sweep, so per-platform failures are recorded as
// failed posts and the handler returns nil; asynq must not re-fire the slot.
func (q *Queue) HandleRuleFireTask(ctx context.Context, task *asynq.Task) error {
	var payload RuleFirePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	rule, err := q.rules.GetByID(ctx, payload.RuleID)
	if err != nil {
		return err
	}
	if rule == nil {
		slog.Info("rule vanished before firing", "rule_id", payload.RuleID)
		return nil
	}

	for _, platform := range rule.Platforms {
		q.fireForPlatform(ctx, rule, platform, payload.FireAt)
	}

	return nil
}

func (q *Queue) fireForPlatform(ctx context.Context, rule *models.ScheduleRule, platform string, fireAt time.Time) {
	account, found, err := q.accounts.GetByPlatform(ctx, rule.UserID, platform)
	if err != nil {
		slog.Info(err.Error())
		return
	}
	if !found {
		q.recordFailedFiring(ctx, rule, platform, 0, "", models.FailureNoAccount, fireAt)
		return
	}

	content, failure := q.resolveContent(ctx, rule, platform)
	if failure != "" {
		q.recordFailedFiring(ctx, rule, platform, account.ID, content, failure, fireAt)
		return
	}

	post := &models.ScheduledPost{
		UserID:      rule.UserID,
		RuleID:      sql.NullInt64{Int64: rule.ID, Valid: true},
		AccountID:   account.ID,
		Platform:    platform,
		Content:     content,
		ScheduledAt: fireAt,
		Status:      lifecycle.Route(account.ApprovalRequired, rule.Autopost),
	}

	if _, err := q.posts.Create(ctx, nil, post); err != nil {
		slog.Info("failed to create post for firing", "rule_id", rule.ID, "platform", platform, "error", err.Error())
	}
}

// resolveContent returns the post body, or a failure reason when the firing
// cannot produce one.
func (q *Queue) resolveContent(ctx context.Context, rule *models.ScheduleRule, platform string) (string, string) {
	var content string

	switch rule.GenerationMode {
	case models.GenerationManual:
		content = rule.ContentSeed
	case models.GenerationAutomatic:
		generated, err := q.generation.Generate(ctx, &transfer.GenerationRequest{
			Platform:    platform,
			ContentType: rule.ContentType,
			Tone:        rule.Tone,
			Topic:       rule.Topic,
			ThemePreset: rule.ThemePreset,
			Variation: &transfer.ContentVariation{
				Creativity: rule.Creativity,
				Humor:      rule.Humor,
				Length:     rule.Length,
			},
		})
		if err != nil {
			slog.Info(err.Error())
			return "", models.FailureGeneration
		}
		content = generated
	default:
		return "", models.FailureGeneration
	}

	if !models.WithinCharacterLimit(platform, content) {
		return content, models.FailureContentTooLong
	}
	return content, ""
}

// recordFailedFiring writes the failure into history so the user sees why
// the slot produced nothing.
func (q *Queue) recordFailedFiring(ctx context.Context, rule *models.ScheduleRule, platform string, accountID int64, content, reason string, fireAt time.Time) {
	now := time.Now()
	post := &models.ScheduledPost{
		UserID:        rule.UserID,
		RuleID:        sql.NullInt64{Int64: rule.ID, Valid: true},
		AccountID:     accountID,
		Platform:      platform,
		Content:       content,
		ScheduledAt:   fireAt,
		Status:        models.PostStatusFailed,
		FailureReason: reason,
		FailedAt:      sql.NullTime{Time: now, Valid: true},
	}

	if _, err := q.posts.Create(ctx, nil, post); err != nil {
		slog.Info("failed to record failed firing", "rule_id", rule.ID, "platform", platform, "error", err.Error())
	}
}

// HandleDispatchPostTask delivers a one-off post at its slot. The dispatcher
// re-checks status under the lease, so a task for an already handled or
// deleted post is a no-op.
func (q *Queue) HandleDispatchPostTask(ctx context.Context, task *asynq.Task) error {
	var payload DispatchPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	return q.dispatcher.Dispatch(ctx, payload.PostID)
}
