package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/unitasa/social-scheduler/internal/queue"
	"github.com/unitasa/social-scheduler/internal/recurrence"
	"github.com/unitasa/social-scheduler/internal/repository"
)

// RuleFiringJob sweeps rules whose next_run_at has arrived and hands each
// firing to the queue. The cursor is advanced before the enqueue: a slot
// fires at most once even if the worker dies mid-firing.
type RuleFiringJob struct {
	rules   repository.ScheduleRuleRepository
	enqueue func(queue.RuleFirePayload) error
}

func NewRuleFiringJob(rules repository.ScheduleRuleRepository, client *asynq.Client) *RuleFiringJob {
	return &RuleFiringJob{
		rules: rules,
		enqueue: func(payload queue.RuleFirePayload) error {
			return queue.EnqueueRuleFire(client, payload)
		},
	}
}

func (c *RuleFiringJob) FireDueRules() {
	ctx := context.Background()

	now := time.Now()
	due, err := c.rules.ListDue(ctx, now)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, rule := range due {
		fireAt := rule.NextRunAt

		// A rule that was down for several slots fires once, for its most
		// recent slot, then resumes its cadence from now.
		next, ok := recurrence.Next(rule, now)
		if err := c.rules.SetNextRunAt(ctx, rule.ID, next, ok); err != nil {
			slog.Info("failed to advance rule cursor", "rule_id", rule.ID, "error", err.Error())
			continue
		}

		payload := queue.RuleFirePayload{RuleID: rule.ID, FireAt: fireAt}
		if err := c.enqueue(payload); err != nil {
			slog.Info("failed to enqueue rule firing", "rule_id", rule.ID, "error", err.Error())
		}
	}
}
