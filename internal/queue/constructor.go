// Package queue holds the asynq task types and their handlers: rule firings
// and delayed one-off dispatches.
package queue

import (
	"context"
	"time"

	"github.com/unitasa/social-scheduler/internal/repository"
	"github.com/unitasa/social-scheduler/internal/service"
)

// PostDispatcher is the delivery entry point for delayed one-off tasks.
type PostDispatcher interface {
	Dispatch(ctx context.Context, postID int64) error
}

type Queue struct {
	rules      repository.ScheduleRuleRepository
	posts      repository.ScheduledPostRepository
	accounts   repository.SocialAccountRepository
	generation service.GenerationService
	dispatcher PostDispatcher
}

func NewQueue(
	rules repository.ScheduleRuleRepository,
	posts repository.ScheduledPostRepository,
	accounts repository.SocialAccountRepository,
	generation service.GenerationService,
	dispatcher PostDispatcher) *Queue {
	return &Queue{
		rules:      rules,
		posts:      posts,
		accounts:   accounts,
		generation: generation,
		dispatcher: dispatcher,
	}
}

const (
	TaskTypeRuleFire     = "rule:fire"
	TaskTypeDispatchPost = "post:dispatch"
)

// RuleFirePayload carries the slot the firing is for. The sweep advances
// next_run_at before enqueueing, so the slot travels with the task.
type RuleFirePayload struct {
	RuleID int64     `json:"rule_id"`
	FireAt time.Time `json:"fire_at"`
}

type DispatchPostPayload struct {
	PostID int64 `json:"post_id"`
}
