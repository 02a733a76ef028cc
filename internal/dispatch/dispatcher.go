// Package dispatch delivers pending posts to their platforms. Delivery is
// lease protected and retried with capped exponential backoff; permanent
// platform rejections fail the post immediately.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/unitasa/social-scheduler/internal/models"
	"github.com/unitasa/social-scheduler/internal/repository"
	"github.com/unitasa/social-scheduler/internal/service"
)

const (
	// maxAttempts is the retry budget for transient delivery failures.
	maxAttempts = 3

	leaseTTL   = 2 * time.Minute
	maxBackoff = 15 * time.Minute
)

type Dispatcher struct {
	posts    repository.ScheduledPostRepository
	accounts repository.SocialAccountRepository
	registry *service.PublisherRegistry
	locker   Locker
}

func NewDispatcher(
	posts repository.ScheduledPostRepository,
	accounts repository.SocialAccountRepository,
	registry *service.PublisherRegistry,
	locker Locker) *Dispatcher {
	return &Dispatcher{
		posts:    posts,
		accounts: accounts,
		registry: registry,
		locker:   locker,
	}
}

// Tick sweeps due posts in (scheduled_at, id) order. Each post is dispatched
// on its own; one failure never blocks the rest of the sweep.
func (d *Dispatcher) Tick(ctx context.Context) {
	posts, err := d.posts.ListDue(ctx, time.Now())
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, post := range posts {
		if err := d.Dispatch(ctx, post.ID); err != nil {
			slog.Info("dispatch failed", "post_id", post.ID, "error", err.Error())
		}
	}
}

// Dispatch publishes one post. Both the sweep and the delayed queue task land
// here, so the lease and the status re-read are what keep delivery
// exactly-once: a post deleted or already claimed between listing and now is
// simply skipped.
func (d *Dispatcher) Dispatch(ctx context.Context, postID int64) error {
	leaseKey := fmt.Sprintf("dispatch:post:%d", postID)

	acquired, err := d.locker.Acquire(ctx, leaseKey, leaseTTL)
	if err != nil {
		return err
	}
	if !acquired {
		return nil
	}
	defer d.locker.Release(ctx, leaseKey)

	post, err := d.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil || post.Status != models.PostStatusPendingDispatch {
		return nil
	}
	if post.NextAttemptAt.After(time.Now()) {
		return nil
	}

	publisher, ok := d.registry.For(post.Platform)
	if !ok {
		return d.posts.MarkFailed(ctx, postID, models.FailureUnsupported, time.Now())
	}

	account, err := d.accounts.GetByID(ctx, post.AccountID)
	if err != nil {
		return err
	}
	if account == nil {
		return d.posts.MarkFailed(ctx, postID, models.FailureNoAccount, time.Now())
	}

	postURL, err := publisher.Publish(ctx, account, post)
	if err == nil {
		return d.posts.MarkPosted(ctx, postID, postURL, time.Now())
	}

	slog.Info("publish attempt failed", "post_id", postID, "platform", post.Platform, "error", err.Error())

	if service.IsPermanent(err) {
		return d.posts.MarkFailed(ctx, postID, err.Error(), time.Now())
	}

	attempts := post.Attempts + 1
	if attempts >= maxAttempts {
		return d.posts.MarkFailed(ctx, postID, models.FailureRetriesExceeded, time.Now())
	}

	return d.posts.Reschedule(ctx, postID, attempts, time.Now().Add(backoff(attempts)))
}

// backoff doubles per attempt, capped at maxBackoff.
func backoff(attempts int) time.Duration {
	delay := time.Minute << attempts
	if delay > maxBackoff {
		delay = maxBackoff
	}
	return delay
}
