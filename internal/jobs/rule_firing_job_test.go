package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitasa/social-scheduler/internal/models"
	"github.com/unitasa/social-scheduler/internal/queue"
	"github.com/unitasa/social-scheduler/internal/repository"
)

type setNextRunCall struct {
	ruleID    int64
	nextRunAt time.Time
	active    bool
}

type fakeRuleRepo struct {
	repository.ScheduleRuleRepository
	due    []*models.ScheduleRule
	setErr error
	calls  []setNextRunCall
	events *[]string
}

func (r *fakeRuleRepo) ListDue(ctx context.Context, now time.Time) ([]*models.ScheduleRule, error) {
	return r.due, nil
}

func (r *fakeRuleRepo) SetNextRunAt(ctx context.Context, ruleID int64, nextRunAt time.Time, active bool) error {
	if r.setErr != nil {
		return r.setErr
	}
	r.calls = append(r.calls, setNextRunCall{ruleID: ruleID, nextRunAt: nextRunAt, active: active})
	*r.events = append(*r.events, "advance")
	return nil
}

func dailyRule(id int64, nextRunAt time.Time) *models.ScheduleRule {
	return &models.ScheduleRule{
		ID:             id,
		UserID:         1,
		Name:           "daily",
		Platforms:      []string{models.PlatformTwitter},
		IsActive:       true,
		Frequency:      models.FrequencyDaily,
		TimeOfDay:      "09:00",
		Timezone:       "UTC",
		GenerationMode: models.GenerationManual,
		ContentSeed:    "hello",
		NextRunAt:      nextRunAt,
	}
}

func newTestFiringJob(repo *fakeRuleRepo, events *[]string) (*RuleFiringJob, *[]queue.RuleFirePayload) {
	repo.events = events
	var enqueued []queue.RuleFirePayload
	j := &RuleFiringJob{
		rules: repo,
		enqueue: func(payload queue.RuleFirePayload) error {
			enqueued = append(enqueued, payload)
			*events = append(*events, "enqueue")
			return nil
		},
	}
	return j, &enqueued
}

func TestFireDueRulesAdvancesCursorBeforeEnqueue(t *testing.T) {
	slot := time.Now().UTC().Add(-time.Hour).Truncate(time.Minute)
	repo := &fakeRuleRepo{due: []*models.ScheduleRule{dailyRule(5, slot)}}

	var events []string
	j, enqueued := newTestFiringJob(repo, &events)

	j.FireDueRules()

	require.Len(t, repo.calls, 1)
	require.Len(t, *enqueued, 1)

	// The cursor moves before the firing leaves the process; a crash after
	// the advance loses at most one firing, never duplicates one.
	assert.Equal(t, []string{"advance", "enqueue"}, events)

	call := repo.calls[0]
	assert.Equal(t, int64(5), call.ruleID)
	assert.True(t, call.active)
	assert.True(t, call.nextRunAt.After(time.Now()), "cursor must land on a future slot")

	payload := (*enqueued)[0]
	assert.Equal(t, int64(5), payload.RuleID)
	assert.Equal(t, slot, payload.FireAt, "the firing carries the stored slot, not the new cursor")
}

func TestFireDueRulesDeactivatesExhaustedCadence(t *testing.T) {
	rule := dailyRule(5, time.Now().UTC().Add(-time.Hour))
	rule.Frequency = models.FrequencyWeekly // no days: cadence has no next slot

	repo := &fakeRuleRepo{due: []*models.ScheduleRule{rule}}
	var events []string
	j, enqueued := newTestFiringJob(repo, &events)

	j.FireDueRules()

	require.Len(t, repo.calls, 1)
	assert.False(t, repo.calls[0].active)
	assert.True(t, repo.calls[0].nextRunAt.IsZero())

	// The stored slot was valid when cached; it still fires once.
	assert.Len(t, *enqueued, 1)
}

func TestFireDueRulesSkipsEnqueueWhenCursorStuck(t *testing.T) {
	repo := &fakeRuleRepo{
		due:    []*models.ScheduleRule{dailyRule(5, time.Now().UTC().Add(-time.Hour))},
		setErr: errors.New("connection reset"),
	}
	var events []string
	j, enqueued := newTestFiringJob(repo, &events)

	j.FireDueRules()

	assert.Empty(t, *enqueued, "a firing whose cursor did not move must not be enqueued")
	assert.Empty(t, events)
}
