package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitasa/social-scheduler/internal/models"
	"github.com/unitasa/social-scheduler/internal/repository"
	"github.com/unitasa/social-scheduler/internal/transfer"
)

type fakeRuleRepo struct {
	repository.ScheduleRuleRepository
	rules map[int64]*models.ScheduleRule
}

func (r *fakeRuleRepo) GetByID(ctx context.Context, id int64) (*models.ScheduleRule, error) {
	return r.rules[id], nil
}

type fakePostRepo struct {
	repository.ScheduledPostRepository
	created []*models.ScheduledPost
}

func (r *fakePostRepo) Create(ctx context.Context, tx *sql.Tx, post *models.ScheduledPost) (int64, error) {
	r.created = append(r.created, post)
	return int64(len(r.created)), nil
}

type fakeAccountRepo struct {
	repository.SocialAccountRepository
	byPlatform map[string]*models.SocialAccount
}

func (r *fakeAccountRepo) GetByPlatform(ctx context.Context, userID int64, platform string) (*models.SocialAccount, bool, error) {
	acc, ok := r.byPlatform[platform]
	return acc, ok, nil
}

type fakeGeneration struct {
	content string
	err     error
}

func (g *fakeGeneration) Generate(ctx context.Context, req *transfer.GenerationRequest) (string, error) {
	return g.content, g.err
}

func firingTask(t *testing.T, ruleID int64, fireAt time.Time) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(RuleFirePayload{RuleID: ruleID, FireAt: fireAt})
	require.NoError(t, err)
	return asynq.NewTask(TaskTypeRuleFire, payload)
}

func manualRule() *models.ScheduleRule {
	return &models.ScheduleRule{
		ID:             1,
		UserID:         7,
		Platforms:      []string{models.PlatformTwitter},
		IsActive:       true,
		GenerationMode: models.GenerationManual,
		ContentSeed:    "weekly roundup",
		Autopost:       true,
	}
}

func newTestQueue(rule *models.ScheduleRule, accounts map[string]*models.SocialAccount, gen *fakeGeneration) (*Queue, *fakePostRepo) {
	posts := &fakePostRepo{}
	q := NewQueue(
		&fakeRuleRepo{rules: map[int64]*models.ScheduleRule{rule.ID: rule}},
		posts,
		&fakeAccountRepo{byPlatform: accounts},
		gen,
		nil,
	)
	return q, posts
}

func TestHandleRuleFireManualSeed(t *testing.T) {
	rule := manualRule()
	accounts := map[string]*models.SocialAccount{
		models.PlatformTwitter: {ID: 10, UserID: 7, Platform: models.PlatformTwitter},
	}
	q, posts := newTestQueue(rule, accounts, &fakeGeneration{})

	fireAt := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	require.NoError(t, q.HandleRuleFireTask(context.Background(), firingTask(t, 1, fireAt)))

	require.Len(t, posts.created, 1)
	post := posts.created[0]
	assert.Equal(t, "weekly roundup", post.Content)
	assert.Equal(t, fireAt, post.ScheduledAt)
	assert.Equal(t, models.PostStatusPendingDispatch, post.Status)
	assert.Equal(t, int64(1), post.RuleID.Int64)
}

func TestHandleRuleFireApprovalGate(t *testing.T) {
	rule := manualRule()
	accounts := map[string]*models.SocialAccount{
		models.PlatformTwitter: {ID: 10, UserID: 7, Platform: models.PlatformTwitter, ApprovalRequired: true},
	}
	q, posts := newTestQueue(rule, accounts, &fakeGeneration{})

	require.NoError(t, q.HandleRuleFireTask(context.Background(), firingTask(t, 1, time.Now())))

	require.Len(t, posts.created, 1)
	assert.Equal(t, models.PostStatusPendingApproval, posts.created[0].Status)
}

func TestHandleRuleFireWithoutAutopostParksDraft(t *testing.T) {
	rule := manualRule()
	rule.Autopost = false
	accounts := map[string]*models.SocialAccount{
		models.PlatformTwitter: {ID: 10, UserID: 7, Platform: models.PlatformTwitter},
	}
	q, posts := newTestQueue(rule, accounts, &fakeGeneration{})

	require.NoError(t, q.HandleRuleFireTask(context.Background(), firingTask(t, 1, time.Now())))

	require.Len(t, posts.created, 1)
	assert.Equal(t, models.PostStatusDraft, posts.created[0].Status)
}

func TestHandleRuleFireMissingAccount(t *testing.T) {
	rule := manualRule()
	q, posts := newTestQueue(rule, map[string]*models.SocialAccount{}, &fakeGeneration{})

	require.NoError(t, q.HandleRuleFireTask(context.Background(), firingTask(t, 1, time.Now())))

	require.Len(t, posts.created, 1)
	post := posts.created[0]
	assert.Equal(t, models.PostStatusFailed, post.Status)
	assert.Equal(t, models.FailureNoAccount, post.FailureReason)
	assert.True(t, post.FailedAt.Valid)
}

func TestHandleRuleFireGenerationFailure(t *testing.T) {
	rule := manualRule()
	rule.GenerationMode = models.GenerationAutomatic
	rule.Topic = "release notes"
	accounts := map[string]*models.SocialAccount{
		models.PlatformTwitter: {ID: 10, UserID: 7, Platform: models.PlatformTwitter},
	}
	q, posts := newTestQueue(rule, accounts, &fakeGeneration{err: errors.New("upstream down")})

	require.NoError(t, q.HandleRuleFireTask(context.Background(), firingTask(t, 1, time.Now())))

	require.Len(t, posts.created, 1)
	post := posts.created[0]
	assert.Equal(t, models.PostStatusFailed, post.Status)
	assert.Equal(t, models.FailureGeneration, post.FailureReason)
}

func TestHandleRuleFireContentTooLong(t *testing.T) {
	rule := manualRule()
	rule.ContentSeed = strings.Repeat("a", 300)
	accounts := map[string]*models.SocialAccount{
		models.PlatformTwitter: {ID: 10, UserID: 7, Platform: models.PlatformTwitter},
	}
	q, posts := newTestQueue(rule, accounts, &fakeGeneration{})

	require.NoError(t, q.HandleRuleFireTask(context.Background(), firingTask(t, 1, time.Now())))

	require.Len(t, posts.created, 1)
	assert.Equal(t, models.FailureContentTooLong, posts.created[0].FailureReason)
}

func TestHandleRuleFireVanishedRule(t *testing.T) {
	rule := manualRule()
	q, posts := newTestQueue(rule, map[string]*models.SocialAccount{}, &fakeGeneration{})

	require.NoError(t, q.HandleRuleFireTask(context.Background(), firingTask(t, 99, time.Now())))
	assert.Empty(t, posts.created)
}
