package dispatch

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitasa/social-scheduler/internal/models"
	"github.com/unitasa/social-scheduler/internal/repository"
	"github.com/unitasa/social-scheduler/internal/service"
)

type fakePostRepo struct {
	repository.ScheduledPostRepository
	mu    sync.Mutex
	posts map[int64]*models.ScheduledPost
}

func newFakePostRepo(posts ...*models.ScheduledPost) *fakePostRepo {
	r := &fakePostRepo{posts: make(map[int64]*models.ScheduledPost)}
	for _, p := range posts {
		r.posts[p.ID] = p
	}
	return r
}

func (r *fakePostRepo) GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakePostRepo) ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []*models.ScheduledPost
	for _, p := range r.posts {
		if p.Status == models.PostStatusPendingDispatch && !p.NextAttemptAt.After(now) {
			cp := *p
			due = append(due, &cp)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].ScheduledAt.Equal(due[j].ScheduledAt) {
			return due[i].ScheduledAt.Before(due[j].ScheduledAt)
		}
		return due[i].ID < due[j].ID
	})
	return due, nil
}

func (r *fakePostRepo) MarkPosted(ctx context.Context, postID int64, postURL string, postedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.posts[postID]
	p.Status = models.PostStatusPosted
	p.PostURL = postURL
	return nil
}

func (r *fakePostRepo) MarkFailed(ctx context.Context, postID int64, reason string, failedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.posts[postID]
	p.Status = models.PostStatusFailed
	p.FailureReason = reason
	return nil
}

func (r *fakePostRepo) Reschedule(ctx context.Context, postID int64, attempts int, nextAttemptAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.posts[postID]
	p.Attempts = attempts
	p.NextAttemptAt = nextAttemptAt
	return nil
}

type fakeAccountRepo struct {
	repository.SocialAccountRepository
	accounts map[int64]*models.SocialAccount
}

func (r *fakeAccountRepo) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	return r.accounts[id], nil
}

type memLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemLocker() *memLocker {
	return &memLocker{held: make(map[string]bool)}
}

func (l *memLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *memLocker) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []int64
	url       string
	err       error
}

func (p *fakePublisher) Publish(ctx context.Context, account *models.SocialAccount, post *models.ScheduledPost) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.published = append(p.published, post.ID)
	return p.url, nil
}

func pendingPost(id int64, at time.Time) *models.ScheduledPost {
	return &models.ScheduledPost{
		ID:            id,
		UserID:        1,
		AccountID:     10,
		Platform:      models.PlatformTwitter,
		Content:       "hello",
		ScheduledAt:   at,
		NextAttemptAt: at,
		Status:        models.PostStatusPendingDispatch,
	}
}

func newTestDispatcher(posts *fakePostRepo, pub *fakePublisher) (*Dispatcher, *memLocker) {
	accounts := &fakeAccountRepo{accounts: map[int64]*models.SocialAccount{
		10: {ID: 10, UserID: 1, Platform: models.PlatformTwitter},
	}}
	registry := service.NewPublisherRegistry()
	registry.Register(models.PlatformTwitter, pub)
	locker := newMemLocker()
	return NewDispatcher(posts, accounts, registry, locker), locker
}

func TestDispatchPublishes(t *testing.T) {
	posts := newFakePostRepo(pendingPost(1, time.Now().Add(-time.Minute)))
	pub := &fakePublisher{url: "https://twitter.com/u/status/1"}
	d, _ := newTestDispatcher(posts, pub)

	require.NoError(t, d.Dispatch(context.Background(), 1))

	post, _ := posts.GetByID(context.Background(), 1)
	assert.Equal(t, models.PostStatusPosted, post.Status)
	assert.Equal(t, "https://twitter.com/u/status/1", post.PostURL)
	assert.Equal(t, []int64{1}, pub.published)
}

func TestDispatchPermanentErrorFailsImmediately(t *testing.T) {
	posts := newFakePostRepo(pendingPost(1, time.Now().Add(-time.Minute)))
	pub := &fakePublisher{err: service.Permanent("twitter authorization rejected: token revoked")}
	d, _ := newTestDispatcher(posts, pub)

	require.NoError(t, d.Dispatch(context.Background(), 1))

	post, _ := posts.GetByID(context.Background(), 1)
	assert.Equal(t, models.PostStatusFailed, post.Status)
	assert.Contains(t, post.FailureReason, "authorization rejected")
	assert.Zero(t, post.Attempts, "permanent failures must not burn retries")
}

func TestDispatchTransientErrorReschedules(t *testing.T) {
	scheduledAt := time.Now().Add(-time.Minute)
	posts := newFakePostRepo(pendingPost(1, scheduledAt))
	pub := &fakePublisher{err: errors.New("twitter returned status 503: unavailable")}
	d, _ := newTestDispatcher(posts, pub)

	require.NoError(t, d.Dispatch(context.Background(), 1))

	post, _ := posts.GetByID(context.Background(), 1)
	assert.Equal(t, models.PostStatusPendingDispatch, post.Status)
	assert.Equal(t, 1, post.Attempts)
	assert.True(t, post.NextAttemptAt.After(scheduledAt), "retry must be pushed out")
	assert.True(t, post.ScheduledAt.Equal(scheduledAt), "the user-visible slot must not move under backoff")
}

func TestDispatchRetryBudgetExhausted(t *testing.T) {
	post := pendingPost(1, time.Now().Add(-time.Minute))
	post.Attempts = maxAttempts - 1
	posts := newFakePostRepo(post)
	pub := &fakePublisher{err: errors.New("twitter rate limited: slow down")}
	d, _ := newTestDispatcher(posts, pub)

	require.NoError(t, d.Dispatch(context.Background(), 1))

	got, _ := posts.GetByID(context.Background(), 1)
	assert.Equal(t, models.PostStatusFailed, got.Status)
	assert.Equal(t, models.FailureRetriesExceeded, got.FailureReason)
}

func TestDispatchSkipsNonPendingPost(t *testing.T) {
	post := pendingPost(1, time.Now().Add(-time.Minute))
	post.Status = models.PostStatusDraft
	posts := newFakePostRepo(post)
	pub := &fakePublisher{url: "x"}
	d, _ := newTestDispatcher(posts, pub)

	require.NoError(t, d.Dispatch(context.Background(), 1))
	assert.Empty(t, pub.published)

	got, _ := posts.GetByID(context.Background(), 1)
	assert.Equal(t, models.PostStatusDraft, got.Status)
}

func TestDispatchSkipsDeletedPost(t *testing.T) {
	posts := newFakePostRepo()
	pub := &fakePublisher{url: "x"}
	d, _ := newTestDispatcher(posts, pub)

	require.NoError(t, d.Dispatch(context.Background(), 42))
	assert.Empty(t, pub.published)
}

func TestDispatchRespectsLease(t *testing.T) {
	posts := newFakePostRepo(pendingPost(1, time.Now().Add(-time.Minute)))
	pub := &fakePublisher{url: "x"}
	d, locker := newTestDispatcher(posts, pub)

	held, err := locker.Acquire(context.Background(), "dispatch:post:1", time.Minute)
	require.True(t, held)
	require.NoError(t, err)

	require.NoError(t, d.Dispatch(context.Background(), 1))
	assert.Empty(t, pub.published)

	got, _ := posts.GetByID(context.Background(), 1)
	assert.Equal(t, models.PostStatusPendingDispatch, got.Status)
}

func TestDispatchUnsupportedPlatform(t *testing.T) {
	post := pendingPost(1, time.Now().Add(-time.Minute))
	post.Platform = models.PlatformMedium
	posts := newFakePostRepo(post)
	pub := &fakePublisher{url: "x"}
	d, _ := newTestDispatcher(posts, pub)

	require.NoError(t, d.Dispatch(context.Background(), 1))

	got, _ := posts.GetByID(context.Background(), 1)
	assert.Equal(t, models.PostStatusFailed, got.Status)
	assert.Equal(t, models.FailureUnsupported, got.FailureReason)
}

func TestTickDeliversInOrder(t *testing.T) {
	now := time.Now()
	posts := newFakePostRepo(
		pendingPost(3, now.Add(-time.Minute)),
		pendingPost(1, now.Add(-time.Minute)),
		pendingPost(2, now.Add(-2*time.Minute)),
	)
	pub := &fakePublisher{url: "x"}
	d, _ := newTestDispatcher(posts, pub)

	d.Tick(context.Background())

	// Earliest slot first, then by id for same-instant posts.
	assert.Equal(t, []int64{2, 1, 3}, pub.published)
}
