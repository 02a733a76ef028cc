package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker is a per-post delivery lease. Whoever holds the lease for a post id
// is the only process allowed to publish it, so concurrent sweeps and queue
// workers cannot double-post.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type redisLocker struct {
	client *redis.Client
}

func NewRedisLocker(client *redis.Client) Locker {
	return &redisLocker{client: client}
}

func (l *redisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return ok, nil
}

func (l *redisLocker) Release(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, key).Err(); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
