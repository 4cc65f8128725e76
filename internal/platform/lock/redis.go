package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// Redis is a Redis-backed keyed lock for multi-instance deployments. Locks
// carry a TTL so a crashed holder cannot wedge an application's submit path.
type Redis struct {
	locker *redislock.Client
	ttl    time.Duration
}

// NewRedis wraps an existing Redis client. TTL bounds how long a lock can be
// held; callers finish well inside it because provider calls are themselves
// timeout-bounded.
func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Redis{locker: redislock.New(client), ttl: ttl}
}

func (r *Redis) Acquire(ctx context.Context, key string) (func(), error) {
	lock, err := r.locker.Obtain(ctx, "lock:"+key, r.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 50),
	})
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}
	return func() {
		// Best effort; TTL reclaims the lock if release fails.
		_ = lock.Release(context.Background())
	}, nil
}
