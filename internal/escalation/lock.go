package escalation

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker guards against overlapping scanner runs across processes.
type Locker interface {
	// TryLock returns a release func when the lock was acquired.
	TryLock(ctx context.Context) (func(), bool)
}

const lockKey = "escalation:scan:lock"

type redisLocker struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration) Locker {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &redisLocker{rdb: rdb, ttl: ttl}
}

func (l *redisLocker) TryLock(ctx context.Context) (func(), bool) {
	ok, err := l.rdb.SetNX(ctx, lockKey, "locked", l.ttl).Result()
	if err != nil || !ok {
		return nil, false
	}
	return func() {
		// best-effort; the TTL cleans up after a crashed holder
		l.rdb.Del(context.Background(), lockKey)
	}, true
}
