package directory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKey = "directory:employees"

// Cache stores the whole id → entry map as one value with a validity
// window. Invalidation is always explicit: the lifecycle engine calls it
// after every transition, the cache never invalidates itself beyond the TTL.
type Cache interface {
	Get(ctx context.Context) (map[string]Entry, bool)
	Set(ctx context.Context, entries map[string]Entry) error
	Invalidate(ctx context.Context) error
}

type redisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) Cache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &redisCache{rdb: rdb, ttl: ttl}
}

func (c *redisCache) Get(ctx context.Context) (map[string]Entry, bool) {
	raw, err := c.rdb.Get(ctx, cacheKey).Result()
	if err != nil {
		return nil, false
	}

	var entries map[string]Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, false
	}
	return entries, true
}

func (c *redisCache) Set(ctx context.Context, entries map[string]Entry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, cacheKey, raw, c.ttl).Err()
}

func (c *redisCache) Invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, cacheKey).Err()
}
