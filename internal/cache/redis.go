package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCache backs Cache with a shared Redis instance, letting multiple
// Aegis proxy processes (e.g. one per managed machine, pointed at one
// fleet-wide classification-result cache) avoid redundant Tier-2 runs for
// identical prompts.
type redisCache struct {
	client     *redis.Client
	defaultTTL time.Duration
}

func newRedisCache(addr string, db int, defaultTTL time.Duration) *redisCache {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	return &redisCache{client: client, defaultTTL: defaultTTL}
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *redisCache) Close() error { return c.client.Close() }
