// Package cache provides a pluggable key/value cache abstraction used for
// the classification-result cache in multi-instance Aegis deployments.
// The default backend is an in-process map; a Redis backend is available
// for deployments that run more than one Aegis proxy instance (e.g. one
// per managed machine) behind a shared result cache, avoiding redundant
// Tier-2 classification of identical prompts.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry TTL. Values are
// opaque to the cache — callers marshal/unmarshal their own payloads.
type Cache interface {
	// Get returns the cached value for key, or ok=false if absent or
	// expired.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set stores value under key with the given TTL. A zero TTL means
	// "no expiry" for the memory backend; backends that require an
	// expiry (e.g. Redis) substitute a long default in that case.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Close releases any resources (connections, background goroutines)
	// held by the cache.
	Close() error
}

// Backend selects which Cache implementation New constructs.
type Backend string

const (
	// BackendMemory is the default: an in-process map, not shared across
	// instances, cleared on restart.
	BackendMemory Backend = "memory"
	// BackendRedis shares cached values across every Aegis instance
	// pointed at the same Redis server.
	BackendRedis Backend = "redis"
)

// Config selects and configures a Cache backend.
type Config struct {
	Backend Backend `yaml:"backend"`
	// RedisAddr is required when Backend == BackendRedis.
	RedisAddr string `yaml:"redis_addr"`
	// RedisDB selects the logical Redis database (default 0).
	RedisDB int `yaml:"redis_db"`
	// DefaultTTL is used whenever a caller passes a zero TTL to Set
	// against a backend (like Redis) that requires one.
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// New constructs a Cache for the given config. An empty Backend defaults
// to BackendMemory.
func New(cfg Config) (Cache, error) {
	ttl := cfg.DefaultTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	switch cfg.Backend {
	case "", BackendMemory:
		return newMemoryCache(ttl), nil
	case BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("cache: redis backend requires redis_addr")
		}
		return newRedisCache(cfg.RedisAddr, cfg.RedisDB, ttl), nil
	default:
		return nil, fmt.Errorf("cache: unknown backend %q", cfg.Backend)
	}
}
