// Package cache provides an optional read cache for hot lookups (point
// balances, product details). Failures degrade to the database; no
// correctness depends on the cache.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Cache is a minimal string cache.
type Cache interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	Key(parts ...string) string
}

type redisCache struct {
	client *redis.Client
	prefix string
	logger zerolog.Logger
}

// NewRedisCache creates a Redis-backed cache.
func NewRedisCache(addr, prefix string, logger zerolog.Logger) Cache {
	return &redisCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		prefix: prefix,
		logger: logger.With().Str("component", "cache").Logger(),
	}
}

func (c *redisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *redisCache) Get(ctx context.Context, key string) (string, error) {
	value, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (c *redisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *redisCache) Key(parts ...string) string {
	key := c.prefix
	for _, p := range parts {
		key = fmt.Sprintf("%s:%s", key, p)
	}
	return key
}

// noop is used when the cache is disabled; every Get misses.
type noop struct{}

// NewNoop returns a cache that stores nothing.
func NewNoop() Cache {
	return noop{}
}

func (noop) Set(ctx context.Context, key, value string, ttl time.Duration) error { return nil }
func (noop) Get(ctx context.Context, key string) (string, error)                 { return "", nil }
func (noop) Delete(ctx context.Context, key string) error                        { return nil }
func (noop) Key(parts ...string) string {
	key := ""
	for i, p := range parts {
		if i == 0 {
			key = p
			continue
		}
		key = fmt.Sprintf("%s:%s", key, p)
	}
	return key
}
