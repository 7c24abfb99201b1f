package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 500 * time.Millisecond

type redisCache struct {
	client     *redis.Client
	prefix     string
	defaultTTL time.Duration
}

// NewRedisCache returns a Cache shared across processes. Keys are namespaced by prefix.
func NewRedisCache(client *redis.Client, prefix string, defaultTTL time.Duration) Cache {
	if defaultTTL <= 0 {
		defaultTTL = time.Hour
	}
	return &redisCache{client: client, prefix: prefix, defaultTTL: defaultTTL}
}

func (c *redisCache) key(k string) string {
	return c.prefix + k
}

func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	opCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	if err := c.client.Set(opCtx, c.key(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set redis key: %w", err)
	}
	return nil
}

func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	opCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	raw, err := c.client.Get(opCtx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get redis key: %w", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("failed to decode cache value: %w", err)
	}
	return true, nil
}

func (c *redisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.key(key)).Err()
}

// Flush removes only keys under this cache's prefix.
func (c *redisCache) Flush(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
