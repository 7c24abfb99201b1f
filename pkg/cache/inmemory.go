package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
)

type goCache struct {
	internal   *cache.Cache
	defaultTTL time.Duration
}

// NewMemoryCache returns a process local Cache backed by go-cache.
func NewMemoryCache(defaultExpiration, cleanupInterval time.Duration) Cache {
	return &goCache{
		internal:   cache.New(defaultExpiration, cleanupInterval),
		defaultTTL: defaultExpiration,
	}
}

func (c *goCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.internal.Set(key, raw, ttl)
	return nil
}

func (c *goCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	val, found := c.internal.Get(key)
	if !found {
		return false, nil
	}
	raw, ok := val.([]byte)
	if !ok {
		return false, fmt.Errorf("unexpected cache entry type %T", val)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("failed to decode cache value: %w", err)
	}
	return true, nil
}

func (c *goCache) Delete(_ context.Context, key string) error {
	c.internal.Delete(key)
	return nil
}

func (c *goCache) Flush(_ context.Context) error {
	c.internal.Flush()
	return nil
}
