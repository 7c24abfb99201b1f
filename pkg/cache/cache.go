package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache stores JSON encodable values under string keys. Implementations must be safe for
// concurrent use; values are copied on Set so callers never share memory with the cache.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Get decodes the stored value into dest and reports whether the key was found.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Delete(ctx context.Context, key string) error
	Flush(ctx context.Context) error
}

const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// GetFromCache is a typed convenience over Cache.Get. Decode errors count as a miss.
func GetFromCache[T any](ctx context.Context, c Cache, key string) (T, bool) {
	var val T
	if c == nil {
		return val, false
	}
	found, err := c.Get(ctx, key, &val)
	if err != nil || !found {
		var zero T
		return zero, false
	}
	return val, true
}

func errUnsupportedDriver(driver string) error {
	return fmt.Errorf("unsupported cache driver %q", driver)
}
