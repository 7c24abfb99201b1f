package cache

import (
	"context"
	"fmt"
	"time"

	"ai-hedge-fund/config"

	"github.com/redis/go-redis/v9"
)

// New builds the Cache selected by cfg.Driver. The returned closer releases the redis
// connection pool when one was opened.
func New(ctx context.Context, cfg config.Cache) (Cache, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemoryCache(cfg.RecordTTL, cfg.CleanupInterval), noop, nil
	case DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		return NewRedisCache(client, "hedgefund:", cfg.RecordTTL), client.Close, nil
	default:
		return nil, noop, errUnsupportedDriver(cfg.Driver)
	}
}
