package cache

import (
	"context"
	"testing"
	"time"

	"ai-hedge-fund/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Ticker string   `json:"ticker"`
	Price  *float64 `json:"price"`
}

func newRedis(t *testing.T) (*miniredis.Miniredis, Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisCache(client, "test:", time.Hour)
}

func TestCaches_RoundTrip(t *testing.T) {
	_, rc := newRedis(t)
	caches := map[string]Cache{
		"memory": NewMemoryCache(time.Hour, time.Minute),
		"redis":  rc,
	}

	for name, c := range caches {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			price := 187.5

			require.NoError(t, c.Set(ctx, "record:AAPL:2024-03-01", entry{Ticker: "AAPL", Price: &price}, 0))

			got, ok := GetFromCache[entry](ctx, c, "record:AAPL:2024-03-01")
			require.True(t, ok)
			assert.Equal(t, "AAPL", got.Ticker)
			require.NotNil(t, got.Price)
			assert.Equal(t, price, *got.Price)

			_, ok = GetFromCache[entry](ctx, c, "record:MSFT:2024-03-01")
			assert.False(t, ok)

			require.NoError(t, c.Delete(ctx, "record:AAPL:2024-03-01"))
			_, ok = GetFromCache[entry](ctx, c, "record:AAPL:2024-03-01")
			assert.False(t, ok)
		})
	}
}

func TestRedisCache_TTLAndFlush(t *testing.T) {
	mr, c := newRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", entry{Ticker: "A"}, time.Minute))
	require.NoError(t, c.Set(ctx, "b", entry{Ticker: "B"}, time.Minute))
	mr.Set("other:key", "untouched")

	mr.FastForward(2 * time.Minute)
	_, ok := GetFromCache[entry](ctx, c, "a")
	assert.False(t, ok, "entry should expire")

	require.NoError(t, c.Set(ctx, "c", entry{Ticker: "C"}, 0))
	require.NoError(t, c.Flush(ctx))
	_, ok = GetFromCache[entry](ctx, c, "c")
	assert.False(t, ok)
	assert.True(t, mr.Exists("other:key"))
}

func TestMemoryCache_CopiesValues(t *testing.T) {
	c := NewMemoryCache(time.Hour, time.Minute)
	ctx := context.Background()
	price := 10.0
	e := entry{Ticker: "X", Price: &price}
	require.NoError(t, c.Set(ctx, "x", e, 0))

	price = 99
	got, ok := GetFromCache[entry](ctx, c, "x")
	require.True(t, ok)
	assert.Equal(t, 10.0, *got.Price)
}

func TestNew_Drivers(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	c, closer, err := New(ctx, config.Cache{Driver: DriverMemory, RecordTTL: time.Hour, CleanupInterval: time.Minute})
	require.NoError(t, err)
	assert.NotNil(t, c)
	assert.NoError(t, closer())

	c, closer, err = New(ctx, config.Cache{Driver: DriverRedis, RecordTTL: time.Hour, Redis: config.Redis{Addr: mr.Addr()}})
	require.NoError(t, err)
	assert.NotNil(t, c)
	assert.NoError(t, closer())

	_, _, err = New(ctx, config.Cache{Driver: "memcached"})
	assert.Error(t, err)
}
