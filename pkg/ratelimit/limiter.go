package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// PerMinute returns a limiter that admits n requests per minute with a burst of one.
// n <= 0 disables limiting.
func PerMinute(n int) *rate.Limiter {
	if n <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
}

// LimiterStore keeps one limiter per upstream so repositories sharing an upstream share its quota.
type LimiterStore struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
}

func NewLimiterStore() *LimiterStore {
	return &LimiterStore{limiters: make(map[string]*rate.Limiter)}
}

// Register sets the quota of key. The first registration wins.
func (s *LimiterStore) Register(key string, perMinute int) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limiter, exists := s.limiters[key]; exists {
		return limiter
	}
	limiter := PerMinute(perMinute)
	s.limiters[key] = limiter
	return limiter
}

// GetLimiter returns the limiter of key, or an unlimited one for unknown keys.
func (s *LimiterStore) GetLimiter(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limiter, exists := s.limiters[key]; exists {
		return limiter
	}
	return rate.NewLimiter(rate.Inf, 1)
}

func (s *LimiterStore) Wait(ctx context.Context, key string) error {
	return s.GetLimiter(key).Wait(ctx)
}
