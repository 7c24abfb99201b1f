// Package breaker wraps sony/gobreaker with the settings and metrics used for every upstream.
package breaker

import (
	"context"
	"errors"

	"ai-hedge-fund/config"
	"ai-hedge-fund/pkg/logger"
	"ai-hedge-fund/pkg/metrics"

	"github.com/sony/gobreaker"
)

// ErrOpen is returned without calling the upstream while the breaker is open or probing.
var ErrOpen = errors.New("circuit breaker open")

type Breaker struct {
	name string
	cb   *gobreaker.CircuitBreaker
}

// New builds a breaker that trips once MinRequests calls were seen in CountInterval and the
// failure ratio reached FailureRatio.
func New(name string, cfg config.Breaker, log *logger.Logger) *Breaker {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenMaxRequests,
		Interval:    cfg.CountInterval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				logger.StringField("upstream", name),
				logger.StringField("from", from.String()),
				logger.StringField("to", to.String()),
			)
			metrics.SetBreakerState(name, stateValue(to))
		},
		// Cancellation is the caller giving up, not the upstream failing.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}

	metrics.SetBreakerState(name, metrics.BreakerClosed)
	return &Breaker{name: name, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *Breaker) Name() string {
	return b.name
}

// State returns "closed", "open" or "half-open".
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// Execute runs fn through b. Rejections by an open breaker are reported as ErrOpen.
func Execute[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	out, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return zero, ErrOpen
	}
	if err != nil {
		return zero, err
	}
	v, ok := out.(T)
	if !ok {
		return zero, nil
	}
	return v, nil
}

func stateValue(s gobreaker.State) int {
	switch s {
	case gobreaker.StateOpen:
		return metrics.BreakerOpen
	case gobreaker.StateHalfOpen:
		return metrics.BreakerHalfOpen
	default:
		return metrics.BreakerClosed
	}
}
