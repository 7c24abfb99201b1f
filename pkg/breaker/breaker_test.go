package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-hedge-fund/config"
	"ai-hedge-fund/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings() config.Breaker {
	return config.Breaker{
		MinRequests:         3,
		FailureRatio:        0.6,
		OpenTimeout:         time.Minute,
		HalfOpenMaxRequests: 1,
		CountInterval:       time.Minute,
	}
}

func TestExecute_TripsAfterFailures(t *testing.T) {
	b := New("test-upstream", testSettings(), logger.NewNop())
	boom := errors.New("upstream down")

	calls := 0
	for i := 0; i < 3; i++ {
		_, err := Execute(b, func() (int, error) {
			calls++
			return 0, boom
		})
		require.ErrorIs(t, err, boom)
	}
	assert.Equal(t, "open", b.State())

	_, err := Execute(b, func() (int, error) {
		calls++
		return 1, nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.Equal(t, 3, calls, "open breaker must not call the upstream")
}

func TestExecute_PassesValues(t *testing.T) {
	b := New("values", testSettings(), logger.NewNop())

	got, err := Execute(b, func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, "closed", b.State())
}

func TestExecute_CancellationDoesNotTrip(t *testing.T) {
	b := New("cancel", testSettings(), logger.NewNop())
	for i := 0; i < 5; i++ {
		_, err := Execute(b, func() (int, error) { return 0, context.Canceled })
		require.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, "closed", b.State())
}
