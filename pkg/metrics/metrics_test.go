package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegister_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestRecorders(t *testing.T) {
	before := testutil.ToFloat64(upstreamErrors.WithLabelValues("yahoo", "chart"))
	ObserveUpstream("yahoo", "chart", time.Now(), errors.New("boom"))
	ObserveUpstream("yahoo", "chart", time.Now(), nil)
	assert.Equal(t, before+1, testutil.ToFloat64(upstreamErrors.WithLabelValues("yahoo", "chart")))

	SetBreakerState("yahoo", BreakerOpen)
	assert.Equal(t, float64(BreakerOpen), testutil.ToFloat64(breakerState.WithLabelValues("yahoo")))

	hits := testutil.ToFloat64(cacheLookups.WithLabelValues("hit"))
	RecordCacheLookup(true)
	assert.Equal(t, hits+1, testutil.ToFloat64(cacheLookups.WithLabelValues("hit")))
}
