// Package metrics holds the prometheus collectors shared by the analyzer, the data adapter
// and the HTTP server.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hedgefund"

// Breaker state gauge values.
const (
	BreakerClosed   = 0
	BreakerOpen     = 1
	BreakerHalfOpen = 2
)

var (
	signalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analyzer",
			Name:      "signals_total",
			Help:      "Signals emitted by producers",
		},
		[]string{"persona", "direction", "producer"},
	)
	consensusTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analyzer",
			Name:      "consensus_total",
			Help:      "Consensus results by direction",
		},
		[]string{"direction"},
	)
	analysisFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analyzer",
			Name:      "failures_total",
			Help:      "Tickers that could not be analyzed",
		},
		[]string{"reason"},
	)
	upstreamLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Latency of market data and LLM requests",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"upstream", "operation"},
	)
	upstreamErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "errors_total",
			Help:      "Failed upstream requests",
		},
		[]string{"upstream", "operation"},
	)
	breakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=open, 2=half_open)",
		},
		[]string{"upstream"},
	)
	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Record cache lookups by result",
		},
		[]string{"result"},
	)
	httpRequests = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP API latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	registerOnce sync.Once
)

// Register adds every collector to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			signalsTotal,
			consensusTotal,
			analysisFailures,
			upstreamLatency,
			upstreamErrors,
			breakerState,
			cacheLookups,
			httpRequests,
		)
	})
}

func RecordSignal(persona, direction, producer string) {
	signalsTotal.WithLabelValues(persona, direction, producer).Inc()
}

func RecordConsensus(direction string) {
	consensusTotal.WithLabelValues(direction).Inc()
}

func RecordAnalysisFailure(reason string) {
	analysisFailures.WithLabelValues(reason).Inc()
}

// ObserveUpstream records the latency of one upstream call and counts it as an error when err != nil.
func ObserveUpstream(upstream, operation string, start time.Time, err error) {
	upstreamLatency.WithLabelValues(upstream, operation).Observe(time.Since(start).Seconds())
	if err != nil {
		upstreamErrors.WithLabelValues(upstream, operation).Inc()
	}
}

func SetBreakerState(upstream string, state int) {
	breakerState.WithLabelValues(upstream).Set(float64(state))
}

func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(result).Inc()
}

func ObserveHTTPRequest(method, route, status string, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, status).Observe(elapsed.Seconds())
}
