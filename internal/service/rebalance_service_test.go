package service

import (
	"context"
	"errors"
	"testing"

	"ai-hedge-fund/internal/dto"
	"ai-hedge-fund/internal/model"
	"ai-hedge-fund/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebalanceTarget(t *testing.T) {
	assert.InDelta(t, 0.18, rebalanceTarget(consensusOf(model.Bullish, 80)), 1e-9)
	assert.InDelta(t, 0.20, rebalanceTarget(consensusOf(model.Bullish, 100)), 1e-9)
	assert.InDelta(t, 0.05, rebalanceTarget(consensusOf(model.Neutral, 90)), 1e-9)
	assert.Zero(t, rebalanceTarget(consensusOf(model.Bearish, 60)))
}

func TestBuildRebalanceReport(t *testing.T) {
	holdings := []dto.Holding{
		{Ticker: "AAPL", Weight: 0.30},
		{Ticker: "XOM", Weight: 0.10},
		{Ticker: "MSFT", Weight: 0.05},
		{Ticker: "NVDA", Weight: 0.02},
	}
	signals := map[string]model.Consensus{
		"AAPL": consensusOf(model.Bullish, 80),
		"XOM":  consensusOf(model.Bearish, 70),
		"MSFT": consensusOf(model.Neutral, 55),
		"NVDA": consensusOf(model.Bullish, 90),
	}

	got := buildRebalanceReport(holdings, signals, 0.05, 30)

	require.Len(t, got.Drifts, 4)
	assert.InDelta(t, 0.12, got.Drifts[0].Drift, 1e-4)
	assert.InDelta(t, 0.39, got.TotalDrift, 1e-4)
	assert.InDelta(t, 7, got.HealthScore, 1)
	assert.True(t, got.NeedsRebalance)

	require.Len(t, got.Actions, 3)
	assert.Equal(t, "NVDA", got.Actions[0].Ticker)
	assert.Equal(t, dto.ActionIncrease, got.Actions[0].Action)
	assert.Equal(t, "AAPL", got.Actions[1].Ticker)
	assert.Equal(t, dto.ActionDecrease, got.Actions[1].Action)
	assert.Equal(t, "XOM", got.Actions[2].Ticker)
	for _, a := range got.Actions {
		assert.Equal(t, dto.UrgencyHigh, a.Urgency)
	}

	assert.ElementsMatch(t, []string{"AAPL", "XOM", "NVDA"}, got.Schedule.Immediate)
	assert.Equal(t, []string{"MSFT"}, got.Schedule.Monitor)
	assert.Contains(t, got.Recommendations, "Urgent rebalancing needed: NVDA, AAPL, XOM")
	assert.Contains(t, got.Recommendations, "AAPL is 30.0% of the portfolio. Consider trimming below 20%.")
}

func TestBuildRebalanceReport_Urgency(t *testing.T) {
	tests := []struct {
		name    string
		weight  float64
		signal  model.Consensus
		action  string
		urgency string
	}{
		{name: "small overweight neutral", weight: 0.12, signal: consensusOf(model.Neutral, 50), action: dto.ActionDecrease, urgency: dto.UrgencyMedium},
		{name: "overweight bearish", weight: 0.08, signal: consensusOf(model.Bearish, 60), action: dto.ActionDecrease, urgency: dto.UrgencyHigh},
		{name: "underweight bullish", weight: 0.10, signal: consensusOf(model.Bullish, 70), action: dto.ActionIncrease, urgency: dto.UrgencyMedium},
		{name: "underweight confident bullish", weight: 0.12, signal: consensusOf(model.Bullish, 80), action: dto.ActionIncrease, urgency: dto.UrgencyHigh},
		{name: "inside threshold", weight: 0.15, signal: consensusOf(model.Bullish, 80)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildRebalanceReport([]dto.Holding{{Ticker: "X", Weight: tt.weight}}, map[string]model.Consensus{"X": tt.signal}, 0.05, 0)
			if tt.action == "" {
				assert.Empty(t, got.Actions)
				assert.Equal(t, []string{"X"}, got.Schedule.Monitor)
				return
			}
			require.Len(t, got.Actions, 1)
			assert.Equal(t, tt.action, got.Actions[0].Action)
			assert.Equal(t, tt.urgency, got.Actions[0].Urgency)
		})
	}
}

func TestBuildRebalanceReport_NormalizesTargets(t *testing.T) {
	var holdings []dto.Holding
	signals := map[string]model.Consensus{}
	for _, ticker := range []string{"A", "B", "C", "D", "E", "F"} {
		holdings = append(holdings, dto.Holding{Ticker: ticker, Weight: 1.0 / 6})
		signals[ticker] = consensusOf(model.Bullish, 100)
	}

	got := buildRebalanceReport(holdings, signals, 0.05, 100)
	for _, d := range got.Drifts {
		assert.InDelta(t, 1.0/6, d.TargetWeight, 1e-4)
	}
	assert.False(t, got.NeedsRebalance)
	assert.Equal(t, 50, got.HealthScore)
	assert.Contains(t, got.Recommendations[0], "hasn't been rebalanced in 100 days")
	assert.Contains(t, got.Recommendations, "Portfolio is fully invested. Consider keeping 5-10% cash for opportunities.")
}

func TestRebalanceService_Check(t *testing.T) {
	analyzer := &fakeAnalyzer{consensus: map[string]model.Consensus{"AAPL": consensusOf(model.Bullish, 70)}}
	svc := NewRebalanceService(testConfig(), testLog, testValidator, analyzer)
	ctx := context.Background()

	got, err := svc.Check(ctx, dto.RebalanceRequest{Holdings: []dto.Holding{{Ticker: "aapl", Weight: 0.17}, {Ticker: "UNKNOWN", Weight: 0.05}}})
	require.NoError(t, err)
	assert.Equal(t, "AAPL", got.Drifts[0].Ticker)
	assert.Equal(t, "neutral", got.Drifts[1].Signal, "failed analysis falls back to neutral")
	assert.False(t, got.NeedsRebalance)
	assert.Equal(t, 85, got.HealthScore)

	_, err = svc.Check(ctx, dto.RebalanceRequest{Holdings: []dto.Holding{{Ticker: "AAPL", Weight: 0.7}, {Ticker: "MSFT", Weight: 0.6}}})
	assert.True(t, errors.Is(err, common.ErrInvalidInput))

	_, err = svc.Check(ctx, dto.RebalanceRequest{Holdings: []dto.Holding{{Ticker: "AAPL", Weight: 0.1}, {Ticker: "aapl", Weight: 0.1}}})
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}

func TestRebalanceService_Watch(t *testing.T) {
	analyzer := &fakeAnalyzer{consensus: map[string]model.Consensus{"AAPL": consensusOf(model.Bullish, 70)}}
	svc := NewRebalanceService(testConfig(), testLog, testValidator, analyzer)
	req := dto.RebalanceRequest{Holdings: []dto.Holding{{Ticker: "AAPL", Weight: 0.17}}}

	err := svc.Watch(context.Background(), "every tuesday", req, func(*dto.RebalanceReport) {})
	assert.True(t, errors.Is(err, common.ErrInvalidInput))

	ctx, cancel := context.WithCancel(context.Background())
	var reports int
	err = svc.Watch(ctx, "@daily", req, func(r *dto.RebalanceReport) {
		reports++
		cancel()
	})
	require.NoError(t, err)
	assert.Equal(t, 1, reports)
}
