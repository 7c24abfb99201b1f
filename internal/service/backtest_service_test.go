package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-hedge-fund/internal/dto"
	"ai-hedge-fund/internal/model"
	"ai-hedge-fund/pkg/common"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsRebalanceDay(t *testing.T) {
	tests := []struct {
		name string
		freq string
		i    int
		day  time.Time
		prev time.Time
		want bool
	}{
		{name: "first day always", freq: dto.RebalanceQuarterly, i: 0, day: date(2024, 2, 14), want: true},
		{name: "weekly every fifth session", freq: dto.RebalanceWeekly, i: 10, day: date(2024, 1, 15), prev: date(2024, 1, 12), want: true},
		{name: "weekly off day", freq: dto.RebalanceWeekly, i: 7, day: date(2024, 1, 10), prev: date(2024, 1, 9), want: false},
		{name: "monthly on new month", freq: dto.RebalanceMonthly, i: 21, day: date(2024, 2, 1), prev: date(2024, 1, 31), want: true},
		{name: "monthly mid month", freq: dto.RebalanceMonthly, i: 22, day: date(2024, 2, 2), prev: date(2024, 2, 1), want: false},
		{name: "quarterly in april", freq: dto.RebalanceQuarterly, i: 60, day: date(2024, 4, 1), prev: date(2024, 3, 28), want: true},
		{name: "quarterly skips may", freq: dto.RebalanceQuarterly, i: 80, day: date(2024, 5, 1), prev: date(2024, 4, 30), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRebalanceDay(tt.freq, tt.i, tt.day, tt.prev))
		})
	}
}

func TestTargetWeights(t *testing.T) {
	day := date(2024, 12, 31)
	rising := dailyHistory("UP", date(2024, 1, 1), 200, func(i int) float64 { return 100 + float64(i) })
	falling := dailyHistory("DOWN", date(2024, 1, 1), 200, func(i int) float64 { return 300 - float64(i) })
	prices := map[string]decimal.Decimal{"UP": decimal.NewFromInt(1), "DOWN": decimal.NewFromInt(1), "FLAT": decimal.NewFromInt(1)}

	t.Run("ai consensus", func(t *testing.T) {
		got := targetWeights(simulation{
			strategy: dto.StrategyAIConsensus,
			tickers:  []string{"UP", "DOWN", "FLAT"},
			consensus: map[string]model.Consensus{
				"UP":   consensusOf(model.Bullish, 80),
				"DOWN": consensusOf(model.Bearish, 90),
				"FLAT": consensusOf(model.Neutral, 50),
			},
		}, day, prices)
		require.Len(t, got, 2)
		assert.InDelta(t, 0.23/0.28, got["UP"], 1e-9)
		assert.InDelta(t, 0.05/0.28, got["FLAT"], 1e-9)
	})

	t.Run("momentum keeps positive trend only", func(t *testing.T) {
		got := targetWeights(simulation{
			strategy: dto.StrategyMomentum,
			tickers:  []string{"UP", "DOWN"},
			prices:   map[string]*dto.PriceHistory{"UP": rising, "DOWN": falling},
		}, day, prices)
		assert.Equal(t, map[string]float64{"UP": 1}, got)
	})

	t.Run("momentum needs history", func(t *testing.T) {
		got := targetWeights(simulation{
			strategy: dto.StrategyMomentum,
			tickers:  []string{"UP"},
			prices:   map[string]*dto.PriceHistory{"UP": rising},
		}, rising.Bars[100].Date, prices)
		assert.Empty(t, got)
	})

	t.Run("value prefers cheap", func(t *testing.T) {
		got := targetWeights(simulation{
			strategy:   dto.StrategyValue,
			tickers:    []string{"UP", "DOWN"},
			valuations: map[string]valuation{"UP": {pe: f(10), pb: f(2)}},
		}, day, prices)
		cheap := 0.5/11 + 0.5/3
		dear := 0.5/101 + 0.5/11
		assert.InDelta(t, cheap/(cheap+dear), got["UP"], 1e-9)
	})

	t.Run("unpriced tickers are skipped", func(t *testing.T) {
		got := targetWeights(simulation{strategy: dto.StrategyEqualWeight, tickers: []string{"UP", "MISSING"}}, day, prices)
		assert.Equal(t, map[string]float64{"UP": 1}, got)
	})
}

func TestSell_AverageCost(t *testing.T) {
	positions := map[string]*position{
		"AAPL": {shares: decimal.NewFromInt(10), costBasis: decimal.NewFromInt(1000)},
	}

	trade, proceeds := sell("AAPL", positions, decimal.NewFromInt(5), decimal.NewFromInt(150), decimal.Zero, date(2024, 3, 1))
	assert.Equal(t, SideSell, trade.Side)
	assert.Equal(t, 250.0, trade.ProfitLoss)
	assert.True(t, proceeds.Equal(decimal.NewFromInt(750)))
	assert.True(t, positions["AAPL"].costBasis.Equal(decimal.NewFromInt(500)))

	_, _ = sell("AAPL", positions, decimal.NewFromInt(50), decimal.NewFromInt(80), decimal.Zero, date(2024, 3, 2))
	assert.NotContains(t, positions, "AAPL")
}

func TestSimulate_EqualWeightFlatPrices(t *testing.T) {
	flat := func(int) float64 { return 100 }
	sim := simulation{
		strategy:       dto.StrategyEqualWeight,
		rebalance:      dto.RebalanceMonthly,
		initialCapital: decimal.NewFromInt(100000),
		commission:     decimal.NewFromFloat(0.001),
		riskFreeRate:   0.04,
		start:          date(2024, 1, 1),
		end:            date(2024, 3, 29),
		tickers:        []string{"A", "B"},
		prices: map[string]*dto.PriceHistory{
			"A": dailyHistory("A", date(2024, 1, 1), 65, flat),
			"B": dailyHistory("B", date(2024, 1, 1), 65, flat),
		},
	}

	got, err := simulate(sim)
	require.NoError(t, err)

	// The second buy is trimmed so cash never goes negative after commission.
	assert.Equal(t, 2, got.TotalTrades)
	assert.InDelta(t, 99900.10, got.FinalValue, 0.01)
	assert.InDelta(t, -0.001, got.TotalReturn, 0.0001)
	assert.Zero(t, got.MaxDrawdown)
	assert.Zero(t, got.WinRate)
	assert.Zero(t, got.ProfitFactor)
	assert.Len(t, got.EquityCurve, 65)
	for _, tr := range got.Trades {
		assert.Equal(t, SideBuy, tr.Side)
	}
}

func TestSimulate_TooShort(t *testing.T) {
	_, err := simulate(simulation{
		strategy:       dto.StrategyEqualWeight,
		initialCapital: decimal.NewFromInt(1000),
		start:          date(2024, 1, 1),
		end:            date(2024, 1, 1),
		tickers:        []string{"A"},
		prices:         map[string]*dto.PriceHistory{"A": dailyHistory("A", date(2024, 1, 1), 1, func(int) float64 { return 10 })},
	})
	assert.True(t, errors.Is(err, common.ErrDataUnavailable))
}

func TestBacktestService_RunBacktest(t *testing.T) {
	up := func(i int) float64 { return 100 + float64(i)*0.5 }
	down := func(i int) float64 { return 200 - float64(i)*0.5 }
	marketData := &fakeMarketData{
		histories: map[string]*dto.PriceHistory{
			"AAPL":                  dailyHistory("AAPL", date(2023, 6, 1), 250, up),
			"INTC":                  dailyHistory("INTC", date(2023, 6, 1), 250, down),
			common.BENCHMARK_TICKER: dailyHistory("SPY", date(2023, 6, 1), 250, up),
		},
	}
	svc := NewBacktestService(testConfig(), testLog, testValidator, marketData, &fakeAnalyzer{})

	got, err := svc.RunBacktest(context.Background(), dto.BacktestRequest{
		Tickers:   []string{"AAPL", "INTC", "NODATA"},
		StartDate: "2024-01-02",
		EndDate:   "2024-04-30",
		Strategy:  dto.StrategyEqualWeight,
		Rebalance: dto.RebalanceWeekly,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "INTC"}, got.Tickers)
	assert.Equal(t, 100000.0, got.InitialCapital)
	assert.Greater(t, got.BenchmarkReturn, 0.0)
	assert.Greater(t, got.TotalTrades, 2)
	assert.Equal(t, got.EquityCurve[len(got.EquityCurve)-1].Value, got.FinalValue)

	var sells int
	for _, tr := range got.Trades {
		if tr.Side == SideSell {
			sells++
		}
	}
	assert.Greater(t, sells, 0, "weekly rebalancing trims the winner")
	assert.Greater(t, got.WinRate, 0.0)
}

func TestBacktestService_RunBacktestErrors(t *testing.T) {
	svc := NewBacktestService(testConfig(), testLog, testValidator, &fakeMarketData{}, &fakeAnalyzer{})
	ctx := context.Background()

	_, err := svc.RunBacktest(ctx, dto.BacktestRequest{Tickers: []string{"AAPL"}, StartDate: "2024-05-01", EndDate: "2024-01-01"})
	assert.True(t, errors.Is(err, common.ErrInvalidInput))

	_, err = svc.RunBacktest(ctx, dto.BacktestRequest{Tickers: []string{"AAPL"}, StartDate: "01/01/2024", EndDate: "2024-02-01"})
	assert.True(t, errors.Is(err, common.ErrInvalidInput))

	_, err = svc.RunBacktest(ctx, dto.BacktestRequest{Tickers: []string{"AAPL"}, StartDate: "2024-01-01", EndDate: "2024-02-01"})
	assert.True(t, errors.Is(err, common.ErrDataUnavailable))
}
