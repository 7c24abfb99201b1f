package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func TestSMA(t *testing.T) {
	got := SMA([]float64{1, 2, 3, 4, 5}, 5)
	require.NotNil(t, got)
	assert.InDelta(t, 3.0, *got, 1e-9)

	got = SMA(series(60, 1, 1), 50)
	require.NotNil(t, got)
	assert.InDelta(t, 35.5, *got, 1e-9) // mean of 11..60

	assert.Nil(t, SMA([]float64{1, 2}, 50))
}

func TestRSI(t *testing.T) {
	up := RSI(series(40, 10, 0.5), 14)
	require.NotNil(t, up)
	assert.Greater(t, *up, 70.0)

	down := RSI(series(40, 100, -0.5), 14)
	require.NotNil(t, down)
	assert.Less(t, *down, 30.0)

	assert.Nil(t, RSI(series(10, 1, 1), 14))
}

func TestStatistics(t *testing.T) {
	assert.Equal(t, []float64{0.5, -0.5}, DailyReturns([]float64{2, 3, 0, 1.5}))
	assert.InDelta(t, math.Sqrt(2), StdDev([]float64{1, 3}), 1e-9)
	assert.Equal(t, 0.0, StdDev([]float64{1}))

	assert.Nil(t, AnnualizedVolatility(series(5, 1, 1)))
	flat := AnnualizedVolatility(series(30, 10, 0))
	require.NotNil(t, flat)
	assert.InDelta(t, 0, *flat, 1e-12)

	r := PeriodReturn([]float64{100, 110, 121}, 2)
	require.NotNil(t, r)
	assert.InDelta(t, 0.21, *r, 1e-9)
	assert.Nil(t, PeriodReturn([]float64{100}, 2))

	avg := AverageTail([]float64{1, 2, 3, 4}, 2)
	require.NotNil(t, avg)
	assert.Equal(t, 3.5, *avg)

	assert.InDelta(t, -0.5, MaxDrawdown([]float64{100, 120, 60, 90, 130}), 1e-9)
}
