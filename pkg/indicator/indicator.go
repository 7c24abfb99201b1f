// Package indicator computes the technical and statistical series the producers and the
// portfolio tools read from a close price history.
package indicator

import (
	"math"

	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
)

const TradingDaysPerYear = 252

func feed(values []float64) <-chan float64 {
	ch := make(chan float64, len(values))
	for _, v := range values {
		ch <- v
	}
	close(ch)
	return ch
}

func last(ch <-chan float64) (float64, bool) {
	var (
		v  float64
		ok bool
	)
	for x := range ch {
		v, ok = x, true
	}
	return v, ok
}

// SMA returns the latest simple moving average over period closes.
// It returns nil when there are fewer than period values.
func SMA(closes []float64, period int) *float64 {
	if period <= 0 || len(closes) < period {
		return nil
	}
	v, ok := last(trend.NewSmaWithPeriod[float64](period).Compute(feed(closes)))
	if !ok || math.IsNaN(v) {
		return nil
	}
	return &v
}

// RSI returns the latest relative strength index over period, or nil without enough history.
func RSI(closes []float64, period int) *float64 {
	if period <= 0 || len(closes) <= period {
		return nil
	}
	v, ok := last(momentum.NewRsiWithPeriod[float64](period).Compute(feed(closes)))
	if !ok || math.IsNaN(v) {
		return nil
	}
	return &v
}

// DailyReturns returns simple returns between consecutive closes. Non positive closes are skipped.
func DailyReturns(closes []float64) []float64 {
	var out []float64
	prev := 0.0
	for _, c := range closes {
		if c <= 0 {
			continue
		}
		if prev > 0 {
			out = append(out, c/prev-1)
		}
		prev = c
	}
	return out
}

// StdDev is the sample standard deviation; zero for fewer than two values.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	var sum float64
	for _, v := range values {
		sum += (v - mean) * (v - mean)
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// AnnualizedVolatility returns the annualized standard deviation of daily returns, or nil
// when fewer than 20 returns are available.
func AnnualizedVolatility(closes []float64) *float64 {
	returns := DailyReturns(closes)
	if len(returns) < 20 {
		return nil
	}
	v := StdDev(returns) * math.Sqrt(TradingDaysPerYear)
	return &v
}

// PeriodReturn returns close[n-1]/close[n-1-lookback] - 1, or nil without enough history.
func PeriodReturn(closes []float64, lookback int) *float64 {
	n := len(closes)
	if lookback <= 0 || n <= lookback || closes[n-1-lookback] <= 0 {
		return nil
	}
	v := closes[n-1]/closes[n-1-lookback] - 1
	return &v
}

// TotalReturn is last/first - 1 over the whole series.
func TotalReturn(closes []float64) *float64 {
	if len(closes) < 2 || closes[0] <= 0 {
		return nil
	}
	v := closes[len(closes)-1]/closes[0] - 1
	return &v
}

// AverageTail averages the last n values.
func AverageTail(values []float64, n int) *float64 {
	if n <= 0 || len(values) < n {
		return nil
	}
	v := Mean(values[len(values)-n:])
	return &v
}

// MaxDrawdown returns the largest peak to trough decline of an equity curve as a negative fraction.
func MaxDrawdown(equity []float64) float64 {
	peak, worst := 0.0, 0.0
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := v/peak - 1; dd < worst {
				worst = dd
			}
		}
	}
	return worst
}
