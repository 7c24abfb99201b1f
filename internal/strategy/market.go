package strategy

import (
	"strings"

	"ai-hedge-fund/internal/model"
)

const (
	RegimeBull   = "bull"
	RegimeBear   = "bear"
	RegimeChoppy = "choppy"
)

// MarketRegime classifies the broad market from the SPY 10-day trend (percent) and VIX.
// Only present inputs are used; when they cannot decide the regime it returns "".
func MarketRegime(spyTrend10D, vix *float64) string {
	switch {
	case (spyTrend10D != nil && *spyTrend10D < -3) || (vix != nil && *vix > 30):
		return RegimeBear
	case spyTrend10D == nil || vix == nil:
		return ""
	case *spyTrend10D > 2 && *vix < 20:
		return RegimeBull
	default:
		return RegimeChoppy
	}
}

func macro(r model.FinancialRecord) model.Signal {
	c := newScorecard(r, 50, model.FieldVIX, model.FieldMarketRegime, model.FieldSPYTrend10D)
	if c.insufficient() {
		return c.insufficientSignal()
	}
	c.metric("vix", r.VIX)
	c.metric("spy_trend_10d", r.SPYTrend10D)

	if vix := r.VIX; has(vix) {
		switch {
		case *vix < 15:
			c.add(15, "VIX %.1f: Calm market", *vix)
		case *vix < 20:
			c.add(5, "VIX %.1f: Normal volatility", *vix)
		case *vix < 25:
			c.add(-5, "VIX %.1f: Elevated caution", *vix)
		case *vix < 35:
			c.add(-15, "VIX %.1f: Fear in market", *vix)
		default:
			c.add(-25, "VIX %.1f: High panic", *vix)
			c.risk("Market panic (VIX %.1f)", *vix)
		}
	}

	switch r.MarketRegime {
	case RegimeBull:
		c.add(10, "Bull market regime")
	case RegimeBear:
		c.add(-15, "Bear market regime")
		c.risk("Bear market regime")
	case "":
	default:
		c.note("Choppy market")
	}

	if t := r.SPYTrend10D; has(t) {
		switch {
		case *t > 3:
			c.add(10, "SPY strong: %+.1f%% (10d)", *t)
		case *t < -3:
			c.add(-10, "SPY weak: %+.1f%% (10d)", *t)
		}
	}

	return c.banded(65, 35, "No macro data")
}

var analystRatingScores = map[string]float64{
	"strong_buy":   90,
	"buy":          75,
	"hold":         50,
	"underperform": 25,
	"sell":         25,
	"strong_sell":  10,
}

func analystConsensus(r model.FinancialRecord) model.Signal {
	c := newScorecard(r, 50, model.FieldAnalystRating, model.FieldUpsidePct)
	if c.insufficient() {
		return c.insufficientSignal()
	}
	c.metric("upside_pct", r.UpsidePct)
	c.metric("target_price", r.TargetPrice)

	rating := strings.ToLower(r.AnalystRating)
	if v, ok := analystRatingScores[rating]; ok {
		c.score = (c.score + v) / 2
		c.note("Consensus: %s", strings.ReplaceAll(rating, "_", " "))
		c.metrics["rating"] = rating
	}

	if n := r.AnalystCount; n != nil && *n > 0 {
		switch {
		case *n >= 15:
			c.note("Strong coverage: %d analysts", *n)
		case *n >= 5:
			c.note("Moderate coverage: %d analysts", *n)
		default:
			c.note("Limited coverage: %d analysts", *n)
		}
	}

	if u := r.UpsidePct; has(u) {
		switch {
		case *u > 20:
			c.add(15, "Big upside: %+.1f%% to target", *u)
		case *u > 10:
			c.add(10, "Good upside: %+.1f%%", *u)
		case *u > 0:
			c.add(5, "Some upside: %+.1f%%", *u)
		case *u > -10:
			c.add(-10, "Downside: %+.1f%%", *u)
		default:
			c.add(-20, "Big downside: %+.1f%%", *u)
			c.risk("Trading above analyst targets (%+.1f%%)", *u)
		}
	}

	return c.banded(65, 35, "No analyst data")
}

func earnings(r model.FinancialRecord) model.Signal {
	c := newScorecard(r, 50, model.FieldSurprisePct, model.FieldBeatsLast4Q)
	if c.insufficient() {
		return c.insufficientSignal()
	}
	c.metric("surprise_pct", r.SurprisePct)
	c.metric("reported_eps", r.ReportedEPS)

	if s := r.SurprisePct; has(s) {
		switch {
		case *s > 10:
			c.add(25, "Huge beat: %+.1f%%", *s)
		case *s > 5:
			c.add(15, "Strong beat: %+.1f%%", *s)
		case *s > 0:
			c.add(5, "Beat: %+.1f%%", *s)
		case *s > -5:
			c.add(-10, "Miss: %.1f%%", *s)
		default:
			c.add(-25, "Big miss: %.1f%%", *s)
			c.risk("Large earnings miss (%.1f%%)", *s)
		}
	}

	if b := r.BeatsLast4Q; b != nil && *b > 0 {
		switch {
		case *b >= 3:
			c.add(15, "Consistent: beat %d/4 quarters", *b)
		case *b >= 2:
			c.add(5, "Beat %d/4 quarters", *b)
		default:
			c.add(-10, "Struggling: only %d/4 beats", *b)
		}
	}

	return c.banded(65, 35, "No earnings data")
}
