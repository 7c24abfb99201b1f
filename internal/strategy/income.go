package strategy

import "ai-hedge-fund/internal/model"

const (
	payoutSafe          = "safe"
	payoutModerate      = "moderate"
	payoutHigh          = "high"
	payoutUnsustainable = "unsustainable"
)

// PayoutStatus classifies a payout ratio given in percent.
func PayoutStatus(payoutPct float64) string {
	switch {
	case payoutPct < 40:
		return payoutSafe
	case payoutPct < 60:
		return payoutModerate
	case payoutPct < 80:
		return payoutHigh
	default:
		return payoutUnsustainable
	}
}

func paysNoDividend(r model.FinancialRecord) bool {
	if r.DividendYield != nil {
		return *r.DividendYield <= 0
	}
	return r.DividendRate != nil && *r.DividendRate <= 0
}

func dividend(r model.FinancialRecord) model.Signal {
	if paysNoDividend(r) {
		return model.Signal{
			Direction:  model.Neutral,
			Confidence: 50,
			Rationale:  "No dividend paid - not an income stock",
		}
	}

	// Dividend history only adds points; a record without it is not penalised.
	c := newScorecard(r, 50, model.FieldDividendYield, model.FieldPayoutRatio)
	if c.insufficient() {
		return c.insufficientSignal()
	}
	c.metric("yield", r.DividendYield)
	c.metric("payout_ratio", r.PayoutRatio)

	if y := r.DividendYield; has(y) {
		switch {
		case *y > 5:
			c.add(10, "High yield: %.2f%%", *y)
		case *y > 3:
			c.add(20, "Good yield: %.2f%%", *y)
		case *y > 2:
			c.add(15, "Decent yield: %.2f%%", *y)
		case *y > 0:
			c.add(5, "Low yield: %.2f%%", *y)
		}
	}

	if p := r.PayoutRatio; has(p) {
		switch PayoutStatus(*p) {
		case payoutSafe:
			c.add(25, "Safe payout: %.1f%%", *p)
		case payoutModerate:
			c.add(15, "Moderate payout: %.1f%%", *p)
		case payoutHigh:
			c.add(-5, "High payout risk: %.1f%%", *p)
		default:
			c.add(-25, "Unsustainable payout: %.1f%%", *p)
			c.risk("Unsustainable dividend payout (%.1f%%)", *p)
		}
	}

	if g := r.DividendGrowth5Y; has(g) {
		switch {
		case *g > 10:
			c.add(15, "Strong growth: %.1f%% (5Y)", *g)
		case *g > 5:
			c.add(10, "Good growth: %.1f%% (5Y)", *g)
		case *g > 0:
			c.add(5, "Slow growth: %.1f%% (5Y)", *g)
		default:
			c.add(-10, "Declining dividend: %.1f%%", *g)
		}
	} else {
		c.note("5Y dividend growth unavailable")
	}

	if n := r.ConsecutiveYears; n != nil {
		switch {
		case *n >= 25:
			c.add(15, "Dividend aristocrat: %d years", *n)
		case *n >= 10:
			c.add(10, "Consistent: %d years", *n)
		case *n >= 5:
			c.add(5, "%d years of increases", *n)
		}
	}

	return c.banded(65, 35, "No dividend data")
}
