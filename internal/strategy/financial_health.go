package strategy

import "ai-hedge-fund/internal/model"

// financialHealth works in percent, so fractional ratios are scaled before banding.
func financialHealth(r model.FinancialRecord) model.Signal {
	c := newScorecard(r, 50,
		model.FieldOperatingMargin, model.FieldGrossMargin, model.FieldROE,
		model.FieldDebtToEquity, model.FieldCurrentRatio, model.FieldFreeCashFlow,
		model.FieldRevenueGrowth)
	if c.insufficient() {
		return c.insufficientSignal()
	}

	if m := r.OperatingMargin; has(m) {
		v := pct(*m)
		switch {
		case v > 25:
			c.add(15, "Excellent margin: %.1f%%", v)
		case v > 15:
			c.add(10, "Strong margin: %.1f%%", v)
		case v > 8:
			c.add(5, "Moderate margin: %.1f%%", v)
		case v < 3:
			c.add(-15, "Low margin: %.1f%%", v)
			c.risk("Low operating margin")
		}
	}

	if g := r.GrossMargin; has(g) {
		v := pct(*g)
		switch {
		case v > 50:
			c.add(10, "High gross margin: %.1f%%", v)
		case v < 20:
			c.score -= 10
			c.risk("Low gross margin")
		}
	}

	if r.ROE != nil {
		roe := pct(*r.ROE)
		var roa float64
		hasROA := r.ROA != nil && *r.ROA > 0
		if hasROA {
			roa = pct(*r.ROA)
		}
		leverageDriven := (hasROA && roe/roa > 5) ||
			(r.DebtToEquity != nil && *r.DebtToEquity > 2.0 && roe > 30)
		view := AssessROE(roe, roa, r.Sector, r.Industry)
		if view.InContext {
			leverageDriven = false
		}

		switch {
		case view.LeverageDriven:
			c.add(10, "%s", view.Explanation)
		case view.InContext && !view.Quality:
			c.add(-5, "%s", view.Explanation)
		case leverageDriven && hasROA:
			c.add(-10, "ROE %.1f%% is leverage-driven (ROA only %.1f%%)", roe, roa)
			c.risk("High ROE (%.1f%%) driven by debt, not quality", roe)
		case leverageDriven:
			c.add(-5, "High ROE %.1f%% with high debt, quality questionable", roe)
		case roe > 20:
			c.add(15, "Excellent ROE: %.1f%% (quality-driven)", roe)
		case roe > 12:
			c.add(10, "Good ROE: %.1f%%", roe)
		case roe < 5:
			c.add(-10, "Weak ROE: %.1f%%", roe)
			c.risk("Poor ROE")
		}
	}

	if de := r.DebtToEquity; has(de) {
		lev := AssessLeverage(*de, r.Sector, r.Industry)
		switch {
		case *de < 0.3:
			c.add(15, "Low debt: D/E %.2fx", *de)
		case lev.Tolerated:
			c.add(5, "%s", lev.Explanation)
		case *de < 0.8:
			c.add(5, "Manageable debt: D/E %.2fx", *de)
		case *de < 1.5 && !lev.Concerning:
			c.add(-10, "Elevated debt: D/E %.2fx", *de)
			c.risk("Elevated debt level (D/E %.2fx)", *de)
		default:
			c.add(-20, "High debt: D/E %.2fx", *de)
			c.risk("High debt burden (D/E %.2fx)", *de)
		}
	}

	if cr := r.CurrentRatio; has(cr) {
		switch {
		case *cr > 2:
			c.add(10, "Strong liquidity: CR %.2f", *cr)
		case *cr < 1:
			c.add(-15, "Weak liquidity: CR %.2f", *cr)
			c.risk("Liquidity concerns")
		}
	}

	if fcf := r.FreeCashFlow; has(fcf) {
		switch {
		case *fcf > 1000:
			c.add(15, "Strong FCF: $%.0fM", *fcf)
		case *fcf > 0:
			c.add(10, "Positive FCF: $%.0fM", *fcf)
		case *fcf < -500:
			c.add(-15, "Negative FCF: $%.0fM", *fcf)
			c.risk("Negative free cash flow")
		}
	}

	if g := r.RevenueGrowth; has(g) {
		v := pct(*g)
		switch {
		case v > 15:
			c.add(10, "Strong growth: %.1f%%", v)
		case v < -5:
			c.add(-10, "Declining revenue: %.1f%%", v)
			c.risk("Revenue decline")
		}
	}

	c.metrics["health_score"] = c.clamp()
	return c.banded(65, 40, "Average financial health")
}
