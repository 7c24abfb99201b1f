package strategy

import (
	"ai-hedge-fund/internal/model"
	"ai-hedge-fund/pkg/utils"
)

var growthSectors = []string{"Technology", "Healthcare", "Biotechnology", "Communication Services", "Communications"}

func wood(r model.FinancialRecord) model.Signal {
	c := newScorecard(r, 50, model.FieldSector, model.FieldPERatio, model.FieldMarketCap)
	if c.insufficient() {
		return c.insufficientSignal()
	}
	c.metrics["sector"] = r.Sector

	if r.Sector != "" {
		if utils.ContainsString(growthSectors, r.Sector) {
			c.add(20, "Growth sector: %s", r.Sector)
		} else {
			c.add(-15, "Traditional sector: %s", r.Sector)
		}
	}

	if pe := r.PERatio; has(pe) {
		switch {
		case *pe > 50:
			c.add(10, "High P/E of %.1f acceptable for growth", *pe)
		case *pe < 20:
			c.add(-10, "Low P/E of %.1f suggests limited growth", *pe)
		}
	}

	if mc := r.MarketCap; has(mc) && *mc < 50e9 {
		c.add(15, "Mid-cap with growth runway ($%.1fB)", *mc/1e9)
	}

	s := c.banded(65, 35, "Neutral on growth potential")
	s.KeyMetrics["growth_potential"] = c.score > 60
	return s
}

func lynch(r model.FinancialRecord) model.Signal {
	c := newScorecard(r, 50, model.FieldPEGRatio, model.FieldEarningsGrowth, model.FieldDebtToEquity)
	if c.insufficient() {
		return c.insufficientSignal()
	}
	c.metric("peg", r.PEGRatio)
	c.metric("earnings_growth", r.EarningsGrowth)

	if peg := r.PEGRatio; has(peg) {
		switch {
		case *peg <= 0:
			c.note("PEG %.2f not meaningful", *peg)
		case *peg < 1:
			c.add(25, "Growth at a reasonable price (PEG %.2f)", *peg)
		case *peg < 2:
			c.add(10, "Fair PEG of %.2f", *peg)
		default:
			c.add(-15, "Paying too much for growth (PEG %.2f)", *peg)
		}
	}

	if g := r.EarningsGrowth; has(g) {
		switch {
		case *g > 0.15:
			c.add(10, "Fast grower: earnings +%.1f%%", pct(*g))
		case *g < 0:
			c.add(-10, "Shrinking earnings: %.1f%%", pct(*g))
		}
	}

	if de := r.DebtToEquity; has(de) && *de < 0.8 {
		c.add(5, "Manageable debt (D/E %.2f)", *de)
	}

	return c.banded(65, 35, "Stalwart with no edge")
}
