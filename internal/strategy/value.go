package strategy

import "ai-hedge-fund/internal/model"

func buffett(r model.FinancialRecord) model.Signal {
	c := newScorecard(r, 0,
		model.FieldROE, model.FieldDebtToEquity, model.FieldOperatingMargin,
		model.FieldSMA200, model.FieldPERatio, model.FieldMarketCap)
	if c.insufficient() {
		return c.insufficientSignal()
	}
	c.metric("roe", r.ROE)
	c.metric("pe", r.PERatio)
	c.metric("debt_to_equity", r.DebtToEquity)

	if roe := r.ROE; has(roe) {
		switch {
		case *roe > 0.15:
			c.add(25, "Strong ROE of %.1f%%", pct(*roe))
		case *roe > 0.10:
			c.add(15, "Good ROE of %.1f%%", pct(*roe))
		default:
			c.note("Weak ROE of %.1f%%", pct(*roe))
		}
	}

	if de := r.DebtToEquity; has(de) {
		lev := AssessLeverage(*de, r.Sector, r.Industry)
		switch {
		case *de < 0.5:
			c.add(15, "Conservative debt (D/E %.2f)", *de)
		case lev.Tolerated:
			c.add(5, "%s", lev.Explanation)
		case *de < 1.0:
			c.add(5, "")
		default:
			c.note("High debt (D/E %.2f)", *de)
		}
	}

	if m := r.OperatingMargin; has(m) {
		switch {
		case *m > 0.15:
			c.add(20, "Strong operating margin of %.1f%%", pct(*m))
		case *m > 0.10:
			c.add(10, "")
		}
	}

	if has(r.Price) && has(r.SMA200) && *r.Price > *r.SMA200 {
		c.add(10, "Price above 200-day MA (uptrend)")
	}

	if pe := r.PERatio; has(pe) {
		switch {
		case *pe < 20:
			c.add(20, "Reasonable P/E of %.1f", *pe)
		case *pe < 30:
			c.add(10, "")
		default:
			c.note("High P/E of %.1f", *pe)
		}
	}

	if has(r.MarketCap) && *r.MarketCap > 100e9 {
		c.add(10, "Large cap, stable business")
	}

	return c.banded(65, 35, "Mixed signals")
}

func munger(r model.FinancialRecord) model.Signal {
	c := newScorecard(r, 0,
		model.FieldROE, model.FieldGrossMargin, model.FieldDebtToEquity,
		model.FieldFreeCashFlow, model.FieldPERatio)
	if c.insufficient() {
		return c.insufficientSignal()
	}
	c.metric("roe", r.ROE)
	c.metric("gross_margin", r.GrossMargin)
	c.metric("free_cash_flow", r.FreeCashFlow)

	if roe := r.ROE; has(roe) {
		switch {
		case *roe > 0.20:
			c.add(25, "High-quality returns: ROE %.1f%%", pct(*roe))
		case *roe > 0.15:
			c.add(15, "Solid ROE of %.1f%%", pct(*roe))
		default:
			c.note("Unremarkable ROE of %.1f%%", pct(*roe))
		}
	}

	if gm := r.GrossMargin; has(gm) {
		switch {
		case *gm > 0.40:
			c.add(15, "Pricing power: gross margin %.1f%%", pct(*gm))
		case *gm < 0.20:
			c.add(-5, "Thin gross margin of %.1f%%", pct(*gm))
		}
	}

	if de := r.DebtToEquity; has(de) {
		lev := AssessLeverage(*de, r.Sector, r.Industry)
		switch {
		case *de < 0.5:
			c.add(15, "Little leverage (D/E %.2f)", *de)
		case lev.Tolerated:
			c.note("%s", lev.Explanation)
		case lev.Concerning:
			c.add(-10, "Leverage avoided by rational owners (D/E %.2f)", *de)
		}
	}

	if fcf := r.FreeCashFlow; has(fcf) {
		if *fcf > 0 {
			c.add(15, "Generates cash: FCF $%.0fM", *fcf)
		} else {
			c.note("Burning cash: FCF $%.0fM", *fcf)
		}
	}

	if pe := r.PERatio; has(pe) {
		switch {
		case *pe < 25:
			c.add(10, "Fair price at P/E %.1f", *pe)
		case *pe > 40:
			c.add(-10, "Paying up at P/E %.1f", *pe)
		}
	}

	return c.banded(65, 35, "No clear quality signal")
}

func graham(r model.FinancialRecord) model.Signal {
	c := newScorecard(r, 0, model.FieldPERatio, model.FieldPBRatio, model.FieldCurrentRatio)
	if c.insufficient() {
		return c.insufficientSignal()
	}
	c.metric("pe", r.PERatio)
	c.metric("pb", r.PBRatio)
	c.metric("current_ratio", r.CurrentRatio)

	if pe := r.PERatio; has(pe) {
		switch {
		case *pe < 15:
			c.add(30, "Attractive P/E of %.1f", *pe)
		case *pe < 25:
			c.add(15, "")
		default:
			c.note("High P/E of %.1f", *pe)
		}
	}

	if pb := r.PBRatio; has(pb) {
		switch {
		case *pb < 1.5:
			c.add(25, "Good P/B of %.1f", *pb)
		case *pb < 3.0:
			c.add(10, "")
		default:
			c.note("High P/B of %.1f", *pb)
		}
	}

	if cr := r.CurrentRatio; has(cr) {
		switch {
		case *cr > 2.0:
			c.add(20, "Strong liquidity (current ratio %.2f)", *cr)
		case *cr > 1.0:
			c.add(10, "")
		}
	}

	if c.score >= 60 {
		c.note("Good margin of safety")
	}

	return c.banded(65, 35, "No clear value signal")
}

func burry(r model.FinancialRecord) model.Signal {
	c := newScorecard(r, 0,
		model.FieldPBRatio, model.FieldFreeCashFlow, model.FieldDebtToEquity,
		model.FieldSMA200, model.FieldRSI14, model.FieldPERatio)
	if c.insufficient() {
		return c.insufficientSignal()
	}
	c.metric("pb", r.PBRatio)
	c.metric("rsi", r.RSI14)

	if pb := r.PBRatio; has(pb) {
		switch {
		case *pb < 1.0:
			c.add(25, "Trading below book (P/B %.2f)", *pb)
		case *pb < 1.5:
			c.add(10, "Near book value (P/B %.2f)", *pb)
		}
	}

	if fcf := r.FreeCashFlow; has(fcf) && *fcf > 0 {
		c.add(15, "Positive FCF $%.0fM", *fcf)
	}

	if de := r.DebtToEquity; has(de) && *de < 0.5 {
		c.add(10, "Balance sheet can survive (D/E %.2f)", *de)
	}

	if has(r.Price) && has(r.SMA200) && *r.Price < *r.SMA200 {
		c.add(10, "Beaten down below 200-day MA")
	}

	if rsi := r.RSI14; has(rsi) && *rsi < 30 {
		c.add(10, "Capitulation (RSI %.1f)", *rsi)
	}

	if pe := r.PERatio; has(pe) && *pe > 40 {
		c.add(-15, "Crowded trade at P/E %.1f", *pe)
		c.risk("Speculative valuation (P/E %.1f)", *pe)
	}

	return c.banded(65, 35, "Nothing the crowd is missing")
}
