package strategy

import (
	"fmt"
	"math"
	"strings"

	"ai-hedge-fund/internal/model"
	"ai-hedge-fund/pkg/utils"
)

var volatileSectors = []string{"Technology", "Biotechnology"}

func technical(r model.FinancialRecord) model.Signal {
	c := newScorecard(r, 50, model.FieldPrice, model.FieldSMA50, model.FieldSMA200, model.FieldRSI14)
	if c.insufficient() {
		return c.insufficientSignal()
	}
	c.metric("rsi", r.RSI14)
	c.metric("sma_50", r.SMA50)
	c.metric("sma_200", r.SMA200)

	price := r.Price
	if has(price) && has(r.SMA50) {
		if *price > *r.SMA50 {
			c.add(15, "Price above 50-day MA")
		} else {
			c.add(-10, "Price below 50-day MA")
		}
	}
	if has(price) && has(r.SMA200) {
		if *price > *r.SMA200 {
			c.add(15, "Price above 200-day MA")
		} else {
			c.add(-15, "Price below 200-day MA")
		}
	}
	if has(r.SMA50) && has(r.SMA200) {
		if *r.SMA50 > *r.SMA200 {
			c.add(10, "Golden cross pattern")
		} else {
			c.add(-10, "Death cross pattern")
		}
	}
	if rsi := r.RSI14; has(rsi) {
		switch {
		case *rsi < 30:
			c.add(15, "Oversold (RSI %.1f)", *rsi)
		case *rsi > 70:
			c.add(-15, "Overbought (RSI %.1f)", *rsi)
		default:
			c.note("RSI neutral at %.1f", *rsi)
		}
	}

	return c.banded(65, 35, "Mixed signals")
}

func riskManager(r model.FinancialRecord) model.Signal {
	c := newScorecard(r, 50, model.FieldBeta, model.FieldPERatio, model.FieldSector)
	if c.insufficient() {
		return c.insufficientSignal()
	}
	c.metric("beta", r.Beta)

	var factors []string
	if beta := r.Beta; has(beta) {
		switch {
		case *beta > 1.5:
			c.score -= 20
			factors = append(factors, fmt.Sprintf("High beta (%.1f)", *beta))
			c.risk("High beta (%.1f)", *beta)
		case *beta < 0.8:
			c.score += 10
			factors = append(factors, fmt.Sprintf("Low beta (%.1f)", *beta))
		default:
			factors = append(factors, fmt.Sprintf("Market beta (%.1f)", *beta))
		}
	}

	if pe := r.PERatio; has(pe) {
		switch {
		case *pe > 40:
			c.score -= 20
			factors = append(factors, "Very high valuation")
			c.risk("Very high valuation (P/E %.1f)", *pe)
		case *pe > 25:
			c.score -= 10
			factors = append(factors, "Elevated valuation")
		}
	}

	if utils.ContainsString(volatileSectors, r.Sector) {
		factors = append(factors, "Volatile sector: "+r.Sector)
		c.risk("Volatile sector: %s", r.Sector)
	}

	if len(factors) > 0 {
		c.note("Risk factors: %s", strings.Join(factors, ", "))
	}

	direction := model.Bearish
	switch {
	case c.score >= 60:
		direction = model.Bullish
	case c.score >= 40:
		direction = model.Neutral
	}
	c.metrics["risk_score"] = c.score
	return c.signal(direction, math.Abs(c.score-50)+50, "Risk factors: none identified")
}
