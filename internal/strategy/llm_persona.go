package strategy

import (
	"context"
	"errors"
	"fmt"
	"math"

	"ai-hedge-fund/internal/dto"
	"ai-hedge-fund/internal/model"
	"ai-hedge-fund/internal/repository"
	"ai-hedge-fund/pkg/common"
	"ai-hedge-fund/pkg/logger"
)

const (
	llmFallbackConfidence = 50

	RationaleModelUnparsable  = "model answer could not be interpreted; neutral substituted"
	RationaleModelUnavailable = "model unavailable; neutral substituted"
)

var philosophies = map[Persona]string{
	PersonaValue: "Value investing. Look for ROE above 15%, debt/equity below 0.5, operating margin above 15%, " +
		"a durable moat and a margin of safety. Avoid heavy debt and cyclicals without a moat. " +
		"Wonderful companies at fair prices.",
	PersonaQuality: "Rational investing. Stay inside the circle of competence, apply mental models, think long term, " +
		"prefer quality over price and judge capital allocation. The big money is in the waiting.",
	PersonaDeepValue: "Deep value. Demand a margin of safety (buy at two thirds of value), P/E below 15, P/B below 1.5, " +
		"current ratio above 2 and no earnings deficits.",
	PersonaContrarian: "Contrarian deep value. Hunt for hidden value, assets below replacement cost, strong balance " +
		"sheets and catalysts the crowd ignores. Better certain and make less than hopeful and lose.",
	PersonaGrowth: "Growth and innovation. Favor disruptive platforms, exponential growth, high gross margins and a " +
		"large addressable market. A high P/E is acceptable for true innovators.",
	PersonaGARP: "Growth at a reasonable price. Understandable business, ten-bagger potential, PEG below 1. " +
		"Invest in what you know.",
	PersonaTechnical: "Price action. Trend against the 50 and 200 day averages, golden and death crosses, RSI levels " +
		"and volume confirmation. Bullish when price > 50MA > 200MA with RSI between 40 and 60.",
	PersonaRisk: "Risk control. Beta, position sizing, drawdown, liquidity and tail risk. Beta above 1.5 means " +
		"smaller positions. Never lose money permanently.",
}

// LLMPersonas are the personas that have a philosophy prompt.
var LLMPersonas = []Persona{
	PersonaValue, PersonaQuality, PersonaDeepValue, PersonaContrarian,
	PersonaGrowth, PersonaGARP, PersonaTechnical, PersonaRisk,
}

type llmProducer struct {
	persona Persona
	ai      repository.AIRepository
	log     *logger.Logger
}

// NewLLMProducer delegates the judgement for a persona to the language model.
func NewLLMProducer(p Persona, ai repository.AIRepository, log *logger.Logger) (SignalProducer, error) {
	if _, ok := philosophies[p]; !ok {
		return nil, fmt.Errorf("no llm philosophy for persona %q", p)
	}
	if ai == nil {
		return nil, fmt.Errorf("llm producer %q: ai repository not configured", p)
	}
	return &llmProducer{persona: p, ai: ai, log: log}, nil
}

func (p *llmProducer) Name() string {
	return p.persona.DisplayName()
}

func (p *llmProducer) Persona() Persona {
	return p.persona
}

func (p *llmProducer) Produce(ctx context.Context, record model.FinancialRecord) model.Signal {
	w := p.persona.Weight()
	signal := model.Signal{
		Source:   p.Name(),
		Producer: model.ProducerLLM,
		Weight:   &w,
	}

	resp, err := p.ai.GeneratePersonaSignal(ctx, dto.PersonaSignalParam{
		Persona:    string(p.persona),
		Name:       p.Name(),
		Philosophy: philosophies[p.persona],
		Ticker:     record.Ticker,
		Facts:      RecordFacts(record),
	})
	if err != nil {
		p.log.WarnContext(ctx, "llm persona signal failed, substituting neutral",
			logger.StringField("persona", string(p.persona)),
			logger.StringField("ticker", record.Ticker),
			logger.ErrorField(err),
		)
		signal.Direction = model.Neutral
		signal.Confidence = llmFallbackConfidence
		signal.Rationale = RationaleModelUnavailable
		if errors.Is(err, common.ErrParseFailure) {
			signal.Rationale = RationaleModelUnparsable
		}
		return signal
	}

	signal.Direction = model.Direction(resp.Signal)
	signal.Confidence = int(math.Max(0, math.Min(100, math.Round(resp.Confidence))))
	signal.Rationale = resp.Reasoning
	if len(resp.KeyMetrics) > 0 {
		signal.KeyMetrics = resp.KeyMetrics
	}
	return signal
}

// RecordFacts renders the populated fields of a record as prompt lines. Absent fields are
// listed as unavailable so the model does not assume zero.
func RecordFacts(r model.FinancialRecord) []string {
	var facts []string
	add := func(label string, v *float64, format string) {
		if v == nil {
			facts = append(facts, label+": unavailable")
			return
		}
		facts = append(facts, fmt.Sprintf("%s: "+format, label, *v))
	}
	addPct := func(label string, v *float64) {
		if v == nil {
			add(label, nil, "")
			return
		}
		pv := pct(*v)
		add(label, &pv, "%.1f%%")
	}

	if r.Sector != "" {
		facts = append(facts, "Sector: "+r.Sector)
	}
	if r.Industry != "" {
		facts = append(facts, "Industry: "+r.Industry)
	}
	add("Price", r.Price, "%.2f")
	if r.MarketCap != nil {
		facts = append(facts, fmt.Sprintf("Market Cap: $%.1fB", *r.MarketCap/1e9))
	} else {
		add("Market Cap", nil, "")
	}
	add("P/E", r.PERatio, "%.1f")
	add("Forward P/E", r.ForwardPE, "%.1f")
	add("P/B", r.PBRatio, "%.2f")
	add("PEG", r.PEGRatio, "%.2f")
	addPct("ROE", r.ROE)
	addPct("ROA", r.ROA)
	addPct("Operating Margin", r.OperatingMargin)
	addPct("Gross Margin", r.GrossMargin)
	addPct("Revenue Growth", r.RevenueGrowth)
	addPct("Earnings Growth", r.EarningsGrowth)
	add("Debt/Equity", r.DebtToEquity, "%.2f")
	add("Current Ratio", r.CurrentRatio, "%.2f")
	add("Free Cash Flow ($M)", r.FreeCashFlow, "%.0f")
	add("50-day MA", r.SMA50, "%.2f")
	add("200-day MA", r.SMA200, "%.2f")
	add("RSI(14)", r.RSI14, "%.1f")
	add("Beta", r.Beta, "%.2f")
	add("Dividend Yield (%)", r.DividendYield, "%.2f")
	add("VIX", r.VIX, "%.1f")
	if r.MarketRegime != "" {
		facts = append(facts, "Market Regime: "+r.MarketRegime)
	}
	return facts
}
