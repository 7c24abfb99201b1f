package strategy

import (
	"context"
	"fmt"
	"strings"

	"ai-hedge-fund/internal/model"
	"ai-hedge-fund/pkg/common"
)

type Persona string

const (
	PersonaValue            Persona = "value"
	PersonaQuality          Persona = "quality"
	PersonaDeepValue        Persona = "deep-value"
	PersonaContrarian       Persona = "contrarian"
	PersonaGrowth           Persona = "growth"
	PersonaGARP             Persona = "garp"
	PersonaTechnical        Persona = "technical"
	PersonaRisk             Persona = "risk"
	PersonaIncome           Persona = "income"
	PersonaMacro            Persona = "macro"
	PersonaAnalystConsensus Persona = "analyst-consensus"
	PersonaEarnings         Persona = "earnings"
	PersonaFinancialHealth  Persona = "financial-health"
)

// Personas is the fixed evaluation order. Results are reported in this order.
var Personas = []Persona{
	PersonaValue,
	PersonaQuality,
	PersonaDeepValue,
	PersonaContrarian,
	PersonaGrowth,
	PersonaGARP,
	PersonaTechnical,
	PersonaRisk,
	PersonaIncome,
	PersonaMacro,
	PersonaAnalystConsensus,
	PersonaEarnings,
	PersonaFinancialHealth,
}

var personaNames = map[Persona]string{
	PersonaValue:            "Warren Buffett",
	PersonaQuality:          "Charlie Munger",
	PersonaDeepValue:        "Ben Graham",
	PersonaContrarian:       "Michael Burry",
	PersonaGrowth:           "Cathie Wood",
	PersonaGARP:             "Peter Lynch",
	PersonaTechnical:        "Technical Analyst",
	PersonaRisk:             "Risk Manager",
	PersonaIncome:           "Dividend Investor",
	PersonaMacro:            "Macro Strategist",
	PersonaAnalystConsensus: "Wall Street Consensus",
	PersonaEarnings:         "Earnings Analyst",
	PersonaFinancialHealth:  "Financial Health Analyst",
}

// DefaultWeights are the consensus weights attached to every signal a persona emits.
var DefaultWeights = map[Persona]float64{
	PersonaValue:            1.3,
	PersonaQuality:          1.2,
	PersonaDeepValue:        1.1,
	PersonaContrarian:       0.9,
	PersonaGrowth:           0.9,
	PersonaGARP:             1.0,
	PersonaTechnical:        0.7,
	PersonaRisk:             1.0,
	PersonaIncome:           1.0,
	PersonaMacro:            1.0,
	PersonaAnalystConsensus: 1.0,
	PersonaEarnings:         1.0,
	PersonaFinancialHealth:  1.0,
}

func (p Persona) DisplayName() string {
	if name, ok := personaNames[p]; ok {
		return name
	}
	return string(p)
}

func (p Persona) Weight() float64 {
	if w, ok := DefaultWeights[p]; ok {
		return w
	}
	return 1.0
}

// ParsePersonas resolves a user supplied list. An empty list selects every persona.
func ParsePersonas(names []string) ([]Persona, error) {
	if len(names) == 0 {
		return Personas, nil
	}
	var out []Persona
	seen := map[Persona]bool{}
	for _, raw := range names {
		p := Persona(strings.ToLower(strings.TrimSpace(raw)))
		if p == "" || seen[p] {
			continue
		}
		if _, ok := personaNames[p]; !ok {
			return nil, fmt.Errorf("unknown persona %q: %w", raw, common.ErrInvalidInput)
		}
		seen[p] = true
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no personas selected: %w", common.ErrInvalidInput)
	}
	return out, nil
}

// SignalProducer maps one record to one signal. Implementations never fail: missing data
// or upstream problems are expressed as a low-confidence neutral signal.
type SignalProducer interface {
	Produce(ctx context.Context, record model.FinancialRecord) model.Signal
	Name() string
	Persona() Persona
}

type ruleFunc func(record model.FinancialRecord) model.Signal

type ruleProducer struct {
	persona Persona
	rule    ruleFunc
}

func (p *ruleProducer) Produce(_ context.Context, record model.FinancialRecord) model.Signal {
	s := p.rule(record)
	s.Source = p.Name()
	s.Producer = model.ProducerRules
	w := p.persona.Weight()
	s.Weight = &w
	return s
}

func (p *ruleProducer) Name() string {
	return p.persona.DisplayName()
}

func (p *ruleProducer) Persona() Persona {
	return p.persona
}

var rules = map[Persona]ruleFunc{
	PersonaValue:            buffett,
	PersonaQuality:          munger,
	PersonaDeepValue:        graham,
	PersonaContrarian:       burry,
	PersonaGrowth:           wood,
	PersonaGARP:             lynch,
	PersonaTechnical:        technical,
	PersonaRisk:             riskManager,
	PersonaIncome:           dividend,
	PersonaMacro:            macro,
	PersonaAnalystConsensus: analystConsensus,
	PersonaEarnings:         earnings,
	PersonaFinancialHealth:  financialHealth,
}

// NewRuleProducer returns the threshold-based producer for a persona.
func NewRuleProducer(p Persona) (SignalProducer, error) {
	rule, ok := rules[p]
	if !ok {
		return nil, fmt.Errorf("no rule producer for persona %q: %w", p, common.ErrInvalidInput)
	}
	return &ruleProducer{persona: p, rule: rule}, nil
}

// NewRuleProducers builds the registry of rule producers keyed by persona.
func NewRuleProducers() map[Persona]SignalProducer {
	producers := make(map[Persona]SignalProducer, len(rules))
	for p, rule := range rules {
		producers[p] = &ruleProducer{persona: p, rule: rule}
	}
	return producers
}
