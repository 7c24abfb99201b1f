package strategy

import (
	"fmt"
	"math"
	"strings"

	"ai-hedge-fund/internal/model"
)

const (
	insufficientConfidence = 25
	minScaledConfidence    = 10
	minScore               = 10
	maxScore               = 95
)

// scorecard accumulates points and rationale fragments for one producer run and applies
// the shared missing-data policy when the signal is built.
type scorecard struct {
	required []string
	missing  []string
	score    float64
	notes    []string
	risks    []string
	metrics  map[string]interface{}
}

func newScorecard(record model.FinancialRecord, base float64, required ...string) *scorecard {
	return &scorecard{
		required: required,
		missing:  record.MissingFields(required...),
		score:    base,
		metrics:  map[string]interface{}{},
	}
}

// insufficient is true when none of the required inputs is present.
func (c *scorecard) insufficient() bool {
	return len(c.required) > 0 && len(c.missing) == len(c.required)
}

func (c *scorecard) add(points float64, format string, args ...interface{}) {
	c.score += points
	if format != "" {
		c.notes = append(c.notes, fmt.Sprintf(format, args...))
	}
}

func (c *scorecard) note(format string, args ...interface{}) {
	c.add(0, format, args...)
}

func (c *scorecard) risk(format string, args ...interface{}) {
	c.risks = append(c.risks, fmt.Sprintf(format, args...))
}

func (c *scorecard) metric(name string, v *float64) {
	if v != nil {
		c.metrics[name] = *v
	}
}

func (c *scorecard) clamp() float64 {
	c.score = math.Max(minScore, math.Min(maxScore, c.score))
	return c.score
}

// confidence scales a raw confidence by the share of required inputs present.
func (c *scorecard) confidence(raw float64) int {
	conf := raw
	if len(c.missing) > 0 && len(c.required) > 0 {
		available := float64(len(c.required) - len(c.missing))
		conf = math.Max(minScaledConfidence, math.Round(raw*available/float64(len(c.required))))
	}
	return int(math.Max(0, math.Min(100, math.Round(conf))))
}

func (c *scorecard) rationale(fallback string) string {
	parts := append([]string{}, c.notes...)
	for _, f := range c.missing {
		parts = append(parts, f+" unavailable")
	}
	if len(parts) == 0 {
		return fallback
	}
	return strings.Join(parts, "; ")
}

func (c *scorecard) signal(direction model.Direction, rawConfidence float64, fallback string) model.Signal {
	s := model.Signal{
		Direction:  direction,
		Confidence: c.confidence(rawConfidence),
		Rationale:  c.rationale(fallback),
		Risks:      c.risks,
	}
	if len(c.metrics) > 0 {
		s.KeyMetrics = c.metrics
	}
	return s
}

// banded applies the common clamp-then-threshold decision used by most personas.
func (c *scorecard) banded(bullishAt, bearishAt float64, fallback string) model.Signal {
	score := c.clamp()
	direction := model.Neutral
	switch {
	case score >= bullishAt:
		direction = model.Bullish
	case score <= bearishAt:
		direction = model.Bearish
	}
	return c.signal(direction, score, fallback)
}

func (c *scorecard) insufficientSignal() model.Signal {
	return model.Signal{
		Direction:  model.Neutral,
		Confidence: insufficientConfidence,
		Rationale:  "insufficient data: missing " + strings.Join(c.missing, ", "),
	}
}

func pct(v float64) float64 {
	return v * 100
}

func has(v *float64) bool {
	return v != nil
}
