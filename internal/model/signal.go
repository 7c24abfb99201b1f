package model

import (
	"fmt"
	"math"
)

type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
	Neutral Direction = "neutral"
)

func (d Direction) Valid() bool {
	return d == Bullish || d == Bearish || d == Neutral
}

const (
	ProducerRules = "rules"
	ProducerLLM   = "llm"
)

// Signal is one producer's opinion on one record. Weight nil means 1.0.
type Signal struct {
	Source     string                 `json:"source"`
	Direction  Direction              `json:"direction"`
	Confidence int                    `json:"confidence"`
	Rationale  string                 `json:"rationale"`
	Weight     *float64               `json:"weight,omitempty"`
	Producer   string                 `json:"producer,omitempty"`
	KeyMetrics map[string]interface{} `json:"key_metrics,omitempty"`
	Risks      []string               `json:"risks,omitempty"`
}

func (s Signal) EffectiveWeight() float64 {
	if s.Weight == nil {
		return 1.0
	}
	return *s.Weight
}

func (s Signal) Validate() error {
	if !s.Direction.Valid() {
		return fmt.Errorf("signal %q: unknown direction %q", s.Source, s.Direction)
	}
	if s.Confidence < 0 || s.Confidence > 100 {
		return fmt.Errorf("signal %q: confidence %d outside [0,100]", s.Source, s.Confidence)
	}
	w := s.EffectiveWeight()
	if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		return fmt.Errorf("signal %q: invalid weight %v", s.Source, w)
	}
	return nil
}
