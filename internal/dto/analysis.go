package dto

import (
	"ai-hedge-fund/internal/model"
)

const (
	ModeRules  = "rules"
	ModeLLM    = "llm"
	ModeHybrid = "hybrid"
)

type AnalyzeRequest struct {
	Tickers  []string `json:"tickers" validate:"required,min=1,max=25,dive,required"`
	Mode     string   `json:"mode" default:"rules" validate:"oneof=rules llm hybrid"`
	Detailed bool     `json:"detailed"`
	Workers  int      `json:"workers" validate:"gte=0,lte=32"`
}

type SignalView struct {
	Source     string          `json:"source"`
	Direction  model.Direction `json:"direction"`
	Confidence int             `json:"confidence"`
	Rationale  string          `json:"rationale"`
	Weight     float64         `json:"weight,omitempty"`
	Producer   string          `json:"producer,omitempty"`
}

type ConsensusView struct {
	Direction      model.Direction `json:"direction"`
	Confidence     int             `json:"confidence"`
	Agreement      string          `json:"agreement"`
	Recommendation string          `json:"recommendation"`
}

// AnalysisResult is the machine readable output of one ticker analysis.
type AnalysisResult struct {
	Ticker        string        `json:"ticker"`
	AnalysisDate  string        `json:"analysisDate"`
	Signals       []SignalView  `json:"signals"`
	Consensus     ConsensusView `json:"consensus"`
	KeyRisks      []string      `json:"keyRisks,omitempty"`
	DataQuality   string        `json:"dataQuality,omitempty"`
	MissingFields []string      `json:"missingFields,omitempty"`
	Error         string        `json:"error,omitempty"`

	// Kept for callers inside the process; never serialized.
	Record       *model.FinancialRecord `json:"-"`
	RawConsensus model.Consensus        `json:"-"`
	RawSignals   []model.Signal         `json:"-"`
}

func (r AnalysisResult) Failed() bool {
	return r.Error != ""
}

func NewSignalView(s model.Signal) SignalView {
	return SignalView{
		Source:     s.Source,
		Direction:  s.Direction,
		Confidence: s.Confidence,
		Rationale:  s.Rationale,
		Weight:     s.EffectiveWeight(),
		Producer:   s.Producer,
	}
}

func NewConsensusView(c model.Consensus) ConsensusView {
	return ConsensusView{
		Direction:      c.Direction,
		Confidence:     c.Confidence,
		Agreement:      c.Agreement,
		Recommendation: c.Recommendation,
	}
}
