package model

// Consensus is derived from a set of signals and never stored.
type Consensus struct {
	Direction      Direction `json:"direction"`
	Confidence     int       `json:"confidence"`
	Agreement      string    `json:"agreement"`
	Recommendation string    `json:"recommendation"`
	BullishScore   float64   `json:"bullishScore"`
	BearishScore   float64   `json:"bearishScore"`
	BullishCount   int       `json:"bullishCount"`
	BearishCount   int       `json:"bearishCount"`
	NeutralCount   int       `json:"neutralCount"`
	Total          int       `json:"total"`
	KeyRisks       []string  `json:"keyRisks,omitempty"`
}
