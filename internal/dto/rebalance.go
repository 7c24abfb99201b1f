package dto

const (
	ActionIncrease = "INCREASE"
	ActionDecrease = "DECREASE"

	UrgencyHigh   = "HIGH"
	UrgencyMedium = "MEDIUM"
)

type Holding struct {
	Ticker string  `json:"ticker" yaml:"ticker" validate:"required"`
	Weight float64 `json:"weight" yaml:"weight" validate:"gte=0,lte=1"`
}

type RebalanceRequest struct {
	Holdings  []Holding `json:"holdings" validate:"required,min=1,dive"`
	Threshold float64   `json:"threshold" default:"0.05" validate:"gt=0,lt=1"`
	DaysSince int       `json:"days_since" default:"30" validate:"gte=0"`
}

type DriftItem struct {
	Ticker        string  `json:"ticker"`
	CurrentWeight float64 `json:"current_weight"`
	TargetWeight  float64 `json:"target_weight"`
	Drift         float64 `json:"drift"`
	Signal        string  `json:"signal"`
	Confidence    int     `json:"confidence"`
}

type RebalanceAction struct {
	Ticker  string  `json:"ticker"`
	Action  string  `json:"action"`
	From    float64 `json:"from"`
	To      float64 `json:"to"`
	Change  float64 `json:"change"`
	Urgency string  `json:"urgency"`
	Reason  string  `json:"reason"`
}

type RebalanceSchedule struct {
	Immediate []string `json:"immediate"`
	ThisWeek  []string `json:"this_week"`
	Monitor   []string `json:"monitor"`
}

type RebalanceReport struct {
	GeneratedAt     string            `json:"generated_at"`
	HealthScore     int               `json:"health_score"`
	TotalDrift      float64           `json:"total_drift"`
	NeedsRebalance  bool              `json:"needs_rebalance"`
	Drifts          []DriftItem       `json:"drifts"`
	Actions         []RebalanceAction `json:"actions"`
	Recommendations []string          `json:"recommendations"`
	Schedule        RebalanceSchedule `json:"schedule"`
}
