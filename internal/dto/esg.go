package dto

type ESGRequest struct {
	Tickers   []string `json:"tickers" validate:"required,min=1,max=50,dive,required"`
	Portfolio bool     `json:"portfolio"`
}

type ESGAlert struct {
	Severity string `json:"severity"`
	Pillar   string `json:"pillar"`
	Message  string `json:"message"`
}

type ESGScore struct {
	Ticker           string     `json:"ticker"`
	Sector           string     `json:"sector"`
	Environmental    float64    `json:"environmental"`
	Social           float64    `json:"social"`
	Governance       float64    `json:"governance"`
	Overall          float64    `json:"overall"`
	ControversyLevel int        `json:"controversy_level"`
	Controversies    []string   `json:"controversies,omitempty"`
	Excluded         bool       `json:"excluded"`
	ExclusionReasons []string   `json:"exclusion_reasons,omitempty"`
	Alerts           []ESGAlert `json:"alerts,omitempty"`
	Strengths        []string   `json:"strengths,omitempty"`
	Weaknesses       []string   `json:"weaknesses,omitempty"`
	Recommendation   string     `json:"recommendation"`
	Estimated        bool       `json:"estimated"`
}

type ESGPortfolioReport struct {
	Scores                   []ESGScore `json:"scores"`
	AverageScore             float64    `json:"average_score"`
	Excluded                 []string   `json:"excluded"`
	ImprovementOpportunities []string   `json:"improvement_opportunities"`
}
