package dto

const (
	RiskConservative = "conservative"
	RiskModerate     = "moderate"
	RiskAggressive   = "aggressive"
)

type PortfolioRequest struct {
	Tickers []string `json:"tickers" validate:"required,min=2,max=25,dive,required"`
	Risk    string   `json:"risk" default:"moderate" validate:"oneof=conservative moderate aggressive"`
	Capital float64  `json:"capital" default:"100000" validate:"gt=0"`
}

type PortfolioPosition struct {
	Ticker         string  `json:"ticker"`
	Weight         float64 `json:"weight"`
	Amount         float64 `json:"amount"`
	Shares         float64 `json:"shares,omitempty"`
	Price          float64 `json:"price,omitempty"`
	Signal         string  `json:"signal"`
	Confidence     int     `json:"confidence"`
	ExpectedReturn float64 `json:"expectedReturn"`
	Volatility     float64 `json:"volatility"`
	Sector         string  `json:"sector"`
}

type PortfolioMetrics struct {
	ExpectedReturn       float64            `json:"expectedReturn"`
	Volatility           float64            `json:"volatility"`
	SharpeRatio          float64            `json:"sharpeRatio"`
	DiversificationScore float64            `json:"diversificationScore"`
	MaxDrawdownEstimate  float64            `json:"maxDrawdownEstimate"`
	SectorExposure       map[string]float64 `json:"sectorExposure"`
}

type PortfolioResult struct {
	RiskProfile     string              `json:"riskProfile"`
	Capital         float64             `json:"capital"`
	Positions       []PortfolioPosition `json:"positions"`
	Metrics         PortfolioMetrics    `json:"metrics"`
	Recommendations []string            `json:"recommendations"`
	Failures        map[string]string   `json:"failures,omitempty"`
	GeneratedAt     string              `json:"generatedAt"`
}
