package dto

import "time"

type TaxLot struct {
	Ticker        string  `json:"ticker" yaml:"ticker" validate:"required"`
	Shares        float64 `json:"shares" yaml:"shares" validate:"gt=0"`
	PurchaseDate  string  `json:"purchase_date" yaml:"purchase_date" validate:"required,datetime=2006-01-02"`
	PurchasePrice float64 `json:"purchase_price" yaml:"purchase_price" validate:"gt=0"`
	Sector        string  `json:"sector,omitempty" yaml:"sector"`
}

type TaxRequest struct {
	Lots   []TaxLot           `json:"lots" validate:"required,min=1,dive"`
	Prices map[string]float64 `json:"prices"`
}

type HarvestOpportunity struct {
	Ticker          string    `json:"ticker"`
	Shares          float64   `json:"shares"`
	PurchaseDate    time.Time `json:"purchase_date"`
	CostBasis       float64   `json:"cost_basis"`
	MarketValue     float64   `json:"market_value"`
	UnrealizedLoss  float64   `json:"unrealized_loss"`
	HoldingDays     int       `json:"holding_days"`
	Term            string    `json:"term"`
	TaxSavings      float64   `json:"tax_savings"`
	Replacements    []string  `json:"replacements"`
	Action          string    `json:"action"`
	WashSaleWarning string    `json:"wash_sale_warning,omitempty"`
}

type TaxSummary struct {
	TotalCostBasis   float64 `json:"total_cost_basis"`
	TotalMarketValue float64 `json:"total_market_value"`
	UnrealizedGains  float64 `json:"unrealized_gains"`
	UnrealizedLosses float64 `json:"unrealized_losses"`
	ShortTermGains   float64 `json:"short_term_gains"`
	ShortTermLosses  float64 `json:"short_term_losses"`
	LongTermGains    float64 `json:"long_term_gains"`
	LongTermLosses   float64 `json:"long_term_losses"`
	EstimatedTax     float64 `json:"estimated_tax"`
	PotentialSavings float64 `json:"potential_savings"`
}

type TaxReport struct {
	GeneratedAt     string               `json:"generated_at"`
	Opportunities   []HarvestOpportunity `json:"opportunities"`
	Summary         TaxSummary           `json:"summary"`
	Recommendations []string             `json:"recommendations"`
	MissingPrices   []string             `json:"missing_prices,omitempty"`
}
