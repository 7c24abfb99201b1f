package model

import (
	"sort"
	"time"
)

// Field names used in FinancialRecord.Missing and by producers to declare their inputs.
const (
	FieldPrice            = "price"
	FieldMarketCap        = "market_cap"
	FieldPERatio          = "pe_ratio"
	FieldForwardPE        = "forward_pe"
	FieldPBRatio          = "pb_ratio"
	FieldPEGRatio         = "peg_ratio"
	FieldROE              = "roe"
	FieldROA              = "roa"
	FieldOperatingMargin  = "operating_margin"
	FieldGrossMargin      = "gross_margin"
	FieldDebtToEquity     = "debt_to_equity"
	FieldCurrentRatio     = "current_ratio"
	FieldFreeCashFlow     = "free_cash_flow"
	FieldRevenueGrowth    = "revenue_growth"
	FieldEarningsGrowth   = "earnings_growth"
	FieldSMA50            = "sma_50"
	FieldSMA200           = "sma_200"
	FieldRSI14            = "rsi_14"
	FieldBeta             = "beta"
	FieldSector           = "sector"
	FieldDividendYield    = "dividend_yield"
	FieldPayoutRatio      = "payout_ratio"
	FieldDividendGrowth5Y = "dividend_growth_5y"
	FieldConsecutiveYears = "consecutive_years"
	FieldSurprisePct      = "eps_surprise_pct"
	FieldBeatsLast4Q      = "beats_last_4q"
	FieldAnalystRating    = "analyst_rating"
	FieldUpsidePct        = "upside_pct"
	FieldVIX              = "vix"
	FieldSPYTrend10D      = "spy_trend_10d"
	FieldMarketRegime     = "market_regime"
)

// FinancialRecord is a snapshot of one ticker as of one date. Every optional metric is a
// pointer: nil means the source did not provide it, never zero.
type FinancialRecord struct {
	Ticker      string    `json:"ticker"`
	AsOf        time.Time `json:"as_of"`
	Sector      string    `json:"sector,omitempty"`
	Industry    string    `json:"industry,omitempty"`
	Currency    string    `json:"currency,omitempty"`
	Market      string    `json:"market,omitempty"`
	Description string    `json:"description,omitempty"`
	DataSources []string  `json:"data_sources,omitempty"`

	Price     *float64 `json:"price"`
	MarketCap *float64 `json:"market_cap"`

	PERatio      *float64 `json:"pe_ratio"`
	ForwardPE    *float64 `json:"forward_pe"`
	PBRatio      *float64 `json:"pb_ratio"`
	PEGRatio     *float64 `json:"peg_ratio"`
	PriceToSales *float64 `json:"price_to_sales"`

	// Ratios are fractions (0.15 == 15%).
	ROE             *float64 `json:"roe"`
	ROA             *float64 `json:"roa"`
	OperatingMargin *float64 `json:"operating_margin"`
	GrossMargin     *float64 `json:"gross_margin"`
	ProfitMargin    *float64 `json:"profit_margin"`
	RevenueGrowth   *float64 `json:"revenue_growth"`
	EarningsGrowth  *float64 `json:"earnings_growth"`

	DebtToEquity *float64 `json:"debt_to_equity"`
	CurrentRatio *float64 `json:"current_ratio"`
	QuickRatio   *float64 `json:"quick_ratio"`
	// FreeCashFlow is in millions of the quote currency.
	FreeCashFlow *float64 `json:"free_cash_flow"`

	SMA50       *float64 `json:"sma_50"`
	SMA200      *float64 `json:"sma_200"`
	RSI14       *float64 `json:"rsi_14"`
	Beta        *float64 `json:"beta"`
	Volume      *float64 `json:"volume"`
	AvgVolume20 *float64 `json:"avg_volume_20"`
	Return1Y    *float64 `json:"return_1y"`
	Volatility  *float64 `json:"volatility"`

	// Percentages (3.2 == 3.2%).
	DividendYield    *float64 `json:"dividend_yield"`
	DividendRate     *float64 `json:"dividend_rate"`
	PayoutRatio      *float64 `json:"payout_ratio"`
	DividendGrowth5Y *float64 `json:"dividend_growth_5y"`
	ConsecutiveYears *int     `json:"consecutive_years"`

	ReportedEPS  *float64 `json:"reported_eps"`
	EstimatedEPS *float64 `json:"estimated_eps"`
	SurprisePct  *float64 `json:"eps_surprise_pct"`
	BeatsLast4Q  *int     `json:"beats_last_4q"`

	AnalystRating string   `json:"analyst_rating,omitempty"`
	AnalystCount  *int     `json:"analyst_count"`
	TargetPrice   *float64 `json:"target_price"`
	UpsidePct     *float64 `json:"upside_pct"`

	VIX          *float64 `json:"vix"`
	SPYTrend10D  *float64 `json:"spy_trend_10d"`
	MarketRegime string   `json:"market_regime,omitempty"`

	Warnings []string `json:"warnings,omitempty"`
}

// Has reports whether the named field carries a value.
func (r FinancialRecord) Has(field string) bool {
	switch field {
	case FieldSector:
		return r.Sector != ""
	case FieldAnalystRating:
		return r.AnalystRating != ""
	case FieldMarketRegime:
		return r.MarketRegime != ""
	case FieldConsecutiveYears:
		return r.ConsecutiveYears != nil
	case FieldBeatsLast4Q:
		return r.BeatsLast4Q != nil
	}
	return r.float(field) != nil
}

// MissingFields returns, in input order, the fields without a value.
func (r FinancialRecord) MissingFields(fields ...string) []string {
	var missing []string
	for _, f := range fields {
		if !r.Has(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

// Missing lists every tracked field that has no value, sorted.
func (r FinancialRecord) Missing() []string {
	missing := r.MissingFields(trackedFields...)
	sort.Strings(missing)
	return missing
}

// IsEmpty is true when neither a price nor any fundamental could be fetched.
func (r FinancialRecord) IsEmpty() bool {
	return r.Price == nil && r.PERatio == nil && r.MarketCap == nil && r.ROE == nil && r.PBRatio == nil
}

var trackedFields = []string{
	FieldPrice, FieldMarketCap, FieldPERatio, FieldPBRatio, FieldROE, FieldOperatingMargin,
	FieldDebtToEquity, FieldCurrentRatio, FieldSMA50, FieldSMA200, FieldRSI14, FieldBeta,
	FieldSector, FieldSurprisePct, FieldAnalystRating, FieldVIX,
}

func (r FinancialRecord) float(field string) *float64 {
	switch field {
	case FieldPrice:
		return r.Price
	case FieldMarketCap:
		return r.MarketCap
	case FieldPERatio:
		return r.PERatio
	case FieldForwardPE:
		return r.ForwardPE
	case FieldPBRatio:
		return r.PBRatio
	case FieldPEGRatio:
		return r.PEGRatio
	case FieldROE:
		return r.ROE
	case FieldROA:
		return r.ROA
	case FieldOperatingMargin:
		return r.OperatingMargin
	case FieldGrossMargin:
		return r.GrossMargin
	case FieldDebtToEquity:
		return r.DebtToEquity
	case FieldCurrentRatio:
		return r.CurrentRatio
	case FieldFreeCashFlow:
		return r.FreeCashFlow
	case FieldRevenueGrowth:
		return r.RevenueGrowth
	case FieldEarningsGrowth:
		return r.EarningsGrowth
	case FieldSMA50:
		return r.SMA50
	case FieldSMA200:
		return r.SMA200
	case FieldRSI14:
		return r.RSI14
	case FieldBeta:
		return r.Beta
	case FieldDividendYield:
		return r.DividendYield
	case FieldPayoutRatio:
		return r.PayoutRatio
	case FieldDividendGrowth5Y:
		return r.DividendGrowth5Y
	case FieldSurprisePct:
		return r.SurprisePct
	case FieldUpsidePct:
		return r.UpsidePct
	case FieldVIX:
		return r.VIX
	case FieldSPYTrend10D:
		return r.SPYTrend10D
	}
	return nil
}
