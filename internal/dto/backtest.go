package dto

import "time"

const (
	StrategyAIConsensus = "ai_consensus"
	StrategyEqualWeight = "equal_weight"
	StrategyMomentum    = "momentum"
	StrategyValue       = "value"

	RebalanceWeekly    = "weekly"
	RebalanceMonthly   = "monthly"
	RebalanceQuarterly = "quarterly"
)

type BacktestRequest struct {
	Tickers   []string `json:"tickers" validate:"required,min=1,max=25,dive,required"`
	StartDate string   `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string   `json:"end_date" validate:"required,datetime=2006-01-02"`
	Strategy  string   `json:"strategy" default:"ai_consensus" validate:"oneof=ai_consensus equal_weight momentum value"`
	Rebalance string   `json:"rebalance" default:"monthly" validate:"oneof=weekly monthly quarterly"`
	Capital   float64  `json:"capital" validate:"gte=0"`
}

// TradeLog records one fill of the simulated portfolio.
type TradeLog struct {
	Date       time.Time `json:"date"`
	Ticker     string    `json:"ticker"`
	Side       string    `json:"side"`
	Shares     float64   `json:"shares"`
	Price      float64   `json:"price"`
	Value      float64   `json:"value"`
	Commission float64   `json:"commission"`
	ProfitLoss float64   `json:"profit_loss,omitempty"`
}

type EquityPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

type BacktestResult struct {
	Strategy         string        `json:"strategy"`
	Tickers          []string      `json:"tickers"`
	StartDate        time.Time     `json:"start_date"`
	EndDate          time.Time     `json:"end_date"`
	Rebalance        string        `json:"rebalance"`
	InitialCapital   float64       `json:"initial_capital"`
	FinalValue       float64       `json:"final_value"`
	TotalReturn      float64       `json:"total_return"`
	AnnualizedReturn float64       `json:"annualized_return"`
	Volatility       float64       `json:"volatility"`
	SharpeRatio      float64       `json:"sharpe_ratio"`
	MaxDrawdown      float64       `json:"max_drawdown"`
	BenchmarkReturn  float64       `json:"benchmark_return"`
	Alpha            float64       `json:"alpha"`
	WinRate          float64       `json:"win_rate"`
	ProfitFactor     float64       `json:"profit_factor"`
	TotalTrades      int           `json:"total_trades"`
	Trades           []TradeLog    `json:"trades"`
	EquityCurve      []EquityPoint `json:"equity_curve"`
}
