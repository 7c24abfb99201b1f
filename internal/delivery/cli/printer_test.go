package cli

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"ai-hedge-fund/internal/dto"
	"ai-hedge-fund/internal/model"
	"ai-hedge-fund/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResults() []dto.AnalysisResult {
	return []dto.AnalysisResult{
		{
			Ticker:       "AAPL",
			AnalysisDate: "2024-03-01",
			Signals: []dto.SignalView{
				{Source: "Warren Buffett", Direction: model.Bullish, Confidence: 80, Rationale: "Strong ROE"},
			},
			Consensus: dto.ConsensusView{
				Direction:      model.Bullish,
				Confidence:     80,
				Agreement:      "1/1 bullish, 0/1 bearish",
				Recommendation: "Strong buy. Consider 8-12% position.",
			},
			KeyRisks:      []string{"No major risks identified"},
			DataQuality:   "partial",
			MissingFields: []string{"peg_ratio"},
		},
		{Ticker: "NOPE", AnalysisDate: "2024-03-01", Error: "data unavailable"},
	}
}

func TestPrinter_AnalysisText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, false, false).Analysis(sampleResults()))

	out := buf.String()
	assert.Contains(t, out, "AAPL  (2024-03-01)")
	assert.Contains(t, out, "Consensus:      BULLISH (80% confidence)")
	assert.Contains(t, out, "Data quality:   partial")
	assert.Contains(t, out, "  - No major risks identified")
	assert.Contains(t, out, "ERROR: data unavailable")
	assert.NotContains(t, out, "Strong ROE")

	buf.Reset()
	require.NoError(t, NewPrinter(&buf, false, true).Analysis(sampleResults()))
	assert.Contains(t, buf.String(), "Strong ROE")
	assert.Contains(t, buf.String(), "Missing fields: peg_ratio")
}

func TestPrinter_AnalysisJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, true, false).Analysis(sampleResults()))

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "AAPL", decoded[0]["ticker"])
	assert.Equal(t, "data unavailable", decoded[1]["error"])
	assert.NotContains(t, decoded[0], "Record")
}

func TestPrinter_Reports(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	price, usd, lot := 300.0, 39.0, 3900.0
	level, change := 4500.0, 0.015

	tests := []struct {
		name  string
		print func(p *Printer) error
		want  []string
	}{
		{
			name: "portfolio",
			print: func(p *Printer) error {
				return p.Portfolio(&dto.PortfolioResult{
					RiskProfile: dto.RiskModerate,
					Capital:     100000,
					Positions:   []dto.PortfolioPosition{{Ticker: "AAPL", Weight: 0.2, Amount: 20000, Signal: "bullish", Confidence: 80, Sector: "Technology"}},
					Metrics:     dto.PortfolioMetrics{SharpeRatio: 1.25, SectorExposure: map[string]float64{"Technology": 0.2}},
					Failures:    map[string]string{"NOPE": "data unavailable"},
				})
			},
			want: []string{"moderate risk", "$20000.00", "Sharpe ratio:      1.25", "Technology", "20.0%", "NOPE: data unavailable"},
		},
		{
			name: "backtest",
			print: func(p *Printer) error {
				return p.Backtest(&dto.BacktestResult{
					Strategy: dto.StrategyMomentum, Rebalance: dto.RebalanceMonthly,
					StartDate: start, EndDate: start.AddDate(1, 0, 0),
					Tickers: []string{"AAPL", "MSFT"}, InitialCapital: 100000, FinalValue: 112000, TotalReturn: 0.12,
				})
			},
			want: []string{"Backtest momentum (monthly rebalance) 2023-01-01 to 2024-01-01", "AAPL, MSFT", "Total return:      12.0%"},
		},
		{
			name: "rebalance",
			print: func(p *Printer) error {
				return p.Rebalance(&dto.RebalanceReport{
					GeneratedAt: "2024-03-01", HealthScore: 72, TotalDrift: 0.18,
					Actions:         []dto.RebalanceAction{{Ticker: "XOM", Action: dto.ActionDecrease, From: 0.1, To: 0, Urgency: dto.UrgencyHigh, Reason: "bearish"}},
					Recommendations: []string{"Rebalance now"},
				})
			},
			want: []string{"Health score: 72/100   Total drift: 18.0%", "[HIGH] DECREASE XOM 10.0% -> 0.0%", "  - Rebalance now"},
		},
		{
			name: "tax",
			print: func(p *Printer) error {
				return p.Tax(&dto.TaxReport{
					GeneratedAt: "2024-12-15",
					Summary:     dto.TaxSummary{EstimatedTax: 262.5, PotentialSavings: 187.5},
					Opportunities: []dto.HarvestOpportunity{{
						Ticker: "TSLA", PurchaseDate: start, UnrealizedLoss: 250, TaxSavings: 87.5,
						Term: "short", HoldingDays: 14, Action: "Sell and buy QQQ", WashSaleWarning: "bought within 30 days",
					}},
					MissingPrices: []string{"XYZ"},
				})
			},
			want: []string{"Estimated tax:     $262.50", "TSLA", "saves $87.50", "warning: bought within 30 days", "No price for: XYZ"},
		},
		{
			name: "esg",
			print: func(p *Printer) error {
				return p.ESG(&dto.ESGPortfolioReport{
					Scores: []dto.ESGScore{{
						Ticker: "XOM", Sector: "Energy", Overall: 3.3, Recommendation: "EXCLUDE",
						Alerts: []dto.ESGAlert{{Severity: "HIGH", Pillar: "environmental", Message: "weak"}},
					}},
					AverageScore: 3.3,
					Excluded:     []string{"XOM"},
				})
			},
			want: []string{"overall  3.3", "[HIGH] environmental: weak", "Portfolio average: 3.3", "Excluded: XOM"},
		},
		{
			name: "global",
			print: func(p *Printer) error {
				return p.GlobalAnalysis(&dto.GlobalAnalysis{
					Symbol:     "0700.HK",
					Market:     dto.MarketInfo{Code: "HK", Name: "Hong Kong Stock Exchange", Country: "Hong Kong", Currency: "HKD", LotSize: 100},
					Analysis:   dto.AnalysisResult{Ticker: "0700.HK", Error: "no usable signals"},
					LocalPrice: &price, PriceUSD: &usd, LotValueUSD: &lot,
				})
			},
			want: []string{"0700.HK on Hong Kong Stock Exchange", "market closed", "Price: 300.00 HKD ($39.00)", "Lot of 100: $3900.00", "ERROR: no usable signals"},
		},
		{
			name: "market summary",
			print: func(p *Printer) error {
				return p.MarketSummary(&dto.MarketSummary{Market: dto.MarketInfo{Code: "US", Name: "United States"}, IndexSymbol: "^GSPC", IndexLevel: &level, DailyChange: &change})
			},
			want: []string{"United States (US)", "^GSPC: 4500.00 (+1.5%)"},
		},
		{
			name: "convert",
			print: func(p *Printer) error {
				return p.Convert(&dto.ConvertResult{Amount: 100, From: "HKD", To: "USD", Rate: 0.13, Converted: 13})
			},
			want: []string{"100.00 HKD = 13.0000 USD (rate 0.130000)"},
		},
		{
			name: "markets",
			print: func(p *Printer) error {
				return p.Markets([]dto.MarketInfo{{Code: "US", Name: "NYSE / NASDAQ", Currency: "USD", Open: "09:30", Close: "16:00", LotSize: 1, IsOpen: true}})
			},
			want: []string{"US ", "09:30-16:00", "open"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tt.print(NewPrinter(&buf, false, false)))
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestPrinter_BacktestDetailedTrades(t *testing.T) {
	var buf bytes.Buffer
	r := &dto.BacktestResult{
		Trades: []dto.TradeLog{{Date: time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC), Side: "BUY", Ticker: "AAPL", Shares: 10, Price: 150}},
	}

	require.NoError(t, NewPrinter(&buf, false, false).Backtest(r))
	assert.NotContains(t, buf.String(), "Trades\n")

	buf.Reset()
	require.NoError(t, NewPrinter(&buf, false, true).Backtest(r))
	assert.Contains(t, buf.String(), utils.FormatDate(r.Trades[0].Date)+" BUY  AAPL")
}
