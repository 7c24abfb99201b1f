// Package cli renders service results for the terminal, either as indented JSON or as text.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"ai-hedge-fund/internal/dto"
	"ai-hedge-fund/pkg/utils"
)

const rule = "------------------------------------------------------------"

type Printer struct {
	w        io.Writer
	json     bool
	detailed bool
}

func NewPrinter(w io.Writer, asJSON, detailed bool) *Printer {
	return &Printer{w: w, json: asJSON, detailed: detailed}
}

func (p *Printer) emit(v interface{}, text func(b *strings.Builder)) error {
	if p.json {
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	var b strings.Builder
	text(&b)
	_, err := io.WriteString(p.w, b.String())
	return err
}

func pct(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "  - %s\n", item)
	}
}

func (p *Printer) Analysis(results []dto.AnalysisResult) error {
	return p.emit(results, func(b *strings.Builder) {
		for _, r := range results {
			p.writeAnalysis(b, r)
		}
	})
}

func (p *Printer) writeAnalysis(b *strings.Builder, r dto.AnalysisResult) {
	fmt.Fprintf(b, "%s\n%s  (%s)\n%s\n", rule, r.Ticker, r.AnalysisDate, rule)
	if r.Failed() {
		fmt.Fprintf(b, "ERROR: %s\n\n", r.Error)
		return
	}
	c := r.Consensus
	fmt.Fprintf(b, "Consensus:      %s (%d%% confidence)\n", strings.ToUpper(string(c.Direction)), c.Confidence)
	fmt.Fprintf(b, "Agreement:      %s\n", c.Agreement)
	fmt.Fprintf(b, "Recommendation: %s\n", c.Recommendation)
	if r.DataQuality != "" {
		fmt.Fprintf(b, "Data quality:   %s\n", r.DataQuality)
	}

	if p.detailed {
		b.WriteString("\nSignals\n")
		for _, s := range r.Signals {
			fmt.Fprintf(b, "  %-26s %-8s %3d%%  %s\n", s.Source, s.Direction, s.Confidence, s.Rationale)
		}
		if len(r.MissingFields) > 0 {
			fmt.Fprintf(b, "\nMissing fields: %s\n", strings.Join(r.MissingFields, ", "))
		}
	}
	writeList(b, "Key risks", r.KeyRisks)
	b.WriteString("\n")
}

func (p *Printer) Portfolio(r *dto.PortfolioResult) error {
	return p.emit(r, func(b *strings.Builder) {
		fmt.Fprintf(b, "Portfolio (%s risk, capital %s)\n%s\n", r.RiskProfile, money(r.Capital), rule)
		for _, pos := range r.Positions {
			fmt.Fprintf(b, "  %-10s %6s  %12s  %-8s %3d%%  exp %6s  vol %6s  %s\n",
				pos.Ticker, pct(pos.Weight), money(pos.Amount), pos.Signal, pos.Confidence,
				pct(pos.ExpectedReturn), pct(pos.Volatility), pos.Sector)
		}

		m := r.Metrics
		fmt.Fprintf(b, "\nExpected return:   %s\n", pct(m.ExpectedReturn))
		fmt.Fprintf(b, "Volatility:        %s\n", pct(m.Volatility))
		fmt.Fprintf(b, "Sharpe ratio:      %.2f\n", m.SharpeRatio)
		fmt.Fprintf(b, "Diversification:   %.0f/100\n", m.DiversificationScore)
		fmt.Fprintf(b, "Max drawdown est.: %s\n", pct(m.MaxDrawdownEstimate))

		sectors := make([]string, 0, len(m.SectorExposure))
		for s := range m.SectorExposure {
			sectors = append(sectors, s)
		}
		sort.Strings(sectors)
		if len(sectors) > 0 {
			b.WriteString("\nSector exposure\n")
			for _, s := range sectors {
				fmt.Fprintf(b, "  %-24s %s\n", s, pct(m.SectorExposure[s]))
			}
		}

		writeList(b, "Recommendations", r.Recommendations)
		if len(r.Failures) > 0 {
			b.WriteString("\nSkipped\n")
			for _, t := range sortedKeys(r.Failures) {
				fmt.Fprintf(b, "  - %s: %s\n", t, r.Failures[t])
			}
		}
	})
}

func (p *Printer) Backtest(r *dto.BacktestResult) error {
	return p.emit(r, func(b *strings.Builder) {
		fmt.Fprintf(b, "Backtest %s (%s rebalance) %s to %s\n%s\n",
			r.Strategy, r.Rebalance, utils.FormatDate(r.StartDate), utils.FormatDate(r.EndDate), rule)
		fmt.Fprintf(b, "Tickers:           %s\n", strings.Join(r.Tickers, ", "))
		fmt.Fprintf(b, "Initial capital:   %s\n", money(r.InitialCapital))
		fmt.Fprintf(b, "Final value:       %s\n", money(r.FinalValue))
		fmt.Fprintf(b, "Total return:      %s\n", pct(r.TotalReturn))
		fmt.Fprintf(b, "Annualized return: %s\n", pct(r.AnnualizedReturn))
		fmt.Fprintf(b, "Volatility:        %s\n", pct(r.Volatility))
		fmt.Fprintf(b, "Sharpe ratio:      %.2f\n", r.SharpeRatio)
		fmt.Fprintf(b, "Max drawdown:      %s\n", pct(r.MaxDrawdown))
		fmt.Fprintf(b, "Benchmark (SPY):   %s\n", pct(r.BenchmarkReturn))
		fmt.Fprintf(b, "Alpha:             %s\n", pct(r.Alpha))
		fmt.Fprintf(b, "Win rate:          %s\n", pct(r.WinRate))
		fmt.Fprintf(b, "Profit factor:     %.2f\n", r.ProfitFactor)
		fmt.Fprintf(b, "Trades:            %d\n", r.TotalTrades)

		if p.detailed && len(r.Trades) > 0 {
			b.WriteString("\nTrades\n")
			for _, t := range r.Trades {
				fmt.Fprintf(b, "  %s %-4s %-8s %10.2f @ %10.2f  P/L %10.2f\n",
					utils.FormatDate(t.Date), t.Side, t.Ticker, t.Shares, t.Price, t.ProfitLoss)
			}
		}
	})
}

func (p *Printer) Rebalance(r *dto.RebalanceReport) error {
	return p.emit(r, func(b *strings.Builder) {
		fmt.Fprintf(b, "Rebalance check %s\n%s\n", r.GeneratedAt, rule)
		fmt.Fprintf(b, "Health score: %d/100   Total drift: %s\n\n", r.HealthScore, pct(r.TotalDrift))
		for _, d := range r.Drifts {
			fmt.Fprintf(b, "  %-10s now %6s  target %6s  drift %7s  %s (%d%%)\n",
				d.Ticker, pct(d.CurrentWeight), pct(d.TargetWeight), utils.FormatPercentage(d.Drift*100), d.Signal, d.Confidence)
		}

		if len(r.Actions) > 0 {
			b.WriteString("\nActions\n")
			for _, a := range r.Actions {
				fmt.Fprintf(b, "  [%s] %s %s %s -> %s  %s\n", a.Urgency, a.Action, a.Ticker, pct(a.From), pct(a.To), a.Reason)
			}
		}
		writeList(b, "Recommendations", r.Recommendations)
	})
}

func (p *Printer) Tax(r *dto.TaxReport) error {
	return p.emit(r, func(b *strings.Builder) {
		s := r.Summary
		fmt.Fprintf(b, "Tax report %s\n%s\n", r.GeneratedAt, rule)
		fmt.Fprintf(b, "Cost basis:        %s\n", money(s.TotalCostBasis))
		fmt.Fprintf(b, "Market value:      %s\n", money(s.TotalMarketValue))
		fmt.Fprintf(b, "Unrealized gains:  %s (ST %s, LT %s)\n", money(s.UnrealizedGains), money(s.ShortTermGains), money(s.LongTermGains))
		fmt.Fprintf(b, "Unrealized losses: %s (ST %s, LT %s)\n", money(s.UnrealizedLosses), money(s.ShortTermLosses), money(s.LongTermLosses))
		fmt.Fprintf(b, "Estimated tax:     %s\n", money(s.EstimatedTax))
		fmt.Fprintf(b, "Potential savings: %s\n", money(s.PotentialSavings))

		if len(r.Opportunities) > 0 {
			b.WriteString("\nHarvesting opportunities\n")
			for _, o := range r.Opportunities {
				fmt.Fprintf(b, "  %-8s %s loss %s, saves %s (%s, %d days)\n    %s\n",
					o.Ticker, utils.FormatDate(o.PurchaseDate), money(o.UnrealizedLoss), money(o.TaxSavings), o.Term, o.HoldingDays, o.Action)
				if o.WashSaleWarning != "" {
					fmt.Fprintf(b, "    warning: %s\n", o.WashSaleWarning)
				}
			}
		}
		if len(r.MissingPrices) > 0 {
			fmt.Fprintf(b, "\nNo price for: %s\n", strings.Join(r.MissingPrices, ", "))
		}
		writeList(b, "Recommendations", r.Recommendations)
	})
}

func (p *Printer) ESG(r *dto.ESGPortfolioReport) error {
	return p.emit(r, func(b *strings.Builder) {
		for _, s := range r.Scores {
			estimated := ""
			if s.Estimated {
				estimated = " (estimated)"
			}
			fmt.Fprintf(b, "%-8s %-22s E %4.1f  S %4.1f  G %4.1f  overall %4.1f%s\n",
				s.Ticker, s.Sector, s.Environmental, s.Social, s.Governance, s.Overall, estimated)
			fmt.Fprintf(b, "         %s\n", s.Recommendation)
			for _, a := range s.Alerts {
				fmt.Fprintf(b, "         [%s] %s: %s\n", a.Severity, a.Pillar, a.Message)
			}
		}
		if r.AverageScore > 0 {
			fmt.Fprintf(b, "\nPortfolio average: %.1f\n", r.AverageScore)
			if len(r.Excluded) > 0 {
				fmt.Fprintf(b, "Excluded: %s\n", strings.Join(r.Excluded, ", "))
			}
			writeList(b, "Improvement opportunities", r.ImprovementOpportunities)
		}
	})
}

func (p *Printer) GlobalAnalysis(r *dto.GlobalAnalysis) error {
	return p.emit(r, func(b *strings.Builder) {
		m := r.Market
		status := "closed"
		if m.IsOpen {
			status = "open"
		}
		fmt.Fprintf(b, "%s on %s (%s, %s), market %s\n", r.Symbol, m.Name, m.Country, m.Currency, status)
		if r.LocalPrice != nil {
			fmt.Fprintf(b, "Price: %.2f %s", *r.LocalPrice, m.Currency)
			if r.PriceUSD != nil {
				fmt.Fprintf(b, " (%s)", money(*r.PriceUSD))
			}
			b.WriteString("\n")
		}
		if r.LotValueUSD != nil {
			fmt.Fprintf(b, "Lot of %d: %s\n", m.LotSize, money(*r.LotValueUSD))
		}
		b.WriteString("\n")
		p.writeAnalysis(b, r.Analysis)
	})
}

func (p *Printer) MarketSummary(r *dto.MarketSummary) error {
	return p.emit(r, func(b *strings.Builder) {
		fmt.Fprintf(b, "%s (%s)\n", r.Market.Name, r.Market.Code)
		if r.IndexSymbol == "" {
			b.WriteString("No benchmark index\n")
			return
		}
		if r.IndexLevel == nil {
			fmt.Fprintf(b, "%s: unavailable\n", r.IndexSymbol)
			return
		}
		fmt.Fprintf(b, "%s: %.2f", r.IndexSymbol, *r.IndexLevel)
		if r.DailyChange != nil {
			fmt.Fprintf(b, " (%s)", utils.FormatPercentage(*r.DailyChange*100))
		}
		b.WriteString("\n")
	})
}

func (p *Printer) Markets(markets []dto.MarketInfo) error {
	return p.emit(markets, func(b *strings.Builder) {
		for _, m := range markets {
			status := "closed"
			if m.IsOpen {
				status = "open"
			}
			fmt.Fprintf(b, "%-3s %-32s %-4s %s-%s %-4s lot %-4d %s\n", m.Code, m.Name, m.Currency, m.Open, m.Close, m.Timezone, m.LotSize, status)
		}
	})
}

func (p *Printer) Convert(r *dto.ConvertResult) error {
	return p.emit(r, func(b *strings.Builder) {
		fmt.Fprintf(b, "%.2f %s = %.4f %s (rate %.6f)\n", r.Amount, r.From, r.Converted, r.To, r.Rate)
	})
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
