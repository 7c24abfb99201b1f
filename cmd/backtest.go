package cmd

import (
	"context"

	"ai-hedge-fund/internal/delivery/cli"
	"ai-hedge-fund/internal/dto"
	"ai-hedge-fund/internal/service"
	"ai-hedge-fund/pkg/utils"

	"github.com/spf13/cobra"
)

var backtestFlags struct {
	start     string
	end       string
	strategy  string
	rebalance string
	capital   float64
	detailed  bool
}

var backtestCmd = &cobra.Command{
	Use:     "backtest <tickers>",
	Short:   "Replay a strategy over historical prices against SPY",
	Example: "  hedgefund backtest AAPL,MSFT,GOOGL --start 2023-01-01 --end 2024-01-01 --strategy momentum",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runCommand(&backtestFlags.detailed, runBacktest),
}

func runBacktest(ctx context.Context, _ *AppDependency, svc *service.Service, out *cli.Printer, args []string) error {
	tickers, err := utils.ParseTickers(args...)
	if err != nil {
		return err
	}

	result, err := svc.BacktestService.RunBacktest(ctx, dto.BacktestRequest{
		Tickers:   tickers,
		StartDate: backtestFlags.start,
		EndDate:   backtestFlags.end,
		Strategy:  backtestFlags.strategy,
		Rebalance: backtestFlags.rebalance,
		Capital:   backtestFlags.capital,
	})
	if err != nil {
		return err
	}
	return out.Backtest(result)
}

func init() {
	backtestCmd.Flags().StringVar(&backtestFlags.start, "start", "", "first trading day, YYYY-MM-DD")
	backtestCmd.Flags().StringVar(&backtestFlags.end, "end", "", "last trading day, YYYY-MM-DD")
	backtestCmd.Flags().StringVar(&backtestFlags.strategy, "strategy", dto.StrategyAIConsensus, "ai_consensus, equal_weight, momentum or value")
	backtestCmd.Flags().StringVar(&backtestFlags.rebalance, "rebalance", dto.RebalanceMonthly, "weekly, monthly or quarterly")
	backtestCmd.Flags().Float64Var(&backtestFlags.capital, "capital", 0, "initial capital (default backtest.initial_capital)")
	backtestCmd.Flags().BoolVar(&backtestFlags.detailed, "detailed", false, "list every simulated trade")
	_ = backtestCmd.MarkFlagRequired("start")
	_ = backtestCmd.MarkFlagRequired("end")
}
