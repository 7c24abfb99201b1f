package cmd

import (
	"context"

	"ai-hedge-fund/internal/delivery/cli"
	"ai-hedge-fund/internal/dto"
	"ai-hedge-fund/internal/service"
	"ai-hedge-fund/pkg/utils"

	"github.com/spf13/cobra"
)

var portfolioFlags struct {
	risk    string
	capital float64
}

var portfolioCmd = &cobra.Command{
	Use:     "portfolio <tickers>",
	Short:   "Build a risk-profiled allocation from consensus signals",
	Example: "  hedgefund portfolio AAPL,MSFT,JNJ,XOM --risk conservative --capital 50000",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runCommand(nil, runPortfolio),
}

func runPortfolio(ctx context.Context, _ *AppDependency, svc *service.Service, out *cli.Printer, args []string) error {
	tickers, err := utils.ParseTickers(args...)
	if err != nil {
		return err
	}

	result, err := svc.PortfolioService.Build(ctx, dto.PortfolioRequest{
		Tickers: tickers,
		Risk:    portfolioFlags.risk,
		Capital: portfolioFlags.capital,
	})
	if err != nil {
		return err
	}
	return out.Portfolio(result)
}

func init() {
	portfolioCmd.Flags().StringVar(&portfolioFlags.risk, "risk", dto.RiskModerate, "risk profile: conservative, moderate or aggressive")
	portfolioCmd.Flags().Float64Var(&portfolioFlags.capital, "capital", 100000, "capital to allocate")
}
