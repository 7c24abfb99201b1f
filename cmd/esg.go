package cmd

import (
	"context"

	"ai-hedge-fund/internal/delivery/cli"
	"ai-hedge-fund/internal/dto"
	"ai-hedge-fund/internal/service"
	"ai-hedge-fund/pkg/utils"

	"github.com/spf13/cobra"
)

var esgPortfolio bool

var esgCmd = &cobra.Command{
	Use:     "esg <tickers>",
	Short:   "Score environmental, social and governance pillars",
	Example: "  hedgefund esg AAPL,XOM,TSLA --portfolio",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runCommand(nil, runESG),
}

func runESG(ctx context.Context, _ *AppDependency, svc *service.Service, out *cli.Printer, args []string) error {
	tickers, err := utils.ParseTickers(args...)
	if err != nil {
		return err
	}

	report, err := svc.ESGService.Screen(ctx, dto.ESGRequest{Tickers: tickers, Portfolio: esgPortfolio})
	if err != nil {
		return err
	}
	return out.ESG(report)
}

func init() {
	esgCmd.Flags().BoolVar(&esgPortfolio, "portfolio", false, "also report the portfolio average and exclusions")
}
