package cmd

import (
	"context"

	"ai-hedge-fund/internal/delivery/cli"
	"ai-hedge-fund/internal/dto"
	"ai-hedge-fund/internal/service"

	"github.com/spf13/cobra"
)

var globalFlags struct {
	ticker string
	mode   string
	market string
	amount float64
	from   string
	to     string
}

var globalCmd = &cobra.Command{
	Use:   "global",
	Short: "International markets, currency conversion and foreign tickers",
}

var globalAnalyzeCmd = &cobra.Command{
	Use:     "analyze",
	Short:   "Analyze a ticker on its home exchange",
	Example: "  hedgefund global analyze --ticker 0700.HK",
	Args:    cobra.NoArgs,
	RunE:    runCommand(nil, runGlobalAnalyze),
}

var globalMarketsCmd = &cobra.Command{
	Use:   "markets",
	Short: "List supported markets, or one market's index with --market",
	Args:  cobra.NoArgs,
	RunE:  runCommand(nil, runGlobalMarkets),
}

var globalConvertCmd = &cobra.Command{
	Use:     "convert",
	Short:   "Convert an amount between currencies",
	Example: "  hedgefund global convert --amount 1000 --from HKD --to USD",
	Args:    cobra.NoArgs,
	RunE:    runCommand(nil, runGlobalConvert),
}

func runGlobalAnalyze(ctx context.Context, dep *AppDependency, svc *service.Service, out *cli.Printer, _ []string) error {
	mode := globalFlags.mode
	if mode == "" {
		mode = dep.cfg.Analyzer.Mode
	}

	result, err := svc.GlobalService.Analyze(ctx, globalFlags.ticker, mode)
	if err != nil {
		return err
	}
	return out.GlobalAnalysis(result)
}

func runGlobalMarkets(ctx context.Context, _ *AppDependency, svc *service.Service, out *cli.Printer, _ []string) error {
	if globalFlags.market == "" {
		return out.Markets(svc.GlobalService.Markets())
	}

	summary, err := svc.GlobalService.MarketSummary(ctx, globalFlags.market)
	if err != nil {
		return err
	}
	return out.MarketSummary(summary)
}

func runGlobalConvert(ctx context.Context, _ *AppDependency, svc *service.Service, out *cli.Printer, _ []string) error {
	result, err := svc.GlobalService.Convert(ctx, dto.ConvertRequest{
		Amount: globalFlags.amount,
		From:   globalFlags.from,
		To:     globalFlags.to,
	})
	if err != nil {
		return err
	}
	return out.Convert(result)
}

func init() {
	globalAnalyzeCmd.Flags().StringVar(&globalFlags.ticker, "ticker", "", "ticker, with or without exchange suffix")
	globalAnalyzeCmd.Flags().StringVar(&globalFlags.mode, "mode", "", "signal producers: rules, llm or hybrid")
	_ = globalAnalyzeCmd.MarkFlagRequired("ticker")

	globalMarketsCmd.Flags().StringVar(&globalFlags.market, "market", "", "market code, e.g. US, HK, JP")

	globalConvertCmd.Flags().Float64Var(&globalFlags.amount, "amount", 0, "amount to convert")
	globalConvertCmd.Flags().StringVar(&globalFlags.from, "from", "", "source currency, e.g. HKD")
	globalConvertCmd.Flags().StringVar(&globalFlags.to, "to", "USD", "target currency")
	_ = globalConvertCmd.MarkFlagRequired("amount")
	_ = globalConvertCmd.MarkFlagRequired("from")

	globalCmd.AddCommand(globalAnalyzeCmd, globalMarketsCmd, globalConvertCmd)
}
