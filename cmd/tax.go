package cmd

import (
	"context"

	"ai-hedge-fund/internal/delivery/cli"
	"ai-hedge-fund/internal/dto"
	"ai-hedge-fund/internal/service"

	"github.com/spf13/cobra"
)

var taxFlags struct {
	lots   string
	prices string
}

var taxCmd = &cobra.Command{
	Use:   "tax",
	Short: "Find tax-loss harvesting opportunities across lots",
	Example: "  hedgefund tax --lots lots.yaml\n" +
		"  hedgefund tax --lots '[{\"ticker\":\"TSLA\",\"shares\":10,\"purchase_date\":\"2024-06-01\",\"purchase_price\":250}]' --prices TSLA:200",
	Args: cobra.NoArgs,
	RunE: runCommand(nil, runTax),
}

func runTax(ctx context.Context, _ *AppDependency, svc *service.Service, out *cli.Printer, _ []string) error {
	lots, err := cli.LoadLots(taxFlags.lots)
	if err != nil {
		return err
	}
	prices, err := cli.ParsePrices(taxFlags.prices)
	if err != nil {
		return err
	}

	report, err := svc.TaxService.Analyze(ctx, dto.TaxRequest{Lots: lots, Prices: prices})
	if err != nil {
		return err
	}
	return out.Tax(report)
}

func init() {
	taxCmd.Flags().StringVar(&taxFlags.lots, "lots", "", "inline JSON or a .json/.yaml file of tax lots")
	taxCmd.Flags().StringVar(&taxFlags.prices, "prices", "", "current prices as TICKER:PRICE,... (fetched when omitted)")
	_ = taxCmd.MarkFlagRequired("lots")
}
