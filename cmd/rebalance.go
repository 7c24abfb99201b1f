package cmd

import (
	"context"
	"strings"

	"ai-hedge-fund/internal/delivery/cli"
	"ai-hedge-fund/internal/dto"
	"ai-hedge-fund/internal/service"
	"ai-hedge-fund/pkg/logger"

	"github.com/spf13/cobra"
)

var rebalanceFlags struct {
	threshold float64
	daysSince int
	watch     string
}

var rebalanceCmd = &cobra.Command{
	Use:   "rebalance <ticker:weight,...>",
	Short: "Compare current weights with consensus targets",
	Example: "  hedgefund rebalance AAPL:0.3,MSFT:0.2,XOM:0.1 --threshold 0.05\n" +
		"  hedgefund rebalance AAPL:0.5,MSFT:0.5 --watch @daily",
	Args: cobra.MinimumNArgs(1),
	RunE: runCommand(nil, runRebalance),
}

func runRebalance(ctx context.Context, dep *AppDependency, svc *service.Service, out *cli.Printer, args []string) error {
	holdings, err := cli.ParseHoldings(strings.Join(args, ","))
	if err != nil {
		return err
	}

	req := dto.RebalanceRequest{
		Holdings:  holdings,
		Threshold: rebalanceFlags.threshold,
		DaysSince: rebalanceFlags.daysSince,
	}

	if rebalanceFlags.watch == "" {
		report, err := svc.RebalanceService.Check(ctx, req)
		if err != nil {
			return err
		}
		return out.Rebalance(report)
	}

	return svc.RebalanceService.Watch(ctx, rebalanceFlags.watch, req, func(report *dto.RebalanceReport) {
		if err := out.Rebalance(report); err != nil {
			dep.log.Error("Failed to print rebalance report", logger.ErrorField(err))
		}
	})
}

func init() {
	rebalanceCmd.Flags().Float64Var(&rebalanceFlags.threshold, "threshold", 0.05, "drift that triggers an action")
	rebalanceCmd.Flags().IntVar(&rebalanceFlags.daysSince, "days-since", 30, "days since the last rebalance")
	rebalanceCmd.Flags().StringVar(&rebalanceFlags.watch, "watch", "", "re-run on a cron schedule, e.g. \"@daily\" or \"0 9 * * 1-5\"")
}
