package cmd

import (
	"context"
	"fmt"

	"ai-hedge-fund/internal/delivery/cli"
	"ai-hedge-fund/internal/dto"
	"ai-hedge-fund/internal/service"
	"ai-hedge-fund/pkg/common"
	"ai-hedge-fund/pkg/utils"

	"github.com/spf13/cobra"
)

var analyzeFlags struct {
	mode     string
	detailed bool
	workers  int
}

var analyzeCmd = &cobra.Command{
	Use:     "analyze <tickers>",
	Short:   "Run every persona against one or more tickers",
	Example: "  hedgefund analyze AAPL,MSFT --mode hybrid --detailed",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runCommand(&analyzeFlags.detailed, runAnalyze),
}

func runAnalyze(ctx context.Context, dep *AppDependency, svc *service.Service, out *cli.Printer, args []string) error {
	tickers, err := utils.ParseTickers(args...)
	if err != nil {
		return err
	}

	mode := analyzeFlags.mode
	if mode == "" {
		mode = dep.cfg.Analyzer.Mode
	}

	results, err := svc.AnalyzerService.Analyze(ctx, dto.AnalyzeRequest{
		Tickers:  tickers,
		Mode:     mode,
		Detailed: analyzeFlags.detailed,
		Workers:  analyzeFlags.workers,
	})
	if err != nil {
		return err
	}
	if err := out.Analysis(results); err != nil {
		return err
	}
	return allFailed(results)
}

// allFailed turns a run where no ticker produced a consensus into a non-zero exit.
func allFailed(results []dto.AnalysisResult) error {
	if len(results) == 0 {
		return nil
	}
	for _, r := range results {
		if !r.Failed() {
			return nil
		}
	}
	return fmt.Errorf("all %d tickers failed: %w", len(results), common.ErrNoUsableSignals)
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFlags.mode, "mode", "", "signal producers: rules, llm or hybrid (default analyzer.mode)")
	analyzeCmd.Flags().BoolVar(&analyzeFlags.detailed, "detailed", false, "show every persona signal")
	analyzeCmd.Flags().IntVar(&analyzeFlags.workers, "workers", 0, "tickers analyzed in parallel (default analyzer.max_concurrency)")
}
