package cmd

import (
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:          "hedgefund",
	Short:        "Multi-persona stock analysis with weighted consensus",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logger.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print machine readable JSON")

	rootCmd.AddCommand(
		analyzeCmd,
		portfolioCmd,
		backtestCmd,
		rebalanceCmd,
		taxCmd,
		esgCmd,
		globalCmd,
		serveCmd,
	)
}
