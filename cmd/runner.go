package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ai-hedge-fund/internal/delivery/cli"
	"ai-hedge-fund/internal/service"

	"github.com/spf13/cobra"
)

type commandFunc func(ctx context.Context, dep *AppDependency, svc *service.Service, out *cli.Printer, args []string) error

// runCommand builds the dependency graph for one CLI invocation, cancelling on SIGINT/SIGTERM.
// detailed may be nil for commands without a --detailed flag.
func runCommand(detailed *bool, fn commandFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		appDep, err := NewAppDependency(ctx)
		if err != nil {
			return err
		}
		defer appDep.Close()

		services, err := appDep.Services()
		if err != nil {
			return err
		}

		printer := cli.NewPrinter(cmd.OutOrStdout(), jsonOutput, detailed != nil && *detailed)
		return fn(ctx, appDep, services, printer, args)
	}
}
