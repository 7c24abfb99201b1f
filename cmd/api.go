package cmd

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpDelivery "ai-hedge-fund/internal/delivery/http"
	"ai-hedge-fund/pkg/metrics"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  Serve,
}

func Serve(cmd *cobra.Command, args []string) error {
	// Create a context that is canceled on interrupt signals
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

	metrics.Register()

	httpHandler := httpDelivery.NewHttpAPIHandler(appDep.echo, appDep.cfg, appDep.log, services)
	apiServer := NewHTTPServer(ctx, appDep, httpHandler)

	serverErr := make(chan error, 1)
	go func() {
		if err := apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for shutdown signal
	select {
	case <-ctx.Done():
		appDep.log.Info("Shutting down gracefully...")
	case err := <-serverErr:
		appDep.log.Error("HTTP server failed", zap.Error(err))
		return err
	}

	return apiServer.Stop()
}
