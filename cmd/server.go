package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	httpDelivery "ai-hedge-fund/internal/delivery/http"

	"go.uber.org/zap"
)

type HTTPServer struct {
	ctx     context.Context
	appDep  *AppDependency
	handler *httpDelivery.HttpAPIHandler
}

func NewHTTPServer(ctx context.Context, appDep *AppDependency, handler *httpDelivery.HttpAPIHandler) *HTTPServer {
	return &HTTPServer{
		ctx:     ctx,
		appDep:  appDep,
		handler: handler,
	}
}

func (s *HTTPServer) Start() error {
	s.appDep.log.Info("Starting HTTP server", zap.Int("port", s.appDep.cfg.API.Port))

	s.handler.SetupRoutes()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.appDep.cfg.API.Port),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.appDep.cfg.API.WriteTimeout,
	}
	return s.appDep.echo.StartServer(server)
}

func (s *HTTPServer) Stop() error {
	s.appDep.log.Info("Shutting down HTTP server")

	// Use a fresh context: s.ctx is already cancelled once a shutdown signal arrived.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stopDone := make(chan error, 1)
	go func() {
		stopDone <- s.appDep.echo.Shutdown(ctx)
	}()

	select {
	case err := <-stopDone:
		if err != nil {
			s.appDep.log.Error("Error when stopping HTTP server", zap.Error(err))
			return err
		}
		s.appDep.log.Info("HTTP server stopped successfully")
	case <-ctx.Done():
		s.appDep.log.Warn("Timeout while stopping HTTP server, forcing shutdown")
		return s.appDep.echo.Close()
	}
	return nil
}
