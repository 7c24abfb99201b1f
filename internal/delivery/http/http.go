package http

import (
	"net/http"

	"ai-hedge-fund/config"
	"ai-hedge-fund/internal/dto"
	"ai-hedge-fund/internal/service"
	"ai-hedge-fund/pkg/logger"
	"ai-hedge-fund/pkg/middleware"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HttpAPIHandler struct {
	echo    *echo.Echo
	cfg     *config.Config
	log     *logger.Logger
	service *service.Service
}

func NewHttpAPIHandler(echo *echo.Echo, cfg *config.Config, log *logger.Logger, service *service.Service) *HttpAPIHandler {
	return &HttpAPIHandler{
		echo:    echo,
		cfg:     cfg,
		log:     log,
		service: service,
	}
}

func (h *HttpAPIHandler) SetupRoutes() {
	h.echo.Use(middleware.NewMetricsMiddleware())

	h.echo.GET("/healthz", h.healthz)
	h.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	base := h.echo.Group("/api",
		middleware.NewRateLimiterMiddleware(h.cfg.API),
		middleware.WithTimeout(h.cfg.API.WriteTimeout),
	)
	h.SetupAnalyze(base)
	h.SetupPortfolio(base)
	h.SetupBacktest(base)
	h.SetupRebalance(base)
	h.SetupTax(base)
	h.SetupESG(base)
	h.SetupGlobal(base)
}

func (h *HttpAPIHandler) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("ok", nil))
}
