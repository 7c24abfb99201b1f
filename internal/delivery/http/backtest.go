package http

import (
	"ai-hedge-fund/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupBacktest(base *echo.Group) {
	base.POST("/backtest", h.runBacktest)
}

func (h *HttpAPIHandler) runBacktest(c echo.Context) error {
	req := new(dto.BacktestRequest)
	if err := c.Bind(req); err != nil {
		return h.badRequest(c, "invalid request body")
	}

	result, err := h.service.BacktestService.RunBacktest(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, "Backtest completed", result)
}
