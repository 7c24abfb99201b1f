package http

import (
	"ai-hedge-fund/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupRebalance(base *echo.Group) {
	base.POST("/rebalance", h.checkRebalance)
}

func (h *HttpAPIHandler) checkRebalance(c echo.Context) error {
	req := new(dto.RebalanceRequest)
	if err := c.Bind(req); err != nil {
		return h.badRequest(c, "invalid request body")
	}

	report, err := h.service.RebalanceService.Check(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, "Rebalance check completed", report)
}
