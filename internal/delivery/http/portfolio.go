package http

import (
	"ai-hedge-fund/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupPortfolio(base *echo.Group) {
	base.POST("/portfolio", h.buildPortfolio)
}

func (h *HttpAPIHandler) buildPortfolio(c echo.Context) error {
	req := new(dto.PortfolioRequest)
	if err := c.Bind(req); err != nil {
		return h.badRequest(c, "invalid request body")
	}

	result, err := h.service.PortfolioService.Build(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, "Portfolio constructed", result)
}
