package http

import (
	"ai-hedge-fund/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupTax(base *echo.Group) {
	base.POST("/tax", h.analyzeTax)
}

func (h *HttpAPIHandler) analyzeTax(c echo.Context) error {
	req := new(dto.TaxRequest)
	if err := c.Bind(req); err != nil {
		return h.badRequest(c, "invalid request body")
	}

	report, err := h.service.TaxService.Analyze(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, "Tax analysis completed", report)
}
