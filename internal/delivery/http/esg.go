package http

import (
	"strconv"
	"strings"

	"ai-hedge-fund/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupESG(base *echo.Group) {
	base.GET("/esg/:tickers", h.screenESG)
}

func (h *HttpAPIHandler) screenESG(c echo.Context) error {
	req := dto.ESGRequest{Tickers: strings.Split(c.Param("tickers"), ",")}
	if p := c.QueryParam("portfolio"); p != "" {
		portfolio, err := strconv.ParseBool(p)
		if err != nil {
			return h.badRequest(c, "portfolio must be a boolean")
		}
		req.Portfolio = portfolio
	}

	report, err := h.service.ESGService.Screen(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, "ESG screen completed", report)
}
