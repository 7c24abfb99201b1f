package http

import (
	"strconv"

	"ai-hedge-fund/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupGlobal(base *echo.Group) {
	global := base.Group("/global")
	global.GET("/markets", h.listMarkets)
	global.GET("/markets/:code", h.marketSummary)
	global.GET("/convert", h.convertCurrency)
	global.GET("/:ticker", h.analyzeGlobal)
}

func (h *HttpAPIHandler) listMarkets(c echo.Context) error {
	return h.ok(c, "Supported markets", h.service.GlobalService.Markets())
}

func (h *HttpAPIHandler) marketSummary(c echo.Context) error {
	summary, err := h.service.GlobalService.MarketSummary(c.Request().Context(), c.Param("code"))
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, "Market summary", summary)
}

func (h *HttpAPIHandler) convertCurrency(c echo.Context) error {
	amount, err := strconv.ParseFloat(c.QueryParam("amount"), 64)
	if err != nil {
		return h.badRequest(c, "amount must be a number")
	}

	result, err := h.service.GlobalService.Convert(c.Request().Context(), dto.ConvertRequest{
		Amount: amount,
		From:   c.QueryParam("from"),
		To:     c.QueryParam("to"),
	})
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, "Currency converted", result)
}

func (h *HttpAPIHandler) analyzeGlobal(c echo.Context) error {
	result, err := h.service.GlobalService.Analyze(c.Request().Context(), c.Param("ticker"), c.QueryParam("mode"))
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, "Analysis completed", result)
}
