package http

import (
	"strconv"
	"strings"

	"ai-hedge-fund/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupAnalyze(base *echo.Group) {
	base.GET("/analyze/:tickers", h.analyze)
}

func (h *HttpAPIHandler) analyze(c echo.Context) error {
	req := dto.AnalyzeRequest{
		Tickers: strings.Split(c.Param("tickers"), ","),
		Mode:    c.QueryParam("mode"),
	}
	if w := c.QueryParam("workers"); w != "" {
		workers, err := strconv.Atoi(w)
		if err != nil {
			return h.badRequest(c, "workers must be an integer")
		}
		req.Workers = workers
	}

	results, err := h.service.AnalyzerService.Analyze(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, "Analysis completed", results)
}
