package http

import (
	"context"
	"errors"
	"net/http"

	"ai-hedge-fund/internal/dto"
	"ai-hedge-fund/pkg/common"
	"ai-hedge-fund/pkg/logger"
	"ai-hedge-fund/pkg/validate"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) ok(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, dto.NewSuccessResponse(message, data))
}

func (h *HttpAPIHandler) badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(message))
}

// fail maps service errors onto status codes. Unknown errors are logged and hidden.
func (h *HttpAPIHandler) fail(c echo.Context, err error) error {
	var verr *validate.Error
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, dto.NewBaseResponse(http.StatusBadRequest, verr.Error(), verr.Fields))
	case errors.Is(err, common.ErrInvalidInput):
		return h.badRequest(c, err.Error())
	case errors.Is(err, common.ErrDataUnavailable), errors.Is(err, common.ErrNoUsableSignals):
		return c.JSON(http.StatusUnprocessableEntity, dto.NewBaseResponse(http.StatusUnprocessableEntity, err.Error(), nil))
	case errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusGatewayTimeout, dto.NewBaseResponse(http.StatusGatewayTimeout, "request timed out", nil))
	}

	h.log.ErrorContextWithAlert(c.Request().Context(), "Request failed",
		logger.StringField("route", c.Path()),
		logger.ErrorField(err),
	)
	return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, "internal server error", nil))
}
