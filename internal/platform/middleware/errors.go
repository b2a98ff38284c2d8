package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinica/clinica/internal/platform/apperr"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Detail string `json:"detail"`
	Field  string `json:"field,omitempty"`
}

// Render maps an error returned by a handler to a status code and body.
// Internal errors never leak their message to the client.
func Render(err error) (int, ErrorBody) {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		msg, ok := httpErr.Message.(string)
		if !ok {
			msg = fmt.Sprint(httpErr.Message)
		}
		return httpErr.Code, ErrorBody{Detail: msg}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, ErrorBody{Detail: "tempo limite da requisição excedido"}
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Kind != apperr.KindInternal {
		return appErr.Kind.Status(), ErrorBody{Detail: appErr.Message, Field: appErr.Field}
	}
	return http.StatusInternalServerError, ErrorBody{Detail: "erro interno do servidor"}
}

// StatusOf returns the status code Render would choose for err.
func StatusOf(err error) int {
	status, _ := Render(err)
	return status
}

// ErrorHandler writes error responses as {"detail": ..., "field": ...} and
// logs server-side failures with their cause.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := Render(err)
		if status >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).
				Str("request_id", rid).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", status).
				Msg("request failed")
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			logger.Error().Err(writeErr).Msg("write error response")
		}
	}
}
