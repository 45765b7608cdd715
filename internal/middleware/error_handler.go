package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"myGreenMarketPersonalization/business/personalization"
	"myGreenMarketPersonalization/pkg/logger"
	jsonres "myGreenMarketPersonalization/pkg/response"
)

// ErrorHandler renders errors that escape the handlers in the same envelope
// the auth middleware uses.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := http.StatusText(code)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	}

	if code >= http.StatusInternalServerError {
		logger.Error("http_unhandled_error",
			"trace_id", personalization.TraceIDFromContext(c.Request().Context()),
			"method", c.Request().Method,
			"path", c.Path(),
			"error", err,
		)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(code)
	} else {
		writeErr = c.JSON(code, jsonres.Error(statusName(code), message, nil))
	}
	if writeErr != nil {
		logger.Error("http_error_write_failed", "error", writeErr)
	}
}

func statusName(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	default:
		return "INTERNAL_SERVER_ERROR"
	}
}
