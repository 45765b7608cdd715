package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"myGreenMarketPersonalization/business/personalization"
)

// TraceID copies the request id into the request context so service logs
// can be correlated with access logs. It must run after RequestID.
func TraceID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tid := c.Response().Header().Get(echo.HeaderXRequestID)
			if tid == "" {
				tid = uuid.NewString()
				c.Response().Header().Set(echo.HeaderXRequestID, tid)
			}

			req := c.Request()
			c.SetRequest(req.WithContext(personalization.WithTraceID(req.Context(), tid)))

			return next(c)
		}
	}
}
