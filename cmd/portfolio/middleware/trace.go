package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/lyzr/portfolio/common/logger"
)

// TraceContext copies the request id into the request context so every
// log line for the request carries trace_id. Must run after RequestID.
func TraceContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Response().Header().Get(echo.HeaderXRequestID)
			if id == "" {
				id = c.Request().Header.Get(echo.HeaderXRequestID)
			}
			if id != "" {
				req := c.Request()
				c.SetRequest(req.WithContext(logger.WithTraceID(req.Context(), id)))
			}
			return next(c)
		}
	}
}
