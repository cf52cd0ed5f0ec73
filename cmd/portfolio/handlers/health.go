package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthChecker reports per-component health
type HealthChecker interface {
	Health(ctx context.Context) map[string]error
}

// HealthHandler serves the health endpoint
type HealthHandler struct {
	service string
	checker HealthChecker
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(service string, checker HealthChecker) *HealthHandler {
	return &HealthHandler{
		service: service,
		checker: checker,
	}
}

// Health reports ok only when every component is reachable
// GET /health
func (h *HealthHandler) Health(c echo.Context) error {
	checks := map[string]string{}
	status, code := "ok", http.StatusOK

	for name, err := range h.checker.Health(c.Request().Context()) {
		if err != nil {
			checks[name] = err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	return c.JSON(code, map[string]interface{}{
		"status":     status,
		"service":    h.service,
		"components": checks,
	})
}
