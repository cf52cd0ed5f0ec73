package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/portfolio/common/reconcile"
)

// StatusHandler exposes the last recorded reconcile outcomes
type StatusHandler struct {
	status reconcile.StatusRecorder
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(status reconcile.StatusRecorder) *StatusHandler {
	return &StatusHandler{
		status: status,
	}
}

// GetProjectStatus returns the last result for a project
// GET /api/v1/admin/reconcile/status/:project_id
func (h *StatusHandler) GetProjectStatus(c echo.Context) error {
	projectID := c.Param("project_id")

	result, err := h.status.LastResult(c.Request().Context(), projectID)
	if errors.Is(err, reconcile.ErrNoStatus) {
		return errorJSON(c, http.StatusNotFound, "not_found", err)
	}
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "internal", err)
	}

	return c.JSON(http.StatusOK, result)
}

// GetLastSweep returns the last sweep summary
// GET /api/v1/admin/reconcile/sweep
func (h *StatusHandler) GetLastSweep(c echo.Context) error {
	summary, err := h.status.LastSweep(c.Request().Context())
	if errors.Is(err, reconcile.ErrNoStatus) {
		return errorJSON(c, http.StatusNotFound, "not_found", err)
	}
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "internal", err)
	}

	return c.JSON(http.StatusOK, summary)
}
