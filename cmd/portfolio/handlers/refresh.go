package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/portfolio/common/reconcile"
)

// RefreshRequest is the manual refresh body. An empty or absent project
// id refreshes every project; a whitespace-only id is rejected.
type RefreshRequest struct {
	ProjectID string `json:"project_id" validate:"omitempty,max=200,excludesall=/"`
}

var errBlankProjectID = errors.New("project_id must not be blank")

// RefreshHandler serves admin-triggered reconciliation
type RefreshHandler struct {
	manual *reconcile.ManualAdapter
}

// NewRefreshHandler creates a new refresh handler
func NewRefreshHandler(manual *reconcile.ManualAdapter) *RefreshHandler {
	return &RefreshHandler{
		manual: manual,
	}
}

// Refresh reconciles one project or all of them, synchronously
// POST /api/v1/admin/reconcile
func (h *RefreshHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return bindError(c, err)
	}
	if req.ProjectID != "" && strings.TrimSpace(req.ProjectID) == "" {
		return errorJSON(c, http.StatusBadRequest, "invalid_body", errBlankProjectID)
	}

	resp := h.manual.Refresh(c.Request().Context(), req.ProjectID)
	if resp.Sweep != nil {
		return c.JSON(http.StatusOK, resp.Sweep)
	}
	return c.JSON(projectStatus(*resp.Project), resp.Project)
}
