package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/portfolio/common/reconcile"
)

// WebhookHandler handles storage change notifications
type WebhookHandler struct {
	adapter *reconcile.WebhookAdapter
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(adapter *reconcile.WebhookAdapter) *WebhookHandler {
	return &WebhookHandler{
		adapter: adapter,
	}
}

// HandleStorageEvent reconciles the project named by the event
// POST /api/v1/webhooks/storage
func (h *WebhookHandler) HandleStorageEvent(c echo.Context) error {
	var event reconcile.StorageEvent
	if err := c.Bind(&event); err != nil {
		return bindError(c, err)
	}

	resp, err := h.adapter.Handle(c.Request().Context(), event)
	if errors.Is(err, reconcile.ErrMalformedEvent) {
		return errorJSON(c, http.StatusBadRequest, "malformed_event", err)
	}
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "internal", err)
	}

	return c.JSON(projectStatus(resp), resp)
}
