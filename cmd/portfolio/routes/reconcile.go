package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/lyzr/portfolio/cmd/portfolio/container"
	"github.com/lyzr/portfolio/cmd/portfolio/handlers"
	"github.com/lyzr/portfolio/cmd/portfolio/middleware"
)

// RegisterWebhookRoutes registers the storage webhook entry point
func RegisterWebhookRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewWebhookHandler(c.Webhook)
	auth := c.Components.Config.Auth

	webhooks := e.Group("/api/v1/webhooks",
		middleware.WebhookSignature(auth.WebhookSecret, auth.WebhookMaxSkew, nil),
	)
	{
		webhooks.POST("/storage", h.HandleStorageEvent) // POST /api/v1/webhooks/storage
	}
}

// RegisterAdminRoutes registers the admin-only reconcile routes
func RegisterAdminRoutes(e *echo.Echo, c *container.Container) {
	refresh := handlers.NewRefreshHandler(c.Manual)
	status := handlers.NewStatusHandler(c.Status)

	admin := e.Group("/api/v1/admin/reconcile",
		middleware.AdminAuth(c.Components.Config.Auth.AdminTokens),
	)
	{
		admin.POST("", refresh.Refresh)                           // POST /api/v1/admin/reconcile
		admin.GET("/status/:project_id", status.GetProjectStatus) // GET /api/v1/admin/reconcile/status/P1
		admin.GET("/sweep", status.GetLastSweep)                  // GET /api/v1/admin/reconcile/sweep
	}
}

// RegisterHealthRoutes registers the health check
func RegisterHealthRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewHealthHandler(c.Components.Config.Service.Name, c.Components)
	e.GET("/health", h.Health)
}
