package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lyzr/portfolio/cmd/portfolio/container"
	portfoliomw "github.com/lyzr/portfolio/cmd/portfolio/middleware"
	"github.com/lyzr/portfolio/cmd/portfolio/routes"
	"github.com/lyzr/portfolio/common/bootstrap"
	"github.com/lyzr/portfolio/common/server"
	"github.com/lyzr/portfolio/common/validation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Bootstrap common components (record store, redis, object store)
	components, err := bootstrap.Setup(ctx, "portfolio", bootstrap.WithMigrations())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap portfolio: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(context.WithoutCancel(ctx))

	if len(components.Config.Auth.AdminTokens) == 0 {
		components.Logger.Warn("no admin tokens configured, manual refresh is unreachable")
	}
	if components.Config.Auth.WebhookSecret == "" {
		components.Logger.Warn("webhook secret not set, storage webhooks are accepted unsigned")
	}

	// Initialize service container (singleton pattern - all services created once)
	serviceContainer, err := container.NewContainer(components)
	if err != nil {
		components.Logger.Error("failed to initialize service container", "error", err)
		os.Exit(1)
	}

	e := NewEcho(serviceContainer)

	srv := server.New("portfolio", components.Config.Service.Port, e, components.Logger)
	if err := srv.Run(ctx); err != nil {
		components.Logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// NewEcho builds the Echo instance with middleware and all routes
func NewEcho(c *container.Container) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(portfoliomw.TraceContext())
	e.Use(middleware.Logger())

	routes.RegisterHealthRoutes(e, c)
	routes.RegisterWebhookRoutes(e, c)
	routes.RegisterAdminRoutes(e, c)

	return e
}
