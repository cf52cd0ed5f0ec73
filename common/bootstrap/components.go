package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/lyzr/portfolio/common/config"
	"github.com/lyzr/portfolio/common/db"
	"github.com/lyzr/portfolio/common/logger"
	"github.com/lyzr/portfolio/common/redis"
	"github.com/lyzr/portfolio/common/repository"
	"github.com/lyzr/portfolio/common/storage"
)

// Components holds all initialized service dependencies
type Components struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *db.DB // nil unless the postgres driver is used
	Projects repository.ProjectStore
	Redis    *redis.Client
	Storage  storage.ObjectStore

	// Internal
	cleanupFuncs []func() error
}

// Shutdown performs graceful shutdown of all components
// Should be called with defer after Setup()
func (c *Components) Shutdown(ctx context.Context) error {
	c.Logger.Info("shutting down components")

	var errs []error

	// Run cleanup functions in reverse order (LIFO)
	for i := len(c.cleanupFuncs) - 1; i >= 0; i-- {
		if err := c.cleanupFuncs[i](); err != nil {
			errs = append(errs, err)
			c.Logger.Error("cleanup error", "error", err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	c.Logger.Info("shutdown complete")
	return nil
}

// Health checks health of all components
func (c *Components) Health(ctx context.Context) map[string]error {
	checks := make(map[string]error)

	if c.Projects != nil {
		checks["database"] = c.Projects.Health(ctx)
	}
	if c.Redis != nil {
		checks["redis"] = c.Redis.Health(ctx)
	}

	return checks
}

// addCleanup registers a cleanup function
func (c *Components) addCleanup(fn func() error) {
	c.cleanupFuncs = append(c.cleanupFuncs, fn)
}
