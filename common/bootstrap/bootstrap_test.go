package bootstrap

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/lyzr/portfolio/common/config"
	"github.com/lyzr/portfolio/common/logger"
	"github.com/lyzr/portfolio/common/models"
	"github.com/lyzr/portfolio/common/reconcile"
	"github.com/lyzr/portfolio/common/repository"
	"github.com/lyzr/portfolio/common/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults("portfolio-test")
	cfg.Database.Driver = "sqlite"
	cfg.Database.SQLitePath = filepath.Join(t.TempDir(), "portfolio.db")
	cfg.Storage.Backend = "memory"
	cfg.Redis.Enabled = false
	return cfg
}

func TestSetup_LocalStack(t *testing.T) {
	ctx := context.Background()
	cfg := localConfig(t)

	c, err := Setup(ctx, "portfolio-test",
		WithCustomConfig(cfg),
		WithCustomLogger(logger.Discard()),
		WithMigrations(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Shutdown(ctx) })

	assert.Nil(t, c.DB)
	assert.Nil(t, c.Redis)
	require.NotNil(t, c.Projects)
	require.IsType(t, &storage.MemoryStore{}, c.Storage)

	for name, err := range c.Health(ctx) {
		assert.NoError(t, err, name)
	}

	ids, err := c.Projects.ListProjectIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSetup_WithRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	cfg := localConfig(t)
	cfg.Redis.Enabled = true
	host, port, _ := strings.Cut(mr.Addr(), ":")
	cfg.Redis.Host = host
	cfg.Redis.Port, _ = strconv.Atoi(port)

	c, err := Setup(ctx, "portfolio-test",
		WithCustomConfig(cfg),
		WithCustomLogger(logger.Discard()),
		WithMigrations(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Shutdown(ctx) })

	require.NotNil(t, c.Redis)
	assert.NoError(t, c.Health(ctx)["redis"])

	rec, err := c.Reconciliation()
	require.NoError(t, err)
	assert.IsType(t, &reconcile.RedisStatus{}, rec.Status)
}

func TestSetup_UnknownDriver(t *testing.T) {
	cfg := localConfig(t)
	cfg.Database.Driver = "mysql"

	_, err := Setup(context.Background(), "portfolio-test",
		WithCustomConfig(cfg),
		WithCustomLogger(logger.Discard()),
	)
	assert.ErrorContains(t, err, "unknown database driver")
}

func TestReconciliation_EndToEnd(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore("")

	c, err := Setup(ctx, "portfolio-test",
		WithCustomConfig(localConfig(t)),
		WithCustomLogger(logger.Discard()),
		WithCustomStorage(store),
		WithMigrations(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Shutdown(ctx) })

	repo, ok := c.Projects.(*repository.SQLiteProjectRepository)
	require.True(t, ok)
	require.NoError(t, repo.SeedProject(ctx, "P1", `["x.jpg"]`, nil))
	store.Put("P1/before_images/x.jpg", 1)
	store.Put("P1/after_images/y.png", 1)

	rec, err := c.Reconciliation()
	require.NoError(t, err)

	summary := rec.Sweeper.Run(ctx)
	assert.Equal(t, 1, summary.Updated)

	again := rec.Reconciler.Reconcile(ctx, "P1")
	assert.Equal(t, models.StatusUnchanged, again.Status)
}

func TestReconciliation_InvalidFilter(t *testing.T) {
	ctx := context.Background()
	cfg := localConfig(t)
	cfg.Reconcile.ObjectFilter = "size >"

	c, err := Setup(ctx, "portfolio-test",
		WithCustomConfig(cfg),
		WithCustomLogger(logger.Discard()),
		WithMigrations(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Shutdown(ctx) })

	_, err = c.Reconciliation()
	assert.ErrorContains(t, err, "invalid object filter")
}
