package repository

import (
	"context"
	"testing"
	"time"

	"github.com/lyzr/portfolio/common/db"
	"github.com/lyzr/portfolio/common/logger"
	"github.com/lyzr/portfolio/common/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *SQLiteProjectRepository {
	t.Helper()

	repo, err := NewSQLiteProjectRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	_, err = db.Migrate(context.Background(), repo, db.Migrations, logger.Discard())
	require.NoError(t, err)
	return repo
}

func TestSQLite_MigrateIsRepeatable(t *testing.T) {
	repo := newTestRepo(t)

	n, err := db.Migrate(context.Background(), repo, db.Migrations, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSQLite_ListProjectIDs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SeedProject(ctx, "P2", []string{}, []string{}))
	require.NoError(t, repo.SeedProject(ctx, "P1", []string{}, []string{}))

	ids, err := repo.ListProjectIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"P1", "P2"}, ids)
}

func TestSQLite_GetProjectKeepsRawShapes(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SeedProject(ctx, "P1", `["x.jpg"]`, "a.jpg, b.jpg"))
	require.NoError(t, repo.SeedProject(ctx, "P2", nil, nil))

	p1, err := repo.GetProject(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, `["x.jpg"]`, p1.BeforeImages)
	assert.Equal(t, []string{"x.jpg"}, normalize.Normalize(p1.BeforeImages))
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, normalize.Normalize(p1.AfterImages))

	p2, err := repo.GetProject(ctx, "P2")
	require.NoError(t, err)
	assert.Nil(t, p2.BeforeImages)
	assert.Equal(t, []string{}, normalize.Normalize(p2.AfterImages))
}

func TestSQLite_GetProjectNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetProject(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestSQLite_UpdateImagesReplaces(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SeedProject(ctx, "P1", []string{"P1/before_images/old.jpg"}, []string{}))

	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	err := repo.UpdateImages(ctx, "P1", []string{"P1/before_images/new.jpg"}, nil, now)
	require.NoError(t, err)

	p, err := repo.GetProject(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, []string{"P1/before_images/new.jpg"}, normalize.Normalize(p.BeforeImages))
	assert.Equal(t, `[]`, p.AfterImages)
	assert.True(t, now.Equal(p.UpdatedAt))
}

func TestSQLite_UpdateImagesMissingRow(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SeedProject(ctx, "P1", nil, nil))
	require.NoError(t, repo.DeleteProject(ctx, "P1"))

	err := repo.UpdateImages(ctx, "P1", []string{}, []string{}, time.Now())
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestSQLite_Health(t *testing.T) {
	repo := newTestRepo(t)
	assert.NoError(t, repo.Health(context.Background()))
}
