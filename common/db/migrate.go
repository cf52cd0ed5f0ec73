package db

import (
	"context"
	"fmt"

	"github.com/lyzr/portfolio/common/logger"
)

// Migration is one named, independently retryable schema step. Each
// dialect carries its own statement.
type Migration struct {
	Name     string
	Postgres string
	SQLite   string
}

// MigrationTarget is a database able to record and apply migrations
type MigrationTarget interface {
	Applied(ctx context.Context, name string) (bool, error)
	Apply(ctx context.Context, m Migration) error
}

const schemaMigrationsPostgres = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	name       TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// SchemaMigrationsSQLite creates the bookkeeping table on SQLite
const SchemaMigrationsSQLite = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	name       TEXT PRIMARY KEY,
	applied_at TEXT NOT NULL
)`

// Migrations is the ordered schema history of the record store
var Migrations = []Migration{
	{
		Name: "0001_create_portfolio_projects",
		Postgres: `
CREATE TABLE IF NOT EXISTS portfolio_projects (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL DEFAULT '',
	before_images JSONB NOT NULL DEFAULT '[]'::jsonb,
	after_images  JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		SQLite: `
CREATE TABLE IF NOT EXISTS portfolio_projects (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL DEFAULT '',
	before_images TEXT DEFAULT '[]',
	after_images  TEXT DEFAULT '[]',
	created_at    TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at    TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	},
	{
		Name:     "0002_index_portfolio_projects_updated_at",
		Postgres: `CREATE INDEX IF NOT EXISTS idx_portfolio_projects_updated_at ON portfolio_projects (updated_at)`,
		SQLite:   `CREATE INDEX IF NOT EXISTS idx_portfolio_projects_updated_at ON portfolio_projects (updated_at)`,
	},
}

// Migrate applies every step in order that the target has not recorded.
// A failed step stops the run; re-running resumes at that step.
func Migrate(ctx context.Context, target MigrationTarget, steps []Migration, log *logger.Logger) (int, error) {
	applied := 0
	for _, step := range steps {
		done, err := target.Applied(ctx, step.Name)
		if err != nil {
			return applied, err
		}
		if done {
			log.Debug("migration already applied", "migration", step.Name)
			continue
		}

		if err := target.Apply(ctx, step); err != nil {
			return applied, fmt.Errorf("migration %s failed: %w", step.Name, err)
		}
		applied++
		log.Info("migration applied", "migration", step.Name)
	}
	return applied, nil
}
