package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lyzr/portfolio/common/db"
	"github.com/lyzr/portfolio/common/models"
	_ "modernc.org/sqlite"
)

// SQLiteProjectRepository stores projects in a SQLite database. Used for
// local development and as the record store in repository tests.
type SQLiteProjectRepository struct {
	db   *sql.DB
	path string
}

// NewSQLiteProjectRepository opens (creating if needed) a SQLite database
func NewSQLiteProjectRepository(path string) (*SQLiteProjectRepository, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// one connection keeps :memory: databases shared and serializes writes
	conn.SetMaxOpenConns(1)

	return &SQLiteProjectRepository{db: conn, path: path}, nil
}

// Close closes the database
func (r *SQLiteProjectRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Applied implements db.MigrationTarget
func (r *SQLiteProjectRepository) Applied(ctx context.Context, name string) (bool, error) {
	if _, err := r.db.ExecContext(ctx, db.SchemaMigrationsSQLite); err != nil {
		return false, fmt.Errorf("ensure schema_migrations: %w", err)
	}

	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM schema_migrations WHERE name = ?`, name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check migration %s: %w", name, err)
	}
	return count > 0, nil
}

// Apply implements db.MigrationTarget
func (r *SQLiteProjectRepository) Apply(ctx context.Context, m db.Migration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, m.SQLite); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`,
		m.Name, time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("record: %w", err)
	}
	return tx.Commit()
}

// SeedProject inserts a project row. String image values are stored
// verbatim so legacy encodings can be reproduced; other values are JSON
// encoded and nil is stored as NULL.
func (r *SQLiteProjectRepository) SeedProject(ctx context.Context, id string, before, after any) error {
	beforeVal, err := encodeImages(before)
	if err != nil {
		return err
	}
	afterVal, err := encodeImages(after)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO portfolio_projects (id, before_images, after_images, updated_at) VALUES (?, ?, ?, ?)`,
		id, beforeVal, afterVal, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to seed project: %w", err)
	}
	return nil
}

// DeleteProject removes a project row
func (r *SQLiteProjectRepository) DeleteProject(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM portfolio_projects WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

// ListProjectIDs implements ProjectStore
func (r *SQLiteProjectRepository) ListProjectIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM portfolio_projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan project id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	return ids, nil
}

// GetProject implements ProjectStore
func (r *SQLiteProjectRepository) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var (
		before, after sql.NullString
		updatedAt     string
	)
	project := &models.Project{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, before_images, after_images, updated_at FROM portfolio_projects WHERE id = ?`,
		id,
	).Scan(&project.ID, &before, &after, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	if before.Valid {
		project.BeforeImages = before.String
	}
	if after.Valid {
		project.AfterImages = after.String
	}
	project.UpdatedAt = parseTimestamp(updatedAt)

	return project, nil
}

// UpdateImages implements ProjectStore
func (r *SQLiteProjectRepository) UpdateImages(ctx context.Context, id string, before, after []string, updatedAt time.Time) error {
	beforeJSON, err := json.Marshal(nonNil(before))
	if err != nil {
		return fmt.Errorf("encode before_images: %w", err)
	}
	afterJSON, err := json.Marshal(nonNil(after))
	if err != nil {
		return fmt.Errorf("encode after_images: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE portfolio_projects SET before_images = ?, after_images = ?, updated_at = ? WHERE id = ?`,
		string(beforeJSON), string(afterJSON), updatedAt.UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update project images: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrProjectNotFound
	}
	return nil
}

// Health implements ProjectStore
func (r *SQLiteProjectRepository) Health(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func encodeImages(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		return val, nil
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("encode images: %w", err)
		}
		return string(data), nil
	}
}

func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
