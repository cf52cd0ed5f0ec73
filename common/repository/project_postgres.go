package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lyzr/portfolio/common/db"
	"github.com/lyzr/portfolio/common/models"
)

// ProjectRepository handles portfolio project rows in Postgres
type ProjectRepository struct {
	db *db.DB
}

// NewProjectRepository creates a new Postgres project repository
func NewProjectRepository(database *db.DB) *ProjectRepository {
	return &ProjectRepository{db: database}
}

// ListProjectIDs returns all project ids
func (r *ProjectRepository) ListProjectIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM portfolio_projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

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

// GetProject retrieves a project by id. Image columns are read as text so
// that JSONB arrays and legacy text values arrive in the same shape.
func (r *ProjectRepository) GetProject(ctx context.Context, id string) (*models.Project, error) {
	query := `
		SELECT id, before_images::text, after_images::text, updated_at
		FROM portfolio_projects
		WHERE id = $1
	`

	var before, after *string
	project := &models.Project{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&project.ID,
		&before,
		&after,
		&project.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	project.BeforeImages = rawValue(before)
	project.AfterImages = rawValue(after)

	return project, nil
}

// UpdateImages replaces both image arrays in a single statement
func (r *ProjectRepository) UpdateImages(ctx context.Context, id string, before, after []string, updatedAt time.Time) error {
	query := `
		UPDATE portfolio_projects
		SET before_images = $2, after_images = $3, updated_at = $4
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, id, nonNil(before), nonNil(after), updatedAt)
	if err != nil {
		return fmt.Errorf("failed to update project images: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrProjectNotFound
	}

	return nil
}

// Health checks database health
func (r *ProjectRepository) Health(ctx context.Context) error {
	return r.db.Health(ctx)
}

func rawValue(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
