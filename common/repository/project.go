package repository

import (
	"context"
	"errors"
	"time"

	"github.com/lyzr/portfolio/common/models"
)

// ErrProjectNotFound is returned when the project row does not exist,
// including when it is deleted between read and write.
var ErrProjectNotFound = errors.New("project not found")

// ProjectStore is the record-store collaborator used by reconciliation
type ProjectStore interface {
	// ListProjectIDs returns every project id in a stable order
	ListProjectIDs(ctx context.Context) ([]string, error)
	// GetProject returns the raw record; image fields are not normalized
	GetProject(ctx context.Context, id string) (*models.Project, error)
	// UpdateImages replaces both image arrays and bumps updated_at. It only
	// writes an existing row and returns ErrProjectNotFound otherwise.
	UpdateImages(ctx context.Context, id string, before, after []string, updatedAt time.Time) error
	// Health checks connectivity
	Health(ctx context.Context) error
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
