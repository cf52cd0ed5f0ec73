package reconcile

import (
	"context"
	"strings"

	"github.com/lyzr/portfolio/common/models"
)

// ManualResponse holds exactly one of Project or Sweep
type ManualResponse struct {
	Project *ProjectResponse
	Sweep   *models.SweepSummary
}

// ManualAdapter serves on-demand admin refreshes. Authorization happens
// before Refresh is called.
type ManualAdapter struct {
	reconciler ProjectReconciler
	sweeper    *Sweeper
}

// NewManualAdapter creates a manual adapter
func NewManualAdapter(reconciler ProjectReconciler, sweeper *Sweeper) *ManualAdapter {
	return &ManualAdapter{reconciler: reconciler, sweeper: sweeper}
}

// Refresh reconciles projectID, or every project when projectID is empty
func (m *ManualAdapter) Refresh(ctx context.Context, projectID string) ManualResponse {
	ctx = WithTrigger(ctx, TriggerManual)

	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		summary := m.sweeper.Run(ctx)
		return ManualResponse{Sweep: &summary}
	}

	resp := NewProjectResponse(m.reconciler.Reconcile(ctx, projectID))
	return ManualResponse{Project: &resp}
}
