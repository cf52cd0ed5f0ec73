package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lyzr/portfolio/common/models"
	"github.com/lyzr/portfolio/common/reconcile"
	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name    string
		summary models.SweepSummary
		err     error
		want    int
	}{
		{name: "clean sweep", summary: models.SweepSummary{Total: 3, Unchanged: 2, Updated: 1}, want: exitOK},
		{name: "empty sweep", want: exitOK},
		{name: "some projects failed", summary: models.SweepSummary{Total: 3, Updated: 2, Failed: 1}, want: exitPartial},
		{name: "listing projects failed", summary: models.SweepSummary{Error: "list projects: boom"}, want: exitFailed},
		{name: "lock error", err: errors.New("redis down"), want: exitFailed},
		{name: "lock held", err: reconcile.ErrSweepInProgress, want: exitSkipped},
		{name: "wrapped lock held", err: fmt.Errorf("sweep: %w", reconcile.ErrSweepInProgress), want: exitSkipped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.summary, tt.err))
		})
	}
}
