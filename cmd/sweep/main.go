// Command sweep runs one reconciliation pass over every portfolio project.
// It is meant to be started by an external scheduler (cron, k8s CronJob).
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lyzr/portfolio/common/bootstrap"
	"github.com/lyzr/portfolio/common/models"
	"github.com/lyzr/portfolio/common/reconcile"
)

const (
	exitOK      = 0
	exitFailed  = 1
	exitPartial = 2
	exitSkipped = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := bootstrap.Setup(ctx, "portfolio-sweep", bootstrap.WithMigrations())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap sweep: %v\n", err)
		return exitFailed
	}
	defer components.Shutdown(context.WithoutCancel(ctx))

	rec, err := components.Reconciliation()
	if err != nil {
		components.Logger.Error("failed to wire reconciliation", "error", err)
		return exitFailed
	}

	summary, err := rec.Sweeper.RunExclusive(ctx)
	switch {
	case errors.Is(err, reconcile.ErrSweepInProgress):
		components.Logger.Warn("another sweep holds the lock, skipping")
	case err != nil:
		components.Logger.Error("sweep failed", "error", err)
	}
	return exitCode(summary, err)
}

// exitCode maps a sweep outcome to the process exit status
func exitCode(summary models.SweepSummary, err error) int {
	switch {
	case errors.Is(err, reconcile.ErrSweepInProgress):
		return exitSkipped
	case err != nil, summary.Error != "":
		return exitFailed
	case summary.Failed > 0:
		return exitPartial
	default:
		return exitOK
	}
}
