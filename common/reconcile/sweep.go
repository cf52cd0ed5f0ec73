package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lyzr/portfolio/common/logger"
	"github.com/lyzr/portfolio/common/models"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultSweepConcurrency = 10
	DefaultSweepLockTTL     = 30 * time.Minute
)

// ErrSweepInProgress is returned by RunExclusive when another sweep holds the lock
var ErrSweepInProgress = errors.New("sweep already in progress")

// ProjectLister enumerates project ids
type ProjectLister interface {
	ListProjectIDs(ctx context.Context) ([]string, error)
}

// Locker is a best-effort distributed lock
type Locker interface {
	SetNX(ctx context.Context, key, value string, expiry time.Duration) (bool, error)
	ReleaseIfOwner(ctx context.Context, key, token string) (bool, error)
}

// SweepConfig configures a Sweeper
type SweepConfig struct {
	Concurrency int
	LockTTL     time.Duration
}

// Sweeper reconciles every known project with bounded concurrency
type Sweeper struct {
	projects    ProjectLister
	reconciler  ProjectReconciler
	status      StatusRecorder
	locker      Locker
	concurrency int
	lockTTL     time.Duration
	log         *logger.Logger
	now         func() time.Time
}

// NewSweeper creates a sweeper. status and locker may be nil.
func NewSweeper(projects ProjectLister, reconciler ProjectReconciler, status StatusRecorder, locker Locker, cfg SweepConfig, log *logger.Logger) *Sweeper {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultSweepConcurrency
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultSweepLockTTL
	}
	if status == nil {
		status = NopStatus{}
	}

	return &Sweeper{
		projects:    projects,
		reconciler:  reconciler,
		status:      status,
		locker:      locker,
		concurrency: cfg.Concurrency,
		lockTTL:     cfg.LockTTL,
		log:         log,
		now:         time.Now,
	}
}

// Run reconciles all projects. A failing project never stops the others;
// the summary always covers every listed id.
func (s *Sweeper) Run(ctx context.Context) models.SweepSummary {
	trigger := TriggerFrom(ctx)
	if trigger == "" {
		trigger = TriggerSweep
		ctx = WithTrigger(ctx, trigger)
	}

	summary := models.SweepSummary{
		RunID:     uuid.New().String(),
		Trigger:   trigger,
		StartedAt: s.now().UTC(),
		Results:   []models.ReconcileResult{},
	}
	log := s.log.WithContext(ctx).WithFields(map[string]any{"trigger": trigger, "run_id": summary.RunID})

	ids, err := s.projects.ListProjectIDs(ctx)
	if err != nil {
		summary.Error = fmt.Sprintf("list projects: %v", err)
		summary.DurationMS = s.now().Sub(summary.StartedAt).Milliseconds()
		log.Error("sweep could not list projects", "error", err)
		s.record(ctx, summary)
		return summary
	}

	log.Info("sweep started", "projects", len(ids), "concurrency", s.concurrency)

	results := make([]models.ReconcileResult, len(ids))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			results[i] = s.reconcileOne(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		summary.Add(r)
	}
	summary.DurationMS = s.now().Sub(summary.StartedAt).Milliseconds()

	log.Info("sweep finished",
		"total", summary.Total,
		"unchanged", summary.Unchanged,
		"updated", summary.Updated,
		"failed", summary.Failed,
		"total_images", summary.TotalImages,
		"duration_ms", summary.DurationMS,
	)

	s.record(ctx, summary)
	return summary
}

// RunExclusive runs a sweep while holding the sweep lock. Without a
// locker it behaves like Run.
func (s *Sweeper) RunExclusive(ctx context.Context) (models.SweepSummary, error) {
	if s.locker == nil {
		return s.Run(ctx), nil
	}

	token := uuid.NewString()
	acquired, err := s.locker.SetNX(ctx, sweepLockKey, token, s.lockTTL)
	if err != nil {
		return models.SweepSummary{}, fmt.Errorf("acquire sweep lock: %w", err)
	}
	if !acquired {
		return models.SweepSummary{}, ErrSweepInProgress
	}
	defer func() {
		// release with a fresh context so a cancelled sweep still frees the lock
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if _, err := s.locker.ReleaseIfOwner(releaseCtx, sweepLockKey, token); err != nil {
			s.log.Warn("failed to release sweep lock", "error", err)
		}
	}()

	return s.Run(ctx), nil
}

// reconcileOne recovers panics from the reconciler so one bad project
// cannot take the sweep down
func (s *Sweeper) reconcileOne(ctx context.Context, id string) (result models.ReconcileResult) {
	defer func() {
		if p := recover(); p != nil {
			s.log.Error("reconcile panicked", "project_id", id, "panic", p)
			result = models.ReconcileResult{
				ProjectID: id,
				Status:    models.StatusFailed,
				Error:     fmt.Sprintf("panic: %v", p),
				Trigger:   TriggerFrom(ctx),
			}
		}
	}()
	return s.reconciler.Reconcile(ctx, id)
}

func (s *Sweeper) record(ctx context.Context, summary models.SweepSummary) {
	if err := s.status.RecordSweep(ctx, summary); err != nil {
		s.log.Warn("failed to record sweep summary", "error", err)
	}
}
