package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/lyzr/portfolio/common/logger"
	"github.com/lyzr/portfolio/common/models"
	"github.com/lyzr/portfolio/common/normalize"
	"github.com/lyzr/portfolio/common/repository"
	"golang.org/x/sync/errgroup"
)

const (
	TriggerWebhook = "webhook"
	TriggerSweep   = "sweep"
	TriggerManual  = "manual"
)

type triggerKey struct{}

// WithTrigger tags ctx with the trigger that started the reconciliation
func WithTrigger(ctx context.Context, trigger string) context.Context {
	return context.WithValue(ctx, triggerKey{}, trigger)
}

// TriggerFrom returns the trigger stored in ctx, or "" if none
func TriggerFrom(ctx context.Context) string {
	trigger, _ := ctx.Value(triggerKey{}).(string)
	return trigger
}

// Lister lists the image paths of one project category
type Lister interface {
	List(ctx context.Context, projectID string, category models.Category) ListResult
}

// ProjectReconciler is what the trigger adapters depend on
type ProjectReconciler interface {
	Reconcile(ctx context.Context, projectID string) models.ReconcileResult
}

// Reconciler brings a project's image arrays in line with storage. Storage
// is authoritative: a changed project gets both arrays replaced in one write.
type Reconciler struct {
	projects repository.ProjectStore
	lister   Lister
	status   StatusRecorder
	log      *logger.Logger
	now      func() time.Time
}

// Option configures a Reconciler
type Option func(*Reconciler)

// WithStatus records every result in s
func WithStatus(s StatusRecorder) Option {
	return func(r *Reconciler) {
		r.status = s
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		r.now = now
	}
}

// NewReconciler creates a reconciler
func NewReconciler(projects repository.ProjectStore, lister Lister, log *logger.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		projects: projects,
		lister:   lister,
		status:   NopStatus{},
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile reconciles one project. Failures are reported in the result,
// never returned or panicked.
func (r *Reconciler) Reconcile(ctx context.Context, projectID string) models.ReconcileResult {
	start := r.now()
	trigger := TriggerFrom(ctx)
	log := r.log.WithContext(ctx).WithProjectID(projectID).WithTrigger(trigger)

	result := r.reconcile(ctx, projectID, log)
	result.ProjectID = projectID
	result.Trigger = trigger
	result.FinishedAt = r.now()
	result.DurationMS = result.FinishedAt.Sub(start).Milliseconds()

	switch result.Status {
	case models.StatusFailed:
		log.Warn("reconcile failed", "error", result.Error)
	case models.StatusUpdated:
		log.Info("reconcile updated project",
			"before_count", result.BeforeCount,
			"after_count", result.AfterCount,
			"duration_ms", result.DurationMS,
		)
	default:
		log.Debug("reconcile unchanged", "before_count", result.BeforeCount, "after_count", result.AfterCount)
	}

	if err := r.status.RecordResult(ctx, result); err != nil {
		log.Warn("failed to record reconcile status", "error", err)
	}

	return result
}

func (r *Reconciler) reconcile(ctx context.Context, projectID string, log *logger.Logger) models.ReconcileResult {
	project, err := r.projects.GetProject(ctx, projectID)
	if err != nil {
		return failed(fmt.Errorf("load project: %w", err))
	}

	listed, err := r.listAll(ctx, projectID)
	if err != nil {
		return failed(err)
	}

	before := listed[models.CategoryBefore]
	after := listed[models.CategoryAfter]

	result := models.ReconcileResult{
		Status:       models.StatusUnchanged,
		BeforeCount:  len(before.Paths),
		AfterCount:   len(after.Paths),
		BeforeImages: before.Paths,
		AfterImages:  after.Paths,
		Truncated:    before.Truncated || after.Truncated,
	}

	current := make(map[models.Category][]string, len(models.Categories))
	changed := false
	for _, c := range models.Categories {
		current[c] = normalize.Normalize(project.Images(c))
		if !sameImages(projectID, c, current[c], listed[c].Paths) {
			changed = true
		}
	}
	if !changed {
		return result
	}

	if err := r.projects.UpdateImages(ctx, projectID, before.Paths, after.Paths, r.now().UTC()); err != nil {
		res := failed(fmt.Errorf("update project: %w", err))
		res.BeforeCount = result.BeforeCount
		res.AfterCount = result.AfterCount
		return res
	}

	result.Status = models.StatusUpdated
	changes, err := imageChanges(current[models.CategoryBefore], current[models.CategoryAfter], before.Paths, after.Paths)
	if err != nil {
		log.Debug("failed to compute changes", "error", err)
	} else {
		result.Changes = changes
	}
	return result
}

// listAll lists both categories concurrently. Any listing failure fails
// the whole call so a transient error cannot wipe an array.
func (r *Reconciler) listAll(ctx context.Context, projectID string) (map[models.Category]ListResult, error) {
	results := make([]ListResult, len(models.Categories))

	var g errgroup.Group
	for i, category := range models.Categories {
		g.Go(func() error {
			results[i] = r.lister.List(ctx, projectID, category)
			return nil
		})
	}
	_ = g.Wait()

	listed := make(map[models.Category]ListResult, len(results))
	var errs []error
	for i, category := range models.Categories {
		if !results[i].OK() {
			errs = append(errs, results[i].Err)
		}
		listed[category] = results[i]
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return listed, nil
}

// sameImages compares stored against listed ignoring order. Stored bare
// filenames are qualified with the category prefix first.
func sameImages(projectID string, category models.Category, stored, listed []string) bool {
	if len(stored) != len(listed) {
		return false
	}

	prefix := Prefix(projectID, category)
	qualified := make([]string, len(stored))
	for i, s := range stored {
		s = strings.TrimPrefix(s, "/")
		if !strings.Contains(s, "/") {
			s = prefix + s
		}
		qualified[i] = s
	}

	want := slices.Clone(listed)
	slices.Sort(qualified)
	slices.Sort(want)
	return slices.Equal(qualified, want)
}

// imageChanges returns a JSON merge patch from the stored arrays to the
// listed ones
func imageChanges(oldBefore, oldAfter, newBefore, newAfter []string) (json.RawMessage, error) {
	original, err := json.Marshal(map[string][]string{
		string(models.CategoryBefore): oldBefore,
		string(models.CategoryAfter):  oldAfter,
	})
	if err != nil {
		return nil, err
	}
	modified, err := json.Marshal(map[string][]string{
		string(models.CategoryBefore): newBefore,
		string(models.CategoryAfter):  newAfter,
	})
	if err != nil {
		return nil, err
	}

	patch, err := jsonpatch.CreateMergePatch(original, modified)
	if err != nil {
		return nil, fmt.Errorf("create merge patch: %w", err)
	}
	return json.RawMessage(patch), nil
}

func failed(err error) models.ReconcileResult {
	return models.ReconcileResult{
		Status: models.StatusFailed,
		Error:  err.Error(),
	}
}
