package bootstrap

import (
	"fmt"

	"github.com/lyzr/portfolio/common/reconcile"
)

// Reconciliation is the wired reconciliation stack shared by the HTTP
// service and the sweep job
type Reconciliation struct {
	Lister     *reconcile.BucketLister
	Reconciler *reconcile.Reconciler
	Sweeper    *reconcile.Sweeper
	Webhook    *reconcile.WebhookAdapter
	Manual     *reconcile.ManualAdapter
	Status     reconcile.StatusRecorder
}

// Reconciliation builds the reconciliation stack from the components.
// Requires the record store and the object store; Redis is optional.
func (c *Components) Reconciliation() (*Reconciliation, error) {
	if c.Projects == nil {
		return nil, fmt.Errorf("reconciliation requires a record store")
	}
	if c.Storage == nil {
		return nil, fmt.Errorf("reconciliation requires an object store")
	}

	cfg := c.Config

	filter, err := reconcile.NewObjectFilter(cfg.Reconcile.ObjectFilter)
	if err != nil {
		return nil, fmt.Errorf("invalid object filter: %w", err)
	}

	var (
		status reconcile.StatusRecorder = reconcile.NopStatus{}
		locker reconcile.Locker
	)
	if c.Redis != nil {
		status = reconcile.NewRedisStatus(c.Redis, cfg.Reconcile.StatusTTL)
		locker = c.Redis
	}

	lister := reconcile.NewBucketLister(c.Storage, reconcile.ListerConfig{
		PageSize:        cfg.Storage.PageSize,
		MaxPages:        cfg.Storage.MaxPages,
		ExtraExtensions: cfg.Reconcile.ExtraExtensions,
		Filter:          filter,
	}, c.Logger)

	reconciler := reconcile.NewReconciler(c.Projects, lister, c.Logger, reconcile.WithStatus(status))

	sweeper := reconcile.NewSweeper(c.Projects, reconciler, status, locker, reconcile.SweepConfig{
		Concurrency: cfg.Reconcile.SweepConcurrency,
		LockTTL:     cfg.Reconcile.SweepLockTTL,
	}, c.Logger)

	return &Reconciliation{
		Lister:     lister,
		Reconciler: reconciler,
		Sweeper:    sweeper,
		Webhook:    reconcile.NewWebhookAdapter(reconciler, cfg.Storage.Bucket, c.Logger),
		Manual:     reconcile.NewManualAdapter(reconciler, sweeper),
		Status:     status,
	}, nil
}
