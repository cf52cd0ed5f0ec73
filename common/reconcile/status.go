package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lyzr/portfolio/common/models"
	"github.com/lyzr/portfolio/common/redis"
)

const (
	resultKeyPrefix = "portfolio:reconcile:result:"
	lastSweepKey    = "portfolio:reconcile:sweep:last"
	sweepLockKey    = "portfolio:reconcile:sweep:lock"

	DefaultStatusTTL = 7 * 24 * time.Hour
)

// ErrNoStatus is returned when nothing has been recorded yet
var ErrNoStatus = errors.New("no status recorded")

// StatusRecorder keeps the latest outcome per project and per sweep
type StatusRecorder interface {
	RecordResult(ctx context.Context, result models.ReconcileResult) error
	RecordSweep(ctx context.Context, summary models.SweepSummary) error
	LastResult(ctx context.Context, projectID string) (models.ReconcileResult, error)
	LastSweep(ctx context.Context) (models.SweepSummary, error)
}

// NopStatus discards everything. Used when Redis is disabled.
type NopStatus struct{}

func (NopStatus) RecordResult(context.Context, models.ReconcileResult) error { return nil }
func (NopStatus) RecordSweep(context.Context, models.SweepSummary) error     { return nil }

func (NopStatus) LastResult(context.Context, string) (models.ReconcileResult, error) {
	return models.ReconcileResult{}, ErrNoStatus
}

func (NopStatus) LastSweep(context.Context) (models.SweepSummary, error) {
	return models.SweepSummary{}, ErrNoStatus
}

// RedisStatus stores results as JSON strings with a TTL
type RedisStatus struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStatus creates a Redis-backed status store
func NewRedisStatus(client *redis.Client, ttl time.Duration) *RedisStatus {
	if ttl <= 0 {
		ttl = DefaultStatusTTL
	}
	return &RedisStatus{client: client, ttl: ttl}
}

// RecordResult stores the latest result for result.ProjectID
func (s *RedisStatus) RecordResult(ctx context.Context, result models.ReconcileResult) error {
	return s.put(ctx, resultKeyPrefix+result.ProjectID, result)
}

// RecordSweep stores the latest sweep summary
func (s *RedisStatus) RecordSweep(ctx context.Context, summary models.SweepSummary) error {
	return s.put(ctx, lastSweepKey, summary)
}

// LastResult returns the latest recorded result for a project
func (s *RedisStatus) LastResult(ctx context.Context, projectID string) (models.ReconcileResult, error) {
	var result models.ReconcileResult
	err := s.get(ctx, resultKeyPrefix+projectID, &result)
	return result, err
}

// LastSweep returns the latest recorded sweep summary
func (s *RedisStatus) LastSweep(ctx context.Context) (models.SweepSummary, error) {
	var summary models.SweepSummary
	err := s.get(ctx, lastSweepKey, &summary)
	return summary, err
}

func (s *RedisStatus) put(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.client.SetWithExpiry(ctx, key, string(data), s.ttl)
}

func (s *RedisStatus) get(ctx context.Context, key string, v any) error {
	raw, err := s.client.Get(ctx, key)
	if errors.Is(err, redis.ErrKeyNotFound) {
		return ErrNoStatus
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
