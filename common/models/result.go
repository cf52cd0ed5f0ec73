package models

import (
	"encoding/json"
	"time"
)

// ReconcileStatus is the outcome of reconciling one project
type ReconcileStatus string

const (
	StatusUnchanged ReconcileStatus = "unchanged"
	StatusUpdated   ReconcileStatus = "updated"
	StatusFailed    ReconcileStatus = "failed"
)

// ReconcileResult is produced per project per invocation. Not persisted
// in the record store; the status store keeps the latest copy.
type ReconcileResult struct {
	ProjectID    string          `json:"project_id"`
	Status       ReconcileStatus `json:"status"`
	BeforeCount  int             `json:"before_count"`
	AfterCount   int             `json:"after_count"`
	BeforeImages []string        `json:"before_images,omitempty"`
	AfterImages  []string        `json:"after_images,omitempty"`
	// Changes is a JSON merge patch from the stored arrays to the new ones
	Changes    json.RawMessage `json:"changes,omitempty"`
	Truncated  bool            `json:"truncated,omitempty"`
	Error      string          `json:"error,omitempty"`
	Trigger    string          `json:"trigger,omitempty"`
	DurationMS int64           `json:"duration_ms"`
	FinishedAt time.Time       `json:"finished_at"`
}

// ImageCount returns the total number of images across both categories
func (r ReconcileResult) ImageCount() int {
	return r.BeforeCount + r.AfterCount
}

// SweepSummary aggregates the results of an all-projects pass
type SweepSummary struct {
	RunID       string            `json:"run_id"`
	Trigger     string            `json:"trigger"`
	Total       int               `json:"total"`
	Unchanged   int               `json:"unchanged"`
	Updated     int               `json:"updated"`
	Failed      int               `json:"failed"`
	TotalImages int               `json:"total_images"`
	Results     []ReconcileResult `json:"results"`
	Error       string            `json:"error,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	DurationMS  int64             `json:"duration_ms"`
}

// Add folds one project result into the summary counters
func (s *SweepSummary) Add(r ReconcileResult) {
	s.Total++
	switch r.Status {
	case StatusUnchanged:
		s.Unchanged++
	case StatusUpdated:
		s.Updated++
	default:
		s.Failed++
	}
	s.TotalImages += r.ImageCount()
	s.Results = append(s.Results, r)
}
