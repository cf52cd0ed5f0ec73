package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lyzr/portfolio/common/logger"
	"github.com/lyzr/portfolio/common/models"
)

// ErrMalformedEvent is returned when a storage event carries no usable
// project id
var ErrMalformedEvent = errors.New("malformed storage event")

const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"

	// StatusIgnored marks events outside the portfolio namespace
	StatusIgnored = "ignored"
	// StatusSkipped marks delete events, which never trigger work
	StatusSkipped = "skipped"

	storageTable  = "objects"
	storageSchema = "storage"
)

// StorageObjectRecord is the object row carried by the platform envelope
type StorageObjectRecord struct {
	BucketID string `json:"bucket_id"`
	Name     string `json:"name"`
}

// StorageEvent is a storage change notification. Both the flat
// {event_type, object_path} form and the platform's database webhook
// envelope {type, table, schema, record, old_record} are accepted.
type StorageEvent struct {
	EventType  string `json:"event_type,omitempty"`
	ObjectPath string `json:"object_path,omitempty"`

	Type      string               `json:"type,omitempty"`
	Table     string               `json:"table,omitempty"`
	Schema    string               `json:"schema,omitempty"`
	Record    *StorageObjectRecord `json:"record,omitempty"`
	OldRecord *StorageObjectRecord `json:"old_record,omitempty"`
}

// Kind returns the upper-cased event type
func (e StorageEvent) Kind() string {
	if e.EventType != "" {
		return strings.ToUpper(strings.TrimSpace(e.EventType))
	}
	return strings.ToUpper(strings.TrimSpace(e.Type))
}

// Path returns the object path the event refers to
func (e StorageEvent) Path() string {
	switch {
	case e.ObjectPath != "":
		return e.ObjectPath
	case e.Record != nil && e.Record.Name != "":
		return e.Record.Name
	case e.OldRecord != nil:
		return e.OldRecord.Name
	}
	return ""
}

// Bucket returns the bucket named by the envelope, if any
func (e StorageEvent) Bucket() string {
	if e.Record != nil && e.Record.BucketID != "" {
		return e.Record.BucketID
	}
	if e.OldRecord != nil {
		return e.OldRecord.BucketID
	}
	return ""
}

// ProjectResponse is the per-project outcome returned by the webhook and
// manual entry points
type ProjectResponse struct {
	Success     bool   `json:"success"`
	ProjectID   string `json:"project_id,omitempty"`
	Status      string `json:"status"`
	BeforeCount int    `json:"before_count"`
	AfterCount  int    `json:"after_count"`
	Reason      string `json:"reason,omitempty"`
	Error       string `json:"error,omitempty"`

	Result *models.ReconcileResult `json:"result,omitempty"`
}

// NewProjectResponse converts a reconcile result
func NewProjectResponse(result models.ReconcileResult) ProjectResponse {
	return ProjectResponse{
		Success:     result.Status != models.StatusFailed,
		ProjectID:   result.ProjectID,
		Status:      string(result.Status),
		BeforeCount: result.BeforeCount,
		AfterCount:  result.AfterCount,
		Error:       result.Error,
		Result:      &result,
	}
}

// WebhookAdapter reconciles the single project a storage event refers to
type WebhookAdapter struct {
	reconciler ProjectReconciler
	bucket     string
	log        *logger.Logger
}

// NewWebhookAdapter creates a webhook adapter. Events naming a bucket other
// than bucket are ignored; an empty bucket accepts any.
func NewWebhookAdapter(reconciler ProjectReconciler, bucket string, log *logger.Logger) *WebhookAdapter {
	return &WebhookAdapter{
		reconciler: reconciler,
		bucket:     bucket,
		log:        log,
	}
}

// Handle processes one event. Only a malformed event returns an error;
// reconcile failures are reported in the response.
func (a *WebhookAdapter) Handle(ctx context.Context, event StorageEvent) (ProjectResponse, error) {
	log := a.log.WithContext(ctx).WithFields(map[string]any{
		"event_type":  event.Kind(),
		"object_path": event.Path(),
	})

	if event.Kind() == EventDelete {
		log.Debug("delete event skipped")
		return ProjectResponse{Success: true, Status: StatusSkipped, Reason: "delete events are not reconciled"}, nil
	}

	if reason := a.outsideNamespace(event); reason != "" {
		log.Debug("storage event ignored", "reason", reason)
		return ProjectResponse{Success: true, Status: StatusIgnored, Reason: reason}, nil
	}

	projectID, category, err := ParseObjectPath(event.Path())
	if err != nil {
		log.Warn("malformed storage event", "error", err)
		return ProjectResponse{}, err
	}
	if _, ok := models.ParseCategory(category); !ok {
		log.Debug("storage event ignored", "reason", "not a portfolio category")
		return ProjectResponse{Success: true, ProjectID: projectID, Status: StatusIgnored, Reason: "not a portfolio category"}, nil
	}

	result := a.reconciler.Reconcile(WithTrigger(ctx, TriggerWebhook), projectID)
	return NewProjectResponse(result), nil
}

func (a *WebhookAdapter) outsideNamespace(event StorageEvent) string {
	if event.Table != "" && event.Table != storageTable {
		return "table " + event.Table + " is not watched"
	}
	if event.Schema != "" && event.Schema != storageSchema {
		return "schema " + event.Schema + " is not watched"
	}
	if bucket := event.Bucket(); a.bucket != "" && bucket != "" && bucket != a.bucket {
		return "bucket " + bucket + " is not watched"
	}
	return ""
}

// ParseObjectPath splits {project_id}/{category}/{filename}. The project id
// must be a non-empty segment; category and filename may be empty when the
// path is shorter, which callers treat as outside the portfolio namespace.
func ParseObjectPath(objectPath string) (projectID, category string, err error) {
	p := strings.TrimPrefix(strings.TrimSpace(objectPath), "/")
	if p == "" {
		return "", "", fmt.Errorf("%w: missing object path", ErrMalformedEvent)
	}

	segments := strings.Split(p, "/")
	projectID = segments[0]
	if projectID == "" || projectID == "." || projectID == ".." || strings.ContainsAny(projectID, " \t\r\n") {
		return "", "", fmt.Errorf("%w: invalid project id in %q", ErrMalformedEvent, objectPath)
	}

	if len(segments) < 3 || segments[len(segments)-1] == "" {
		return projectID, "", nil
	}
	return projectID, segments[1], nil
}
