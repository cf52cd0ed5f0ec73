// Package storage abstracts the object store holding portfolio images.
//
// Two implementations are provided: S3Store talks to any S3-compatible
// endpoint (including the hosted platform's storage gateway) and
// MemoryStore keeps objects in process for tests and local development.
package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// ErrNotFound is returned when a bucket or object does not exist
var ErrNotFound = errors.New("storage: not found")

// Object describes one listed object. Name is relative to the listed prefix.
type Object struct {
	Key          string
	Name         string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// ListOptions bounds a single List call
type ListOptions struct {
	PageSize          int
	ContinuationToken string
}

// ListPage is one page of a listing
type ListPage struct {
	Objects   []Object
	NextToken string
	Truncated bool
}

// ObjectStore is the object-store collaborator consumed by reconciliation
// and the upload helper.
type ObjectStore interface {
	// List returns one page of objects whose key starts with prefix.
	List(ctx context.Context, prefix string, opts ListOptions) (ListPage, error)
	// Upload writes an object at path.
	Upload(ctx context.Context, path string, body io.Reader, size int64, contentType string) error
	// PublicURL returns the public URL for path. Used by read paths only.
	PublicURL(path string) string
}

// ErrorType classifies object-store failures
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeAccessDenied ErrorType = "access_denied"
	ErrorTypeTemporary    ErrorType = "temporary"
	ErrorTypeUnknown      ErrorType = "unknown"
)

// Error wraps a store failure with its classification
type Error struct {
	Op   string
	Type ErrorType
	Err  error
}

func (e *Error) Error() string {
	return e.Op + " (" + string(e.Type) + "): " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsTemporary reports whether err is a classified transient store error
func IsTemporary(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Type == ErrorTypeTemporary
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
