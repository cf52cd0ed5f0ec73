// Package reconcile keeps the image arrays on portfolio project records in
// agreement with the files present in object storage.
//
// The Reconciler is the only writer. Three adapters decide which projects
// to reconcile: WebhookAdapter (one storage change), Sweeper (every
// project, bounded concurrency) and ManualAdapter (admin request, one
// project or all).
package reconcile

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lyzr/portfolio/common/logger"
	"github.com/lyzr/portfolio/common/models"
	"github.com/lyzr/portfolio/common/storage"
)

const (
	DefaultPageSize = 100
	DefaultMaxPages = 50
)

// DefaultExtensions are the image extensions always accepted
var DefaultExtensions = []string{"jpg", "jpeg", "png", "webp", "gif"}

// ListResult is the outcome of listing one category. Exactly one of Paths
// or Err is meaningful: when Err is set, Paths is empty.
type ListResult struct {
	Paths     []string
	Err       error
	Truncated bool
}

// OK reports whether the listing succeeded
func (r ListResult) OK() bool {
	return r.Err == nil
}

// ListerConfig configures a BucketLister
type ListerConfig struct {
	PageSize        int
	MaxPages        int
	ExtraExtensions []string
	Filter          *ObjectFilter
}

// BucketLister lists the image files of one project category
type BucketLister struct {
	store      storage.ObjectStore
	pageSize   int
	maxPages   int
	extensions map[string]struct{}
	filter     *ObjectFilter
	log        *logger.Logger
}

// NewBucketLister creates a lister over store
func NewBucketLister(store storage.ObjectStore, cfg ListerConfig, log *logger.Logger) *BucketLister {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}

	exts := make(map[string]struct{}, len(DefaultExtensions)+len(cfg.ExtraExtensions))
	for _, e := range DefaultExtensions {
		exts[e] = struct{}{}
	}
	for _, e := range cfg.ExtraExtensions {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			exts[e] = struct{}{}
		}
	}

	return &BucketLister{
		store:      store,
		pageSize:   cfg.PageSize,
		maxPages:   cfg.MaxPages,
		extensions: exts,
		filter:     cfg.Filter,
		log:        log,
	}
}

// Prefix returns the storage prefix for a project category
func Prefix(projectID string, category models.Category) string {
	return projectID + "/" + string(category) + "/"
}

// List returns the sorted full paths ({project}/{category}/{name}) of the
// image files stored for the category. It never panics; listing failures
// come back in ListResult.Err.
func (l *BucketLister) List(ctx context.Context, projectID string, category models.Category) ListResult {
	prefix := Prefix(projectID, category)
	log := l.log.WithFields(map[string]any{"project_id": projectID, "category": string(category)})

	paths := []string{}
	token := ""
	truncated := false

	for page := 0; ; page++ {
		if page == l.maxPages {
			truncated = true
			log.Warn("listing truncated at page cap", "max_pages", l.maxPages, "listed", len(paths))
			break
		}

		res, err := l.store.List(ctx, prefix, storage.ListOptions{
			PageSize:          l.pageSize,
			ContinuationToken: token,
		})
		if err != nil {
			log.Warn("listing failed", "error", err, "page", page)
			return ListResult{Paths: []string{}, Err: fmt.Errorf("list %s: %w", prefix, err)}
		}

		for _, obj := range res.Objects {
			ok, err := l.accept(obj)
			if err != nil {
				log.Warn("object filter failed, skipping object", "name", obj.Name, "error", err)
				continue
			}
			if ok {
				paths = append(paths, prefix+obj.Name)
			}
		}

		if !res.Truncated || res.NextToken == "" {
			break
		}
		token = res.NextToken
	}

	sort.Strings(paths)
	return ListResult{Paths: paths, Truncated: truncated}
}

func (l *BucketLister) accept(obj storage.Object) (bool, error) {
	// direct children only; nested folders are not part of the category
	if obj.Name == "" || strings.Contains(obj.Name, "/") {
		return false, nil
	}
	if _, ok := l.extensions[extension(obj.Name)]; !ok {
		return false, nil
	}
	return l.filter.Match(obj)
}
