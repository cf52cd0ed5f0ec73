package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory ObjectStore
type MemoryStore struct {
	mu        sync.RWMutex
	objects   map[string]Object
	publicURL string
	listErr   error
	listCalls int
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(publicBaseURL string) *MemoryStore {
	return &MemoryStore{
		objects:   make(map[string]Object),
		publicURL: publicBaseURL,
	}
}

// Put adds or replaces an object without reading a body
func (m *MemoryStore) Put(key string, size int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = Object{Key: key, Size: size, LastModified: time.Now()}
}

// Remove deletes an object
func (m *MemoryStore) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
}

// SetListErr makes every subsequent List call fail with err (nil clears it)
func (m *MemoryStore) SetListErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listErr = err
}

// ListCalls returns the number of List invocations so far
func (m *MemoryStore) ListCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listCalls
}

// List implements ObjectStore. The continuation token is the index of the
// next key in sorted order.
func (m *MemoryStore) List(ctx context.Context, prefix string, opts ListOptions) (ListPage, error) {
	m.mu.Lock()
	m.listCalls++
	listErr := m.listErr
	keys := make([]string, 0, len(m.objects))
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	objects := make(map[string]Object, len(keys))
	for _, key := range keys {
		objects[key] = m.objects[key]
	}
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return ListPage{}, err
	}
	if listErr != nil {
		return ListPage{}, &Error{Op: "list " + prefix, Type: ErrorTypeTemporary, Err: listErr}
	}

	sort.Strings(keys)

	start := 0
	if opts.ContinuationToken != "" {
		n, err := strconv.Atoi(opts.ContinuationToken)
		if err != nil || n < 0 {
			return ListPage{}, fmt.Errorf("invalid continuation token %q", opts.ContinuationToken)
		}
		start = n
	}
	if start > len(keys) {
		start = len(keys)
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 1000
	}
	end := start + pageSize
	if end > len(keys) {
		end = len(keys)
	}

	page := ListPage{Objects: make([]Object, 0, end-start)}
	for _, key := range keys[start:end] {
		obj := objects[key]
		obj.Name = strings.TrimPrefix(key, prefix)
		page.Objects = append(page.Objects, obj)
	}
	if end < len(keys) {
		page.Truncated = true
		page.NextToken = strconv.Itoa(end)
	}
	return page, nil
}

// Upload implements ObjectStore
func (m *MemoryStore) Upload(ctx context.Context, path string, body io.Reader, size int64, contentType string) error {
	n, err := io.Copy(io.Discard, body)
	if err != nil {
		return fmt.Errorf("read upload body: %w", err)
	}
	if size < 0 {
		size = n
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = Object{
		Key:          path,
		Size:         size,
		LastModified: time.Now(),
		ContentType:  contentType,
	}
	return nil
}

// PublicURL implements ObjectStore
func (m *MemoryStore) PublicURL(path string) string {
	return joinURL(m.publicURL, path)
}
