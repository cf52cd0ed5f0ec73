package reconcile

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/lyzr/portfolio/common/logger"
	"github.com/lyzr/portfolio/common/models"
	"github.com/lyzr/portfolio/common/redis"
	"github.com/lyzr/portfolio/common/repository"
	"github.com/lyzr/portfolio/common/storage"
	goredis "github.com/redis/go-redis/v9"
)

// fakeProjects is an in-memory ProjectStore that records writes
type fakeProjects struct {
	mu        sync.Mutex
	projects  map[string]*models.Project
	updateErr map[string]error
	listErr   error
	updates   []string
}

func newFakeProjects() *fakeProjects {
	return &fakeProjects{
		projects:  make(map[string]*models.Project),
		updateErr: make(map[string]error),
	}
}

func (f *fakeProjects) add(id string, before, after any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projects[id] = &models.Project{ID: id, BeforeImages: before, AfterImages: after}
}

func (f *fakeProjects) failUpdate(id string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateErr[id] = err
}

func (f *fakeProjects) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

func (f *fakeProjects) updatedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.updates...)
}

func (f *fakeProjects) ListProjectIDs(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	ids := make([]string, 0, len(f.projects))
	for id := range f.projects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeProjects) GetProject(ctx context.Context, id string) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok {
		return nil, repository.ErrProjectNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProjects) UpdateImages(ctx context.Context, id string, before, after []string, updatedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.updateErr[id]; err != nil {
		return err
	}
	p, ok := f.projects[id]
	if !ok {
		return repository.ErrProjectNotFound
	}
	p.BeforeImages = append([]string(nil), before...)
	p.AfterImages = append([]string(nil), after...)
	p.UpdatedAt = updatedAt
	f.updates = append(f.updates, id)
	return nil
}

func (f *fakeProjects) Health(ctx context.Context) error { return nil }

type fixture struct {
	projects   *fakeProjects
	store      *storage.MemoryStore
	lister     *BucketLister
	reconciler *Reconciler
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	projects := newFakeProjects()
	store := storage.NewMemoryStore("https://cdn.example.com/portfolio")
	lister := NewBucketLister(store, ListerConfig{}, logger.Discard())
	return &fixture{
		projects:   projects,
		store:      store,
		lister:     lister,
		reconciler: NewReconciler(projects, lister, logger.Discard(), opts...),
	}
}

func newRedisClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return redis.NewClient(rdb, logger.Discard()), mr
}

var errBoom = errors.New("boom")
