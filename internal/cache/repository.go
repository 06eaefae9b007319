package cache

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"processos/internal/core"
	"processos/internal/store"
)

const collectionKey = "processes"

var _ store.Repository = (*Repository)(nil)

// Repository serves Load from a copy of the last read or write for ttl and
// writes through on Save. Only one process may write to the backend while
// the cache is on.
type Repository struct {
	inner   store.Repository
	entries *LRUCache[[]core.Process]

	hits   atomic.Int64
	misses atomic.Int64
}

// NewRepository wraps inner. A ttl of zero or less returns inner unchanged.
func NewRepository(inner store.Repository, ttl time.Duration) store.Repository {
	if ttl <= 0 {
		return inner
	}
	return &Repository{
		inner:   inner,
		entries: NewLRUCache[[]core.Process](1, ttl),
	}
}

func (r *Repository) Load(ctx context.Context) ([]core.Process, error) {
	if cached, ok := r.entries.Get(collectionKey); ok {
		r.hits.Add(1)
		return core.CloneAll(cached), nil
	}
	r.misses.Add(1)

	processes, err := r.inner.Load(ctx)
	if err != nil {
		return nil, err
	}
	r.entries.Set(collectionKey, core.CloneAll(processes))
	slog.DebugContext(ctx, "Process cache refreshed", "processes", len(processes))
	return processes, nil
}

// Save writes through. A failed write drops the cached copy so the next
// Load reads the backend again.
func (r *Repository) Save(ctx context.Context, processes []core.Process) error {
	if err := r.inner.Save(ctx, processes); err != nil {
		r.entries.Delete(collectionKey)
		return err
	}
	r.entries.Set(collectionKey, core.CloneAll(processes))
	return nil
}

// Invalidate forgets the cached collection.
func (r *Repository) Invalidate() {
	r.entries.Delete(collectionKey)
}

// Stats returns the cache hit and miss counts.
func (r *Repository) Stats() (hits, misses int64) {
	return r.hits.Load(), r.misses.Load()
}

// Close closes inner when it holds resources.
func (r *Repository) Close() error {
	if c, ok := r.inner.(store.Closer); ok {
		return c.Close()
	}
	return nil
}
