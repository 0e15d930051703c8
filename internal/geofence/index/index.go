// Package index keeps every geofence in an immutable in-memory snapshot so
// containment checks on the ingest path never touch the database.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"smartourism/internal/geofence/geometry"
	"smartourism/internal/geofence/metrics"
	"smartourism/internal/geofence/models"
)

// Store persists fences.
type Store interface {
	Create(ctx context.Context, fence *models.GeoFence) error
	List(ctx context.Context) ([]*models.GeoFence, error)
}

type entry struct {
	fence *models.GeoFence
	box   geometry.Box
}

type snapshot struct {
	entries []entry
}

// Index answers containment queries from a copy-on-write snapshot. Readers
// load the snapshot pointer without locking; Add and Reload swap in a new one.
type Index struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics

	snap    atomic.Pointer[snapshot]
	writeMu sync.Mutex
	reloads singleflight.Group
}

type Option func(*Index)

func WithLogger(logger *slog.Logger) Option {
	return func(i *Index) {
		i.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(i *Index) {
		i.metrics = m
	}
}

// New returns an empty index over store. Call Reload to load existing fences.
func New(store Store, opts ...Option) *Index {
	i := &Index{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(i)
	}
	i.snap.Store(&snapshot{})
	return i
}

// Add persists a fence and makes it visible to Containing.
func (i *Index) Add(ctx context.Context, fence *models.GeoFence) error {
	i.writeMu.Lock()
	defer i.writeMu.Unlock()

	if err := i.store.Create(ctx, fence); err != nil {
		return err
	}
	old := i.snap.Load()
	entries := make([]entry, len(old.entries), len(old.entries)+1)
	copy(entries, old.entries)
	entries = append(entries, entry{fence: fence, box: fence.Polygon.Bounds()})
	i.snap.Store(&snapshot{entries: entries})
	i.metrics.SetFencesLoaded(len(entries))
	return nil
}

// Reload rebuilds the snapshot from the store. Concurrent callers share one
// store read.
func (i *Index) Reload(ctx context.Context) error {
	_, err, _ := i.reloads.Do("reload", func() (any, error) {
		start := time.Now()
		defer i.metrics.ObserveReload(start)

		i.writeMu.Lock()
		defer i.writeMu.Unlock()

		fences, err := i.store.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list fences: %w", err)
		}
		entries := make([]entry, 0, len(fences))
		for _, f := range fences {
			if err := f.Polygon.Validate(); err != nil {
				i.logger.WarnContext(ctx, "skipping fence with invalid polygon",
					"fence_id", f.ID,
					"error", err,
				)
				continue
			}
			entries = append(entries, entry{fence: f, box: f.Polygon.Bounds()})
		}
		i.snap.Store(&snapshot{entries: entries})
		i.metrics.SetFencesLoaded(len(entries))
		return nil, nil
	})
	return err
}

// Containing returns every fence whose polygon contains p, boundary included,
// in creation order.
func (i *Index) Containing(p geometry.Point) []*models.GeoFence {
	var out []*models.GeoFence
	for _, e := range i.snap.Load().entries {
		if !e.box.Contains(p) {
			continue
		}
		if e.fence.Polygon.Contains(p) {
			out = append(out, e.fence)
		}
	}
	i.metrics.IncrementContainment(len(out) > 0)
	return out
}

// List returns all indexed fences in creation order.
func (i *Index) List() []*models.GeoFence {
	entries := i.snap.Load().entries
	out := make([]*models.GeoFence, len(entries))
	for n, e := range entries {
		out[n] = e.fence
	}
	return out
}

// Len returns the number of indexed fences.
func (i *Index) Len() int {
	return len(i.snap.Load().entries)
}

// Run reloads the index every interval until ctx is done, so fences created
// by other instances become visible.
func (i *Index) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := i.Reload(ctx); err != nil {
				i.logger.WarnContext(ctx, "geofence index reload failed", "error", err)
			}
		}
	}
}
