// Package snapshot maintains the whole-catalog aggregate in cache. The
// snapshot backs the unfiltered aggregate query and the degraded fallback
// used when a live aggregation times out.
package snapshot

import (
	"errors"

	"github.com/astrocat-lab/frame-catalog/internal/cache"
	"github.com/astrocat-lab/frame-catalog/internal/core/catalog"
)

// ErrNotYetGenerated is returned when the snapshot has not been computed
// since the process (or its cache) started.
var ErrNotYetGenerated = errors.New("aggregate snapshot not yet generated")

// Snapshot is one refresh of the whole-catalog aggregate.
type Snapshot struct {
	// All covers every row regardless of visibility, except that the
	// proposals dimension only lists proposals with at least one public
	// frame. It answers the unfiltered aggregate query.
	All catalog.AggregateResult

	// Public covers public rows only. It is the fallback served when a live
	// public aggregation times out.
	Public catalog.AggregateResult
}

// Source reads the current snapshot.
type Source interface {
	// Current returns the latest snapshot, or ErrNotYetGenerated.
	Current() (Snapshot, error)
}

// CacheSource reads snapshots from the shared cache under cache.SnapshotKey.
type CacheSource struct {
	store cache.Store
}

// NewCacheSource creates a snapshot source over the given cache.
func NewCacheSource(store cache.Store) *CacheSource {
	return &CacheSource{store: store}
}

var _ Source = (*CacheSource)(nil)

// Current implements Source.
func (s *CacheSource) Current() (Snapshot, error) {
	cached, found := s.store.Get(cache.SnapshotKey)
	if !found {
		return Snapshot{}, ErrNotYetGenerated
	}
	snap, ok := cached.(Snapshot)
	if !ok {
		return Snapshot{}, ErrNotYetGenerated
	}
	return snap, nil
}
