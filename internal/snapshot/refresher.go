package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/astrocat-lab/frame-catalog/internal/cache"
	"github.com/astrocat-lab/frame-catalog/internal/core/access"
	"github.com/astrocat-lab/frame-catalog/internal/core/storage"
)

// Refresher recomputes the whole-catalog snapshot on a periodic interval.
// It is stateless: each tick runs the full aggregation from scratch.
type Refresher struct {
	interval time.Duration
	store    storage.FrameStore
	cache    cache.Store
	nowFn    func() time.Time
}

// NewRefresher creates a refresher that recomputes every interval.
func NewRefresher(interval time.Duration, store storage.FrameStore, cacheStore cache.Store) *Refresher {
	return &Refresher{
		interval: interval,
		store:    store,
		cache:    cacheStore,
		nowFn:    time.Now,
	}
}

// Start begins periodic refreshing. Runs until the context is cancelled.
// The first refresh runs immediately so the snapshot endpoint comes up
// shortly after boot rather than one full interval later.
func (r *Refresher) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	slog.Info("[Snapshot] Starting snapshot refresher", "interval", r.interval)

	if err := r.RefreshOnce(ctx); err != nil {
		slog.Error("[Snapshot] Initial refresh failed", "error", err)
	}

	for {
		select {
		case <-ticker.C:
			if err := r.RefreshOnce(ctx); err != nil {
				slog.Error("[Snapshot] Refresh failed", "error", err)
			}
		case <-ctx.Done():
			slog.Info("[Snapshot] Stopping (context cancelled)")
			return nil
		}
	}
}

// RefreshOnce computes a fresh snapshot and stores it. The snapshot queries
// run with no statement timeout: this is the one path allowed to take
// minutes, so interactive queries never have to.
func (r *Refresher) RefreshOnce(ctx context.Context) error {
	started := r.nowFn().UTC()

	all, err := r.store.DistinctAggregate(ctx,
		access.Predicate{Now: started},
		storage.ProposalsFromPublicRows,
		0,
	)
	if err != nil {
		return fmt.Errorf("snapshot all-rows aggregate failed: %w", err)
	}

	public, err := r.store.DistinctAggregate(ctx,
		access.Predicate{PublicOnly: true, Now: started},
		storage.ProposalsFromRows,
		0,
	)
	if err != nil {
		return fmt.Errorf("snapshot public-rows aggregate failed: %w", err)
	}

	all.GeneratedAt = started
	public.GeneratedAt = started

	// No TTL: a stale snapshot beats no snapshot, and the next refresh
	// overwrites it in place.
	r.cache.Set(cache.SnapshotKey, Snapshot{All: all, Public: public}, 0)

	slog.Info("[Snapshot] Snapshot refreshed",
		"took", r.nowFn().UTC().Sub(started),
		"sites", len(all.Sites),
		"instruments", len(all.Instruments),
		"proposals", len(all.Proposals),
	)
	return nil
}
