// Package aggregate computes the distinct dimension values visible to a
// principal. Queries are split into a shared public partition and a
// principal-scoped private partition so each can be cached with its own
// lifetime, and every degradation path still produces a response.
package aggregate

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/astrocat-lab/frame-catalog/internal/cache"
	"github.com/astrocat-lab/frame-catalog/internal/core/access"
	"github.com/astrocat-lab/frame-catalog/internal/core/catalog"
	"github.com/astrocat-lab/frame-catalog/internal/core/storage"
	"github.com/astrocat-lab/frame-catalog/internal/snapshot"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Cache lifetimes per partition class.
const (
	// publicRecentTTL bounds staleness while rows near the filter's window can
	// still cross into public visibility.
	publicRecentTTL = time.Hour

	// publicSettledTTL applies when the filter's window is settled history.
	publicSettledTTL = 24 * time.Hour

	// privateTTL is short: a user's own data is hit in bursts but changes
	// rarely, so a small bound on staleness replaces invalidation.
	privateTTL = 5 * time.Minute

	// allPublicTTL bounds the lazily computed timeout fallback.
	allPublicTTL = time.Hour
)

// Budgets are the aggregation time limits granted per caller class.
// Superusers are unbounded.
type Budgets struct {
	Anonymous     time.Duration
	Authenticated time.Duration
}

// DefaultBudgets match the counting path's interactive-latency targets.
var DefaultBudgets = Budgets{
	Anonymous:     time.Second,
	Authenticated: 1500 * time.Millisecond,
}

// Service is the aggregation engine over the frame catalog.
type Service struct {
	store     storage.FrameStore
	cache     cache.Store
	snapshots snapshot.Source
	budgets   Budgets

	// sf coalesces concurrent computations of the all-public fallback so a
	// burst of timeouts produces one snapshot read, not many.
	sf    singleflight.Group
	nowFn func() time.Time
}

// NewService creates the aggregation engine.
func NewService(store storage.FrameStore, cacheStore cache.Store, snapshots snapshot.Source, budgets Budgets) *Service {
	return &Service{
		store:     store,
		cache:     cacheStore,
		snapshots: snapshots,
		budgets:   budgets,
		nowFn:     time.Now,
	}
}

// Aggregate returns the distinct dimension values matching the filter that
// are visible to the principal.
//
// A completely empty filter is served from the periodically refreshed
// whole-catalog snapshot; if none exists yet, snapshot.ErrNotYetGenerated is
// returned rather than running an unbounded full-table aggregation. All other
// errors are either validation failures or genuine query failures: a timeout
// on the filtered path degrades to cached or snapshot data instead of
// surfacing.
func (s *Service) Aggregate(ctx context.Context, filter catalog.Filter, principal catalog.Principal) (catalog.AggregateResult, error) {
	if filter.IsEmpty() {
		snap, err := s.snapshots.Current()
		if err != nil {
			return catalog.AggregateResult{}, err
		}
		return snap.All, nil
	}

	if err := filter.Validate(); err != nil {
		return catalog.AggregateResult{}, err
	}

	now := s.nowFn().UTC()
	vis := access.Partition(filter, principal, now)

	if principal.Superuser {
		return s.superuserAggregate(ctx, vis, now)
	}

	var public, private catalog.AggregateResult
	g, gctx := errgroup.WithContext(ctx)

	if vis.Public != nil {
		g.Go(func() error {
			var err error
			public, err = s.publicPartition(gctx, filter, *vis.Public, principal, now)
			return err
		})
	}
	if vis.Private != nil {
		g.Go(func() error {
			var err error
			private, err = s.privatePartition(gctx, filter, *vis.Private, principal, now)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return catalog.AggregateResult{}, err
	}

	// Private as the receiver so its generated_at wins when present.
	return private.Union(public), nil
}

// superuserAggregate recomputes fresh with no time budget and no caching.
// Superuser queries are rare and may need exact freshness.
func (s *Service) superuserAggregate(ctx context.Context, vis access.Visibility, now time.Time) (catalog.AggregateResult, error) {
	result, err := s.store.DistinctAggregate(ctx, *vis.Private, storage.ProposalsFromRows, 0)
	if err != nil {
		return catalog.AggregateResult{}, err
	}
	result.GeneratedAt = now
	return result, nil
}

// publicPartition serves the shared public side: cache, then a bounded live
// query, then the all-public fallback on timeout. The proposals dimension is
// never populated here; it only surfaces through the snapshot paths.
func (s *Service) publicPartition(ctx context.Context, filter catalog.Filter, pred access.Predicate, principal catalog.Principal, now time.Time) (catalog.AggregateResult, error) {
	key := cache.PublicAggregateKey(filter)
	if cached, found := s.cache.Get(key); found {
		if result, ok := cached.(catalog.AggregateResult); ok {
			return result, nil
		}
	}

	budget := s.budgets.Anonymous
	if principal.Authenticated {
		budget = s.budgets.Authenticated
	}

	result, err := s.store.DistinctAggregate(ctx, pred, storage.ProposalsOmitted, budget)
	if err == nil {
		result.GeneratedAt = now
		s.cache.Set(key, result, s.publicTTL(filter, now))
		return result, nil
	}
	if !errors.Is(err, storage.ErrQueryTimeout) {
		return catalog.AggregateResult{}, err
	}

	slog.Warn("[Aggregate] Public partition timed out, serving all-public fallback",
		"budget", budget,
		"filter", filter.CanonicalString(),
	)
	return s.allPublicFallback()
}

// publicTTL picks the public cache lifetime: short while the window's rows
// can still become public, long for settled history.
func (s *Service) publicTTL(filter catalog.Filter, now time.Time) time.Duration {
	if filter.End == nil || filter.End.After(now) {
		return publicRecentTTL
	}
	return publicSettledTTL
}

// allPublicFallback returns the snapshot's public variant, cached under its
// own key and coalesced across concurrent callers. An absent snapshot yields
// an empty result: the degraded path never fails the request.
func (s *Service) allPublicFallback() (catalog.AggregateResult, error) {
	v, _, _ := s.sf.Do(cache.AllPublicKey, func() (interface{}, error) {
		if cached, found := s.cache.Get(cache.AllPublicKey); found {
			if result, ok := cached.(catalog.AggregateResult); ok {
				return result, nil
			}
		}

		snap, err := s.snapshots.Current()
		if err != nil {
			slog.Warn("[Aggregate] No snapshot available for fallback, serving empty result",
				"error", err,
			)
			return catalog.AggregateResult{}, nil
		}

		s.cache.Set(cache.AllPublicKey, snap.Public, allPublicTTL)
		return snap.Public, nil
	})
	return v.(catalog.AggregateResult), nil
}

// privatePartition serves the principal-scoped side. A timeout degrades to an
// empty private result: the public side still answers, and the next burst
// usually hits the cache.
func (s *Service) privatePartition(ctx context.Context, filter catalog.Filter, pred access.Predicate, principal catalog.Principal, now time.Time) (catalog.AggregateResult, error) {
	key := cache.PrivateAggregateKey(filter, principal)
	if cached, found := s.cache.Get(key); found {
		if result, ok := cached.(catalog.AggregateResult); ok {
			return result, nil
		}
	}

	result, err := s.store.DistinctAggregate(ctx, pred, storage.ProposalsFromRows, s.budgets.Authenticated)
	if err != nil {
		if errors.Is(err, storage.ErrQueryTimeout) {
			slog.Warn("[Aggregate] Private partition timed out, serving empty partition",
				"principal", principal.ID,
				"filter", filter.CanonicalString(),
			)
			return catalog.AggregateResult{}, nil
		}
		return catalog.AggregateResult{}, err
	}

	result.GeneratedAt = now
	s.cache.Set(key, result, privateTTL)
	return result, nil
}
