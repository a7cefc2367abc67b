// Package counting answers "how many rows match this filter" under a strict
// time budget. An exact count is attempted first with a server-side statement
// timeout; a timeout degrades to a statistics-based estimate rather than
// blocking or failing, so listing pages always render.
package counting

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/astrocat-lab/frame-catalog/internal/core/access"
	"github.com/astrocat-lab/frame-catalog/internal/core/catalog"
	"github.com/astrocat-lab/frame-catalog/internal/core/storage"
)

// UnknownRowCount is returned, marked estimated, when both the exact count
// and the estimate path fail. Effectively "unknown, assume large".
const UnknownRowCount = int64(math.MaxInt32)

// Budgets are the exact-count time limits granted per caller class.
type Budgets struct {
	// Anonymous bounds unauthenticated counts. Anonymous traffic is
	// higher-volume and lower-priority, so it gets the tightest budget.
	Anonymous time.Duration

	// Authenticated bounds ordinary authenticated counts.
	Authenticated time.Duration

	// Small bounds counts classified as small queries, where an exact answer
	// is worth waiting a little longer for.
	Small time.Duration
}

// DefaultBudgets match the interactive-latency targets of the HTTP layer.
var DefaultBudgets = Budgets{
	Anonymous:     time.Second,
	Authenticated: 1500 * time.Millisecond,
	Small:         5 * time.Second,
}

// Options carry the trusted-caller overrides for one count.
type Options struct {
	// SmallHint forces small-query classification.
	SmallHint bool

	// ForceExact grants the small-query budget regardless of classification.
	ForceExact bool
}

// Counter is the adaptive row counter over the frame catalog.
type Counter struct {
	store   storage.FrameStore
	budgets Budgets
	nowFn   func() time.Time
}

// NewCounter creates a counter over the given row-set.
func NewCounter(store storage.FrameStore, budgets Budgets) *Counter {
	return &Counter{
		store:   store,
		budgets: budgets,
		nowFn:   time.Now,
	}
}

// Count returns the number of rows visible to the principal that match the
// filter, and whether the value is an estimate.
//
// estimated is false only when the exact count completed within its budget.
// A timeout degrades to the planner's estimate for the filtered query, or the
// whole-table row statistic when the filter has no predicates; if the
// estimate path fails too, UnknownRowCount is returned. Errors other than
// timeouts propagate: masking a genuine query failure would hide schema drift
// or data corruption behind a plausible number.
func (c *Counter) Count(ctx context.Context, filter catalog.Filter, principal catalog.Principal, opts Options) (int64, bool, error) {
	scope := access.CountScope(principal, c.nowFn().UTC())
	budget := c.budgetFor(filter, principal, opts)

	count, err := c.store.ExactCount(ctx, filter, scope, budget)
	if err == nil {
		return count, false, nil
	}
	if !errors.Is(err, storage.ErrQueryTimeout) {
		return 0, false, err
	}

	slog.Warn("[Counter] Exact count timed out, degrading to estimate",
		"budget", budget,
		"filtered", filter.HasPredicates(),
	)

	var estimate int64
	var estErr error
	if filter.HasPredicates() {
		estimate, estErr = c.store.PlannerEstimate(ctx, filter, scope)
	} else {
		estimate, estErr = c.store.ApproxTotalRows(ctx)
	}
	if estErr != nil {
		slog.Warn("[Counter] Estimate path failed, assuming large result",
			"error", estErr,
		)
		return UnknownRowCount, true, nil
	}

	if estimate < 0 {
		estimate = 0
	}
	return estimate, true, nil
}

func (c *Counter) budgetFor(filter catalog.Filter, principal catalog.Principal, opts Options) time.Duration {
	if opts.ForceExact || opts.SmallHint || IsSmallQuery(filter) {
		return c.budgets.Small
	}
	if principal.Authenticated {
		return c.budgets.Authenticated
	}
	return c.budgets.Anonymous
}
