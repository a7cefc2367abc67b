// Package storagetest provides a configurable in-memory FrameStore for tests.
package storagetest

import (
	"context"
	"time"

	"github.com/astrocat-lab/frame-catalog/internal/core/access"
	"github.com/astrocat-lab/frame-catalog/internal/core/catalog"
	"github.com/astrocat-lab/frame-catalog/internal/core/storage"
)

// FakeFrameStore implements storage.FrameStore with per-method hooks and call
// counters. Unset hooks return zero values.
type FakeFrameStore struct {
	ExactCountFn        func(ctx context.Context, filter catalog.Filter, scope access.Scope, timeout time.Duration) (int64, error)
	PlannerEstimateFn   func(ctx context.Context, filter catalog.Filter, scope access.Scope) (int64, error)
	ApproxTotalRowsFn   func(ctx context.Context) (int64, error)
	DistinctAggregateFn func(ctx context.Context, pred access.Predicate, proposals storage.ProposalScope, timeout time.Duration) (catalog.AggregateResult, error)

	ExactCountCalls        int
	PlannerEstimateCalls   int
	ApproxTotalRowsCalls   int
	DistinctAggregateCalls int
}

var _ storage.FrameStore = (*FakeFrameStore)(nil)

func (f *FakeFrameStore) ExactCount(ctx context.Context, filter catalog.Filter, scope access.Scope, timeout time.Duration) (int64, error) {
	f.ExactCountCalls++
	if f.ExactCountFn == nil {
		return 0, nil
	}
	return f.ExactCountFn(ctx, filter, scope, timeout)
}

func (f *FakeFrameStore) PlannerEstimate(ctx context.Context, filter catalog.Filter, scope access.Scope) (int64, error) {
	f.PlannerEstimateCalls++
	if f.PlannerEstimateFn == nil {
		return 0, nil
	}
	return f.PlannerEstimateFn(ctx, filter, scope)
}

func (f *FakeFrameStore) ApproxTotalRows(ctx context.Context) (int64, error) {
	f.ApproxTotalRowsCalls++
	if f.ApproxTotalRowsFn == nil {
		return 0, nil
	}
	return f.ApproxTotalRowsFn(ctx)
}

func (f *FakeFrameStore) DistinctAggregate(ctx context.Context, pred access.Predicate, proposals storage.ProposalScope, timeout time.Duration) (catalog.AggregateResult, error) {
	f.DistinctAggregateCalls++
	if f.DistinctAggregateFn == nil {
		return catalog.AggregateResult{}, nil
	}
	return f.DistinctAggregateFn(ctx, pred, proposals, timeout)
}
