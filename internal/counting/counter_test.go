package counting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/astrocat-lab/frame-catalog/internal/core/access"
	"github.com/astrocat-lab/frame-catalog/internal/core/catalog"
	"github.com/astrocat-lab/frame-catalog/internal/core/storage"
	"github.com/astrocat-lab/frame-catalog/internal/core/storage/storagetest"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestCounter(store *storagetest.FakeFrameStore) *Counter {
	c := NewCounter(store, DefaultBudgets)
	c.nowFn = func() time.Time { return testNow }
	return c
}

func TestCounter_ExactCountWithinBudget(t *testing.T) {
	store := &storagetest.FakeFrameStore{
		ExactCountFn: func(_ context.Context, _ catalog.Filter, _ access.Scope, _ time.Duration) (int64, error) {
			return 451, nil
		},
	}
	c := newTestCounter(store)

	count, estimated, err := c.Count(context.Background(), catalog.Filter{SiteID: "ogg"}, catalog.Anonymous, Options{})
	require.NoError(t, err)
	require.False(t, estimated)
	require.Equal(t, int64(451), count)
	require.Zero(t, store.PlannerEstimateCalls)
	require.Zero(t, store.ApproxTotalRowsCalls)
}

func TestCounter_UnfilteredTimeoutUsesTableStatistic(t *testing.T) {
	store := &storagetest.FakeFrameStore{
		ExactCountFn: func(_ context.Context, _ catalog.Filter, _ access.Scope, _ time.Duration) (int64, error) {
			return 0, storage.ErrQueryTimeout
		},
		ApproxTotalRowsFn: func(_ context.Context) (int64, error) {
			return 10_000_000, nil
		},
	}
	c := newTestCounter(store)

	count, estimated, err := c.Count(context.Background(), catalog.Filter{}, catalog.Anonymous, Options{})
	require.NoError(t, err)
	require.True(t, estimated)
	require.Equal(t, int64(10_000_000), count)
	require.Zero(t, store.PlannerEstimateCalls)
}

func TestCounter_FilteredTimeoutUsesPlannerEstimate(t *testing.T) {
	store := &storagetest.FakeFrameStore{
		ExactCountFn: func(_ context.Context, _ catalog.Filter, _ access.Scope, _ time.Duration) (int64, error) {
			return 0, storage.ErrQueryTimeout
		},
		PlannerEstimateFn: func(_ context.Context, _ catalog.Filter, _ access.Scope) (int64, error) {
			return 250_000, nil
		},
	}
	c := newTestCounter(store)

	count, estimated, err := c.Count(context.Background(), catalog.Filter{SiteID: "ogg"}, catalog.Anonymous, Options{})
	require.NoError(t, err)
	require.True(t, estimated)
	require.Equal(t, int64(250_000), count)
	require.Zero(t, store.ApproxTotalRowsCalls)
}

func TestCounter_EstimateFailureReturnsSentinel(t *testing.T) {
	store := &storagetest.FakeFrameStore{
		ExactCountFn: func(_ context.Context, _ catalog.Filter, _ access.Scope, _ time.Duration) (int64, error) {
			return 0, storage.ErrQueryTimeout
		},
		PlannerEstimateFn: func(_ context.Context, _ catalog.Filter, _ access.Scope) (int64, error) {
			return 0, storage.ErrStatsUnavailable
		},
	}
	c := newTestCounter(store)

	count, estimated, err := c.Count(context.Background(), catalog.Filter{SiteID: "ogg"}, catalog.Anonymous, Options{})
	require.NoError(t, err)
	require.True(t, estimated)
	require.Equal(t, UnknownRowCount, count)
}

func TestCounter_NonTimeoutErrorsPropagate(t *testing.T) {
	boom := errors.New("relation frames does not exist")
	store := &storagetest.FakeFrameStore{
		ExactCountFn: func(_ context.Context, _ catalog.Filter, _ access.Scope, _ time.Duration) (int64, error) {
			return 0, boom
		},
	}
	c := newTestCounter(store)

	_, _, err := c.Count(context.Background(), catalog.Filter{}, catalog.Anonymous, Options{})
	require.ErrorIs(t, err, boom)
	require.Zero(t, store.PlannerEstimateCalls)
	require.Zero(t, store.ApproxTotalRowsCalls)
}

func TestCounter_BudgetSelection(t *testing.T) {
	reqID := int64(9042)
	authed := catalog.Principal{ID: "u1", Authenticated: true}

	tests := []struct {
		name      string
		filter    catalog.Filter
		principal catalog.Principal
		opts      Options
		want      time.Duration
	}{
		{"anonymous default", catalog.Filter{SiteID: "ogg"}, catalog.Anonymous, Options{}, DefaultBudgets.Anonymous},
		{"authenticated default", catalog.Filter{SiteID: "ogg"}, authed, Options{}, DefaultBudgets.Authenticated},
		{"small by classification", catalog.Filter{RequestID: &reqID}, catalog.Anonymous, Options{}, DefaultBudgets.Small},
		{"small by hint", catalog.Filter{SiteID: "ogg"}, catalog.Anonymous, Options{SmallHint: true}, DefaultBudgets.Small},
		{"force exact", catalog.Filter{}, catalog.Anonymous, Options{ForceExact: true}, DefaultBudgets.Small},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got time.Duration
			store := &storagetest.FakeFrameStore{
				ExactCountFn: func(_ context.Context, _ catalog.Filter, _ access.Scope, timeout time.Duration) (int64, error) {
					got = timeout
					return 1, nil
				},
			}
			c := newTestCounter(store)

			_, _, err := c.Count(context.Background(), tc.filter, tc.principal, tc.opts)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestCounter_ScopeFollowsPrincipal(t *testing.T) {
	var got access.Scope
	store := &storagetest.FakeFrameStore{
		ExactCountFn: func(_ context.Context, _ catalog.Filter, scope access.Scope, _ time.Duration) (int64, error) {
			got = scope
			return 0, nil
		},
	}
	c := newTestCounter(store)

	principal := catalog.Principal{ID: "u1", Authenticated: true, ProposalIDs: []string{"prop2"}}
	_, _, err := c.Count(context.Background(), catalog.Filter{}, principal, Options{})
	require.NoError(t, err)
	require.False(t, got.All)
	require.Equal(t, []string{"prop2"}, got.ProposalIDs)
	require.Equal(t, testNow, got.Now)
}
