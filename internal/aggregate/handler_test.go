package aggregate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/astrocat-lab/frame-catalog/internal/core/access"
	"github.com/astrocat-lab/frame-catalog/internal/core/catalog"
	"github.com/astrocat-lab/frame-catalog/internal/core/storage"
	"github.com/astrocat-lab/frame-catalog/internal/core/storage/storagetest"
	"github.com/astrocat-lab/frame-catalog/internal/snapshot"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func serveAggregate(t *testing.T, s *Service, target string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	s.RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, target, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestHandleAggregate_FilteredQuery(t *testing.T) {
	frames := &storagetest.FakeFrameStore{
		DistinctAggregateFn: func(_ context.Context, pred access.Predicate, _ storage.ProposalScope, _ time.Duration) (catalog.AggregateResult, error) {
			require.Equal(t, "ogg", pred.Filter.SiteID)
			return catalog.AggregateResult{
				Sites:       []string{"ogg"},
				Instruments: []string{"kb27"},
			}, nil
		},
	}
	s := newTestService(frames, newRecordingStore(), &stubSnapshots{})

	resp := serveAggregate(t, s, "/v1/aggregate?site_id=ogg")
	require.Equal(t, http.StatusOK, resp.Code)

	var body catalog.AggregateResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, []string{"ogg"}, body.Sites)
	require.Equal(t, []string{"kb27"}, body.Instruments)
	require.Equal(t, testNow, body.GeneratedAt)
}

func TestHandleAggregate_NoSnapshotIs503(t *testing.T) {
	s := newTestService(&storagetest.FakeFrameStore{}, newRecordingStore(), &stubSnapshots{err: snapshot.ErrNotYetGenerated})

	resp := serveAggregate(t, s, "/v1/aggregate")
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestHandleAggregate_UnpairedRangeIs400(t *testing.T) {
	frames := &storagetest.FakeFrameStore{}
	s := newTestService(frames, newRecordingStore(), &stubSnapshots{})

	resp := serveAggregate(t, s, "/v1/aggregate?start=2025-01-01")
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Zero(t, frames.DistinctAggregateCalls)
}

func TestHandleAggregate_UnparseableTimeIs400(t *testing.T) {
	s := newTestService(&storagetest.FakeFrameStore{}, newRecordingStore(), &stubSnapshots{})

	resp := serveAggregate(t, s, "/v1/aggregate?start=notatime&end=2025-01-02")
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestHandleAggregate_StoreFailureIs500(t *testing.T) {
	frames := &storagetest.FakeFrameStore{
		DistinctAggregateFn: func(_ context.Context, _ access.Predicate, _ storage.ProposalScope, _ time.Duration) (catalog.AggregateResult, error) {
			return catalog.AggregateResult{}, context.DeadlineExceeded
		},
	}
	s := newTestService(frames, newRecordingStore(), &stubSnapshots{})

	resp := serveAggregate(t, s, "/v1/aggregate?site_id=ogg")
	require.Equal(t, http.StatusInternalServerError, resp.Code)
}
