package counting

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/astrocat-lab/frame-catalog/internal/core/access"
	"github.com/astrocat-lab/frame-catalog/internal/core/catalog"
	"github.com/astrocat-lab/frame-catalog/internal/core/storage/storagetest"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func serveCount(t *testing.T, store *storagetest.FakeFrameStore, target string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	newTestCounter(store).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, target, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestHandleCount_Exact(t *testing.T) {
	store := &storagetest.FakeFrameStore{
		ExactCountFn: func(_ context.Context, filter catalog.Filter, _ access.Scope, _ time.Duration) (int64, error) {
			require.Equal(t, "ogg", filter.SiteID)
			return 73, nil
		},
	}

	resp := serveCount(t, store, "/v1/frames/count?site_id=ogg")
	require.Equal(t, http.StatusOK, resp.Code)

	var body CountResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, int64(73), body.Count)
	require.False(t, body.Estimated)
}

func TestHandleCount_InvalidTimeRangeIs400(t *testing.T) {
	store := &storagetest.FakeFrameStore{}
	resp := serveCount(t, store, "/v1/frames/count?start=2025-01-01")
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Zero(t, store.ExactCountCalls)
}

func TestHandleCount_UnparseableTimeIs400(t *testing.T) {
	store := &storagetest.FakeFrameStore{}
	resp := serveCount(t, store, "/v1/frames/count?start=yesterday&end=today")
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Zero(t, store.ExactCountCalls)
}

func TestHandleCount_SmallHintWidensBudget(t *testing.T) {
	var got time.Duration
	store := &storagetest.FakeFrameStore{
		ExactCountFn: func(_ context.Context, _ catalog.Filter, _ access.Scope, timeout time.Duration) (int64, error) {
			got = timeout
			return 5, nil
		},
	}

	resp := serveCount(t, store, "/v1/frames/count?site_id=ogg&small=true")
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, DefaultBudgets.Small, got)
}

func TestHandleCount_ForceExactIgnoredForAnonymous(t *testing.T) {
	var got time.Duration
	store := &storagetest.FakeFrameStore{
		ExactCountFn: func(_ context.Context, _ catalog.Filter, _ access.Scope, timeout time.Duration) (int64, error) {
			got = timeout
			return 5, nil
		},
	}

	resp := serveCount(t, store, "/v1/frames/count?site_id=ogg&force_exact=true")
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, DefaultBudgets.Anonymous, got)
}

func TestHandleCount_StoreFailureIs500(t *testing.T) {
	store := &storagetest.FakeFrameStore{
		ExactCountFn: func(_ context.Context, _ catalog.Filter, _ access.Scope, _ time.Duration) (int64, error) {
			return 0, errors.New("connection refused")
		},
	}

	resp := serveCount(t, store, "/v1/frames/count")
	require.Equal(t, http.StatusInternalServerError, resp.Code)
}
