package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/astrocat-lab/frame-catalog/internal/cache"
	"github.com/astrocat-lab/frame-catalog/internal/core/catalog"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	principal catalog.Principal
	err       error
	calls     int
}

func (s *stubResolver) Resolve(_ context.Context, _ string) (catalog.Principal, error) {
	s.calls++
	return s.principal, s.err
}

func doRequest(t *testing.T, resolver ProposalResolver, authHeader string) (*httptest.ResponseRecorder, catalog.Principal) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var seen catalog.Principal
	r := gin.New()
	r.Use(Middleware(resolver))
	r.GET("/probe", func(c *gin.Context) {
		seen = PrincipalFrom(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp, seen
}

func TestMiddleware_NoTokenIsAnonymous(t *testing.T) {
	resolver := &stubResolver{}
	resp, principal := doRequest(t, resolver, "")

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, catalog.Anonymous, principal)
	require.Zero(t, resolver.calls)
}

func TestMiddleware_ValidToken(t *testing.T) {
	resolver := &stubResolver{principal: catalog.Principal{
		ID: "alice", Authenticated: true, ProposalIDs: []string{"prop2"},
	}}
	resp, principal := doRequest(t, resolver, "Token secret")

	require.Equal(t, http.StatusOK, resp.Code)
	require.True(t, principal.Authenticated)
	require.Equal(t, "alice", principal.ID)
}

func TestMiddleware_RejectedTokenIs401(t *testing.T) {
	resolver := &stubResolver{err: ErrInvalidToken}
	resp, _ := doRequest(t, resolver, "Bearer expired")
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestMiddleware_ResolverFailureIs500(t *testing.T) {
	resolver := &stubResolver{err: errors.New("portal unreachable")}
	resp, _ := doRequest(t, resolver, "Token secret")
	require.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestPortalResolver_ResolvesAndCaches(t *testing.T) {
	var hits int
	portal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		require.Equal(t, "Token secret", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"username": "alice", "is_superuser": false, "proposal_ids": ["prop2", "prop9"]}`)
	}))
	defer portal.Close()

	store := cache.NewMemoryStore()
	resolver := NewPortalResolver(portal.URL, store, time.Minute)

	principal, err := resolver.Resolve(context.Background(), "secret")
	require.NoError(t, err)
	require.Equal(t, "alice", principal.ID)
	require.True(t, principal.Authenticated)
	require.Equal(t, []string{"prop2", "prop9"}, principal.ProposalIDs)

	// Second resolve is served from cache.
	_, err = resolver.Resolve(context.Background(), "secret")
	require.NoError(t, err)
	require.Equal(t, 1, hits)
}

func TestPortalResolver_UnauthorizedIsInvalidToken(t *testing.T) {
	portal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer portal.Close()

	resolver := NewPortalResolver(portal.URL, cache.NewMemoryStore(), time.Minute)
	_, err := resolver.Resolve(context.Background(), "bad")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestPortalResolver_ServerErrorPropagates(t *testing.T) {
	portal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer portal.Close()

	resolver := NewPortalResolver(portal.URL, cache.NewMemoryStore(), time.Minute)
	_, err := resolver.Resolve(context.Background(), "token")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidToken)
}
