package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/astrocat-lab/frame-catalog/internal/cache"
	"github.com/astrocat-lab/frame-catalog/internal/core/catalog"
)

// portalProfile is the observation portal's profile response shape.
type portalProfile struct {
	Username    string   `json:"username"`
	IsSuperuser bool     `json:"is_superuser"`
	ProposalIDs []string `json:"proposal_ids"`
}

// PortalResolver resolves principals against the observation portal's
// profile endpoint. Resolved principals are cached briefly: proposal
// membership changes rarely, and the portal sits on the request hot path.
type PortalResolver struct {
	profileURL string
	client     *http.Client
	store      cache.Store
	ttl        time.Duration
}

// NewPortalResolver creates a resolver against the given profile URL.
func NewPortalResolver(profileURL string, store cache.Store, ttl time.Duration) *PortalResolver {
	return &PortalResolver{
		profileURL: profileURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		store:      store,
		ttl:        ttl,
	}
}

// Resolve fetches the principal behind a token, serving from cache when
// fresh.
func (r *PortalResolver) Resolve(ctx context.Context, token string) (catalog.Principal, error) {
	key := cache.ProposalsKey(token)
	if cached, found := r.store.Get(key); found {
		if principal, ok := cached.(catalog.Principal); ok {
			return principal, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.profileURL, nil)
	if err != nil {
		return catalog.Principal{}, fmt.Errorf("failed to build profile request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+token)

	resp, err := r.client.Do(req)
	if err != nil {
		return catalog.Principal{}, fmt.Errorf("profile request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return catalog.Principal{}, ErrInvalidToken
	default:
		return catalog.Principal{}, fmt.Errorf("profile endpoint returned status %d", resp.StatusCode)
	}

	var profile portalProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return catalog.Principal{}, fmt.Errorf("failed to decode profile response: %w", err)
	}

	principal := catalog.Principal{
		ID:            profile.Username,
		Authenticated: true,
		Superuser:     profile.IsSuperuser,
		ProposalIDs:   profile.ProposalIDs,
	}
	r.store.Set(key, principal, r.ttl)

	slog.Debug("[Auth] Resolved principal from portal",
		"principal", principal.ID,
		"proposals", len(principal.ProposalIDs),
		"superuser", principal.Superuser,
	)
	return principal, nil
}
