// Package auth resolves the request principal. Token verification and
// proposal membership live in the external observation portal; this package
// only calls it, caches the answer briefly, and stamps the principal onto the
// request context.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/astrocat-lab/frame-catalog/internal/core/catalog"
	httperr "github.com/astrocat-lab/frame-catalog/internal/core/errors"
	"github.com/gin-gonic/gin"
)

// ErrInvalidToken is returned by a resolver when the portal rejects a token.
var ErrInvalidToken = errors.New("invalid auth token")

// ProposalResolver turns a bearer token into a principal with its proposal
// memberships.
type ProposalResolver interface {
	Resolve(ctx context.Context, token string) (catalog.Principal, error)
}

const principalKey = "framecat.principal"

// Middleware resolves the Authorization header into a principal. Requests
// without a token proceed as anonymous; a rejected token is a hard 401 rather
// than a silent downgrade, so callers never mistake a proprietary-data miss
// for an expired session.
func Middleware(resolver ProposalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.Set(principalKey, catalog.Anonymous)
			c.Next()
			return
		}

		principal, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, ErrInvalidToken) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, httperr.ErrorResponse{
					ErrorType: httperr.HttpUnauthorizedError,
					Message:   "Invalid or expired token",
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, httperr.ErrorResponse{
				ErrorType: httperr.HttpInternalError,
				Message:   "Failed to resolve principal",
				Details:   err.Error(),
			})
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// PrincipalFrom returns the principal stamped by Middleware, or Anonymous
// when the middleware did not run (tests, unauthenticated routes).
func PrincipalFrom(c *gin.Context) catalog.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(catalog.Principal); ok {
			return p
		}
	}
	return catalog.Anonymous
}

func bearerToken(header string) string {
	for _, scheme := range []string{"Token ", "Bearer "} {
		if strings.HasPrefix(header, scheme) {
			return strings.TrimSpace(strings.TrimPrefix(header, scheme))
		}
	}
	return ""
}
