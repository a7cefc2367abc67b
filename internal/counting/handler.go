package counting

import (
	"net/http"

	v1 "github.com/astrocat-lab/frame-catalog/internal/api/v1"
	"github.com/astrocat-lab/frame-catalog/internal/auth"
	httperr "github.com/astrocat-lab/frame-catalog/internal/core/errors"
	"github.com/gin-gonic/gin"
)

// CountResponse is the count endpoint's body. estimated=true marks values
// that came from statistics rather than a completed scan.
type CountResponse struct {
	Count     int64 `json:"count"`
	Estimated bool  `json:"estimated"`
}

// RegisterRoutes registers the counting API routes on the given router.
func (c *Counter) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/frames/count", c.HandleCount)
}

// HandleCount handles GET /v1/frames/count.
// Query parameters: the shared filter set plus small (hint) and force_exact.
func (c *Counter) HandleCount(ctx *gin.Context) {
	var query struct {
		v1.FilterQuery
		Small      bool `form:"small"`
		ForceExact bool `form:"force_exact"`
	}
	if err := ctx.ShouldBindQuery(&query); err != nil {
		ctx.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidFilterError,
			Message:   "Invalid query parameters",
			Details:   err.Error(),
		})
		return
	}

	filter, err := query.ToFilter()
	if err == nil {
		err = filter.Validate()
	}
	if err != nil {
		ctx.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidFilterError,
			Message:   "Invalid frame filter",
			Details:   err.Error(),
		})
		return
	}

	principal := auth.PrincipalFrom(ctx)
	opts := Options{SmallHint: query.Small}
	// Only trusted callers get to force a generous exact count.
	if query.ForceExact && (principal.Authenticated || principal.Superuser) {
		opts.ForceExact = true
	}

	count, estimated, err := c.Count(ctx.Request.Context(), filter, principal, opts)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to count frames",
			Details:   err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, CountResponse{Count: count, Estimated: estimated})
}
