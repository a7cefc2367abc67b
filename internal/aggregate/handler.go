package aggregate

import (
	"errors"
	"net/http"

	v1 "github.com/astrocat-lab/frame-catalog/internal/api/v1"
	"github.com/astrocat-lab/frame-catalog/internal/auth"
	"github.com/astrocat-lab/frame-catalog/internal/core/catalog"
	httperr "github.com/astrocat-lab/frame-catalog/internal/core/errors"
	"github.com/astrocat-lab/frame-catalog/internal/snapshot"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the aggregation API routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/aggregate", s.HandleAggregate)
}

// HandleAggregate handles GET /v1/aggregate.
func (s *Service) HandleAggregate(ctx *gin.Context) {
	var query v1.FilterQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		ctx.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidFilterError,
			Message:   "Invalid query parameters",
			Details:   err.Error(),
		})
		return
	}

	filter, err := query.ToFilter()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidFilterError,
			Message:   "Invalid frame filter",
			Details:   err.Error(),
		})
		return
	}

	principal := auth.PrincipalFrom(ctx)
	result, err := s.Aggregate(ctx.Request.Context(), filter, principal)
	if err != nil {
		switch {
		case errors.Is(err, snapshot.ErrNotYetGenerated):
			ctx.JSON(http.StatusServiceUnavailable, httperr.ErrorResponse{
				ErrorType: httperr.HttpNotYetGeneratedError,
				Message:   "Catalog aggregate not yet generated, retry shortly",
			})
		case errors.Is(err, catalog.ErrInvalidFilter):
			ctx.JSON(http.StatusBadRequest, httperr.ErrorResponse{
				ErrorType: httperr.HttpInvalidFilterError,
				Message:   "Invalid frame filter",
				Details:   err.Error(),
			})
		default:
			ctx.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
				ErrorType: httperr.HttpInternalError,
				Message:   "Failed to aggregate frames",
				Details:   err.Error(),
			})
		}
		return
	}

	ctx.JSON(http.StatusOK, result)
}
