package storage

import (
	"context"
	"errors"
	"time"

	"github.com/astrocat-lab/frame-catalog/internal/core/access"
	"github.com/astrocat-lab/frame-catalog/internal/core/catalog"
)

// ErrQueryTimeout is returned when the backing store cancelled a query for
// exceeding its statement timeout. Callers degrade to an estimate or a
// snapshot; any other error propagates untouched.
var ErrQueryTimeout = errors.New("query exceeded its time budget")

// ErrStatsUnavailable is returned when the catalog's maintained row statistic
// or the planner estimate cannot be read.
var ErrStatsUnavailable = errors.New("catalog statistics unavailable")

// ProposalScope selects how the proposals dimension of an aggregate is
// populated.
type ProposalScope int

const (
	// ProposalsOmitted leaves the proposals dimension empty. Live public
	// aggregation uses this: proposals only ever surface via the snapshot.
	ProposalsOmitted ProposalScope = iota

	// ProposalsFromRows aggregates proposal_id from the predicate's own rows.
	ProposalsFromRows

	// ProposalsFromPublicRows aggregates proposal_id from public rows only,
	// regardless of the predicate. The whole-catalog snapshot uses this.
	ProposalsFromPublicRows
)

// FrameStore is the filtered row-set over the frame catalog. All queries run
// against a read-only replica; a timeout of zero disables the server-side
// statement timeout.
type FrameStore interface {
	// ExactCount counts rows matching the filter within the visibility scope.
	// Returns ErrQueryTimeout when the statement timeout fires.
	ExactCount(ctx context.Context, filter catalog.Filter, scope access.Scope, timeout time.Duration) (int64, error)

	// PlannerEstimate asks the query planner how many rows it expects the
	// same filtered query to match, without running it.
	PlannerEstimate(ctx context.Context, filter catalog.Filter, scope access.Scope) (int64, error)

	// ApproxTotalRows reads the catalog's maintained whole-table row
	// statistic.
	ApproxTotalRows(ctx context.Context) (int64, error)

	// DistinctAggregate computes the distinct dimension values matching the
	// predicate. Returns ErrQueryTimeout when the statement timeout fires.
	DistinctAggregate(ctx context.Context, pred access.Predicate, proposals ProposalScope, timeout time.Duration) (catalog.AggregateResult, error)
}
