package postgres

import (
	"fmt"
	"strings"

	"github.com/astrocat-lab/frame-catalog/internal/core/access"
	"github.com/astrocat-lab/frame-catalog/internal/core/catalog"
	"github.com/astrocat-lab/frame-catalog/internal/core/storage"
	"github.com/lib/pq"
)

// queryBuilder assembles parameterized WHERE clauses from a Filter and a
// visibility restriction. All user-supplied values travel as query arguments;
// no value is ever spliced into SQL text.
type queryBuilder struct {
	clauses []string
	args    []any
}

// next appends an argument and returns its $n placeholder.
func (b *queryBuilder) next(val any) string {
	b.args = append(b.args, val)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *queryBuilder) where(expr string) {
	b.clauses = append(b.clauses, expr)
}

func (b *queryBuilder) whereSQL() string {
	if len(b.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.clauses, " AND ")
}

// addFilter renders the caller's explicit constraints.
func (b *queryBuilder) addFilter(f catalog.Filter, scienceTypes []string) {
	if f.Start != nil {
		b.where("observation_date >= " + b.next(f.Start.UTC()))
	}
	if f.End != nil {
		b.where("observation_date < " + b.next(f.End.UTC()))
	}

	equalities := []struct {
		column string
		value  string
	}{
		{"site_id", f.SiteID},
		{"telescope_id", f.TelescopeID},
		{"instrument_id", f.InstrumentID},
		{"primary_optical_element", f.PrimaryOpticalElement},
		{"configuration_type", f.ConfigurationType},
		{"proposal_id", f.ProposalID},
		{"basename", f.BasenameExact},
		{"target_name", f.TargetNameExact},
	}
	for _, eq := range equalities {
		if eq.value != "" {
			b.where(eq.column + " = " + b.next(eq.value))
		}
	}

	if f.MD5 != "" {
		b.where("EXISTS (SELECT 1 FROM versions WHERE versions.frame_id = frames.id AND versions.md5 = " + b.next(f.MD5) + ")")
	}
	if f.RequestID != nil {
		b.where("request_id = " + b.next(*f.RequestID))
	}
	if f.ObservationID != nil {
		b.where("observation_id = " + b.next(*f.ObservationID))
	}
	if f.ReductionLevel != nil {
		b.where("reduction_level = " + b.next(*f.ReductionLevel))
	}
	if f.MinExposureTime != nil {
		b.where("exposure_time >= " + b.next(*f.MinExposureTime))
	}
	if f.ExcludeCalibrations {
		b.where("configuration_type = ANY(" + b.next(pq.Array(scienceTypes)) + ")")
	}
}

// addScope renders the OR-combined visibility restriction for counts:
// public rows, widened by the principal's own proposals when present.
func (b *queryBuilder) addScope(scope access.Scope) {
	if scope.All {
		return
	}
	public := "public_date <= " + b.next(scope.Now.UTC())
	if len(scope.ProposalIDs) > 0 {
		b.where("(" + public + " OR proposal_id = ANY(" + b.next(pq.Array(scope.ProposalIDs)) + "))")
		return
	}
	b.where(public)
}

// addPredicate renders one visibility partition for aggregation.
func (b *queryBuilder) addPredicate(pred access.Predicate, scienceTypes []string) {
	b.addFilter(pred.Filter, scienceTypes)
	if pred.PublicOnly {
		b.where("public_date <= " + b.next(pred.Now.UTC()))
	}
	if pred.ProprietaryOnly {
		b.where("public_date > " + b.next(pred.Now.UTC()))
		b.where("proposal_id = ANY(" + b.next(pq.Array(pred.ProposalIDs)) + ")")
	}
}

// buildCount renders the exact-count statement.
func buildCount(f catalog.Filter, scope access.Scope, scienceTypes []string) (string, []any) {
	b := &queryBuilder{}
	b.addFilter(f, scienceTypes)
	b.addScope(scope)
	return "SELECT COUNT(*) FROM frames" + b.whereSQL(), b.args
}

// buildPlannerEstimate renders the EXPLAIN probe for the same filtered query
// the exact count would run.
func buildPlannerEstimate(f catalog.Filter, scope access.Scope, scienceTypes []string) (string, []any) {
	b := &queryBuilder{}
	b.addFilter(f, scienceTypes)
	b.addScope(scope)
	return "EXPLAIN (FORMAT JSON) SELECT 1 FROM frames" + b.whereSQL(), b.args
}

// buildAggregate renders the two-stage aggregation: one DISTINCT base CTE
// filtered once, then per-dimension ARRAY sub-selects over it. The base set
// is tiny compared to the table, so each dimension scan is cheap.
func buildAggregate(pred access.Predicate, proposals storage.ProposalScope, scienceTypes []string) (string, []any) {
	b := &queryBuilder{}
	b.addPredicate(pred, scienceTypes)
	where := b.whereSQL()

	var proposalExpr string
	switch proposals {
	case storage.ProposalsFromRows:
		proposalExpr = "ARRAY(SELECT DISTINCT proposal_id FROM base WHERE proposal_id <> '')"
	case storage.ProposalsFromPublicRows:
		proposalExpr = "ARRAY(SELECT DISTINCT proposal_id FROM frames WHERE proposal_id <> '' AND public_date <= " + b.next(pred.Now.UTC()) + ")"
	default:
		proposalExpr = "ARRAY[]::text[]"
	}

	query := `WITH base AS (
	SELECT DISTINCT site_id, telescope_id, instrument_id,
		primary_optical_element, configuration_type, proposal_id
	FROM frames` + where + `
)
SELECT
	ARRAY(SELECT DISTINCT site_id FROM base WHERE site_id <> '') AS sites,
	ARRAY(SELECT DISTINCT telescope_id FROM base WHERE telescope_id <> '') AS telescopes,
	ARRAY(SELECT DISTINCT instrument_id FROM base WHERE instrument_id <> '') AS instruments,
	ARRAY(SELECT DISTINCT primary_optical_element FROM base WHERE primary_optical_element <> '') AS filters,
	ARRAY(SELECT DISTINCT configuration_type FROM base WHERE configuration_type <> '') AS obstypes,
	` + proposalExpr + ` AS proposals`

	return query, b.args
}
