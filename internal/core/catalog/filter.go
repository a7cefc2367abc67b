package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MaxTimeRange is the widest [start, end) window a single query may cover.
const MaxTimeRange = 365 * 24 * time.Hour

var (
	// ErrInvalidFilter marks filter validation failures that map to HTTP 400.
	ErrInvalidFilter = errors.New("invalid frame filter")

	// ErrUnpairedTimeRange is returned when exactly one of start/end is given.
	ErrUnpairedTimeRange = fmt.Errorf("%w: both start and end required", ErrInvalidFilter)

	// ErrTimeRangeTooLarge is returned when end - start exceeds MaxTimeRange.
	ErrTimeRangeTooLarge = fmt.Errorf("%w: range exceeds 365 days", ErrInvalidFilter)
)

// Filter is an immutable query filter over the frame catalog.
//
// The six dimension fields plus the time window drive aggregation. The
// remaining fields only matter to the counting/listing path, where they feed
// small-query classification and the generated WHERE clause.
type Filter struct {
	Start *time.Time
	End   *time.Time

	SiteID                string
	TelescopeID           string
	InstrumentID          string
	PrimaryOpticalElement string
	ConfigurationType     string
	ProposalID            string

	// IncludePublic is a tri-state: nil means unspecified (defaults to true
	// everywhere except the empty-filter snapshot special case).
	IncludePublic *bool

	BasenameExact       string
	TargetNameExact     string
	MD5                 string
	RequestID           *int64
	ObservationID       *int64
	ReductionLevel      *int
	MinExposureTime     *decimal.Decimal
	ExcludeCalibrations bool
}

// Validate enforces the time-window invariants: start and end come in pairs,
// and a pair may span at most 365 days.
func (f Filter) Validate() error {
	if (f.Start == nil) != (f.End == nil) {
		return ErrUnpairedTimeRange
	}
	if f.Start != nil && f.End.Sub(*f.Start) > MaxTimeRange {
		return ErrTimeRangeTooLarge
	}
	return nil
}

// WantsPublic reports whether public rows should be included. Unspecified
// defaults to true.
func (f Filter) WantsPublic() bool {
	return f.IncludePublic == nil || *f.IncludePublic
}

// IsEmpty reports whether the filter carries no constraints at all: no time
// window, no dimension equality, and include_public left unset. An empty
// filter is served from the precomputed snapshot, never computed live.
func (f Filter) IsEmpty() bool {
	return f.Start == nil && f.End == nil &&
		f.IncludePublic == nil &&
		!f.hasDimensionConstraints() &&
		!f.hasIdentityConstraints() &&
		f.ReductionLevel == nil && f.MinExposureTime == nil &&
		!f.ExcludeCalibrations
}

// HasPredicates reports whether the filter constrains anything. An
// unconstrained count falls back to the catalog row statistic on timeout
// instead of the planner estimate.
func (f Filter) HasPredicates() bool {
	return f.Start != nil || f.End != nil ||
		f.hasDimensionConstraints() || f.hasIdentityConstraints() ||
		f.ReductionLevel != nil || f.MinExposureTime != nil ||
		f.ExcludeCalibrations
}

func (f Filter) hasDimensionConstraints() bool {
	return f.SiteID != "" || f.TelescopeID != "" || f.InstrumentID != "" ||
		f.PrimaryOpticalElement != "" || f.ConfigurationType != "" ||
		f.ProposalID != ""
}

func (f Filter) hasIdentityConstraints() bool {
	return f.BasenameExact != "" || f.TargetNameExact != "" || f.MD5 != "" ||
		f.RequestID != nil || f.ObservationID != nil
}

// TimeRange returns the window duration, or zero when no window is set.
func (f Filter) TimeRange() time.Duration {
	if f.Start == nil || f.End == nil {
		return 0
	}
	return f.End.Sub(*f.Start)
}

// CanonicalString renders the filter as a stable, order-independent list of
// key=value terms. It is the raw material for cache keys: two filters with
// the same constraints always render identically.
func (f Filter) CanonicalString() string {
	terms := make([]string, 0, 16)
	add := func(k, v string) {
		if v != "" {
			terms = append(terms, k+"="+v)
		}
	}

	if f.Start != nil {
		add("start", f.Start.UTC().Format(time.RFC3339))
	}
	if f.End != nil {
		add("end", f.End.UTC().Format(time.RFC3339))
	}
	add(DimensionSite, f.SiteID)
	add(DimensionTelescope, f.TelescopeID)
	add(DimensionInstrument, f.InstrumentID)
	add(DimensionFilter, f.PrimaryOpticalElement)
	add(DimensionObstype, f.ConfigurationType)
	add(DimensionProposal, f.ProposalID)
	if f.IncludePublic != nil {
		add("public", fmt.Sprintf("%t", *f.IncludePublic))
	}
	add("basename_exact", f.BasenameExact)
	add("target_name_exact", f.TargetNameExact)
	add("md5", f.MD5)
	if f.RequestID != nil {
		add("request_id", fmt.Sprintf("%d", *f.RequestID))
	}
	if f.ObservationID != nil {
		add("observation_id", fmt.Sprintf("%d", *f.ObservationID))
	}
	if f.ReductionLevel != nil {
		add("reduction_level", fmt.Sprintf("%d", *f.ReductionLevel))
	}
	if f.MinExposureTime != nil {
		add("exposure_time", f.MinExposureTime.String())
	}
	if f.ExcludeCalibrations {
		add("exclude_calibrations", "true")
	}

	sort.Strings(terms)
	return strings.Join(terms, "&")
}
