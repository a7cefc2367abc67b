// Package v1 holds the wire shapes of the query API.
package v1

import (
	"fmt"
	"time"

	"github.com/astrocat-lab/frame-catalog/internal/core/catalog"
	"github.com/shopspring/decimal"
)

// FilterQuery is the query-string shape shared by the aggregate and count
// endpoints. Times accept RFC 3339 or a bare date.
type FilterQuery struct {
	Start string `form:"start"`
	End   string `form:"end"`

	SiteID                string `form:"site_id"`
	TelescopeID           string `form:"telescope_id"`
	InstrumentID          string `form:"instrument_id"`
	PrimaryOpticalElement string `form:"primary_optical_element"`
	ConfigurationType     string `form:"configuration_type"`
	ProposalID            string `form:"proposal_id"`

	Public *bool `form:"public"`

	BasenameExact       string `form:"basename_exact"`
	TargetNameExact     string `form:"target_name_exact"`
	MD5                 string `form:"md5"`
	RequestID           *int64 `form:"request_id"`
	ObservationID       *int64 `form:"observation_id"`
	ReductionLevel      *int   `form:"reduction_level"`
	ExposureTime        string `form:"exposure_time"`
	ExcludeCalibrations bool   `form:"exclude_calibrations"`
}

// ToFilter converts the bound query into a domain filter. Parse failures are
// reported per field; the filter's own invariants are validated by the
// caller.
func (q FilterQuery) ToFilter() (catalog.Filter, error) {
	f := catalog.Filter{
		SiteID:                q.SiteID,
		TelescopeID:           q.TelescopeID,
		InstrumentID:          q.InstrumentID,
		PrimaryOpticalElement: q.PrimaryOpticalElement,
		ConfigurationType:     q.ConfigurationType,
		ProposalID:            q.ProposalID,
		IncludePublic:         q.Public,
		BasenameExact:         q.BasenameExact,
		TargetNameExact:       q.TargetNameExact,
		MD5:                   q.MD5,
		RequestID:             q.RequestID,
		ObservationID:         q.ObservationID,
		ReductionLevel:        q.ReductionLevel,
		ExcludeCalibrations:   q.ExcludeCalibrations,
	}

	if q.Start != "" {
		t, err := parseQueryTime(q.Start)
		if err != nil {
			return catalog.Filter{}, fmt.Errorf("start: %w", err)
		}
		f.Start = &t
	}
	if q.End != "" {
		t, err := parseQueryTime(q.End)
		if err != nil {
			return catalog.Filter{}, fmt.Errorf("end: %w", err)
		}
		f.End = &t
	}
	if q.ExposureTime != "" {
		d, err := decimal.NewFromString(q.ExposureTime)
		if err != nil {
			return catalog.Filter{}, fmt.Errorf("exposure_time: %w", err)
		}
		f.MinExposureTime = &d
	}

	return f, nil
}

func parseQueryTime(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q (want RFC 3339 or YYYY-MM-DD)", raw)
}
