package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Dimension names aggregated by the catalog. These are the only categorical
// fields the aggregation engine knows about; anything else on a frame is
// opaque to this service.
const (
	DimensionSite       = "site_id"
	DimensionTelescope  = "telescope_id"
	DimensionInstrument = "instrument_id"
	DimensionFilter     = "primary_optical_element"
	DimensionObstype    = "configuration_type"
	DimensionProposal   = "proposal_id"
)

// ObservationTypes is the closed vocabulary for configuration_type.
var ObservationTypes = []string{
	"BIAS", "DARK", "EXPERIMENTAL", "EXPOSE", "SKYFLAT", "STANDARD",
	"TRAILED", "GUIDE", "SPECTRUM", "ARC", "LAMPFLAT", "DOMEFLAT",
	"CATALOG", "BPM", "TARGET", "TEMPLATE", "OBJECT", "TRACE", "DOUBLE",
}

// Frame is one archived data product version-group. Frames are written by an
// external ingestion path; this service only ever reads them, from a replica.
type Frame struct {
	ID                    int64
	Basename              string
	ObservationDate       time.Time
	ObservationDay        time.Time
	ProposalID            string
	InstrumentID          string
	TargetName            string
	ReductionLevel        int
	SiteID                string
	TelescopeID           string
	ExposureTime          decimal.Decimal
	PrimaryOpticalElement string
	PublicDate            time.Time
	ConfigurationType     string
	ObservationID         int64
	RequestID             int64
}

// IsPublic reports whether the frame is publicly visible at the given instant.
func (f Frame) IsPublic(at time.Time) bool {
	return !f.PublicDate.IsZero() && !f.PublicDate.After(at)
}
