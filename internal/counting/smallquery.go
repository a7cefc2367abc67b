package counting

import (
	"time"

	"github.com/astrocat-lab/frame-catalog/internal/core/catalog"
)

const (
	// smallWindow is the widest time range that is cheap on its own.
	smallWindow = 7 * 24 * time.Hour

	// narrowedWindow is the widest time range that is still cheap when
	// combined with a proposal or exact target-name constraint.
	narrowedWindow = 9 * 7 * 24 * time.Hour
)

// IsSmallQuery classifies a filter as cheap enough to be worth a generous
// exact-count budget. A filter qualifies when it pins an indexed identifying
// field, or narrows the time window far enough that the date index carries
// the scan.
func IsSmallQuery(f catalog.Filter) bool {
	if f.RequestID != nil || f.ObservationID != nil || f.BasenameExact != "" || f.MD5 != "" {
		return true
	}

	window := f.TimeRange()
	if window <= 0 {
		return false
	}
	if window <= smallWindow {
		return true
	}
	if window <= narrowedWindow && (f.ProposalID != "" || f.TargetNameExact != "") {
		return true
	}
	return false
}
