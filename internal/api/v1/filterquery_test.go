package v1

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFilterQuery_ToFilter(t *testing.T) {
	reqID := int64(9042)
	q := FilterQuery{
		Start:        "2025-03-01T00:00:00Z",
		End:          "2025-03-03",
		SiteID:       "coj",
		RequestID:    &reqID,
		ExposureTime: "30.5",
	}

	f, err := q.ToFilter()
	require.NoError(t, err)

	require.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), *f.Start)
	require.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), *f.End)
	require.Equal(t, "coj", f.SiteID)
	require.Equal(t, reqID, *f.RequestID)
	require.Equal(t, "30.5", f.MinExposureTime.String())
	require.Nil(t, f.IncludePublic)
}

func TestFilterQuery_ToFilter_BadTime(t *testing.T) {
	_, err := FilterQuery{Start: "yesterday"}.ToFilter()
	require.ErrorContains(t, err, "start")
}

func TestFilterQuery_ToFilter_BadExposureTime(t *testing.T) {
	_, err := FilterQuery{ExposureTime: "brief"}.ToFilter()
	require.ErrorContains(t, err, "exposure_time")
}

func TestFilterQuery_ToFilter_EmptyIsEmptyFilter(t *testing.T) {
	f, err := FilterQuery{}.ToFilter()
	require.NoError(t, err)
	require.True(t, f.IsEmpty())
}
