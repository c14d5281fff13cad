package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeLivenessConstantValuesStayOffline(t *testing.T) {
	results := make(map[string]LivenessRecord)

	// Many samples, one distinct value: no change, however frequent.
	mergeLivenessGroups(results, []livenessGroup{
		{Station: "Pump-A", Parameter: "Flow", DistinctValues: 1, TotalRecords: 3, LastUpdate: ts(10, 10)},
	})

	rec, ok := results["Pump-A"]
	require.True(t, ok)
	assert.False(t, rec.HasChange)
	require.Len(t, rec.Parameters, 1)
	assert.False(t, rec.Parameters[0].HasChange)
	assert.Equal(t, 3, rec.Parameters[0].TotalRecords)
}

func TestMergeLivenessSecondDistinctValueFlipsOnline(t *testing.T) {
	results := make(map[string]LivenessRecord)

	mergeLivenessGroups(results, []livenessGroup{
		{Station: "Pump-A", Parameter: "Flow", DistinctValues: 2, TotalRecords: 4, LastUpdate: ts(10, 12)},
	})

	assert.True(t, results["Pump-A"].HasChange)
}

func TestMergeLivenessOneChangedParameterIsEnough(t *testing.T) {
	results := make(map[string]LivenessRecord)

	mergeLivenessGroups(results, []livenessGroup{
		{Station: "Well-12", Parameter: "Mực nước", DistinctValues: 1, TotalRecords: 5, LastUpdate: ts(9, 0)},
		{Station: "Well-12", Parameter: "Nhiệt độ nước", DistinctValues: 3, TotalRecords: 5, LastUpdate: ts(9, 5)},
	})

	rec := results["Well-12"]
	assert.True(t, rec.HasChange)
	require.Len(t, rec.Parameters, 2)
}

func TestMergeLivenessAcrossSourcesKeepsNewestUpdate(t *testing.T) {
	results := make(map[string]LivenessRecord)

	mergeLivenessGroups(results, []livenessGroup{
		{Station: "Well-12", Parameter: "Mực nước", DistinctValues: 1, TotalRecords: 2, LastUpdate: ts(9, 0)},
	})
	mergeLivenessGroups(results, []livenessGroup{
		{Station: "Well-12", Parameter: "Lưu lượng", DistinctValues: 2, TotalRecords: 2, LastUpdate: ts(9, 45)},
	})
	// An older group arriving later must not move lastUpdate back.
	mergeLivenessGroups(results, []livenessGroup{
		{Station: "Well-12", Parameter: "pH", DistinctValues: 1, TotalRecords: 1, LastUpdate: ts(8, 30)},
	})

	rec := results["Well-12"]
	assert.True(t, rec.HasChange)
	assert.Equal(t, ts(9, 45), rec.LastUpdate)
	assert.Len(t, rec.Parameters, 3)
}

func TestMergeLivenessAbsentStationHasNoRecord(t *testing.T) {
	results := make(map[string]LivenessRecord)

	mergeLivenessGroups(results, nil)

	_, ok := results["Silent-Station"]
	assert.False(t, ok, "a station with no rows in the window must be absent, not marked")
}

func TestLivenessFilterExcludesCumulativeParameter(t *testing.T) {
	cutoff := ts(9, 0)

	// The external and device-bus tables carry the non-decreasing
	// total, which would read as a change on a stuck station.
	for _, kind := range []SourceKind{SourceExternal, SourceDeviceBus} {
		clause, args := livenessFilter(kind, cutoff, DefaultCumulativeParameter)
		assert.Equal(t, " AND LOWER(parameter_name) <> LOWER($2)", clause, "kind %s", kind)
		require.Len(t, args, 2, "kind %s", kind)
		assert.Equal(t, cutoff, args[0])
		assert.Equal(t, DefaultCumulativeParameter, args[1])
	}
}

func TestLivenessFilterPortalTableHasNoExclusion(t *testing.T) {
	cutoff := ts(9, 0)

	clause, args := livenessFilter(SourceScada, cutoff, DefaultCumulativeParameter)
	assert.Empty(t, clause)
	require.Len(t, args, 1)
	assert.Equal(t, cutoff, args[0])
}

func ts(hour, min int) time.Time {
	return time.Date(2025, 1, 1, hour, min, 0, 0, time.UTC)
}
