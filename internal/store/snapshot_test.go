package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeSnapshotGroupsParametersByStation(t *testing.T) {
	snapshots := make(map[string]StationSnapshot)
	v1, v2 := 8.5, 120.0

	mergeSnapshotRows(snapshots, SourceDeviceBus, []snapshotRow{
		{Station: "Well-12", Parameter: "Mực nước", Value: &v1, Unit: "m", Timestamp: ts(10, 0)},
		{Station: "Well-12", Parameter: "Lưu lượng", Value: &v2, Unit: "m³/h", Timestamp: ts(10, 5)},
	})

	snap, ok := snapshots["Well-12"]
	require.True(t, ok)
	assert.Equal(t, SourceDeviceBus, snap.Source)
	require.Len(t, snap.Parameters, 2)
	assert.Equal(t, ts(10, 5), snap.LastTimestamp)
	assert.Equal(t, 8.5, *snap.Parameters[0].Value)
}

func TestMergeSnapshotNameCollisionAppendsWithoutOverwriting(t *testing.T) {
	snapshots := make(map[string]StationSnapshot)
	v := 7.1

	mergeSnapshotRows(snapshots, SourceExternal, []snapshotRow{
		{Station: "Plant-1", Parameter: "pH", Value: &v, Timestamp: ts(9, 0)},
	})
	mergeSnapshotRows(snapshots, SourceScada, []snapshotRow{
		{Station: "Plant-1", Parameter: "Mực nước", Value: &v, Timestamp: ts(9, 30)},
	})

	snap := snapshots["Plant-1"]
	// Station names are expected to be source-disjoint; when they
	// collide anyway, the first-seen kind wins and nothing is lost.
	assert.Equal(t, SourceExternal, snap.Source)
	require.Len(t, snap.Parameters, 2)
	assert.Equal(t, ts(9, 30), snap.LastTimestamp)
}

func TestMergeSnapshotNullValueKept(t *testing.T) {
	snapshots := make(map[string]StationSnapshot)

	mergeSnapshotRows(snapshots, SourceScada, []snapshotRow{
		{Station: "Plant-2", Parameter: "Lưu lượng", Value: nil, Unit: "m³/h", Timestamp: ts(11, 0)},
	})

	require.Len(t, snapshots["Plant-2"].Parameters, 1)
	assert.Nil(t, snapshots["Plant-2"].Parameters[0].Value)
}

func TestMergeSnapshotUpdateTimePreserved(t *testing.T) {
	snapshots := make(map[string]StationSnapshot)
	raw := "09:30 - 15/02/2025"

	mergeSnapshotRows(snapshots, SourceExternal, []snapshotRow{
		{Station: "Plant-3", Parameter: "pH", Timestamp: ts(9, 30), UpdateTime: &raw},
		{Station: "Plant-3", Parameter: "TDS", Timestamp: ts(9, 31)},
	})

	require.NotNil(t, snapshots["Plant-3"].UpdateTime)
	assert.Equal(t, raw, *snapshots["Plant-3"].UpdateTime)
}
