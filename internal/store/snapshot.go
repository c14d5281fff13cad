package store

import (
	"context"
	"fmt"
	"time"
)

// snapshotRow is one table's most recent reading for a (station,
// parameter) pair inside the freshness window.
type snapshotRow struct {
	Station    string
	Parameter  string
	Value      *float64
	Unit       string
	Timestamp  time.Time
	UpdateTime *string
}

const latestPerParameterSQL = `
	SELECT DISTINCT ON (station_name, parameter_name)
	       station_name, parameter_name, value, unit, ts, update_time
	FROM %s
	WHERE ts >= $1
	ORDER BY station_name, parameter_name, ts DESC
`

// LatestSnapshot returns one record per station carrying its most
// recent reading for every parameter observed inside the freshness
// window, across all three sources. Stations with no rows in the
// window are absent; the caller composes absence with the liveness
// result to decide display status.
func (s *Store) LatestSnapshot(ctx context.Context, freshness time.Duration) (map[string]StationSnapshot, error) {
	cutoff := s.now().In(s.loc).Add(-freshness)

	snapshots := make(map[string]StationSnapshot)
	for _, kind := range Kinds {
		rows, err := s.snapshotRows(ctx, kind, cutoff)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", kind, asStoreErr(err))
		}
		mergeSnapshotRows(snapshots, kind, rows)
	}
	return snapshots, nil
}

func (s *Store) snapshotRows(ctx context.Context, kind SourceKind, cutoff time.Time) ([]snapshotRow, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(latestPerParameterSQL, kind.table()), cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]snapshotRow, 0)
	for rows.Next() {
		var r snapshotRow
		if err := rows.Scan(&r.Station, &r.Parameter, &r.Value, &r.Unit, &r.Timestamp, &r.UpdateTime); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// mergeSnapshotRows folds one source's rows into the per-station
// map. Station names are expected to be source-disjoint; if a name
// collides across kinds anyway, parameters are appended and the
// first-seen source kind is kept, so no data is dropped.
func mergeSnapshotRows(snapshots map[string]StationSnapshot, kind SourceKind, rows []snapshotRow) {
	for _, r := range rows {
		snap, ok := snapshots[r.Station]
		if !ok {
			snap = StationSnapshot{
				Name:          r.Station,
				Source:        kind,
				LastTimestamp: r.Timestamp,
				UpdateTime:    r.UpdateTime,
			}
		}

		snap.Parameters = append(snap.Parameters, SnapshotParameter{
			Name:  r.Parameter,
			Value: r.Value,
			Unit:  r.Unit,
		})
		if r.Timestamp.After(snap.LastTimestamp) {
			snap.LastTimestamp = r.Timestamp
		}
		if snap.UpdateTime == nil {
			snap.UpdateTime = r.UpdateTime
		}

		snapshots[r.Station] = snap
	}
}
