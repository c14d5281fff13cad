package store

import (
	"context"
	"fmt"
	"time"
)

// livenessGroup is one (station, parameter) grouping row from a fact
// table restricted to the lookback window.
type livenessGroup struct {
	Station        string
	Parameter      string
	DistinctValues int
	TotalRecords   int
	LastUpdate     time.Time
}

const livenessGroupSQL = `
	SELECT station_name, parameter_name,
	       COUNT(DISTINCT value) AS distinct_values,
	       COUNT(*) AS total_records,
	       MAX(ts) AS last_update
	FROM %s
	WHERE ts >= $1%s
	GROUP BY station_name, parameter_name
`

// EvaluateLiveness decides, per station, whether its values have
// changed inside the lookback window. A parameter changed when it
// shows more than one distinct value; a station is online when any
// of its parameters changed. Stations with no rows in the window are
// absent from the result — absence means offline, with no override
// from changes recorded before the window.
//
// The cumulative-total parameter is excluded from the grouping for
// the external and device-bus tables: it is non-decreasing, so it
// would report a change even on a stuck station. The portal source
// never emits it, so its table needs no exclusion.
//
// Read-only; safe to run concurrently with ingestion. A failed
// sub-query fails the whole call — merging partial results would
// misreport online status.
func (s *Store) EvaluateLiveness(ctx context.Context, lookback time.Duration) (map[string]LivenessRecord, error) {
	cutoff := s.now().In(s.loc).Add(-lookback)

	results := make(map[string]LivenessRecord)
	for _, kind := range Kinds {
		groups, err := s.livenessGroups(ctx, kind, cutoff)
		if err != nil {
			return nil, fmt.Errorf("liveness %s: %w", kind, asStoreErr(err))
		}
		mergeLivenessGroups(results, groups)
	}
	return results, nil
}

// livenessFilter builds the window filter for one fact table: the
// cutoff bound plus, for the external and device-bus tables, the
// cumulative-parameter exclusion. The portal table gets no exclusion
// since that source never emits the cumulative total.
func livenessFilter(kind SourceKind, cutoff time.Time, cumulativeParam string) (string, []any) {
	args := []any{cutoff}
	if kind == SourceExternal || kind == SourceDeviceBus {
		return " AND LOWER(parameter_name) <> LOWER($2)", append(args, cumulativeParam)
	}
	return "", args
}

func (s *Store) livenessGroups(ctx context.Context, kind SourceKind, cutoff time.Time) ([]livenessGroup, error) {
	exclusion, args := livenessFilter(kind, cutoff, s.cumulativeParam)

	rows, err := s.pool.Query(ctx, fmt.Sprintf(livenessGroupSQL, kind.table(), exclusion), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make([]livenessGroup, 0)
	for rows.Next() {
		var g livenessGroup
		if err := rows.Scan(&g.Station, &g.Parameter, &g.DistinctValues, &g.TotalRecords, &g.LastUpdate); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// mergeLivenessGroups folds one table's grouping rows into the
// cross-source result map.
func mergeLivenessGroups(results map[string]LivenessRecord, groups []livenessGroup) {
	for _, g := range groups {
		rec, ok := results[g.Station]
		if !ok {
			rec = LivenessRecord{LastUpdate: g.LastUpdate}
		}

		changed := g.DistinctValues > 1
		rec.Parameters = append(rec.Parameters, ParameterLiveness{
			Name:           g.Parameter,
			DistinctValues: g.DistinctValues,
			TotalRecords:   g.TotalRecords,
			HasChange:      changed,
		})
		if changed {
			rec.HasChange = true
		}
		if g.LastUpdate.After(rec.LastUpdate) {
			rec.LastUpdate = g.LastUpdate
		}

		results[g.Station] = rec
	}
}
