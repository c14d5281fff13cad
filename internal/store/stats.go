package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/hydronet/water-monitor/internal/params"
)

// DefaultStatsLimit caps a stats result set when the caller gives no
// explicit limit.
const DefaultStatsLimit = 10_000

// QueryStats runs a filtered historical query against every fact
// table the kind filter includes, merges the per-source results,
// sorts them newest-first and truncates to the cap. The cap applies
// only after the global time sort, so truncation always drops the
// oldest rows. The three tables are queried independently — their
// schemas differ and are never joined.
func (s *Store) QueryStats(ctx context.Context, q StatsQuery) ([]Reading, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultStatsLimit
	}

	all := make([]Reading, 0)
	for _, kind := range Kinds {
		if q.Kind != "" && q.Kind != kind {
			continue
		}
		rows, err := s.queryStatsKind(ctx, kind, q)
		if err != nil {
			return nil, fmt.Errorf("stats %s: %w", kind, asStoreErr(err))
		}
		all = append(all, rows...)
	}

	return mergeAndCap(all, limit), nil
}

func (s *Store) queryStatsKind(ctx context.Context, kind SourceKind, q StatsQuery) ([]Reading, error) {
	deviceCol := "NULL::text AS device_name"
	if kind == SourceDeviceBus {
		deviceCol = "device_name"
	}

	sql := "SELECT id, station_name, station_id, " + deviceCol +
		", parameter_name, value, unit, ts, update_time, created_at FROM " + kind.table() + " WHERE 1=1"
	args := []any{}

	if len(q.StationIDs) > 0 {
		sql += " AND station_id = ANY($" + strconv.Itoa(len(args)+1) + ")"
		args = append(args, q.StationIDs)
	}

	if q.Parameter != "" && q.Parameter != "all" {
		pred := params.Match(q.Parameter)
		if len(pred.Like) > 0 {
			sql += " AND ("
			for i, pat := range pred.Like {
				if i > 0 {
					sql += " OR "
				}
				sql += "parameter_name ILIKE $" + strconv.Itoa(len(args)+1)
				args = append(args, pat)
			}
			sql += ")"
			for _, pat := range pred.NotLike {
				sql += " AND parameter_name NOT ILIKE $" + strconv.Itoa(len(args)+1)
				args = append(args, pat)
			}
		} else {
			sql += " AND LOWER(parameter_name) = LOWER($" + strconv.Itoa(len(args)+1) + ")"
			args = append(args, pred.Exact)
		}
	}

	if q.StartDate != nil {
		sql += " AND ts >= $" + strconv.Itoa(len(args)+1)
		args = append(args, *q.StartDate)
	}
	if q.EndDate != nil {
		// End date is inclusive of the whole calendar day.
		sql += " AND ts < $" + strconv.Itoa(len(args)+1)
		args = append(args, q.EndDate.AddDate(0, 0, 1))
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Reading, 0)
	for rows.Next() {
		r := Reading{Source: kind}
		if err := rows.Scan(
			&r.ID,
			&r.StationName,
			&r.StationID,
			&r.DeviceName,
			&r.ParameterName,
			&r.Value,
			&r.Unit,
			&r.Timestamp,
			&r.UpdateTime,
			&r.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// mergeAndCap time-sorts the combined result set descending and
// truncates it to limit, dropping oldest rows first.
func mergeAndCap(all []Reading, limit int) []Reading {
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp.After(all[j].Timestamp)
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all
}

const availableParametersSQL = `
	SELECT DISTINCT parameter_name FROM (
		SELECT parameter_name FROM external_data
		UNION
		SELECT parameter_name FROM mqtt_data
		UNION
		SELECT parameter_name FROM scada_data
	) p
	ORDER BY parameter_name
`

// AvailableParameters lists the distinct parameter names across all
// three fact tables, for populating filter UIs.
func (s *Store) AvailableParameters(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, availableParametersSQL)
	if err != nil {
		return nil, asStoreErr(err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

const listStationsSQL = `
	SELECT id, station_id, station_name, station_type, latitude, longitude, created_at, updated_at
	FROM stations
	ORDER BY station_name
`

// ListStations returns the whole station registry.
func (s *Store) ListStations(ctx context.Context) ([]Station, error) {
	rows, err := s.pool.Query(ctx, listStationsSQL)
	if err != nil {
		return nil, asStoreErr(err)
	}
	defer rows.Close()

	stations := make([]Station, 0)
	for rows.Next() {
		var st Station
		if err := rows.Scan(
			&st.ID,
			&st.StationID,
			&st.Name,
			&st.Kind,
			&st.Lat,
			&st.Lng,
			&st.CreatedAt,
			&st.UpdatedAt,
		); err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}
