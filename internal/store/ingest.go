package store

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hydronet/water-monitor/internal/timeutil"
)

const upsertStationSQL = `
	INSERT INTO stations (station_id, station_name, station_type, latitude, longitude)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (station_id) DO UPDATE SET
		station_name = EXCLUDED.station_name,
		latitude = EXCLUDED.latitude,
		longitude = EXCLUDED.longitude,
		updated_at = NOW()
`

const insertReadingSQL = `
	INSERT INTO %s (station_name, station_id, parameter_name, value, unit, ts, update_time)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
`

const insertDeviceReadingSQL = `
	INSERT INTO mqtt_data (station_name, station_id, device_name, parameter_name, value, unit, ts, update_time)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

// WriteBatch persists one ingestion batch for a source kind inside a
// single transaction: upsert each station, insert one reading per
// parameter tuple. Returns the number of inserted readings.
//
// Row-level failure policy: rows are validated before any SQL runs —
// a station without a display name, or a parameter without a name,
// is logged and skipped and does not abort the batch. An SQL-level
// failure cannot be isolated inside a Postgres transaction, so it
// rolls the whole batch back and reports zero saved.
//
// Retention enforcement runs after a successful commit and is
// advisory: its failure is logged, never returned.
func (s *Store) WriteBatch(ctx context.Context, kind SourceKind, batch []StationReadings) (int, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("unknown source kind %q", kind)
	}

	clean := validateBatch(kind, batch)
	if len(clean) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, asStoreErr(err)
	}
	defer tx.Rollback(ctx)

	b := &pgx.Batch{}
	saved := 0
	for _, st := range clean {
		stationID := StationID(kind, st.Name)
		ts := timeutil.Resolve(st.UpdateTime, s.now(), s.loc)

		updateTime := st.UpdateTime
		if updateTime == "" {
			updateTime = ts.Format(time.RFC3339)
		}

		b.Queue(upsertStationSQL, stationID, st.Name, string(kind), st.Lat, st.Lng)

		for _, p := range st.Parameters {
			value := extractValue(p)
			if kind == SourceDeviceBus {
				b.Queue(insertDeviceReadingSQL,
					st.Name, stationID, st.DeviceName, p.Name, value, p.Unit, ts, updateTime)
			} else {
				b.Queue(fmt.Sprintf(insertReadingSQL, kind.table()),
					st.Name, stationID, p.Name, value, p.Unit, ts, updateTime)
			}
			saved++
		}
	}

	res := tx.SendBatch(ctx, b)
	for i := 0; i < b.Len(); i++ {
		if _, err := res.Exec(); err != nil {
			res.Close()
			return 0, fmt.Errorf("write %s batch: %w", kind, asStoreErr(err))
		}
	}
	if err := res.Close(); err != nil {
		return 0, fmt.Errorf("write %s batch: %w", kind, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, asStoreErr(err)
	}

	s.enforceRetention(kind)

	return saved, nil
}

// validateBatch drops malformed rows before they reach SQL, so a bad
// station never poisons the transaction for the rest of the batch.
func validateBatch(kind SourceKind, batch []StationReadings) []StationReadings {
	clean := make([]StationReadings, 0, len(batch))
	for _, st := range batch {
		if strings.TrimSpace(st.Name) == "" {
			log.Printf("[%s] skipping station batch without a display name (%d parameters)", kind, len(st.Parameters))
			continue
		}

		kept := st
		kept.Parameters = make([]ParameterReading, 0, len(st.Parameters))
		for _, p := range st.Parameters {
			if strings.TrimSpace(p.Name) == "" {
				log.Printf("[%s] %s: skipping parameter without a name", kind, st.Name)
				continue
			}
			kept.Parameters = append(kept.Parameters, p)
		}
		if len(kept.Parameters) == 0 {
			continue
		}
		clean = append(clean, kept)
	}
	return clean
}

// extractValue resolves the numeric value for a reading. A missing
// numeric field falls back to the display text with thousands
// separators stripped ("703,880" -> 703880); text that still fails
// to parse yields a null value rather than a rejected row.
func extractValue(p ParameterReading) *float64 {
	if p.Value != nil {
		v := *p.Value
		return &v
	}
	if p.DisplayText == "" {
		return nil
	}
	cleaned := strings.TrimSpace(strings.ReplaceAll(p.DisplayText, ",", ""))
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &f
}
