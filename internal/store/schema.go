package store

import (
	"context"
	"fmt"
	"strings"
)

// Each fact table keeps the same shape: one row per observed
// parameter value, never updated in place. mqtt_data additionally
// records the device sub-name.
const factTableSQL = `
	CREATE TABLE IF NOT EXISTS %s (
		id BIGSERIAL PRIMARY KEY,
		station_name TEXT NOT NULL,
		station_id TEXT NOT NULL,
		%sparameter_name TEXT NOT NULL,
		value DOUBLE PRECISION,
		unit TEXT,
		ts TIMESTAMP NOT NULL,
		update_time TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	)
`

const stationsTableSQL = `
	CREATE TABLE IF NOT EXISTS stations (
		id BIGSERIAL PRIMARY KEY,
		station_id TEXT UNIQUE NOT NULL,
		station_name TEXT NOT NULL,
		station_type TEXT NOT NULL,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	)
`

// EnsureSchema creates the three fact tables, the station registry
// and the per-table indexes. Safe to run on every startup against a
// populated database. A failure here is fatal: the process must not
// serve ingestion or queries without the schema.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, kind := range Kinds {
		table := kind.table()

		deviceCol := ""
		if kind == SourceDeviceBus {
			deviceCol = "device_name TEXT,\n\t\t"
		}
		if _, err := s.pool.Exec(ctx, fmt.Sprintf(factTableSQL, table, deviceCol)); err != nil {
			return fmt.Errorf("create table %s: %w", table, err)
		}

		for col, suffix := range map[string]string{
			"station_name":   "station",
			"ts":             "ts",
			"parameter_name": "parameter",
		} {
			name := fmt.Sprintf("idx_%s_%s", strings.TrimSuffix(table, "_data"), suffix)
			idx := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s)", name, table, col)
			if _, err := s.pool.Exec(ctx, idx); err != nil {
				return fmt.Errorf("create index %s: %w", name, err)
			}
		}
	}

	if _, err := s.pool.Exec(ctx, stationsTableSQL); err != nil {
		return fmt.Errorf("create table stations: %w", err)
	}

	return nil
}
