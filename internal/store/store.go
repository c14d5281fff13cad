package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrUnavailable marks failures caused by resource exhaustion rather
// than bad input: connection pool exhausted, statement timeout. The
// API layer maps it to a 503.
var ErrUnavailable = errors.New("store unavailable")

// DefaultRetentionCeiling caps each fact table's row count before
// oldest-first pruning kicks in.
const DefaultRetentionCeiling = 100_000

// DefaultCumulativeParameter is the parameter excluded from change
// detection: it is non-decreasing by nature, so it always shows
// multiple distinct values even on a dead station.
const DefaultCumulativeParameter = "Tổng lưu lượng"

// Options tune a Store. Zero values fall back to defaults.
type Options struct {
	MaxConns            int32
	Location            *time.Location
	Ceilings            map[SourceKind]int
	CumulativeParameter string
}

// Store wraps the shared connection pool and the ingestion/query
// operations over the three fact tables and the station registry.
type Store struct {
	pool            *pgxpool.Pool
	loc             *time.Location
	ceilings        map[SourceKind]int
	cumulativeParam string
	now             func() time.Time
}

// New connects a Store. The pool is bounded (default 20 connections)
// and shared by all writers and readers; operations block for a free
// connection and fail with ErrUnavailable on timeout.
func New(ctx context.Context, databaseURL string, opts Options) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	cfg.MaxConns = opts.MaxConns
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 20
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	ceilings := make(map[SourceKind]int, len(Kinds))
	for _, k := range Kinds {
		ceilings[k] = DefaultRetentionCeiling
		if c, ok := opts.Ceilings[k]; ok && c > 0 {
			ceilings[k] = c
		}
	}

	cumulative := opts.CumulativeParameter
	if cumulative == "" {
		cumulative = DefaultCumulativeParameter
	}

	return &Store{
		pool:            pool,
		loc:             loc,
		ceilings:        ceilings,
		cumulativeParam: cumulative,
		now:             time.Now,
	}, nil
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Location returns the service's local time zone, the representation
// every observation timestamp is normalized into.
func (s *Store) Location() *time.Location {
	return s.loc
}

// asStoreErr maps pool/timeout failures to ErrUnavailable so callers
// can distinguish exhaustion from query errors.
func asStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "pool exhausted") {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

// StationID derives the stable station identifier: source prefix plus
// the display name with whitespace runs collapsed to underscores.
func StationID(kind SourceKind, name string) string {
	return kind.idPrefix() + "_" + strings.Join(strings.Fields(name), "_")
}
