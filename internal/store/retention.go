package store

import (
	"context"
	"fmt"
	"log"
	"time"
)

const pruneOldestSQL = `
	DELETE FROM %s WHERE id IN (
		SELECT id FROM %s ORDER BY ts ASC, id ASC LIMIT $1
	)
`

// enforceRetention prunes a fact table down to its configured row
// ceiling, deleting oldest rows by observation timestamp first. It
// runs after each successful write but is deliberately decoupled
// from it: a pruning failure is logged and swallowed so transient
// delete errors cannot cascade into ingestion outages.
func (s *Store) enforceRetention(kind SourceKind) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	table := kind.table()
	ceiling := s.ceilings[kind]

	var count int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
		log.Printf("[%s] retention count failed: %v", kind, err)
		return
	}
	if count <= ceiling {
		return
	}

	excess := count - ceiling
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(pruneOldestSQL, table, table), excess)
	if err != nil {
		log.Printf("[%s] retention prune failed (%d rows over ceiling %d): %v", kind, excess, ceiling, err)
		return
	}
	log.Printf("[%s] retention pruned %d oldest rows (ceiling %d)", kind, tag.RowsAffected(), ceiling)
}

// CleanOldData deletes rows older than daysToKeep from all three
// fact tables in one transaction.
func (s *Store) CleanOldData(ctx context.Context, daysToKeep int) error {
	cutoff := s.now().In(s.loc).AddDate(0, 0, -daysToKeep)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return asStoreErr(err)
	}
	defer tx.Rollback(ctx)

	for _, kind := range Kinds {
		tag, err := tx.Exec(ctx, "DELETE FROM "+kind.table()+" WHERE ts < $1", cutoff)
		if err != nil {
			return fmt.Errorf("clean %s: %w", kind, err)
		}
		log.Printf("[%s] cleaned %d rows older than %d days", kind, tag.RowsAffected(), daysToKeep)
	}

	return tx.Commit(ctx)
}
