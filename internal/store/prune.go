package store

import (
	"fmt"
	"time"
)

// PruneConfig controls retention of retired records.
type PruneConfig struct {
	// MaxAge: retired records older than this are deleted outright.
	MaxAge time.Duration
}

var DefaultPruneConfig = PruneConfig{
	MaxAge: 90 * 24 * time.Hour,
}

// Prune deletes retired records past their retention age, together with
// their embeddings and any edges still naming them. Edges are normally
// rewritten at supersede time; the edge sweep here is the backstop that
// keeps the graph free of references into deleted rows.
func (s *Store) Prune(cfg PruneConfig) (int64, error) {
	if cfg.MaxAge == 0 {
		cfg = DefaultPruneConfig
	}

	days := int(cfg.MaxAge.Hours() / 24)
	cutoff := fmt.Sprintf("datetime('now', '-%d days')", days)

	// embeddings and edges go first, while the rowids still resolve; a
	// failed sweep aborts before the records delete so nothing ends up
	// referencing a deleted row
	if _, err := s.db.Exec(fmt.Sprintf(`
		DELETE FROM vec_records WHERE record_rowid IN (
			SELECT rowid FROM records WHERE retired = 1 AND updated_at < %s
		)
	`, cutoff)); err != nil {
		return 0, fmt.Errorf("prune embeddings: %w", err)
	}

	if _, err := s.db.Exec(fmt.Sprintf(`
		DELETE FROM edges WHERE from_id IN (
			SELECT id FROM records WHERE retired = 1 AND updated_at < %s
		) OR to_id IN (
			SELECT id FROM records WHERE retired = 1 AND updated_at < %s
		)
	`, cutoff, cutoff)); err != nil {
		return 0, fmt.Errorf("prune edges: %w", err)
	}

	result, err := s.db.Exec(fmt.Sprintf(`
		DELETE FROM records WHERE retired = 1 AND updated_at < %s
	`, cutoff))
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
