package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/harborline/docsift/internal/core/domain"
	"github.com/harborline/docsift/internal/core/ports/driven"
)

// stateStore implements driven.StateStore.
type stateStore struct {
	store *Store
}

var _ driven.StateStore = (*stateStore)(nil)

// LoadFingerprints returns the full identifier -> fingerprint map.
func (s *stateStore) LoadFingerprints(ctx context.Context) (map[string]string, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT identifier, fingerprint FROM fingerprints
	`)
	if err != nil {
		return nil, fmt.Errorf("querying fingerprints: %w", err)
	}
	defer rows.Close()

	fps := make(map[string]string)
	for rows.Next() {
		var identifier, fingerprint string
		if err := rows.Scan(&identifier, &fingerprint); err != nil {
			return nil, fmt.Errorf("scanning fingerprint: %w", err)
		}
		fps[identifier] = fingerprint
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating fingerprints: %w", err)
	}

	return fps, nil
}

// SaveFingerprints replaces the persisted map with the given snapshot.
// Replacement is transactional so a crash mid-save cannot leave a
// half-updated map.
func (s *stateStore) SaveFingerprints(ctx context.Context, fps map[string]string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM fingerprints"); err != nil {
		return fmt.Errorf("clearing fingerprints: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fingerprints (identifier, fingerprint) VALUES (?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for identifier, fingerprint := range fps {
		if _, err := stmt.ExecContext(ctx, identifier, fingerprint); err != nil {
			return fmt.Errorf("saving fingerprint: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// AppendRun appends one run result to the history.
func (s *stateStore) AppendRun(ctx context.Context, result domain.SyncRunResult) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sync_runs
			(id, started, duration_ms, status, items_found, new_count, modified_count, processed, error_count, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, result.ID, result.Started.UTC(), result.Duration.Milliseconds(), string(result.Status),
		result.ItemsFound, result.NewCount, result.ModifiedCount,
		result.Processed, result.ErrorCount, result.Message)

	if err != nil {
		return fmt.Errorf("appending run: %w", err)
	}
	return nil
}

// RunHistory returns the most recent runs, newest first.
func (s *stateStore) RunHistory(ctx context.Context, limit int) ([]domain.SyncRunResult, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats negative LIMIT as unlimited
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, started, duration_ms, status, items_found, new_count, modified_count, processed, error_count, message
		FROM sync_runs
		ORDER BY started DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying run history: %w", err)
	}
	defer rows.Close()

	var runs []domain.SyncRunResult //nolint:prealloc // size unknown from query
	for rows.Next() {
		var run domain.SyncRunResult
		var started sql.NullTime
		var durationMs int64
		var status string
		if err := rows.Scan(&run.ID, &started, &durationMs, &status,
			&run.ItemsFound, &run.NewCount, &run.ModifiedCount,
			&run.Processed, &run.ErrorCount, &run.Message); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}

		if started.Valid {
			run.Started = started.Time
		}
		run.Duration = time.Duration(durationMs) * time.Millisecond
		run.Status = domain.RunStatus(status)
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	return runs, nil
}

// PruneRuns evicts all but the newest entries.
func (s *stateStore) PruneRuns(ctx context.Context, keep int) error {
	if keep < 0 {
		return nil
	}

	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM sync_runs WHERE id NOT IN (
			SELECT id FROM sync_runs ORDER BY started DESC LIMIT ?
		)
	`, keep)

	if err != nil {
		return fmt.Errorf("pruning runs: %w", err)
	}
	return nil
}

// Close is a no-op; the lifetime of the connection belongs to the
// parent Store.
func (s *stateStore) Close() error {
	return nil
}
