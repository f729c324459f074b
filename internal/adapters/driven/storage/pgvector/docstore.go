// Package pgvector provides a PostgreSQL document store with
// vector-typed embedding columns, for installations that serve the
// ingested corpus to a retrieval layer. Pipeline state stays in the
// local SQLite store; only documents and chunks go to Postgres.
package pgvector

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	pgv "github.com/pgvector/pgvector-go"

	"github.com/harborline/docsift/internal/core/domain"
	"github.com/harborline/docsift/internal/core/ports/driven"
	"github.com/harborline/docsift/internal/logger"
)

// Ensure DocStore implements the interface.
var _ driven.DocumentStore = (*DocStore)(nil)

// DocStore persists documents and chunks in PostgreSQL.
type DocStore struct {
	db *sqlx.DB
}

// NewDocStore connects to PostgreSQL and ensures the schema exists.
// The pgvector extension must be installed on the server; creating it
// here keeps first-run setup to a single DSN.
func NewDocStore(dsn string) (*DocStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to postgres: %v", domain.ErrStoreUnavailable, err)
	}

	s := &DocStore{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// ensureSchema creates the extension and tables on first use.
func (s *DocStore) ensureSchema() error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS documents (
			id           TEXT PRIMARY KEY,
			fingerprint  TEXT NOT NULL,
			title        TEXT NOT NULL DEFAULT '',
			content      TEXT NOT NULL DEFAULT '',
			metadata     JSONB,
			processed_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS chunks (
			id          TEXT PRIMARY KEY,
			document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			content     TEXT NOT NULL DEFAULT '',
			position    INTEGER NOT NULL,
			embedding   vector,
			metadata    JSONB
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_document_id ON chunks(document_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("ensuring schema: %w", err)
		}
	}
	return nil
}

// InsertBatch stores each document in its own transaction so one bad
// document fails alone. Connection-level failures abort the batch with
// domain.ErrStoreUnavailable so the loader stops instead of burning
// through the remaining batches.
func (s *DocStore) InsertBatch(ctx context.Context, docs []domain.Document) (driven.InsertOutcome, error) {
	var outcome driven.InsertOutcome
	for i := range docs {
		if err := ctx.Err(); err != nil {
			outcome.Failed += len(docs) - i
			return outcome, err
		}

		err := s.insertOne(ctx, &docs[i])
		if err == nil {
			outcome.Successful++
			continue
		}

		if isUnreachable(err) {
			outcome.Failed += len(docs) - i
			return outcome, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}

		logger.Warn("inserting document %s: %v", docs[i].ID, err)
		outcome.Failed++
	}
	return outcome, nil
}

// insertOne upserts one document and replaces its chunks.
func (s *DocStore) insertOne(ctx context.Context, doc *domain.Document) error {
	metadata, err := metadataJSON(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, fingerprint, title, content, metadata, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			fingerprint = EXCLUDED.fingerprint,
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			processed_at = EXCLUDED.processed_at
	`, doc.ID, doc.Fingerprint, doc.Title, doc.Text, metadata, doc.ProcessedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = $1`, doc.ID); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}

	for _, chunk := range doc.Chunks {
		chunkMetadata, err := metadataJSON(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}

		var embedding any
		if len(chunk.Embedding) > 0 {
			embedding = pgv.NewVector(chunk.Embedding)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO chunks (id, document_id, content, position, embedding, metadata)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, chunk.ID, doc.ID, chunk.Text, chunk.Position, embedding, chunkMetadata)
		if err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// EstimatedCount reads the planner's row estimate, which is cheap on
// large tables where COUNT(*) is not. Falls back to an exact count
// when the estimate is not yet populated.
func (s *DocStore) EstimatedCount(ctx context.Context) (int, error) {
	var estimate float64
	err := s.db.QueryRowContext(ctx, `
		SELECT reltuples FROM pg_class WHERE relname = 'documents'
	`).Scan(&estimate)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("estimating count: %w", err)
	}

	if estimate >= 0 && err == nil {
		return int(estimate), nil
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (s *DocStore) Close() error {
	return s.db.Close()
}

// metadataJSON marshals metadata for a JSONB column, mapping an empty
// map to NULL.
func metadataJSON(m map[string]any) ([]byte, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return json.Marshal(m)
}

// isUnreachable reports whether the error means the server is gone
// rather than the statement being bad.
func isUnreachable(err error) bool {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		// Class 08 is connection exceptions, 57P01 is admin shutdown.
		return pgErr.Code.Class() == "08" || pgErr.Code == "57P01"
	}
	return errors.Is(err, sql.ErrConnDone)
}
