package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/harborline/docsift/internal/core/domain"
	"github.com/harborline/docsift/internal/core/ports/driven"
	"github.com/harborline/docsift/internal/logger"
)

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// InsertBatch stores each document in its own transaction so a single
// bad document fails alone instead of sinking the batch. The document
// row is upserted and its chunks replaced wholesale; the CASCADE on
// chunks keeps deletes cheap.
func (s *documentStore) InsertBatch(ctx context.Context, docs []domain.Document) (driven.InsertOutcome, error) {
	var outcome driven.InsertOutcome
	for i := range docs {
		if err := ctx.Err(); err != nil {
			outcome.Failed += len(docs) - i
			return outcome, err
		}

		if err := s.insertOne(ctx, &docs[i]); err != nil {
			logger.Warn("inserting document %s: %v", docs[i].ID, err)
			outcome.Failed++
			continue
		}
		outcome.Successful++
	}
	return outcome, nil
}

// insertOne upserts one document and replaces its chunks.
func (s *documentStore) insertOne(ctx context.Context, doc *domain.Document) error {
	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, fingerprint, title, content, metadata, processed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			title = excluded.title,
			content = excluded.content,
			metadata = excluded.metadata,
			processed_at = excluded.processed_at
	`, doc.ID, doc.Fingerprint, doc.Title, doc.Text, string(metadataJSON), doc.ProcessedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}

	// Chunk counts change between runs, so stale chunks are removed
	// before the current set goes in.
	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", doc.ID); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, content, position, embedding, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range doc.Chunks {
		chunkMetadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}

		embeddingBlob := float32SliceToBytes(chunk.Embedding)

		if _, err := stmt.ExecContext(ctx, chunk.ID, doc.ID, chunk.Text,
			chunk.Position, embeddingBlob, string(chunkMetadataJSON)); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// EstimatedCount returns the exact document count; cheap enough on
// SQLite that no approximation is needed.
func (s *documentStore) EstimatedCount(ctx context.Context) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return count, nil
}

// GetDocument retrieves a stored document with its chunks.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, fingerprint, title, content, metadata, processed_at
		FROM documents WHERE id = ?
	`, id)

	var doc domain.Document
	var metadataJSON sql.NullString
	var processedAt sql.NullTime
	if err := row.Scan(&doc.ID, &doc.Fingerprint, &doc.Title, &doc.Text,
		&metadataJSON, &processedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling metadata: %w", err)
		}
	}
	if processedAt.Valid {
		doc.ProcessedAt = processedAt.Time
	}

	chunks, err := s.getChunks(ctx, id)
	if err != nil {
		return nil, err
	}
	doc.Chunks = chunks

	return &doc, nil
}

// getChunks retrieves all chunks for a document in position order.
func (s *documentStore) getChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, content, position, embedding, metadata
		FROM chunks WHERE document_id = ?
		ORDER BY position
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		var embeddingBlob []byte
		var metadataJSON sql.NullString
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Text,
			&chunk.Position, &embeddingBlob, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}

		chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
		if metadataJSON.Valid && metadataJSON.String != "" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &chunk.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshalling chunk metadata: %w", err)
			}
		}
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// Close is a no-op; the lifetime of the connection belongs to the
// parent Store.
func (s *documentStore) Close() error {
	return nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
