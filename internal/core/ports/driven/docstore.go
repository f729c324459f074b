package driven

import (
	"context"

	"github.com/harborline/docsift/internal/core/domain"
)

// InsertOutcome reports how one batch insertion went. Successful and
// Failed sum to the batch size; no transactionality is assumed across
// batches.
type InsertOutcome struct {
	Successful int
	Failed     int
}

// DocumentStore persists normalised documents and their chunks.
// Identity is keyed off Document.ID, so inserting the same logical
// document again upserts rather than duplicating.
type DocumentStore interface {
	// InsertBatch stores one batch of documents. Per-document failures
	// are reported in the outcome, not as an error. A returned error
	// means the whole batch failed (or, when it wraps
	// domain.ErrStoreUnavailable, that the store cannot be reached at
	// all and the load should stop).
	InsertBatch(ctx context.Context, docs []domain.Document) (InsertOutcome, error)

	// EstimatedCount returns the approximate number of stored
	// documents, for diagnostics.
	EstimatedCount(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
