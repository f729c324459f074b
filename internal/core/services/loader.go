package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harborline/docsift/internal/core/domain"
	"github.com/harborline/docsift/internal/core/ports/driven"
	"github.com/harborline/docsift/internal/logger"
)

// BatchLoader inserts documents into the store in fixed-size batches.
// Failures are isolated per batch: a failed batch marks all of its
// documents failed and the load continues with the next batch. Each
// batch runs under its own timeout, so a store hang on one batch
// cannot starve the rest. Only a total inability to reach the store
// stops the load early.
type BatchLoader struct {
	store     driven.DocumentStore
	batchSize int
	timeout   time.Duration
}

// NewBatchLoader creates a loader. Non-positive batch size or timeout
// fall back to the defaults.
func NewBatchLoader(store driven.DocumentStore, batchSize int, timeout time.Duration) *BatchLoader {
	if batchSize <= 0 {
		batchSize = domain.DefaultBatchSize
	}
	if timeout <= 0 {
		timeout = domain.DefaultInsertTimeout
	}
	return &BatchLoader{store: store, batchSize: batchSize, timeout: timeout}
}

// Insert loads all documents and returns the accumulated counts.
// Successful + Failed always equals len(docs) unless the load stopped
// early, in which case the error is non-nil and the result covers the
// batches attempted so far. Cancellation is honoured at batch
// boundaries; a batch is the atomic unit of cancellable work.
func (l *BatchLoader) Insert(ctx context.Context, docs []domain.Document) (domain.BatchResult, error) {
	var result domain.BatchResult

	for start, batchNum := 0, 1; start < len(docs); start, batchNum = start+l.batchSize, batchNum+1 {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		end := start + l.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[start:end]

		outcome, err := l.insertBatch(ctx, batch)
		if err != nil {
			if errors.Is(err, domain.ErrStoreUnavailable) {
				// The store is gone, not just this batch. Remaining
				// batches would fail the same way; report run-level.
				result.Add(0, len(batch))
				return result, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				result.Add(0, len(batch))
				return result, ctxErr
			}
			// Covers the batch running out of its own time slice too:
			// that batch fails, the load moves on.
			insErr := &domain.InsertionError{Batch: batchNum, Size: len(batch), Err: err}
			logger.Warn("%v", insErr)
			result.Add(0, len(batch))
			continue
		}

		result.Add(outcome.Successful, outcome.Failed)
		logger.Debug("batch %d: %d inserted, %d failed", batchNum, outcome.Successful, outcome.Failed)
	}

	return result, nil
}

// insertBatch runs one store call under the per-batch timeout. The
// caller's context still governs the load as a whole.
func (l *BatchLoader) insertBatch(ctx context.Context, batch []domain.Document) (driven.InsertOutcome, error) {
	batchCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	return l.store.InsertBatch(batchCtx, batch)
}
