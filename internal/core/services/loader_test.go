package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/docsift/internal/core/domain"
	"github.com/harborline/docsift/internal/core/ports/driven"
)

// mockDocStore implements driven.DocumentStore for testing.
type mockDocStore struct {
	mu          sync.Mutex
	batches     [][]domain.Document
	failBatches map[int]error // 1-based batch number -> error
	hangBatches map[int]bool  // 1-based batch number -> block until ctx done
	unavailable bool
	count       int
}

func newMockDocStore() *mockDocStore {
	return &mockDocStore{
		failBatches: make(map[int]error),
		hangBatches: make(map[int]bool),
	}
}

func (m *mockDocStore) InsertBatch(ctx context.Context, docs []domain.Document) (driven.InsertOutcome, error) {
	m.mu.Lock()
	if m.unavailable {
		m.mu.Unlock()
		return driven.InsertOutcome{}, fmt.Errorf("%w: connection refused", domain.ErrStoreUnavailable)
	}

	batchNum := len(m.batches) + 1
	m.batches = append(m.batches, docs)
	hang := m.hangBatches[batchNum]
	failErr := m.failBatches[batchNum]
	m.mu.Unlock()

	if hang {
		<-ctx.Done()
		return driven.InsertOutcome{}, ctx.Err()
	}
	if failErr != nil {
		return driven.InsertOutcome{}, failErr
	}

	m.mu.Lock()
	m.count += len(docs)
	m.mu.Unlock()
	return driven.InsertOutcome{Successful: len(docs)}, nil
}

func (m *mockDocStore) EstimatedCount(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count, nil
}

func (m *mockDocStore) Close() error { return nil }

func makeDocs(n int) []domain.Document {
	docs := make([]domain.Document, n)
	for i := range docs {
		docs[i] = domain.Document{ID: fmt.Sprintf("doc-%d", i), Text: "text"}
	}
	return docs
}

func TestBatchLoader_AllSucceed(t *testing.T) {
	store := newMockDocStore()
	loader := NewBatchLoader(store, 2, 0)

	result, err := loader.Insert(context.Background(), makeDocs(5))
	require.NoError(t, err)

	assert.Equal(t, 5, result.Successful)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 5, result.Total)
	assert.Len(t, store.batches, 3)
}

func TestBatchLoader_FailedBatchIsIsolated(t *testing.T) {
	store := newMockDocStore()
	store.failBatches[2] = errors.New("simulated store error")
	loader := NewBatchLoader(store, 2, 0)

	result, err := loader.Insert(context.Background(), makeDocs(5))
	require.NoError(t, err)

	// Batch 2 (docs 2-3) fails wholesale; batches 1 and 3 proceed.
	assert.Equal(t, 3, result.Successful)
	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, 5, result.Total)
	assert.Len(t, store.batches, 3, "later batches must not be skipped")
}

func TestBatchLoader_CountsAlwaysSum(t *testing.T) {
	store := newMockDocStore()
	store.failBatches[1] = errors.New("boom")
	store.failBatches[3] = errors.New("boom")
	loader := NewBatchLoader(store, 3, 0)

	docs := makeDocs(8)
	result, err := loader.Insert(context.Background(), docs)
	require.NoError(t, err)

	assert.Equal(t, len(docs), result.Total)
	assert.Equal(t, result.Total, result.Successful+result.Failed)
}

func TestBatchLoader_StoreUnavailableStopsEarly(t *testing.T) {
	store := newMockDocStore()
	store.unavailable = true
	loader := NewBatchLoader(store, 2, 0)

	result, err := loader.Insert(context.Background(), makeDocs(6))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	// Only the first batch was attempted before giving up.
	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, 0, result.Successful)
}

func TestBatchLoader_CancelledBetweenBatches(t *testing.T) {
	store := newMockDocStore()
	loader := NewBatchLoader(store, 2, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := loader.Insert(ctx, makeDocs(4))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, result.Total)
	assert.Empty(t, store.batches)
}

func TestBatchLoader_EmptyInput(t *testing.T) {
	loader := NewBatchLoader(newMockDocStore(), 2, 0)

	result, err := loader.Insert(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.BatchResult{}, result)
}

func TestBatchLoader_SlowBatchTimesOutAlone(t *testing.T) {
	store := newMockDocStore()
	store.hangBatches[1] = true
	loader := NewBatchLoader(store, 1, 20*time.Millisecond)

	result, err := loader.Insert(context.Background(), makeDocs(3))
	require.NoError(t, err)

	// Batch 1 exhausts its time slice; batches 2 and 3 still run.
	assert.Equal(t, 2, result.Successful)
	assert.Equal(t, 1, result.Failed)
	assert.Len(t, store.batches, 3, "a hung batch must not block the rest of the load")
}

func TestBatchLoader_CallerDeadlineStopsLoad(t *testing.T) {
	store := newMockDocStore()
	store.hangBatches[1] = true
	loader := NewBatchLoader(store, 1, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	result, err := loader.Insert(ctx, makeDocs(3))

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, result.Successful)
	assert.Equal(t, 1, result.Failed)
	assert.Len(t, store.batches, 1, "caller cancellation stops the load early")
}

func TestNewBatchLoader_DefaultBatchSize(t *testing.T) {
	loader := NewBatchLoader(newMockDocStore(), 0, 0)
	assert.Equal(t, domain.DefaultBatchSize, loader.batchSize)
	assert.Equal(t, domain.DefaultInsertTimeout, loader.timeout)
}
