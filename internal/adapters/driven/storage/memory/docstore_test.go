package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/docsift/internal/core/domain"
)

func TestDocStore_InsertBatch(t *testing.T) {
	store := NewDocStore()
	ctx := context.Background()

	docs := []domain.Document{
		{ID: "doc-1", Title: "First", Text: "alpha"},
		{ID: "doc-2", Title: "Second", Text: "beta"},
	}

	outcome, err := store.InsertBatch(ctx, docs)
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Successful)
	assert.Zero(t, outcome.Failed)

	count, err := store.EstimatedCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDocStore_InsertBatch_Upserts(t *testing.T) {
	store := NewDocStore()
	ctx := context.Background()

	_, err := store.InsertBatch(ctx, []domain.Document{{ID: "doc-1", Title: "Original"}})
	require.NoError(t, err)

	_, err = store.InsertBatch(ctx, []domain.Document{{ID: "doc-1", Title: "Updated"}})
	require.NoError(t, err)

	count, err := store.EstimatedCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	doc, ok := store.Get("doc-1")
	require.True(t, ok)
	assert.Equal(t, "Updated", doc.Title)
}

func TestDocStore_InsertBatch_CancelledContext(t *testing.T) {
	store := NewDocStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.InsertBatch(ctx, []domain.Document{{ID: "doc-1"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDocStore_KeepsChunks(t *testing.T) {
	store := NewDocStore()

	doc := domain.Document{
		ID: "doc-1",
		Chunks: []domain.Chunk{
			{ID: "doc-1-0", DocumentID: "doc-1", Text: "first", Position: 0},
			{ID: "doc-1-1", DocumentID: "doc-1", Text: "second", Position: 1},
		},
	}

	_, err := store.InsertBatch(context.Background(), []domain.Document{doc})
	require.NoError(t, err)

	saved, ok := store.Get("doc-1")
	require.True(t, ok)
	require.Len(t, saved.Chunks, 2)
	assert.Equal(t, "doc-1-1", saved.Chunks[1].ID)
}

func TestDocStore_ConcurrentInserts(t *testing.T) {
	store := NewDocStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, _ = store.InsertBatch(ctx, []domain.Document{
				{ID: fmt.Sprintf("doc-%d", n)},
			})
			_, _ = store.EstimatedCount(ctx)
		}(i)
	}
	wg.Wait()

	count, err := store.EstimatedCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, count)
}
