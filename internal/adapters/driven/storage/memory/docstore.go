// Package memory provides in-memory storage adapters, used for tests
// and throwaway runs. State is lost on restart, which the pipeline
// tolerates: the next run simply treats every item as new.
package memory

import (
	"context"
	"sync"

	"github.com/harborline/docsift/internal/core/domain"
	"github.com/harborline/docsift/internal/core/ports/driven"
)

// Ensure DocStore implements the interface.
var _ driven.DocumentStore = (*DocStore)(nil)

// DocStore keeps documents in a map keyed by document ID.
type DocStore struct {
	mu   sync.RWMutex
	docs map[string]domain.Document
}

// NewDocStore creates a new in-memory document store.
func NewDocStore() *DocStore {
	return &DocStore{docs: make(map[string]domain.Document)}
}

// InsertBatch upserts every document in the batch. In-memory inserts
// cannot partially fail, so the outcome is all-successful.
func (s *DocStore) InsertBatch(ctx context.Context, docs []domain.Document) (driven.InsertOutcome, error) {
	if err := ctx.Err(); err != nil {
		return driven.InsertOutcome{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range docs {
		s.docs[doc.ID] = doc
	}
	return driven.InsertOutcome{Successful: len(docs)}, nil
}

// EstimatedCount returns the number of stored documents.
func (s *DocStore) EstimatedCount(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs), nil
}

// Get retrieves a stored document by ID.
func (s *DocStore) Get(id string) (domain.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	return doc, ok
}

// Close releases resources.
func (s *DocStore) Close() error {
	return nil
}
