package memory

import (
	"context"
	"sync"

	"github.com/harborline/docsift/internal/core/domain"
	"github.com/harborline/docsift/internal/core/ports/driven"
)

// Ensure StateStore implements the interface.
var _ driven.StateStore = (*StateStore)(nil)

// StateStore keeps fingerprints and run history in memory.
type StateStore struct {
	mu           sync.RWMutex
	fingerprints map[string]string
	runs         []domain.SyncRunResult
}

// NewStateStore creates an empty in-memory state store.
func NewStateStore() *StateStore {
	return &StateStore{fingerprints: make(map[string]string)}
}

// LoadFingerprints returns a copy of the stored fingerprint map.
func (s *StateStore) LoadFingerprints(_ context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.fingerprints))
	for k, v := range s.fingerprints {
		out[k] = v
	}
	return out, nil
}

// SaveFingerprints replaces the stored map with the given snapshot.
func (s *StateStore) SaveFingerprints(_ context.Context, fps map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fingerprints = make(map[string]string, len(fps))
	for k, v := range fps {
		s.fingerprints[k] = v
	}
	return nil
}

// AppendRun appends one run result to the history.
func (s *StateStore) AppendRun(_ context.Context, result domain.SyncRunResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, result)
	return nil
}

// RunHistory returns the most recent runs, newest first.
func (s *StateStore) RunHistory(_ context.Context, limit int) ([]domain.SyncRunResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.runs) {
		limit = len(s.runs)
	}
	out := make([]domain.SyncRunResult, 0, limit)
	for i := len(s.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.runs[i])
	}
	return out, nil
}

// PruneRuns keeps only the newest entries.
func (s *StateStore) PruneRuns(_ context.Context, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keep >= 0 && len(s.runs) > keep {
		s.runs = append([]domain.SyncRunResult(nil), s.runs[len(s.runs)-keep:]...)
	}
	return nil
}

// Close releases resources.
func (s *StateStore) Close() error {
	return nil
}
