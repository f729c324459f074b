package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/docsift/internal/core/domain"
	"github.com/harborline/docsift/internal/core/ports/driven"
)

// mockSource implements driven.ContentSource for testing.
type mockSource struct {
	items    []domain.SourceItem
	fetchErr error
	block    chan struct{} // when non-nil, Fetch waits for a close
}

func (m *mockSource) Type() string                   { return "mock" }
func (m *mockSource) Validate(context.Context) error { return nil }
func (m *mockSource) Close() error                   { return nil }

func (m *mockSource) Fetch(ctx context.Context, _ driven.FetchOptions) ([]domain.SourceItem, error) {
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.items, nil
}

// mockRegistry returns the item content as document text, failing for
// names listed in failFor.
type mockRegistry struct {
	failFor map[string]bool
}

func (m *mockRegistry) Extract(_ context.Context, item *domain.SourceItem) (*driven.ExtractResult, error) {
	if m.failFor[item.Name] {
		return nil, domain.ErrUnsupportedFormat
	}
	return &driven.ExtractResult{Document: domain.Document{
		Title: item.Name,
		Text:  string(item.Content),
	}}, nil
}

func (m *mockRegistry) Register(driven.Extractor)  {}
func (m *mockRegistry) SupportedFormats() []string { return []string{"txt"} }

// mockChunkPipeline splits on spaces, one chunk per word.
type mockChunkPipeline struct{}

func (mockChunkPipeline) Process(_ context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	words := strings.Fields(doc.Text)
	chunks := make([]domain.Chunk, len(words))
	for i, w := range words {
		chunks[i] = domain.Chunk{
			ID:         fmt.Sprintf("%s-%d", doc.ID, i),
			DocumentID: doc.ID,
			Text:       w,
			Position:   i,
		}
	}
	return chunks, nil
}

// mockStateStore keeps fingerprints and history in memory.
type mockStateStore struct {
	mu           sync.Mutex
	fingerprints map[string]string
	history      []domain.SyncRunResult
	saveCalls    int
	pruneCalls   int
}

func newMockStateStore() *mockStateStore {
	return &mockStateStore{fingerprints: make(map[string]string)}
}

func (m *mockStateStore) LoadFingerprints(context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.fingerprints))
	for k, v := range m.fingerprints {
		out[k] = v
	}
	return out, nil
}

func (m *mockStateStore) SaveFingerprints(_ context.Context, fps map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fingerprints = fps
	m.saveCalls++
	return nil
}

func (m *mockStateStore) AppendRun(_ context.Context, result domain.SyncRunResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, result)
	return nil
}

func (m *mockStateStore) RunHistory(_ context.Context, limit int) ([]domain.SyncRunResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > len(m.history) {
		limit = len(m.history)
	}
	out := make([]domain.SyncRunResult, 0, limit)
	for i := len(m.history) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.history[i])
	}
	return out, nil
}

func (m *mockStateStore) PruneRuns(_ context.Context, keep int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneCalls++
	if len(m.history) > keep {
		m.history = m.history[len(m.history)-keep:]
	}
	return nil
}

func (m *mockStateStore) Close() error { return nil }

func newTestPipeline(source *mockSource, store *mockDocStore, state *mockStateStore) *Pipeline {
	return newTestPipelineWith(source, store, state, &mockRegistry{})
}

func newTestPipelineWith(source *mockSource, store *mockDocStore, state *mockStateStore, reg driven.ExtractorRegistry) *Pipeline {
	settings := domain.DefaultSettings()
	settings.Sync.BatchSize = 2
	settings.Sync.Workers = 2
	return NewPipeline(source, reg, mockChunkPipeline{}, NewBatchLoader(store, 2, 0), state, settings)
}

func TestPipeline_RunOnceSuccess(t *testing.T) {
	source := &mockSource{items: makeItems(3)}
	store := newMockDocStore()
	state := newMockStateStore()
	p := newTestPipeline(source, store, state)

	result, err := p.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.RunSuccess, result.Status)
	assert.Equal(t, 3, result.ItemsFound)
	assert.Equal(t, 3, result.NewCount)
	assert.Equal(t, 0, result.ModifiedCount)
	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 0, result.ErrorCount)
	assert.NotEmpty(t, result.ID)

	assert.Len(t, state.fingerprints, 3)
	require.Len(t, state.history, 1)
	assert.Equal(t, result.ID, state.history[0].ID)
}

func TestPipeline_SecondRunSkipsUnchanged(t *testing.T) {
	source := &mockSource{items: makeItems(3)}
	store := newMockDocStore()
	state := newMockStateStore()
	p := newTestPipeline(source, store, state)

	_, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	inserted := len(store.batches)

	result, err := p.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.NewCount)
	assert.Equal(t, 0, result.ModifiedCount)
	assert.Equal(t, 0, result.Processed)
	assert.Len(t, store.batches, inserted, "unchanged items must not be re-inserted")
}

func TestPipeline_ModifiedItemReprocessed(t *testing.T) {
	items := makeItems(2)
	source := &mockSource{items: items}
	store := newMockDocStore()
	state := newMockStateStore()
	p := newTestPipeline(source, store, state)

	_, err := p.RunOnce(context.Background())
	require.NoError(t, err)

	items[0].Modified = items[0].Modified.Add(time.Hour)
	source.items = items

	result, err := p.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.ModifiedCount)
	assert.Equal(t, 1, result.Processed)
}

func TestPipeline_SingleFlight(t *testing.T) {
	block := make(chan struct{})
	source := &mockSource{items: makeItems(1), block: block}
	p := newTestPipeline(source, newMockDocStore(), newMockStateStore())

	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		close(started)
		_, _ = p.RunOnce(context.Background())
		close(done)
	}()
	<-started
	// Wait for the goroutine to take the run lock and reach Fetch.
	require.Eventually(t, func() bool { return p.Status().Running }, time.Second, time.Millisecond)

	_, err := p.RunOnce(context.Background())
	assert.ErrorIs(t, err, domain.ErrSyncInProgress)

	close(block)
	<-done

	// With the first run finished, a new run is accepted again.
	_, err = p.RunOnce(context.Background())
	assert.NoError(t, err)
}

func TestPipeline_FetchErrorRecordedNotCommitted(t *testing.T) {
	source := &mockSource{fetchErr: &domain.FetchError{
		Kind: domain.FetchAuthFailed, Source: "mock", Err: errors.New("401"),
	}}
	state := newMockStateStore()
	p := newTestPipeline(source, newMockDocStore(), state)

	result, err := p.RunOnce(context.Background())
	require.Error(t, err)

	assert.Equal(t, domain.RunError, result.Status)
	assert.NotEmpty(t, result.Message)
	assert.Equal(t, 0, state.saveCalls, "fingerprints must not be saved on a failed fetch")
	require.Len(t, state.history, 1, "failed runs are still recorded")
	assert.Equal(t, domain.RunError, state.history[0].Status)
}

func TestPipeline_StoreUnavailableKeepsFingerprintsUncommitted(t *testing.T) {
	source := &mockSource{items: makeItems(2)}
	store := newMockDocStore()
	store.unavailable = true
	state := newMockStateStore()
	p := newTestPipeline(source, store, state)

	result, err := p.RunOnce(context.Background())

	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Equal(t, domain.RunError, result.Status)
	assert.Equal(t, 0, state.saveCalls)

	// The next run sees no committed state and retries everything.
	store.unavailable = false
	retry, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, retry.NewCount)
	assert.Equal(t, 2, retry.Processed)
}

func TestPipeline_SlowBatchTimesOutAlone(t *testing.T) {
	source := &mockSource{items: makeItems(3)}
	store := newMockDocStore()
	store.hangBatches[1] = true
	state := newMockStateStore()

	settings := domain.DefaultSettings()
	settings.Sync.BatchSize = 1
	settings.Sync.Workers = 2
	settings.Sync.InsertTimeout = 50 * time.Millisecond
	loader := NewBatchLoader(store, settings.Sync.BatchSize, settings.Sync.InsertTimeout)
	p := NewPipeline(source, &mockRegistry{}, mockChunkPipeline{}, loader, state, settings)

	result, err := p.RunOnce(context.Background())
	require.NoError(t, err)

	// The hung batch counts as failed; the rest of the run completes.
	assert.Equal(t, domain.RunSuccess, result.Status)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.ErrorCount)
	assert.Len(t, store.batches, 3)
	assert.Equal(t, 1, state.saveCalls, "a partial load still commits fingerprints")
}

func TestPipeline_ExtractionFailureIsolated(t *testing.T) {
	items := makeItems(3)
	source := &mockSource{items: items}
	store := newMockDocStore()
	state := newMockStateStore()
	reg := &mockRegistry{failFor: map[string]bool{items[1].Name: true}}
	p := newTestPipelineWith(source, store, state, reg)

	result, err := p.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.RunSuccess, result.Status)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.ErrorCount)
}

func TestPipeline_HistoryPruned(t *testing.T) {
	source := &mockSource{items: makeItems(1)}
	state := newMockStateStore()
	p := newTestPipeline(source, newMockDocStore(), state)

	for i := 0; i < 3; i++ {
		_, err := p.RunOnce(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, 3, state.pruneCalls)
	assert.Len(t, state.history, 3)
}

func TestPipeline_StatusIdleBetweenRuns(t *testing.T) {
	p := newTestPipeline(&mockSource{}, newMockDocStore(), newMockStateStore())

	assert.False(t, p.Status().Running)
	_, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, p.Status().Running)
}
