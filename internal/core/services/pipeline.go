package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/harborline/docsift/internal/core/domain"
	"github.com/harborline/docsift/internal/core/ports/driven"
	"github.com/harborline/docsift/internal/core/ports/driving"
	"github.com/harborline/docsift/internal/logger"
)

// Ensure Pipeline implements the interface.
var _ driving.Pipeline = (*Pipeline)(nil)

// Pipeline coordinates one sync run: fetch, change detection,
// extraction and chunking of the changed subset, batched loading, and
// the fingerprint/history commit.
//
// All cross-run state (known fingerprints, run history) is owned by
// the state store and mutated only from inside RunOnce, which is
// single-flight: at most one run is active at a time.
type Pipeline struct {
	source   driven.ContentSource
	registry driven.ExtractorRegistry
	chunks   driven.PostProcessorPipeline
	loader   *BatchLoader
	state    driven.StateStore
	settings domain.Settings

	// runMu enforces the single-flight invariant.
	runMu sync.Mutex

	statusMu sync.RWMutex
	status   driving.PipelineStatus
}

// NewPipeline creates a pipeline from its collaborators.
func NewPipeline(
	source driven.ContentSource,
	registry driven.ExtractorRegistry,
	chunks driven.PostProcessorPipeline,
	loader *BatchLoader,
	state driven.StateStore,
	settings domain.Settings,
) *Pipeline {
	settings.Normalise()
	return &Pipeline{
		source:   source,
		registry: registry,
		chunks:   chunks,
		loader:   loader,
		state:    state,
		settings: settings,
	}
}

// RunOnce executes a single sync run.
//
// Every run that starts appends exactly one SyncRunResult to history,
// success or failure. The returned error is non-nil for run-level
// failures (fetch error, store unreachable) and for
// domain.ErrSyncInProgress, which is the only case where nothing is
// recorded.
func (p *Pipeline) RunOnce(ctx context.Context) (*domain.SyncRunResult, error) {
	if !p.runMu.TryLock() {
		return nil, domain.ErrSyncInProgress
	}
	defer p.runMu.Unlock()

	start := time.Now()
	result := &domain.SyncRunResult{
		ID:      uuid.New().String(),
		Started: start,
		Status:  domain.RunSuccess,
	}

	p.setStatus(driving.PipelineStatus{Running: true})
	defer p.setStatus(driving.PipelineStatus{})

	runErr := p.run(ctx, result)
	result.Duration = time.Since(start)
	if runErr != nil {
		result.Status = domain.RunError
		result.Message = runErr.Error()
	}

	// The run is recorded whatever happened; the pipeline never
	// silently drops a run.
	if err := p.state.AppendRun(ctx, *result); err != nil {
		logger.Warn("failed to record run %s: %v", result.ID, err)
	} else if err := p.state.PruneRuns(ctx, p.settings.Sync.HistoryRetention); err != nil {
		logger.Warn("failed to prune run history: %v", err)
	}

	return result, runErr
}

// run performs the pipeline stages, filling result counts as it goes.
func (p *Pipeline) run(ctx context.Context, result *domain.SyncRunResult) error {
	known, err := p.state.LoadFingerprints(ctx)
	if err != nil {
		return fmt.Errorf("load fingerprints: %w", err)
	}

	logger.Section("Fetch")
	fetchCtx, cancel := context.WithTimeout(ctx, p.settings.Sync.FetchTimeout)
	items, err := p.source.Fetch(fetchCtx, p.fetchOptions())
	cancel()
	if err != nil {
		// No partial item set is trusted: abort the whole run.
		return fmt.Errorf("fetch: %w", err)
	}
	result.ItemsFound = len(items)

	// The fingerprint snapshot is read entirely before any parallel
	// extraction begins.
	changes, updated := Detect(items, known)
	result.NewCount = len(changes.New)
	result.ModifiedCount = len(changes.Modified)
	logger.Info("Detected %d new, %d modified, %d unchanged",
		len(changes.New), len(changes.Modified), len(changes.Unchanged))

	docs, extractErrs := p.extractAll(ctx, changes.Changed())
	result.ErrorCount += extractErrs

	logger.Section("Load")
	batch, err := p.loader.Insert(ctx, docs)
	result.Processed = batch.Successful
	result.ErrorCount += batch.Failed
	if err != nil {
		// Fingerprints are NOT committed: a crash or outage mid-run
		// must not mark changed-but-unprocessed items as known.
		return fmt.Errorf("load: %w", err)
	}

	// Commit the fingerprint snapshot only after the loader completed
	// (success or partial failure).
	if err := p.state.SaveFingerprints(ctx, updated); err != nil {
		return fmt.Errorf("save fingerprints: %w", err)
	}

	result.Message = fmt.Sprintf("processed %d of %d changed items", batch.Successful, len(docs))
	return nil
}

// extractAll converts the changed items to normalised, chunked
// documents. Extraction is CPU-bound and items are independent, so
// work is spread over a bounded worker group. Item-level failures are
// counted and skipped; they never abort the run.
func (p *Pipeline) extractAll(ctx context.Context, items []domain.SourceItem) ([]domain.Document, int) {
	if len(items) == 0 {
		return nil, 0
	}

	logger.Section("Extract")

	var (
		mu       sync.Mutex
		docs     = make([]domain.Document, 0, len(items))
		errCount int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.settings.Sync.Workers)

	for i := range items {
		item := items[i]
		g.Go(func() error {
			doc, err := p.processOne(gctx, &item, i)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errCount++
				logger.Debug("skipping %s: %v", item.Name, err)
				p.bumpStatus(0, 1)
				return nil // item-level errors are recovered locally
			}
			docs = append(docs, *doc)
			p.bumpStatus(1, 0)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	return docs, errCount
}

// processOne runs extraction and chunking for a single item. The
// position is the identifier fallback for items without an ID or name.
func (p *Pipeline) processOne(ctx context.Context, item *domain.SourceItem, position int) (*domain.Document, error) {
	res, err := p.registry.Extract(ctx, item)
	if err != nil {
		return nil, &domain.ExtractionError{Item: item.Name, Format: item.Format, Err: err}
	}

	doc := res.Document
	doc.ID = item.Identifier(position)
	doc.Fingerprint = domain.Fingerprint(item)
	doc.ProcessedAt = time.Now()

	chunks, err := p.chunks.Process(ctx, &doc)
	if err != nil {
		return nil, &domain.ExtractionError{Item: item.Name, Format: item.Format, Err: err}
	}
	doc.Chunks = chunks

	stats := doc.ComputeStats(p.settings.Sync.ChunkSize)
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]any)
	}
	doc.Metadata["filename"] = item.Name
	doc.Metadata["path"] = item.Path
	doc.Metadata["source"] = p.source.Type()
	doc.Metadata["processed_at"] = doc.ProcessedAt.UTC().Format(time.RFC3339)
	doc.Metadata["chunk_size"] = p.settings.Sync.ChunkSize
	doc.Metadata["chunk_overlap"] = p.settings.Sync.ChunkOverlap
	doc.Metadata["text_length"] = stats.TextLength
	doc.Metadata["word_count"] = stats.WordCount

	return &doc, nil
}

// Status reports a snapshot of the active run.
func (p *Pipeline) Status() driving.PipelineStatus {
	p.statusMu.RLock()
	defer p.statusMu.RUnlock()
	return p.status
}

func (p *Pipeline) setStatus(s driving.PipelineStatus) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	p.status = s
}

func (p *Pipeline) bumpStatus(processed, errs int) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	p.status.DocumentsProcessed += processed
	p.status.ErrorCount += errs
}

// fetchOptions builds fetch filters from the configured source
// settings.
func (p *Pipeline) fetchOptions() driven.FetchOptions {
	opts := driven.FetchOptions{
		PathHint: p.settings.Source.Path,
		Formats:  p.settings.Source.Formats,
		MaxItems: p.settings.Source.MaxItems,
	}
	if p.settings.Source.MaxAge > 0 {
		opts.Since = time.Now().Add(-p.settings.Source.MaxAge)
	}
	return opts
}
