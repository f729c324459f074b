package driving

import (
	"context"

	"github.com/harborline/docsift/internal/core/domain"
)

// Pipeline runs one end-to-end sync pass: fetch, detect changes,
// extract and chunk the changed subset, load into the store, commit
// fingerprints and record the run.
type Pipeline interface {
	// RunOnce executes a single sync run. It enforces the single-flight
	// invariant: if a run is already active it returns
	// domain.ErrSyncInProgress without recording anything.
	//
	// Every run that actually starts yields exactly one SyncRunResult,
	// appended to history even when the returned error is non-nil
	// (run-level failures are recorded with status error).
	RunOnce(ctx context.Context) (*domain.SyncRunResult, error)

	// Status reports whether a run is active and how far it has got.
	Status() PipelineStatus
}

// PipelineStatus is a point-in-time snapshot of a run.
type PipelineStatus struct {
	// Running indicates a run is currently active.
	Running bool

	// DocumentsProcessed is the count of documents extracted so far in
	// the active run.
	DocumentsProcessed int

	// ErrorCount is the number of item-level errors so far.
	ErrorCount int
}
