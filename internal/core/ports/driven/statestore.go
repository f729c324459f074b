package driven

import (
	"context"

	"github.com/harborline/docsift/internal/core/domain"
)

// StateStore persists the cross-run pipeline state: the known
// fingerprint map and the capped run history. If the backing store is
// not durable, the documented behaviour on restart is that the first
// run treats all items as new.
//
// All mutation goes through the scheduler's run loop; implementations
// only need to be safe for the occasional concurrent read (status
// queries while a run is active).
type StateStore interface {
	// LoadFingerprints returns the identifier -> fingerprint map from
	// the last committed run. An empty map means no prior state.
	LoadFingerprints(ctx context.Context) (map[string]string, error)

	// SaveFingerprints replaces the persisted map with the snapshot of
	// the current run. Called only after the batch loader completes.
	SaveFingerprints(ctx context.Context, fps map[string]string) error

	// AppendRun appends one run result to the history.
	AppendRun(ctx context.Context, result domain.SyncRunResult) error

	// RunHistory returns the most recent results, newest first.
	RunHistory(ctx context.Context, limit int) ([]domain.SyncRunResult, error)

	// PruneRuns evicts the oldest entries beyond the retention size.
	PruneRuns(ctx context.Context, keep int) error

	// Close releases resources.
	Close() error
}
