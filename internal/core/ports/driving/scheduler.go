package driving

import (
	"context"

	"github.com/harborline/docsift/internal/core/domain"
)

// Scheduler drives recurring pipeline runs on an interval.
type Scheduler interface {
	// Start begins the scheduler loop and blocks until the context is
	// cancelled or Stop is called. The first run is immediately due
	// when there is no recorded prior run.
	Start(ctx context.Context) error

	// Stop gracefully shuts down, waiting for an active run to finish.
	Stop() error

	// TriggerNow requests a run regardless of the timer. Requests made
	// while a run is active are coalesced into at most one pending run.
	TriggerNow() error

	// Results streams one SyncRunResult per completed run.
	Results() <-chan domain.SyncRunResult
}
