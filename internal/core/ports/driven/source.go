package driven

import (
	"context"
	"time"

	"github.com/harborline/docsift/internal/core/domain"
)

// FetchOptions filters a fetch from the content source.
// Zero values mean "no filter".
type FetchOptions struct {
	// PathHint selects a folder or library within the source.
	PathHint string

	// Formats restricts results to these normalised formats.
	Formats []string

	// Since excludes items not modified after this time.
	Since time.Time

	// MaxItems caps how many items are returned.
	MaxItems int
}

// ContentSource fetches items from an external content system.
// Implementations must distinguish authentication, not-found and
// permission failures via domain.FetchError so callers can surface
// accurate diagnostics.
type ContentSource interface {
	// Type returns the source type identifier (e.g. "filesystem").
	Type() string

	// Validate performs a lightweight connectivity and credential
	// check. Returns nil if the source is ready to fetch.
	Validate(ctx context.Context) error

	// Fetch returns the items matching the options. A returned error
	// aborts the whole run; no partial item list is trusted.
	Fetch(ctx context.Context, opts FetchOptions) ([]domain.SourceItem, error)

	// Close releases resources.
	Close() error
}

// WatchingSource is implemented by sources that can signal changes as
// they happen. Each receive on the channel is a hint that content may
// have changed; the pipeline still runs full change detection.
type WatchingSource interface {
	Watch(ctx context.Context) (<-chan struct{}, error)
}
