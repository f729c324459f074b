package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSyncInProgress indicates a run was requested while one is
	// already active. Requests are rejected, not queued indefinitely.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrUnsupportedFormat indicates no extractor handles the format.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrStoreUnavailable indicates the document store cannot be
	// reached at all. Unlike a single failed batch, this aborts the
	// remainder of the load.
	ErrStoreUnavailable = errors.New("document store unavailable")
)

// FetchErrorKind distinguishes content source failures for
// user-facing diagnostics.
type FetchErrorKind int

const (
	// FetchUnreachable covers network failures and unexpected errors.
	FetchUnreachable FetchErrorKind = iota

	// FetchAuthFailed means the source rejected the credentials.
	FetchAuthFailed

	// FetchNotFound means the requested path or site does not exist.
	FetchNotFound

	// FetchPermissionDenied means the credentials lack access.
	FetchPermissionDenied
)

func (k FetchErrorKind) String() string {
	switch k {
	case FetchAuthFailed:
		return "authentication failed"
	case FetchNotFound:
		return "not found"
	case FetchPermissionDenied:
		return "permission denied"
	default:
		return "unreachable"
	}
}

// FetchError is a run-level failure fetching from the content source.
// It aborts the run; no partial item set is trusted.
type FetchError struct {
	Kind   FetchErrorKind
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch from %s: %s: %v", e.Source, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ExtractionError is a single-item failure converting raw bytes to
// text. The item is skipped and counted; the run continues.
type ExtractionError struct {
	Item   string
	Format string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s (%s): %v", e.Item, e.Format, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// InsertionError is a batch-level storage failure. Every document in
// the batch is counted as failed and the load continues with the next
// batch.
type InsertionError struct {
	Batch int
	Size  int
	Err   error
}

func (e *InsertionError) Error() string {
	return fmt.Sprintf("insert batch %d (%d documents): %v", e.Batch, e.Size, e.Err)
}

func (e *InsertionError) Unwrap() error { return e.Err }
