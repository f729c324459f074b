package driven

import (
	"context"

	"github.com/harborline/docsift/internal/core/domain"
)

// Extractor converts a source item's raw bytes into plain text.
// Each extractor handles specific formats (e.g. PDF, DOCX).
// Extraction must be total: it either returns text or a typed
// extraction failure, and it performs no network or storage I/O.
type Extractor interface {
	// SupportedFormats returns the normalised format names this
	// extractor handles (e.g. "pdf", "docx", "md").
	SupportedFormats() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific extractors should return 50-89.
	// Fallback extractors should return 1-9.
	Priority() int

	// Extract produces the document title, text and format metadata
	// for an item. Imperfect extraction is preferred over failure: a
	// page or section that cannot be decoded contributes an empty
	// string while the rest is kept.
	Extract(ctx context.Context, item *domain.SourceItem) (*ExtractResult, error)
}

// ExtractResult is the output of extraction: a document with Title,
// Text and format metadata populated. Identity, fingerprint and
// chunking are filled in by the pipeline afterwards.
type ExtractResult struct {
	Document domain.Document
}

// ExtractorRegistry selects the appropriate extractor for an item by
// format, preferring higher-priority registrations and falling back
// to a permissive raw-text decode for unknown formats.
type ExtractorRegistry interface {
	// Extract dispatches to the best matching extractor.
	Extract(ctx context.Context, item *domain.SourceItem) (*ExtractResult, error)

	// Register adds an extractor to the registry.
	Register(e Extractor)

	// SupportedFormats returns all formats that can be extracted.
	SupportedFormats() []string
}
