package plaintext

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/harborline/docsift/internal/core/domain"
	"github.com/harborline/docsift/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles plain text items. It is also the fallback for
// unknown formats: extraction is permissive, replacing bytes that are
// not valid UTF-8 rather than failing.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedFormats returns the formats this extractor handles.
func (e *Extractor) SupportedFormats() []string {
	return []string{"txt", "yaml", "toml", "ini", "rst"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 5 // Fallback extractor
}

// Extract decodes the item content as text.
func (e *Extractor) Extract(_ context.Context, item *domain.SourceItem) (*driven.ExtractResult, error) {
	if item == nil {
		return nil, domain.ErrInvalidInput
	}

	text := strings.ToValidUTF8(string(item.Content), "�")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\x00", "")

	doc := domain.Document{
		Title: titleFromName(item.Name),
		Text:  strings.TrimSpace(text),
		Metadata: map[string]any{
			"format": "txt",
		},
	}

	return &driven.ExtractResult{Document: doc}, nil
}

// titleFromName derives a human-readable title from a filename.
func titleFromName(name string) string {
	base := filepath.Base(name)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.ReplaceAll(base, "-", " ")
	return base
}
