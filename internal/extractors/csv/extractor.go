package csv

import (
	"context"
	"encoding/csv"
	"path/filepath"
	"strings"

	"github.com/harborline/docsift/internal/core/domain"
	"github.com/harborline/docsift/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles CSV and TSV tables. Each record becomes one text
// line with cells joined by commas, so row context survives chunking.
type Extractor struct{}

// New creates a new CSV extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedFormats returns the formats this extractor handles.
func (e *Extractor) SupportedFormats() []string {
	return []string{"csv", "tsv"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50 // Format-specific, higher than plaintext
}

// Extract renders the table as plain text, one line per record.
// Malformed rows are tolerated; parsing only fails when the content
// is not a table at all.
func (e *Extractor) Extract(_ context.Context, item *domain.SourceItem) (*driven.ExtractResult, error) {
	if item == nil {
		return nil, domain.ErrInvalidInput
	}

	reader := csv.NewReader(strings.NewReader(string(item.Content)))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	if strings.EqualFold(filepath.Ext(item.Name), ".tsv") {
		reader.Comma = '\t'
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, domain.ErrInvalidInput
	}

	lines := make([]string, 0, len(records))
	for _, record := range records {
		for i, cell := range record {
			record[i] = strings.TrimSpace(cell)
		}
		lines = append(lines, strings.Join(record, ", "))
	}

	doc := domain.Document{
		Title: titleFromName(item.Name),
		Text:  strings.TrimSpace(strings.Join(lines, "\n")),
		Metadata: map[string]any{
			"format": "csv",
			"rows":   len(records),
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
