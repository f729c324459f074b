package domain

import (
	"fmt"
	"time"
)

// SourceItem is a single unit fetched from a content source.
// It is immutable within one pipeline run and discarded after
// processing; only its fingerprint survives between runs.
type SourceItem struct {
	// ID is the source-assigned identifier. May be empty, in which
	// case the change detector derives one from the name or position.
	ID string

	// Name is the display name, typically a file name.
	Name string

	// Path is the origin path within the source (folder path, URL).
	Path string

	// Format is the normalised format hint (e.g. "pdf", "docx", "md").
	// Empty means unknown; the extractor registry falls back to a
	// permissive raw-text decode.
	Format string

	// Content is the raw fetched bytes.
	Content []byte

	// Modified is the last-modified timestamp reported by the source.
	Modified time.Time

	// Attributes contains provider-specific key/value pairs.
	Attributes map[string]string
}

// Identifier returns the stable identity used for change detection.
// Precedence: explicit ID, then name, then a positional fallback that
// is unique within one fetched batch.
func (it *SourceItem) Identifier(position int) string {
	if it.ID != "" {
		return it.ID
	}
	if it.Name != "" {
		return it.Name
	}
	return fmt.Sprintf("item-%d", position)
}

// ChangeSet partitions a fetched item set against known fingerprints.
// The three lists are disjoint and their union is the input set.
type ChangeSet struct {
	// New contains items whose identifier was not previously known.
	New []SourceItem

	// Modified contains known items whose fingerprint changed.
	Modified []SourceItem

	// Unchanged contains known items whose fingerprint matches.
	Unchanged []SourceItem
}

// Changed returns the items that need processing (new + modified),
// preserving fetch order within each partition.
func (c *ChangeSet) Changed() []SourceItem {
	out := make([]SourceItem, 0, len(c.New)+len(c.Modified))
	out = append(out, c.New...)
	out = append(out, c.Modified...)
	return out
}
