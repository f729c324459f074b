package domain

import "time"

// Document is the normalised unit stored after extraction.
// One Document is produced per changed SourceItem; chunking happens
// before storage and the resulting chunks travel with the document.
type Document struct {
	// ID is the source item identifier. Storage identity is keyed off
	// this value so re-running insertion upserts rather than creating
	// duplicates after a partial batch failure.
	ID string

	// Fingerprint is the identity hash of the originating item at the
	// time of processing.
	Fingerprint string

	// Title is the human-readable title.
	Title string

	// Text is the full extracted plain text before chunking.
	Text string

	// Chunks are the bounded-size segments of Text.
	Chunks []Chunk

	// Metadata contains filename, source, chunking parameters, text
	// statistics and provenance fields.
	Metadata map[string]any

	// ProcessedAt is when extraction produced this document.
	ProcessedAt time.Time
}

// Stats describes a document's text for metadata and diagnostics.
type Stats struct {
	TextLength      int
	WordCount       int
	EstimatedChunks int
}

// ComputeStats derives text statistics the way the ingestion metadata
// records them. EstimatedChunks is at least 1 for non-empty text.
func (d *Document) ComputeStats(chunkSize int) Stats {
	s := Stats{TextLength: len(d.Text)}
	inWord := false
	for _, r := range d.Text {
		if r == ' ' || r == '\n' || r == '\t' || r == '\r' {
			inWord = false
			continue
		}
		if !inWord {
			s.WordCount++
			inWord = true
		}
	}
	if chunkSize > 0 && s.TextLength > 0 {
		s.EstimatedChunks = s.TextLength / chunkSize
		if s.EstimatedChunks < 1 {
			s.EstimatedChunks = 1
		}
	}
	return s
}

// Chunk is a bounded-size text segment with optional overlap carried
// from the preceding chunk.
type Chunk struct {
	// ID is derived from the document ID and position, keeping chunk
	// identity stable across re-runs of the same document.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Text is the chunk content.
	Text string

	// Position is the ordinal position within the document.
	Position int

	// Embedding is an optional vector representation, populated by a
	// downstream stage. Nil when embedding is not configured.
	Embedding []float32

	// Metadata contains chunk-specific key/value pairs.
	Metadata map[string]any
}
