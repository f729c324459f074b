// Package chunker provides a recursive character text chunking
// processor. Text is split along a cascade of separators, trying the
// strongest boundary first: paragraph breaks, then line breaks, then
// sentence ends, then words, and only as a last resort a fixed
// character window.
package chunker

import (
	"context"
	"fmt"
	"strings"

	"github.com/harborline/docsift/internal/core/domain"
	"github.com/harborline/docsift/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// separators is the boundary cascade, strongest first. The empty
// string means "split anywhere".
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Processor splits document text into overlapping chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: domain.DefaultChunkSize,
		overlap:   domain.DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Overlap must stay below chunk size or splitting cannot advance.
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document text into chunks. Input chunks are
// ignored; this processor creates chunks from the document text.
// Chunk IDs derive from the document ID and position, so re-chunking
// the same document yields the same IDs and upserts cleanly.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}
	if strings.TrimSpace(doc.Text) == "" {
		return nil, nil
	}

	pieces := Split(doc.Text, p.chunkSize, p.overlap)

	chunks := make([]domain.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, domain.Chunk{
			ID:         fmt.Sprintf("%s-%d", doc.ID, i),
			DocumentID: doc.ID,
			Text:       piece,
			Position:   i,
			Metadata:   make(map[string]any),
		})
	}

	return chunks, nil
}

// Split divides text into pieces of at most size characters, adjacent
// pieces sharing up to overlap characters. Boundaries prefer the
// strongest separator present; text without any separator is cut at
// fixed windows.
func Split(text string, size, overlap int) []string {
	if size <= 0 {
		size = domain.DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 4
	}
	if text == "" {
		return nil
	}
	return split(text, size, overlap, separators)
}

func split(text string, size, overlap int, seps []string) []string {
	if len(text) <= size {
		return []string{text}
	}

	// Pick the strongest separator that actually occurs.
	sep := ""
	var rest []string
	for i, s := range seps {
		if s == "" {
			break
		}
		if strings.Contains(text, s) {
			sep, rest = s, seps[i+1:]
			break
		}
	}
	if sep == "" {
		return hardWalk(text, size, overlap)
	}

	// SplitAfter keeps the separator on the preceding piece, so the
	// concatenation of all pieces is the original text.
	var parts []string
	for _, piece := range strings.SplitAfter(text, sep) {
		if len(piece) > size {
			parts = append(parts, split(piece, size, overlap, rest)...)
		} else {
			parts = append(parts, piece)
		}
	}

	return merge(parts, size, overlap)
}

// merge greedily packs parts into chunks of at most size characters,
// seeding each new chunk with the tail of the previous one.
func merge(parts []string, size, overlap int) []string {
	var (
		chunks  []string
		cur     strings.Builder
		seedLen int
	)

	for _, part := range parts {
		if cur.Len() > seedLen && cur.Len()+len(part) > size {
			chunk := cur.String()
			chunks = append(chunks, chunk)
			cur.Reset()

			seed := chunk
			if len(seed) > overlap {
				seed = seed[len(seed)-overlap:]
			}
			if overlap > 0 && len(seed)+len(part) <= size {
				cur.WriteString(seed)
			}
			seedLen = cur.Len()
		}
		cur.WriteString(part)
	}

	if cur.Len() > seedLen {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

// hardWalk cuts text without separators at fixed windows advancing by
// size-overlap characters.
func hardWalk(text string, size, overlap int) []string {
	step := size - overlap
	var chunks []string
	for start := 0; ; start += step {
		end := start + size
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			break
		}
		chunks = append(chunks, text[start:end])
	}
	return chunks
}
