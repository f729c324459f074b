package extractors

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/harborline/docsift/internal/core/domain"
	"github.com/harborline/docsift/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// fallbackBand is the priority ceiling for fallback extractors.
// An extractor below this priority also serves unknown formats.
const fallbackBand = 10

// Registry dispatches extraction by format. For each format the
// highest-priority registration wins; items whose format nothing
// claims go to the best fallback extractor.
type Registry struct {
	mu       sync.RWMutex
	byFormat map[string]driven.Extractor
	fallback driven.Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byFormat: make(map[string]driven.Extractor)}
}

// Register adds an extractor. Later registrations with a higher
// priority displace earlier ones for the formats they share.
func (r *Registry) Register(e driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, format := range e.SupportedFormats() {
		format = normaliseFormat(format)
		if cur, ok := r.byFormat[format]; !ok || e.Priority() > cur.Priority() {
			r.byFormat[format] = e
		}
	}
	if e.Priority() < fallbackBand {
		if r.fallback == nil || e.Priority() > r.fallback.Priority() {
			r.fallback = e
		}
	}
}

// Extract dispatches the item to the best matching extractor. The
// format comes from the item when the source set one, otherwise from
// the filename extension.
func (r *Registry) Extract(ctx context.Context, item *domain.SourceItem) (*driven.ExtractResult, error) {
	if item == nil {
		return nil, domain.ErrInvalidInput
	}

	format := normaliseFormat(item.Format)
	if format == "" {
		format = DetectFormat(item.Name)
	}

	r.mu.RLock()
	e, ok := r.byFormat[format]
	if !ok {
		e = r.fallback
	}
	r.mu.RUnlock()

	if e == nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}
	return e.Extract(ctx, item)
}

// SupportedFormats returns all registered formats, sorted.
func (r *Registry) SupportedFormats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]string, 0, len(r.byFormat))
	for f := range r.byFormat {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}

// DetectFormat derives the normalised format name from a filename.
// Returns "" when the name has no usable extension.
func DetectFormat(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	return normaliseFormat(ext)
}

// normaliseFormat folds aliases onto canonical format names.
func normaliseFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(format, ".")))
	switch format {
	case "markdown":
		return "md"
	case "htm", "xhtml":
		return "html"
	case "text", "log":
		return "txt"
	case "yml":
		return "yaml"
	default:
		return format
	}
}
