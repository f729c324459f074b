package structured

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/harborline/docsift/internal/core/domain"
	"github.com/harborline/docsift/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles JSON and XML documents. JSON is flattened to
// "path: value" lines; XML is reduced to its character data. Both
// renderings keep the values searchable without the markup noise.
type Extractor struct{}

// New creates a new structured data extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedFormats returns the formats this extractor handles.
func (e *Extractor) SupportedFormats() []string {
	return []string{"json", "xml"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50 // Format-specific, higher than plaintext
}

// Extract renders the structured content as plain text.
func (e *Extractor) Extract(_ context.Context, item *domain.SourceItem) (*driven.ExtractResult, error) {
	if item == nil {
		return nil, domain.ErrInvalidInput
	}

	var (
		text   string
		format string
		err    error
	)
	if looksLikeXML(item) {
		format = "xml"
		text, err = flattenXML(item.Content)
	} else {
		format = "json"
		text, err = flattenJSON(item.Content)
	}
	if err != nil {
		return nil, domain.ErrInvalidInput
	}

	doc := domain.Document{
		Title: titleFromName(item.Name),
		Text:  text,
		Metadata: map[string]any{
			"format": format,
		},
	}

	return &driven.ExtractResult{Document: doc}, nil
}

// looksLikeXML decides between the two renderings, preferring the
// declared format and falling back to the filename, then to sniffing.
func looksLikeXML(item *domain.SourceItem) bool {
	format := strings.ToLower(item.Format)
	if format == "" {
		format = strings.ToLower(strings.TrimPrefix(filepath.Ext(item.Name), "."))
	}
	switch format {
	case "xml":
		return true
	case "json":
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(string(item.Content)), "<")
}

// flattenJSON renders a JSON value as sorted "path: value" lines.
func flattenJSON(content []byte) (string, error) {
	var value any
	if err := json.Unmarshal(content, &value); err != nil {
		return "", err
	}

	var lines []string
	walkJSON("", value, &lines)
	return strings.Join(lines, "\n"), nil
}

func walkJSON(path string, value any, lines *[]string) {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walkJSON(joinPath(path, k), v[k], lines)
		}
	case []any:
		for i, elem := range v {
			walkJSON(fmt.Sprintf("%s[%d]", path, i), elem, lines)
		}
	case nil:
		*lines = append(*lines, fmt.Sprintf("%s: null", path))
	default:
		*lines = append(*lines, fmt.Sprintf("%s: %v", path, v))
	}
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// flattenXML collects the character data of the document, one line
// per text node.
func flattenXML(content []byte) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(string(content)))
	decoder.Strict = false

	var lines []string
	for {
		token, err := decoder.Token()
		if token == nil {
			break
		}
		if err != nil {
			return "", err
		}
		if chars, ok := token.(xml.CharData); ok {
			if text := strings.TrimSpace(string(chars)); text != "" {
				lines = append(lines, text)
			}
		}
	}
	return strings.Join(lines, "\n"), nil
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
