package extractors

import (
	"github.com/harborline/docsift/internal/extractors/csv"
	"github.com/harborline/docsift/internal/extractors/docx"
	"github.com/harborline/docsift/internal/extractors/html"
	"github.com/harborline/docsift/internal/extractors/markdown"
	"github.com/harborline/docsift/internal/extractors/pdf"
	"github.com/harborline/docsift/internal/extractors/plaintext"
	"github.com/harborline/docsift/internal/extractors/pptx"
	"github.com/harborline/docsift/internal/extractors/structured"
	"github.com/harborline/docsift/internal/extractors/xlsx"
)

// NewDefaultRegistry creates a registry with every built-in extractor
// registered. Plain text doubles as the fallback for unknown formats.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(csv.New())
	r.Register(structured.New())
	r.Register(docx.New())
	r.Register(pptx.New())
	r.Register(xlsx.New())
	r.Register(pdf.New())
	return r
}
