package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/harborline/docsift/internal/core/domain"
	"github.com/harborline/docsift/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// ErrPDFToolNotFound indicates pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// CommandRunner executes an external command and returns its output.
// Abstracted for testing.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands via os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Extractor handles PDF documents by shelling out to pdftotext from
// poppler-utils. PDF parsing is not reimplemented in-process; the
// tool must be installed.
type Extractor struct {
	runner CommandRunner
}

// New creates a new PDF extractor using the system pdftotext.
func New() *Extractor {
	return &Extractor{runner: execRunner{}}
}

// NewWithRunner creates a PDF extractor with a custom command runner.
func NewWithRunner(runner CommandRunner) *Extractor {
	return &Extractor{runner: runner}
}

// InstallInstructions returns platform hints for installing pdftotext.
func InstallInstructions() string {
	return "pdftotext is required for PDF extraction.\n" +
		"  macOS:  brew install poppler\n" +
		"  Debian: apt install poppler-utils\n" +
		"  Fedora: dnf install poppler-utils"
}

// SupportedFormats returns the formats this extractor handles.
func (e *Extractor) SupportedFormats() []string {
	return []string{"pdf"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50 // Format-specific
}

// Extract converts the PDF to text with layout preserved. The content
// goes through a temp file because pdftotext wants a seekable input.
func (e *Extractor) Extract(ctx context.Context, item *domain.SourceItem) (*driven.ExtractResult, error) {
	if item == nil {
		return nil, domain.ErrInvalidInput
	}

	tmp, err := os.CreateTemp("", "docsift-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(item.Content); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	// "-" sends the text to stdout; -q suppresses poppler warnings.
	output, err := e.runner.Run(ctx, "pdftotext", "-layout", "-q", tmp.Name(), "-")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w\n%s", ErrPDFToolNotFound, InstallInstructions())
		}
		return nil, fmt.Errorf("pdftotext: %w", err)
	}

	text := strings.TrimSpace(string(output))

	doc := domain.Document{
		Title: extractTitle(text, item.Name),
		Text:  text,
		Metadata: map[string]any{
			"format": "pdf",
		},
	}

	return &driven.ExtractResult{Document: doc}, nil
}

// extractTitle uses the first short non-empty line of the text, or
// falls back to the filename.
func extractTitle(text, name string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && len(line) <= 200 {
			return line
		}
	}

	base := filepath.Base(name)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.ReplaceAll(base, "-", " ")
	return base
}
