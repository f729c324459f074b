package xlsx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/harborline/docsift/internal/core/domain"
	"github.com/harborline/docsift/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles XLSX workbooks.
type Extractor struct{}

// New creates a new XLSX extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedFormats returns the formats this extractor handles.
func (e *Extractor) SupportedFormats() []string {
	return []string{"xlsx"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50 // Format-specific
}

var sheetPattern = regexp.MustCompile(`^xl/worksheets/sheet(\d+)\.xml$`)

// Extract renders every worksheet as text, one row per line with
// cells joined by commas. Shared strings are resolved; formulas
// contribute their cached values.
func (e *Extractor) Extract(_ context.Context, item *domain.SourceItem) (*driven.ExtractResult, error) {
	if item == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := zip.NewReader(bytes.NewReader(item.Content), int64(len(item.Content)))
	if err != nil {
		return nil, domain.ErrInvalidInput
	}

	shared := loadSharedStrings(reader)

	type sheet struct {
		number int
		file   *zip.File
	}
	var sheets []sheet
	for _, file := range reader.File {
		if m := sheetPattern.FindStringSubmatch(file.Name); m != nil {
			n, _ := strconv.Atoi(m[1])
			sheets = append(sheets, sheet{number: n, file: file})
		}
	}
	sort.Slice(sheets, func(i, j int) bool { return sheets[i].number < sheets[j].number })

	var parts []string
	for _, s := range sheets {
		content, err := readZipFile(s.file)
		if err != nil {
			continue
		}
		if text := sheetText(content, shared); text != "" {
			parts = append(parts, text)
		}
	}

	doc := domain.Document{
		Title: titleFromName(item.Name),
		Text:  strings.Join(parts, "\n\n"),
		Metadata: map[string]any{
			"format": "xlsx",
			"sheets": len(sheets),
		},
	}

	return &driven.ExtractResult{Document: doc}, nil
}

// sharedStringsXML represents xl/sharedStrings.xml. Entries are
// either a single <t> or a sequence of rich text runs.
type sharedStringsXML struct {
	Items []struct {
		Text string   `xml:"t"`
		Runs []string `xml:"r>t"`
	} `xml:"si"`
}

func loadSharedStrings(reader *zip.Reader) []string {
	for _, file := range reader.File {
		if file.Name != "xl/sharedStrings.xml" {
			continue
		}
		content, err := readZipFile(file)
		if err != nil {
			return nil
		}

		var sst sharedStringsXML
		if err := xml.Unmarshal(content, &sst); err != nil {
			return nil
		}

		out := make([]string, len(sst.Items))
		for i, item := range sst.Items {
			if item.Text != "" {
				out[i] = item.Text
			} else {
				out[i] = strings.Join(item.Runs, "")
			}
		}
		return out
	}
	return nil
}

// worksheetXML represents the cell grid of one sheet.
type worksheetXML struct {
	Rows []struct {
		Cells []cellXML `xml:"c"`
	} `xml:"sheetData>row"`
}

type cellXML struct {
	Type   string `xml:"t,attr"`
	Value  string `xml:"v"`
	Inline string `xml:"is>t"`
}

func sheetText(content []byte, shared []string) string {
	var ws worksheetXML
	if err := xml.Unmarshal(content, &ws); err != nil {
		return ""
	}

	lines := make([]string, 0, len(ws.Rows))
	for _, row := range ws.Rows {
		cells := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			if value := cellValue(cell, shared); value != "" {
				cells = append(cells, value)
			}
		}
		if len(cells) > 0 {
			lines = append(lines, strings.Join(cells, ", "))
		}
	}
	return strings.Join(lines, "\n")
}

func cellValue(cell cellXML, shared []string) string {
	switch cell.Type {
	case "s":
		idx, err := strconv.Atoi(strings.TrimSpace(cell.Value))
		if err != nil || idx < 0 || idx >= len(shared) {
			return ""
		}
		return shared[idx]
	case "inlineStr":
		return cell.Inline
	default:
		return strings.TrimSpace(cell.Value)
	}
}

func readZipFile(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
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
