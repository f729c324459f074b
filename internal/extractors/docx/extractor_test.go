package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/docsift/internal/core/domain"
)

// buildDocx assembles a minimal DOCX archive in memory.
func buildDocx(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

const documentWithParagraphs = `<?xml version="1.0"?>
<document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <body>
    <p><r><t>First paragraph.</t></r></p>
    <p><r><t>Second </t></r><r><t>paragraph.</t></r></p>
  </body>
</document>`

const documentWithTable = `<?xml version="1.0"?>
<document>
  <body>
    <p><r><t>Intro.</t></r></p>
    <tbl>
      <tr><tc><p><r><t>Name</t></r></p></tc><tc><p><r><t>Role</t></r></p></tc></tr>
      <tr><tc><p><r><t>Ada</t></r></p></tc><tc><p><r><t>Engineer</t></r></p></tc></tr>
    </tbl>
  </body>
</document>`

func TestExtract_Paragraphs(t *testing.T) {
	content := buildDocx(t, map[string]string{
		"word/document.xml": documentWithParagraphs,
	})

	res, err := New().Extract(context.Background(), &domain.SourceItem{
		Name:    "report.docx",
		Content: content,
	})
	require.NoError(t, err)

	assert.Equal(t, "First paragraph.\nSecond paragraph.", res.Document.Text)
	assert.Equal(t, "report", res.Document.Title)
	assert.Equal(t, "docx", res.Document.Metadata["format"])
}

func TestExtract_TableRows(t *testing.T) {
	content := buildDocx(t, map[string]string{
		"word/document.xml": documentWithTable,
	})

	res, err := New().Extract(context.Background(), &domain.SourceItem{
		Name:    "table.docx",
		Content: content,
	})
	require.NoError(t, err)

	assert.Contains(t, res.Document.Text, "Intro.")
	assert.Contains(t, res.Document.Text, "Name | Role")
	assert.Contains(t, res.Document.Text, "Ada | Engineer")
}

func TestExtract_TitleFromCoreProperties(t *testing.T) {
	content := buildDocx(t, map[string]string{
		"word/document.xml": documentWithParagraphs,
		"docProps/core.xml": `<coreProperties><title>Annual Review</title></coreProperties>`,
	})

	res, err := New().Extract(context.Background(), &domain.SourceItem{
		Name:    "whatever.docx",
		Content: content,
	})
	require.NoError(t, err)

	assert.Equal(t, "Annual Review", res.Document.Title)
}

func TestExtract_NotAZip(t *testing.T) {
	_, err := New().Extract(context.Background(), &domain.SourceItem{
		Name:    "fake.docx",
		Content: []byte("plain text pretending"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExtract_NilItem(t *testing.T) {
	_, err := New().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
