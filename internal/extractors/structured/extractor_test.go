package structured

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/docsift/internal/core/domain"
)

func extract(t *testing.T, name, content string) domain.Document {
	t.Helper()
	res, err := New().Extract(context.Background(), &domain.SourceItem{
		Name:    name,
		Content: []byte(content),
	})
	require.NoError(t, err)
	return res.Document
}

func TestExtract_JSONFlattened(t *testing.T) {
	content := `{"title": "Notes", "tags": ["a", "b"], "meta": {"pages": 3}}`

	doc := extract(t, "notes.json", content)

	assert.Equal(t, "json", doc.Metadata["format"])
	assert.Contains(t, doc.Text, "title: Notes")
	assert.Contains(t, doc.Text, "tags[0]: a")
	assert.Contains(t, doc.Text, "tags[1]: b")
	assert.Contains(t, doc.Text, "meta.pages: 3")
}

func TestExtract_JSONKeysSorted(t *testing.T) {
	doc := extract(t, "x.json", `{"z": 1, "a": 2}`)
	assert.Equal(t, "a: 2\nz: 1", doc.Text)
}

func TestExtract_XMLCharDataKept(t *testing.T) {
	content := `<note><to>Ada</to><body>Remember the demo.</body></note>`

	doc := extract(t, "note.xml", content)

	assert.Equal(t, "xml", doc.Metadata["format"])
	assert.Contains(t, doc.Text, "Ada")
	assert.Contains(t, doc.Text, "Remember the demo.")
	assert.NotContains(t, doc.Text, "<note>")
}

func TestExtract_SniffsWhenExtensionMissing(t *testing.T) {
	doc := extract(t, "payload", `<root><v>x</v></root>`)
	assert.Equal(t, "xml", doc.Metadata["format"])
}

func TestExtract_MalformedJSONRejected(t *testing.T) {
	_, err := New().Extract(context.Background(), &domain.SourceItem{
		Name:    "broken.json",
		Content: []byte(`{"unterminated": `),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExtract_NilItem(t *testing.T) {
	_, err := New().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
