package csv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/docsift/internal/core/domain"
)

func TestExtract_RowsBecomeLines(t *testing.T) {
	content := "name,role\nada,engineer\ngrace,admiral\n"

	res, err := New().Extract(context.Background(), &domain.SourceItem{
		Name:    "staff.csv",
		Content: []byte(content),
	})
	require.NoError(t, err)

	assert.Equal(t, "staff", res.Document.Title)
	assert.Equal(t, "name, role\nada, engineer\ngrace, admiral", res.Document.Text)
	assert.Equal(t, 3, res.Document.Metadata["rows"])
}

func TestExtract_TSVUsesTabs(t *testing.T) {
	res, err := New().Extract(context.Background(), &domain.SourceItem{
		Name:    "data.tsv",
		Content: []byte("a\tb\nc\td\n"),
	})
	require.NoError(t, err)

	assert.Equal(t, "a, b\nc, d", res.Document.Text)
}

func TestExtract_RaggedRowsTolerated(t *testing.T) {
	res, err := New().Extract(context.Background(), &domain.SourceItem{
		Name:    "ragged.csv",
		Content: []byte("a,b,c\nd,e\n"),
	})
	require.NoError(t, err)
	assert.Contains(t, res.Document.Text, "d, e")
}

func TestExtract_NilItem(t *testing.T) {
	_, err := New().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
