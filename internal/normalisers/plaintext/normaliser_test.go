package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
	"github.com/custodia-labs/narrator-cli/internal/core/ports/driven"
)

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = New()
}

func TestSupportedMIMETypes(t *testing.T) {
	assert.Contains(t, New().SupportedMIMETypes(), "text/plain")
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 5, New().Priority())
}

func TestNormalise_Success(t *testing.T) {
	raw := &domain.RawDocument{
		URI:      "/books/the_long-road.txt",
		MIMEType: "text/plain",
		Content:  []byte("First paragraph.\n\nSecond paragraph."),
	}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)

	doc := result.Document
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, raw.URI, doc.URI)
	assert.Equal(t, "the long road", doc.Title)
	assert.Equal(t, "First paragraph.\n\nSecond paragraph.", doc.Content)
	assert.Equal(t, "text/plain", doc.Metadata["mime_type"])
	assert.Equal(t, "text", doc.Metadata["format"])
	assert.False(t, doc.CreatedAt.IsZero())
}

func TestNormalise_NilDocument(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestNormalise_EmptyContent(t *testing.T) {
	result, err := New().Normalise(context.Background(), &domain.RawDocument{URI: "empty.txt"})

	require.NoError(t, err)
	assert.Empty(t, result.Document.Content)
}

func TestNormalise_MetadataTitleAndCopy(t *testing.T) {
	meta := map[string]any{"title": "Uploaded Title", "author": "someone"}
	raw := &domain.RawDocument{URI: "x.txt", MIMEType: "text/plain", Metadata: meta}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "Uploaded Title", result.Document.Title)
	assert.Equal(t, "someone", result.Document.Metadata["author"])
	_, leaked := meta["format"]
	assert.False(t, leaked)
}

func TestNormalise_UnicodeContent(t *testing.T) {
	content := "Hello, 世界! Ça va? 🎧"
	result, err := New().Normalise(context.Background(), &domain.RawDocument{URI: "u.txt", Content: []byte(content)})

	require.NoError(t, err)
	assert.Equal(t, content, result.Document.Content)
}
