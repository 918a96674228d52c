package html

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
	"github.com/custodia-labs/narrator-cli/internal/normalisers"
)

func normalise(t *testing.T, uri, content string) domain.Document {
	t.Helper()
	result, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:      uri,
		MIMEType: normalisers.MIMEHTML,
		Content:  []byte(content),
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	return result.Document
}

func TestSupportedMIMETypes(t *testing.T) {
	mimeTypes := New().SupportedMIMETypes()

	assert.Contains(t, mimeTypes, "text/html")
	assert.Contains(t, mimeTypes, "application/xhtml+xml")
	assert.Len(t, mimeTypes, 2)
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 50, New().Priority())
}

func TestNormalise_NilInput(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNormalise_Success(t *testing.T) {
	doc := normalise(t, "/books/page.html",
		"<html><head><title>Test Page</title></head><body><p>Hello World</p></body></html>")

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "/books/page.html", doc.URI)
	assert.Equal(t, "Test Page", doc.Title)
	assert.Equal(t, "Hello World", doc.Content)
	assert.Equal(t, "html", doc.Metadata["format"])
	assert.Equal(t, "text/html", doc.Metadata["mime_type"])
}

func TestNormalise_Title(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		content  string
		expected string
	}{
		{
			name:     "title tag",
			uri:      "a.html",
			content:  "<title>  Chapter   One </title><h1>Ignored</h1>",
			expected: "Chapter One",
		},
		{
			name:     "first heading when no title",
			uri:      "a.html",
			content:  "<body><h1>The <em>Long</em> Road</h1><h1>Second</h1></body>",
			expected: "The Long Road",
		},
		{
			name:     "file name fallback",
			uri:      "/x/my_saved-page.htm",
			content:  "<p>text</p>",
			expected: "my saved page",
		},
		{
			name:     "entities decoded",
			uri:      "a.html",
			content:  "<title>Tom &amp; Jerry</title>",
			expected: "Tom & Jerry",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalise(t, tt.uri, tt.content).Title)
		})
	}
}

func TestNormalise_DropsNonProse(t *testing.T) {
	doc := normalise(t, "a.html", `<html>
<head><style>body { color: red; }</style><script>var x = 1;</script></head>
<body>
<nav><a href="/">Home</a></nav>
<p>Visible text.</p>
<script>alert("hidden")</script>
<noscript>Enable JavaScript</noscript>
<svg><text>diagram</text></svg>
<!-- a comment -->
</body></html>`)

	assert.Equal(t, "Visible text.", doc.Content)
}

func TestNormalise_Paragraphs(t *testing.T) {
	doc := normalise(t, "a.html", `<body>
<h2>Part one</h2>
<p>First   paragraph
spans lines.</p>
<div>Second<br>line</div>
<ul><li>apples</li><li>pears</li></ul>
<p>Caf&eacute; &lt;open&gt;</p>
</body>`)

	assert.Equal(t,
		"Part one\n\nFirst paragraph spans lines.\n\nSecond line\n\napples\n\npears\n\nCafé <open>",
		doc.Content)
}

func TestNormalise_InlineElements(t *testing.T) {
	doc := normalise(t, "a.html", "<p>A <strong>bold</strong> and <a href='#'>linked</a> word.</p>")

	assert.Equal(t, "A bold and linked word.", doc.Content)
}

func TestNormalise_Empty(t *testing.T) {
	doc := normalise(t, "empty.html", "")

	assert.Empty(t, doc.Content)
	assert.Equal(t, "empty", doc.Title)
}

func TestNormalise_ViaRegistry(t *testing.T) {
	reg := normalisers.NewRegistry(New())

	assert.Equal(t, []string{".htm", ".html"}, reg.SupportedExtensions())
	result, err := reg.Normalise(context.Background(), &domain.RawDocument{
		URI:     "page.html",
		Content: []byte("<p>through the registry</p>"),
	})
	require.NoError(t, err)
	assert.Equal(t, "through the registry", result.Document.Content)
}
