package normalisers

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
)

// NewDocument builds the Document produced from raw. An empty title falls
// back to Metadata["title"], then to the file name.
func NewDocument(raw *domain.RawDocument, title, content, format string) domain.Document {
	if title == "" {
		title = titleFromMetadata(raw.Metadata)
	}
	if title == "" {
		title = TitleFromURI(raw.URI)
	}

	meta := make(map[string]any, len(raw.Metadata)+2)
	for k, v := range raw.Metadata {
		meta[k] = v
	}
	meta["mime_type"] = raw.MIMEType
	meta["format"] = format

	return domain.Document{
		ID:        uuid.New().String(),
		URI:       raw.URI,
		Title:     title,
		Content:   content,
		Metadata:  meta,
		CreatedAt: time.Now(),
	}
}

// TitleFromURI turns "chapter_one-draft.txt" into "chapter one draft".
func TitleFromURI(uri string) string {
	name := filepath.Base(uri)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.NewReplacer("_", " ", "-", " ").Replace(name)
}

func titleFromMetadata(meta map[string]any) string {
	title, _ := meta["title"].(string)
	return strings.TrimSpace(title)
}
