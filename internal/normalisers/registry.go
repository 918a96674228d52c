package normalisers

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
	"github.com/custodia-labs/narrator-cli/internal/core/ports/driven"
)

var _ driven.NormaliserRegistry = (*Registry)(nil)

// MIME types of the supported upload formats.
const (
	MIMEPlainText = "text/plain"
	MIMEMarkdown  = "text/markdown"
	MIMEDocx      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEHTML      = "text/html"
)

// extensionTypes covers extensions the platform MIME table may not know.
var extensionTypes = map[string]string{
	".txt":      MIMEPlainText,
	".text":     MIMEPlainText,
	".md":       MIMEMarkdown,
	".markdown": MIMEMarkdown,
	".docx":     MIMEDocx,
	".html":     MIMEHTML,
	".htm":      MIMEHTML,
}

// Registry dispatches raw documents to the highest-priority normaliser
// registered for their MIME type.
type Registry struct {
	mu     sync.RWMutex
	byMIME map[string][]driven.Normaliser
}

// NewRegistry creates a registry holding the given normalisers.
func NewRegistry(normalisers ...driven.Normaliser) *Registry {
	r := &Registry{byMIME: make(map[string][]driven.Normaliser)}
	for _, n := range normalisers {
		r.Register(n)
	}
	return r
}

// Register adds a normaliser for each MIME type it supports.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, mt := range n.SupportedMIMETypes() {
		list := append(r.byMIME[mt], n)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority() > list[j].Priority()
		})
		r.byMIME[mt] = list
	}
}

// Normalise extracts text from raw and cleans it for narration. When
// raw.MIMEType is empty it is detected from the URI and content.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	mt := baseType(raw.MIMEType)
	if mt == "" {
		mt = DetectMIMEType(raw.URI, raw.Content)
	}

	r.mu.RLock()
	candidates := r.byMIME[mt]
	r.mu.RUnlock()
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s (%s)", domain.ErrUnsupportedType, mt, filepath.Base(raw.URI))
	}

	typed := *raw
	typed.MIMEType = mt
	res, err := candidates[0].Normalise(ctx, &typed)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", filepath.Base(raw.URI), err)
	}
	res.Document.Content = Clean(res.Document.Content)
	return res, nil
}

// SupportedMIMETypes returns the registered MIME types in sorted order.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.byMIME))
	for mt := range r.byMIME {
		types = append(types, mt)
	}
	sort.Strings(types)
	return types
}

// SupportedExtensions lists the file extensions DetectMIMEType maps onto a
// registered type.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var exts []string
	for ext, mt := range extensionTypes {
		if len(r.byMIME[mt]) > 0 {
			exts = append(exts, ext)
		}
	}
	sort.Strings(exts)
	return exts
}

// DetectMIMEType infers a MIME type from the file extension, then from the
// content, then from the platform MIME table.
func DetectMIMEType(uri string, content []byte) string {
	ext := strings.ToLower(filepath.Ext(uri))
	if mt, ok := extensionTypes[ext]; ok {
		return mt
	}
	sniffed := baseType(http.DetectContentType(content))
	if sniffed != "application/octet-stream" {
		return sniffed
	}
	if mt := baseType(mime.TypeByExtension(ext)); mt != "" {
		return mt
	}
	return sniffed
}

// baseType strips parameters such as "; charset=utf-8".
func baseType(mt string) string {
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return strings.ToLower(strings.TrimSpace(mt))
}
