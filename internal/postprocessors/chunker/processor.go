// Package chunker splits document text into paragraph-aligned chunks.
package chunker

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
	"github.com/custodia-labs/narrator-cli/internal/core/ports/driven"
)

// Ensure Processor implements the interfaces.
var (
	_ driven.PostProcessor = (*Processor)(nil)
	_ driven.Chunker       = (*Processor)(nil)
)

// DefaultChunkSize is the default maximum number of bytes per chunk.
const DefaultChunkSize = domain.DefaultChunkMaxChars

// paragraphSep separates paragraphs in documents and in joined chunks.
const paragraphSep = "\n\n"

// Processor splits document content into paragraph-aligned chunks.
// It implements the PostProcessor and Chunker interfaces.
type Processor struct {
	chunkSize int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the maximum chunk size in bytes.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Split splits text using maxChars, or the processor's size when maxChars <= 0.
func (p *Processor) Split(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = p.chunkSize
	}
	return Split(text, maxChars)
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	parts := Split(doc.Content, p.chunkSize)
	if len(parts) == 0 {
		return nil, nil
	}

	chunks := make([]domain.Chunk, 0, len(parts))
	for i, content := range parts {
		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Content:    content,
			Position:   i,
			Metadata:   make(map[string]any),
		})
	}

	return chunks, nil
}

// Split breaks text into chunks of at most maxChars bytes.
//
// Paragraphs are separated by a blank line. Consecutive paragraphs are packed
// into one chunk, joined by a blank line, while they fit. A paragraph larger
// than maxChars is cut into slices on rune boundaries; slices are trimmed and
// emitted, and the remainder starts the next chunk. Blank paragraphs and
// whitespace-only slices are dropped.
func Split(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultChunkSize
	}

	var chunks []string
	var buf string

	for _, raw := range strings.Split(text, paragraphSep) {
		para := strings.TrimSpace(raw)
		if para == "" {
			continue
		}

		if buf == "" && len(para) <= maxChars {
			buf = para
			continue
		}
		if buf != "" && len(buf)+len(paragraphSep)+len(para) <= maxChars {
			buf += paragraphSep + para
			continue
		}

		if buf != "" {
			chunks = append(chunks, buf)
			buf = ""
		}

		for len(para) > maxChars {
			cut := runeCut(para, maxChars)
			if slice := strings.TrimSpace(para[:cut]); slice != "" {
				chunks = append(chunks, slice)
			}
			para = strings.TrimSpace(para[cut:])
		}
		buf = para
	}

	if buf != "" {
		chunks = append(chunks, buf)
	}
	return chunks
}

// runeCut returns the largest index <= limit that falls on a rune boundary.
// A single rune wider than limit is taken whole so the split always advances.
func runeCut(s string, limit int) int {
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if cut == 0 {
		_, size := utf8.DecodeRuneInString(s)
		cut = size
	}
	return cut
}
