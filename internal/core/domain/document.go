package domain

import "time"

// Document is the text extracted from an uploaded source.
// It is the input to chunking and rewriting.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// URI is the original location (file path, URL, etc).
	URI string

	// Title is the human-readable title.
	Title string

	// Content is the full extracted text. Paragraphs are separated by a
	// blank line.
	Content string

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was extracted.
	CreatedAt time.Time
}

// Chunk is a bounded, paragraph-aligned slice of a Document.
// Chunks are rewritten one at a time and concatenated in Position order.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}
