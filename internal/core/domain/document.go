package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Document is the extracted text of one source unit.
// PDFs produce one Document per page. Documents are immutable once loaded
// and are never persisted on their own.
type Document struct {
	// ID is derived from Source and Page, so reloading the corpus
	// yields the same IDs.
	ID string

	// Source is the file path the text was extracted from.
	Source string

	// Page is the 1-based page number, or 0 for formats without pages.
	Page int

	// Content is the extracted text.
	Content string

	// Metadata contains extractor-specific key-value pairs.
	Metadata map[string]string
}

// NewDocument creates a Document with a deterministic ID.
func NewDocument(source string, page int, content string) Document {
	return Document{
		ID:      DocumentID(source, page),
		Source:  source,
		Page:    page,
		Content: content,
	}
}

// DocumentID derives a stable identifier from a source path and page.
func DocumentID(source string, page int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s#%d", source, page)))
	return hex.EncodeToString(sum[:8])
}

// Chunk is a contiguous window of a Document's text.
// Once embedded into an index a Chunk is never mutated.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Source and Page are inherited from the parent Document.
	Source string
	Page   int

	// Position is the ordinal of the chunk across the whole build.
	// It is the insertion order used to break score ties.
	Position int

	// Offset is the byte offset of Content within the parent Document.
	Offset int

	// Content is the chunk text.
	Content string

	// Embedding is the vector representation, set by the index builder.
	Embedding []float32
}

// SkippedFile records a corpus file that could not be loaded.
type SkippedFile struct {
	Path   string
	Reason string
}
