package driven

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// Normaliser extracts text from one corpus file.
// Each normaliser handles specific file extensions (e.g., .pdf, .txt).
type Normaliser interface {
	// Name identifies the normaliser in logs.
	Name() string

	// SupportedExtensions returns the lower-case extensions handled, with dot.
	SupportedExtensions() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise extracts the file into one or more Documents.
	// PDFs produce one Document per non-blank page.
	Normalise(ctx context.Context, path string) ([]domain.Document, error)
}
