package driven

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// NormaliserRegistry selects the appropriate normaliser for a file.
// It maintains a priority-ordered list of normalisers and dispatches
// on file extension.
type NormaliserRegistry interface {
	// Normalise extracts path using the best matching normaliser.
	// Fails with domain.ErrInvalidInput if no normaliser supports the extension.
	Normalise(ctx context.Context, path string) ([]domain.Document, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// SupportedExtensions returns all extensions that can be normalised.
	SupportedExtensions() []string
}
