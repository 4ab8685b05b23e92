package driven

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// Chunker splits Documents into overlapping Chunks suitable for embedding.
type Chunker interface {
	// Name returns the strategy name for logging.
	Name() string

	// Chunk splits docs in order. Positions are assigned across the whole
	// batch. Empty documents yield no chunks.
	Chunk(ctx context.Context, docs []domain.Document) ([]domain.Chunk, error)
}
