// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// Embedder generates vector embeddings from text.
//
// The same model and configuration must be used to build an index and to
// query it. A different vector length at query time fails with
// domain.ErrDimensionMismatch.
//
// Implementations include:
//   - hash (built-in deterministic feature hashing)
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
type Embedder interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	// The returned slice is parallel to texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	// It is recorded in the index to detect model changes.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
