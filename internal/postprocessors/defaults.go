package postprocessors

import (
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/postprocessors/chunker"
)

// RegisterDefaults registers the built-in chunk strategies.
func RegisterDefaults(r *Registry) {
	r.Register(domain.ChunkStrategyWindow, buildChunker)
	r.Register(domain.ChunkStrategyRecursive, buildChunker)
}

// NewChunker builds the chunker selected by cfg using the default registry.
func NewChunker(cfg domain.ChunkSettings) (driven.Chunker, error) {
	r := NewRegistry()
	RegisterDefaults(r)
	return r.Build(cfg)
}

func buildChunker(cfg domain.ChunkSettings) (driven.Chunker, error) {
	return chunker.New(
		chunker.WithStrategy(cfg.Strategy),
		chunker.WithChunkSize(cfg.Size),
		chunker.WithOverlap(cfg.Overlap),
	)
}
