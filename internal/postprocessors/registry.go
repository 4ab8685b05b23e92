// Package postprocessors turns loaded documents into indexable chunks.
package postprocessors

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// BuilderFunc creates a Chunker from chunk settings.
type BuilderFunc func(cfg domain.ChunkSettings) (driven.Chunker, error)

// Registry maps chunk strategy names to their builders.
// It allows the strategy to be chosen from configuration.
type Registry struct {
	builders map[domain.ChunkStrategy]BuilderFunc
}

// NewRegistry creates a new, empty strategy registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[domain.ChunkStrategy]BuilderFunc),
	}
}

// Register adds a builder for a strategy, replacing any existing one.
func (r *Registry) Register(strategy domain.ChunkStrategy, builder BuilderFunc) {
	r.builders[strategy] = builder
}

// Build creates the chunker named by cfg.Strategy.
// Unknown strategies fail with domain.ErrConfig.
func (r *Registry) Build(cfg domain.ChunkSettings) (driven.Chunker, error) {
	builder, ok := r.builders[cfg.Strategy]
	if !ok {
		return nil, fmt.Errorf("%w: unknown chunker strategy %q", domain.ErrConfig, cfg.Strategy)
	}
	return builder(cfg)
}

// Has returns true if a builder is registered for strategy.
func (r *Registry) Has(strategy domain.ChunkStrategy) bool {
	_, ok := r.builders[strategy]
	return ok
}

// Names returns the registered strategy names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for s := range r.builders {
		names = append(names, string(s))
	}
	sort.Strings(names)
	return names
}
