package services

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbedder implements driven.Embedder with a fixed vector per text.
type mockEmbedder struct {
	vectors  map[string][]float32
	fallback []float32
	dims     int
	model    string
	err      error
	batchErr error
	calls    atomic.Int32
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return m.fallback, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int { return m.dims }

func (m *mockEmbedder) ModelName() string {
	if m.model == "" {
		return "mock-embed"
	}
	return m.model
}

func (m *mockEmbedder) Ping(context.Context) error { return nil }
func (m *mockEmbedder) Close() error               { return nil }

// scriptedGenerator implements driven.Generator, returning the scripted
// results in order and repeating the last one.
type scriptedGenerator struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	prompts []string
	opts    []driven.GenerateOptions

	// block makes Generate wait for ctx to finish.
	block bool
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	g.mu.Lock()
	n := len(g.prompts)
	g.prompts = append(g.prompts, prompt)
	g.opts = append(g.opts, opts)
	g.mu.Unlock()

	if g.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if len(g.errs) > 0 {
		if err := g.errs[min(n, len(g.errs)-1)]; err != nil {
			return "", err
		}
	}
	if len(g.replies) == 0 {
		return "", nil
	}
	return g.replies[min(n, len(g.replies)-1)], nil
}

func (g *scriptedGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

func (g *scriptedGenerator) ModelName() string          { return "scripted" }
func (g *scriptedGenerator) Ping(context.Context) error { return nil }
func (g *scriptedGenerator) Close() error               { return nil }

// staticIndex implements IndexSource.
type staticIndex struct {
	idx driven.VectorIndex
}

func (s staticIndex) Current() driven.VectorIndex { return s.idx }

// mockLoader implements driven.DocumentLoader.
type mockLoader struct {
	result *driven.LoadResult
	err    error
}

func (m *mockLoader) Load(_ context.Context, _, _ string) (*driven.LoadResult, error) {
	return m.result, m.err
}

// mockChunker implements driven.Chunker with one chunk per document.
type mockChunker struct{}

func (mockChunker) Name() string { return "mock" }

func (mockChunker) Chunk(_ context.Context, docs []domain.Document) ([]domain.Chunk, error) {
	chunks := make([]domain.Chunk, 0, len(docs))
	for i, d := range docs {
		chunks = append(chunks, domain.Chunk{
			ID:         d.ID + "-0",
			DocumentID: d.ID,
			Source:     d.Source,
			Page:       d.Page,
			Position:   i,
			Content:    d.Content,
		})
	}
	return chunks, nil
}

// mockMirror implements driven.IndexMirror.
type mockMirror struct {
	err      error
	replaced int
}

func (m *mockMirror) Replace(context.Context, *domain.IndexSnapshot) error {
	m.replaced++
	return m.err
}

func (m *mockMirror) Close() error { return nil }
