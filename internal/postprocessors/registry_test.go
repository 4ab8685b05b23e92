package postprocessors

import (
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// registryMockChunker is a simple mock for testing registry functionality.
type registryMockChunker struct {
	name string
}

func (m *registryMockChunker) Name() string { return m.name }
func (m *registryMockChunker) Chunk(_ context.Context, _ []domain.Document) ([]domain.Chunk, error) {
	return nil, nil
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry returned nil")
	}
	if len(r.Names()) != 0 {
		t.Errorf("expected empty registry, got %v", r.Names())
	}
}

func TestRegistry_RegisterAndBuild(t *testing.T) {
	r := NewRegistry()
	r.Register("mock", func(_ domain.ChunkSettings) (driven.Chunker, error) {
		return &registryMockChunker{name: "mock"}, nil
	})

	if !r.Has("mock") {
		t.Fatal("expected mock to be registered")
	}
	c, err := r.Build(domain.ChunkSettings{Strategy: "mock"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Name() != "mock" {
		t.Errorf("expected mock chunker, got %s", c.Name())
	}
}

func TestRegistry_BuildUnknown(t *testing.T) {
	_, err := NewRegistry().Build(domain.ChunkSettings{Strategy: "nope"})
	if !errors.Is(err, domain.ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}

func TestRegisterDefaults(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	names := r.Names()
	if len(names) != 2 || names[0] != "recursive" || names[1] != "window" {
		t.Errorf("unexpected strategies %v", names)
	}
}

func TestNewChunker(t *testing.T) {
	tests := []struct {
		name    string
		cfg     domain.ChunkSettings
		wantErr bool
	}{
		{"window", domain.ChunkSettings{Strategy: domain.ChunkStrategyWindow, Size: 500, Overlap: 200}, false},
		{"recursive", domain.ChunkSettings{Strategy: domain.ChunkStrategyRecursive, Size: 500, Overlap: 200}, false},
		{"bad overlap", domain.ChunkSettings{Strategy: domain.ChunkStrategyWindow, Size: 100, Overlap: 100}, true},
		{"unknown", domain.ChunkSettings{Strategy: "semantic", Size: 100, Overlap: 10}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, err := NewChunker(tc.cfg)
			if tc.wantErr {
				if !errors.Is(err, domain.ErrConfig) {
					t.Errorf("expected ErrConfig, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c == nil {
				t.Fatal("expected a chunker")
			}
		})
	}
}
