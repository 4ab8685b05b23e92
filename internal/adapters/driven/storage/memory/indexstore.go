package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// IndexStore is an in-memory implementation of driven.IndexStore.
// Snapshots are keyed by path and deep-copied on the way in and out.
type IndexStore struct {
	mu        sync.RWMutex
	snapshots map[string]*domain.IndexSnapshot
}

// NewIndexStore creates a new in-memory index store.
func NewIndexStore() *IndexStore {
	return &IndexStore{
		snapshots: make(map[string]*domain.IndexSnapshot),
	}
}

// Save stores a copy of the snapshot under path.
func (s *IndexStore) Save(ctx context.Context, path string, snapshot *domain.IndexSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if snapshot == nil {
		return fmt.Errorf("%w: nil snapshot", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[path] = copySnapshot(snapshot)
	return nil
}

// Load returns a copy of the snapshot stored under path.
func (s *IndexStore) Load(ctx context.Context, path string) (*domain.IndexSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[path]
	if !ok {
		return nil, fmt.Errorf("%w: index %s", domain.ErrNotFound, path)
	}
	return copySnapshot(snap), nil
}

// Format reports the SQLite format so handles treat it like the default store.
func (s *IndexStore) Format() domain.IndexFormat {
	return domain.IndexFormatSQLite
}

func copySnapshot(src *domain.IndexSnapshot) *domain.IndexSnapshot {
	chunks := make([]domain.Chunk, len(src.Chunks))
	for i, c := range src.Chunks {
		c.Embedding = append([]float32(nil), c.Embedding...)
		chunks[i] = c
	}
	return &domain.IndexSnapshot{Info: src.Info, Chunks: chunks}
}
