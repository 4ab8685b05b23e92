package bolt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragchat/internal/core/domain"
)

func testSnapshot() *domain.IndexSnapshot {
	chunks := []domain.Chunk{
		{ID: "c0", DocumentID: "d0", Source: "a.pdf", Page: 1, Position: 0,
			Content: "alpha", Embedding: []float32{1, 0}},
		{ID: "c1", DocumentID: "d0", Source: "a.pdf", Page: 1, Position: 1, Offset: 12,
			Content: "beta", Embedding: []float32{0, 1}},
	}
	return &domain.IndexSnapshot{
		Info: domain.IndexInfo{
			Model:      "hash",
			Dimensions: 2,
			Count:      len(chunks),
			BuiltAt:    time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC),
			Format:     domain.IndexFormatBolt,
		},
		Chunks: chunks,
	}
}

func TestIndexStore_RoundTrip(t *testing.T) {
	store := NewIndexStore()
	path := filepath.Join(t.TempDir(), "nested", "index.bolt")
	want := testSnapshot()

	require.NoError(t, store.Save(context.Background(), path, want))
	got, err := store.Load(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestIndexStore_SaveReplaces(t *testing.T) {
	store := NewIndexStore()
	dir := t.TempDir()
	path := filepath.Join(dir, "index.bolt")
	require.NoError(t, store.Save(context.Background(), path, testSnapshot()))

	next := testSnapshot()
	next.Info.Model = "next"
	require.NoError(t, store.Save(context.Background(), path, next))

	got, err := store.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "next", got.Info.Model)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestIndexStore_Load_Errors(t *testing.T) {
	dir := t.TempDir()

	garbage := filepath.Join(dir, "garbage.bolt")
	require.NoError(t, os.WriteFile(garbage, []byte("not a bolt file"), 0600))

	// A valid bbolt file without the index buckets.
	empty := filepath.Join(dir, "empty.bolt")
	db, err := bolt.Open(empty, 0600, nil)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	tests := []struct {
		name string
		path string
		want error
	}{
		{"missing", filepath.Join(dir, "missing.bolt"), domain.ErrNotFound},
		{"garbage", garbage, domain.ErrCorruptIndex},
		{"no buckets", empty, domain.ErrCorruptIndex},
		{"directory", dir, domain.ErrCorruptIndex},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewIndexStore().Load(context.Background(), tc.path)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestIndexStore_Load_DimensionDrift(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.bolt")
	snap := testSnapshot()
	snap.Chunks[1].Embedding = []float32{0, 1, 2}
	require.NoError(t, NewIndexStore().Save(context.Background(), path, snap))

	_, err := NewIndexStore().Load(context.Background(), path)

	assert.ErrorIs(t, err, domain.ErrCorruptIndex)
}

func TestIndexStore_Format(t *testing.T) {
	assert.Equal(t, domain.IndexFormatBolt, NewIndexStore().Format())
}

func TestIndexStore_RoundTripSearchResults(t *testing.T) {
	chunks := make([]domain.Chunk, 40)
	for i := range chunks {
		chunks[i] = domain.Chunk{
			ID:       fmt.Sprintf("c%02d", i),
			Position: i,
			Content:  fmt.Sprintf("chunk %d", i),
			// Vectors repeat, so ties are exercised.
			Embedding: []float32{float32(i % 4), float32((i * 7) % 5), float32(i%3) - 1},
		}
	}
	built, err := memory.BuildIndex(chunks, domain.IndexInfo{Model: "hash", Format: domain.IndexFormatBolt})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "index")
	store := NewIndexStore()
	require.NoError(t, store.Save(context.Background(), path, built.Snapshot()))
	snap, err := store.Load(context.Background(), path)
	require.NoError(t, err)
	loaded, err := memory.BuildIndex(snap.Chunks, snap.Info)
	require.NoError(t, err)

	queries := [][]float32{{1, 0, 0}, {0, 1, 0}, {0.3, -0.2, 0.9}, {-1, -1, -1}}
	for _, q := range queries {
		for _, k := range []int{1, 5, 40, 100} {
			want, err := built.Search(context.Background(), q, k)
			require.NoError(t, err)
			got, err := loaded.Search(context.Background(), q, k)
			require.NoError(t, err)
			assert.Equal(t, want, got, "query %v k=%d", q, k)
		}
	}
}
