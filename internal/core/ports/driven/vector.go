package driven

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// VectorIndex provides read-only nearest-neighbour search.
// It is immutable after construction and safe for concurrent readers.
type VectorIndex interface {
	// Search returns the k chunks most similar to query, highest score first.
	// Ties keep insertion order. k <= 0 fails with domain.ErrInvalidK.
	// If the index holds fewer than k chunks, all of them are returned.
	Search(ctx context.Context, query []float32, k int) (domain.RetrievalResult, error)

	// Len returns the number of chunks.
	Len() int

	// Dimensions returns the vector length.
	Dimensions() int

	// Info returns the index metadata.
	Info() domain.IndexInfo

	// Snapshot returns a copy of the index contents for persistence.
	Snapshot() *domain.IndexSnapshot
}

// VectorIndexFactory builds a VectorIndex from embedded chunks.
type VectorIndexFactory interface {
	// Build fails with domain.ErrEmptyCorpus for no chunks and
	// domain.ErrDimensionMismatch for inconsistent vectors.
	Build(chunks []domain.Chunk, info domain.IndexInfo) (VectorIndex, error)
}

// IndexStore persists index snapshots.
type IndexStore interface {
	// Save writes the snapshot to path atomically: readers observe either
	// the previous file or the complete new one.
	Save(ctx context.Context, path string, snapshot *domain.IndexSnapshot) error

	// Load reads a snapshot. It fails with domain.ErrNotFound if path is
	// absent and domain.ErrCorruptIndex if the file is structurally invalid.
	Load(ctx context.Context, path string) (*domain.IndexSnapshot, error)

	// Format returns the storage format this store reads and writes.
	Format() domain.IndexFormat
}

// IndexMirror copies a published index into an external vector store.
// Mirroring is optional; failures never affect the local index.
type IndexMirror interface {
	// Replace swaps the mirrored corpus for the snapshot's chunks.
	Replace(ctx context.Context, snapshot *domain.IndexSnapshot) error

	// Close releases resources.
	Close() error
}
