package memory

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure VectorIndex and Factory implement the interfaces.
var (
	_ driven.VectorIndex        = (*VectorIndex)(nil)
	_ driven.VectorIndexFactory = Factory{}
)

// cancelCheckInterval is how many rows are scored between context checks.
const cancelCheckInterval = 4096

// VectorIndex is an exact cosine similarity index over a flat matrix.
// Rows are L2-normalised once at build time so a search is a single pass of
// dot products. The index is immutable and safe for concurrent readers.
type VectorIndex struct {
	info   domain.IndexInfo
	chunks []domain.Chunk
	matrix []float32
	dims   int
}

// Factory builds VectorIndex values for the index builder and loaders.
type Factory struct{}

// Build implements driven.VectorIndexFactory.
func (Factory) Build(chunks []domain.Chunk, info domain.IndexInfo) (driven.VectorIndex, error) {
	idx, err := BuildIndex(chunks, info)
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// BuildIndex creates an index from chunks that already carry embeddings.
// The input is copied; later changes to chunks do not affect the index.
func BuildIndex(chunks []domain.Chunk, info domain.IndexInfo) (*VectorIndex, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks to index", domain.ErrEmptyCorpus)
	}

	dims := len(chunks[0].Embedding)
	if dims == 0 {
		return nil, fmt.Errorf("%w: chunk %d has no embedding", domain.ErrDimensionMismatch, chunks[0].Position)
	}
	if info.Dimensions != 0 && info.Dimensions != dims {
		return nil, fmt.Errorf("%w: index declares %d dimensions, vectors have %d",
			domain.ErrDimensionMismatch, info.Dimensions, dims)
	}

	owned := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		if len(c.Embedding) != dims {
			return nil, fmt.Errorf("%w: chunk %d has %d dimensions, expected %d",
				domain.ErrDimensionMismatch, c.Position, len(c.Embedding), dims)
		}
		c.Embedding = append([]float32(nil), c.Embedding...)
		owned[i] = c
	}
	sort.SliceStable(owned, func(i, j int) bool {
		return owned[i].Position < owned[j].Position
	})

	matrix := make([]float32, 0, len(owned)*dims)
	for _, c := range owned {
		matrix = append(matrix, normalise(c.Embedding)...)
	}

	info.Dimensions = dims
	info.Count = len(owned)

	return &VectorIndex{
		info:   info,
		chunks: owned,
		matrix: matrix,
		dims:   dims,
	}, nil
}

// Search returns the k chunks most similar to query, highest score first.
// Equal scores keep insertion order.
func (idx *VectorIndex) Search(ctx context.Context, query []float32, k int) (domain.RetrievalResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidK, k)
	}
	if len(query) != idx.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(query), idx.dims)
	}

	q := normalise(query)
	scores := make([]float64, len(idx.chunks))
	for row := range idx.chunks {
		if row%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		scores[row] = dot(q, idx.matrix[row*idx.dims:(row+1)*idx.dims])
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}
	result := make(domain.RetrievalResult, k)
	for i := 0; i < k; i++ {
		row := order[i]
		c := idx.chunks[row]
		c.Embedding = append([]float32(nil), c.Embedding...)
		result[i] = domain.ScoredChunk{Chunk: c, Score: scores[row]}
	}
	return result, nil
}

// Len returns the number of chunks.
func (idx *VectorIndex) Len() int {
	return len(idx.chunks)
}

// Dimensions returns the vector length.
func (idx *VectorIndex) Dimensions() int {
	return idx.dims
}

// Info returns the index metadata.
func (idx *VectorIndex) Info() domain.IndexInfo {
	return idx.info
}

// Snapshot returns a deep copy of the chunks with their original embeddings.
func (idx *VectorIndex) Snapshot() *domain.IndexSnapshot {
	chunks := make([]domain.Chunk, len(idx.chunks))
	for i, c := range idx.chunks {
		c.Embedding = append([]float32(nil), c.Embedding...)
		chunks[i] = c
	}
	return &domain.IndexSnapshot{Info: idx.info, Chunks: chunks}
}

// normalise returns v scaled to unit length. A zero vector stays zero.
func normalise(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return math.Max(-1, math.Min(1, sum))
}
