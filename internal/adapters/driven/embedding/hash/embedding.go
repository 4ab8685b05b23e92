// Package hash provides a deterministic feature-hashing embedder.
//
// Lowercased word unigrams and adjacent-word bigrams are hashed with FNV-1a
// into a fixed number of buckets with a sign taken from a second hash bit,
// and the result is L2-normalised. Texts sharing vocabulary score high
// cosine similarity. It needs no network or model files, which makes it
// suitable for offline builds and tests.
package hash

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure Embedder implements the interface.
var _ driven.Embedder = (*Embedder)(nil)

// DefaultDimensions matches all-MiniLM-L6-v2 so indexes are comparable in size.
const DefaultDimensions = 384

// bigramWeight scales bigram features relative to unigrams.
const bigramWeight = 0.5

// Embedder produces feature-hashed bag-of-words vectors.
type Embedder struct {
	dims int
}

// New creates a hash embedder with dims buckets.
// Zero selects DefaultDimensions.
func New(dims int) (*Embedder, error) {
	if dims == 0 {
		dims = DefaultDimensions
	}
	if dims < 0 {
		return nil, fmt.Errorf("%w: hash embedder dimensions must be positive, got %d", domain.ErrConfig, dims)
	}
	return &Embedder{dims: dims}, nil
}

// Embed returns the normalised hashed feature vector of text.
// Text without any word characters yields the zero vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float64, e.dims)

	words := tokenize(text)
	for i, w := range words {
		e.add(vec, w, 1)
		if i > 0 {
			e.add(vec, words[i-1]+" "+w, bigramWeight)
		}
	}

	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	out := make([]float32, e.dims)
	if sum == 0 {
		return out, nil
	}
	norm := math.Sqrt(sum)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out, nil
}

// EmbedBatch embeds each text in turn.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (e *Embedder) Dimensions() int {
	return e.dims
}

// ModelName identifies the hashing scheme and its size.
func (e *Embedder) ModelName() string {
	return fmt.Sprintf("hash-fnv1a-%d", e.dims)
}

// Ping always succeeds.
func (e *Embedder) Ping(context.Context) error {
	return nil
}

// Close releases resources.
func (e *Embedder) Close() error {
	return nil
}

func (e *Embedder) add(vec []float64, feature string, weight float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()

	bucket := int(sum % uint64(e.dims))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	vec[bucket] += weight
}

// tokenize lowercases text and splits it into runs of letters and digits.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
