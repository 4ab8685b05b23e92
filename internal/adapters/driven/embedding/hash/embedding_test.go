package hash

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

func TestNew(t *testing.T) {
	e, err := New(0)
	require.NoError(t, err)
	assert.Equal(t, DefaultDimensions, e.Dimensions())
	assert.Equal(t, "hash-fnv1a-384", e.ModelName())

	_, err = New(-1)
	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestEmbed_Deterministic(t *testing.T) {
	e, err := New(64)
	require.NoError(t, err)

	a, err := e.Embed(context.Background(), "The company was founded in 2010.")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "The company was founded in 2010.")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestEmbed_Normalised(t *testing.T) {
	e, err := New(128)
	require.NoError(t, err)

	v, err := e.Embed(context.Background(), "alpha beta gamma delta")
	require.NoError(t, err)

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-6)
}

func TestEmbed_CaseAndPunctuationInsensitive(t *testing.T) {
	e, err := New(DefaultDimensions)
	require.NoError(t, err)

	a, _ := e.Embed(context.Background(), "Founded in DHAKA!")
	b, _ := e.Embed(context.Background(), "founded in dhaka")
	assert.Equal(t, a, b)
}

func TestEmbed_SharedVocabularyScoresHigher(t *testing.T) {
	e, err := New(DefaultDimensions)
	require.NoError(t, err)
	ctx := context.Background()

	query, _ := e.Embed(ctx, "When was the company founded?")
	related, _ := e.Embed(ctx, "The company was founded in 2010 in Dhaka.")
	unrelated, _ := e.Embed(ctx, "Bananas are rich in potassium and fibre.")

	assert.Greater(t, cosine(query, related), cosine(query, unrelated))
}

func TestEmbed_NoWordsIsZeroVector(t *testing.T) {
	e, err := New(16)
	require.NoError(t, err)

	v, err := e.Embed(context.Background(), "  ?! ")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 16), v)
}

func TestEmbedBatch(t *testing.T) {
	e, err := New(32)
	require.NoError(t, err)
	ctx := context.Background()

	batch, err := e.EmbedBatch(ctx, []string{"one", "two"})
	require.NoError(t, err)
	require.Len(t, batch, 2)

	one, _ := e.Embed(ctx, "one")
	assert.Equal(t, one, batch[0])

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = e.EmbedBatch(cancelled, []string{"x"})
	assert.ErrorIs(t, err, context.Canceled)
}
