package services

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Retriever embeds a query and finds its nearest chunks.
type Retriever struct {
	embedder driven.Embedder
}

// NewRetriever creates a retriever backed by embedder.
func NewRetriever(embedder driven.Embedder) *Retriever {
	return &Retriever{embedder: embedder}
}

// Retrieve returns the top-k chunks of idx for query.
// Errors from the embedder and the index are returned as is.
func (r *Retriever) Retrieve(
	ctx context.Context, idx driven.VectorIndex, query string, k int,
) (domain.RetrievalResult, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return idx.Search(ctx, vec, k)
}
