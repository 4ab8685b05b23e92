package domain

import "strings"

// ScoredChunk is a Chunk ranked against a query vector.
type ScoredChunk struct {
	Chunk Chunk

	// Score is the cosine similarity, in [-1, 1].
	Score float64
}

// RetrievalResult is the ranked chunks for one query, highest score first.
// It is transient and never persisted.
type RetrievalResult []ScoredChunk

// Texts returns the chunk texts in rank order.
func (r RetrievalResult) Texts() []string {
	texts := make([]string, len(r))
	for i := range r {
		texts[i] = r[i].Chunk.Content
	}
	return texts
}

// Context joins the chunk texts with newlines in rank order.
// No deduplication is applied.
func (r RetrievalResult) Context() string {
	return strings.Join(r.Texts(), "\n")
}
