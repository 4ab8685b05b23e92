package driving

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// QueryService answers questions from the indexed corpus.
// It is the single operation behind every shell: HTTP, CLI, TUI and MCP.
type QueryService interface {
	// Ask runs retrieval, prompt assembly and generation for one message.
	// On failure it returns a *domain.QueryError and never a partial answer.
	Ask(ctx context.Context, message string) (*domain.Answer, error)

	// Retrieve returns the top-k chunks for query without generating.
	// k == 0 uses the configured default and k < 0 fails with ErrInvalidK.
	Retrieve(ctx context.Context, query string, k int) (domain.RetrievalResult, error)
}
