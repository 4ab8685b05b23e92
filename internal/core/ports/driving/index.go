package driving

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// IndexBuilder rebuilds the persisted index from the corpus directory.
type IndexBuilder interface {
	// Build runs a full rebuild and publishes it atomically.
	// Fails with domain.ErrBuildInProgress if another build holds the lock.
	Build(ctx context.Context) (*domain.BuildReport, error)
}

// IndexManager exposes the index currently used to serve queries.
type IndexManager interface {
	// Info returns the loaded index metadata, false if nothing is loaded.
	Info() (domain.IndexInfo, bool)

	// Reload loads the published index from disk and swaps it in.
	Reload(ctx context.Context) error
}
