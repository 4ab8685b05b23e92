package driven

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// DocumentLoader reads a corpus directory into Documents.
type DocumentLoader interface {
	// Load reads every file in dir whose name matches pattern.
	// It fails with domain.ErrLoad if dir does not exist or nothing matches.
	// Individual unreadable files are skipped and reported in the result.
	Load(ctx context.Context, dir, pattern string) (*LoadResult, error)
}

// LoadResult is the output of a corpus load.
type LoadResult struct {
	// Documents in path order, then page order.
	Documents []domain.Document

	// Files is the number of files that matched the pattern.
	Files int

	// Skipped lists matching files that could not be extracted.
	Skipped []domain.SkippedFile
}
