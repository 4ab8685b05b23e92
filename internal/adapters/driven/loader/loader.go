// Package loader reads a corpus directory into Documents.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure DirectoryLoader implements the interface.
var _ driven.DocumentLoader = (*DirectoryLoader)(nil)

// DirectoryLoader extracts every matching file in a directory.
// Files that fail to extract are skipped and reported, not fatal.
type DirectoryLoader struct {
	registry  driven.NormaliserRegistry
	recursive bool
	log       *logger.Logger
}

// Option configures a DirectoryLoader.
type Option func(*DirectoryLoader)

// WithRecursive descends into subdirectories.
func WithRecursive(recursive bool) Option {
	return func(l *DirectoryLoader) {
		l.recursive = recursive
	}
}

// New creates a loader that extracts files through registry.
func New(registry driven.NormaliserRegistry, opts ...Option) *DirectoryLoader {
	l := &DirectoryLoader{
		registry: registry,
		log:      logger.For("loader"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads every file in dir whose base name matches pattern.
// Dotfiles are ignored. Documents are ordered by path, then page.
func (l *DirectoryLoader) Load(ctx context.Context, dir, pattern string) (*driven.LoadResult, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("%w: invalid corpus pattern %q", domain.ErrConfig, pattern)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: corpus directory %s: %w", domain.ErrLoad, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: corpus path %s is not a directory", domain.ErrLoad, dir)
	}

	paths, err := l.match(ctx, dir, pattern)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no files matching %q in %s", domain.ErrLoad, pattern, dir)
	}

	result := &driven.LoadResult{Files: len(paths)}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		docs, err := l.registry.Normalise(ctx, path)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			l.log.Warn("skipping %s: %v", path, err)
			result.Skipped = append(result.Skipped, domain.SkippedFile{Path: path, Reason: err.Error()})
			continue
		}
		l.log.Debug("%s: %d document(s)", path, len(docs))
		result.Documents = append(result.Documents, docs...)
	}

	if len(result.Skipped) == len(paths) {
		return nil, fmt.Errorf("%w: all %d matching files failed to load (first: %s)",
			domain.ErrLoad, len(paths), result.Skipped[0].Reason)
	}
	return result, nil
}

// match lists matching regular files, sorted by path.
func (l *DirectoryLoader) match(ctx context.Context, dir, pattern string) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			l.log.Warn("cannot read %s: %v", path, err)
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		name := d.Name()
		if d.IsDir() {
			if path == dir {
				return nil
			}
			if !l.recursive || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !d.Type().IsRegular() {
			return nil
		}
		if ok, _ := filepath.Match(pattern, name); ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: walk %s: %w", domain.ErrLoad, dir, err)
	}

	sort.Strings(paths)
	return paths, nil
}
