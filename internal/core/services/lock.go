package services

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// buildLock is an exclusive lock file next to the index.
type buildLock struct {
	path string
}

// lockPath returns the lock file guarding indexPath.
func lockPath(indexPath string) string {
	return indexPath + ".lock"
}

// acquireBuildLock creates the lock file, failing with
// domain.ErrBuildInProgress if it already exists. With force, an existing
// lock is treated as stale and removed first.
func acquireBuildLock(indexPath string, force bool) (*buildLock, error) {
	path := lockPath(indexPath)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}

	if force {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("remove stale lock: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: lock file %s exists (use --force if no build is running)",
				domain.ErrBuildInProgress, path)
		}
		return nil, fmt.Errorf("create lock file: %w", err)
	}
	_, werr := fmt.Fprintf(f, "pid=%d\nstarted=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write lock file: %w", werr)
	}
	return &buildLock{path: path}, nil
}

func (l *buildLock) release() error {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
