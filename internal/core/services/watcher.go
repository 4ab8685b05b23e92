package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Watcher rebuilds and reloads the index when the corpus directory changes.
// Bursts of events are debounced into one rebuild. A change that arrives
// while a rebuild is running is skipped.
type Watcher struct {
	dir       string
	pattern   string
	recursive bool
	debounce  time.Duration
	builder  driving.IndexBuilder
	manager  driving.IndexManager

	running atomic.Bool
	wg      sync.WaitGroup
	log     *logger.Logger
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WatchRecursive also watches subdirectories, including ones created later.
// Hidden directories are skipped, as the loader skips them.
func WatchRecursive(recursive bool) WatcherOption {
	return func(w *Watcher) {
		w.recursive = recursive
	}
}

// NewWatcher creates a watcher for dir. Only files matching pattern count.
func NewWatcher(
	dir, pattern string, debounce time.Duration, builder driving.IndexBuilder, manager driving.IndexManager,
	opts ...WatcherOption,
) *Watcher {
	if debounce <= 0 {
		debounce = domain.DefaultWatchDebounce
	}
	w := &Watcher{
		dir:      dir,
		pattern:  pattern,
		debounce: debounce,
		builder:  builder,
		manager:  manager,
		log:      logger.For("watch"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled. It waits for a running rebuild
// before returning.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := w.add(fw, w.dir); err != nil {
		return fmt.Errorf("%w: watch %s: %w", domain.ErrLoad, w.dir, err)
	}
	w.log.Info("watching %s for %s changes (recursive=%t)", w.dir, w.pattern, w.recursive)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
		w.wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) && !w.newDir(fw, event) {
				continue
			}
			w.log.Debug("event %s", event)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.trigger(ctx)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error: %v", err)
		}
	}
}

// relevant reports whether event can change the corpus.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return false
	}
	matched, err := filepath.Match(w.pattern, name)
	return err == nil && matched
}

// add watches dir and, when recursive, every visible directory below it.
func (w *Watcher) add(fw *fsnotify.Watcher, dir string) error {
	if !w.recursive {
		return fw.Add(dir)
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}

// newDir starts watching a directory created under a recursive watch and
// reports whether it did. Files may already be inside, so it counts as a
// change.
func (w *Watcher) newDir(fw *fsnotify.Watcher, event fsnotify.Event) bool {
	if !w.recursive || !event.Has(fsnotify.Create) || strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.IsDir() {
		return false
	}
	if err := w.add(fw, event.Name); err != nil {
		w.log.Warn("watch %s: %v", event.Name, err)
		return false
	}
	w.log.Debug("watching new directory %s", event.Name)
	return true
}

// trigger starts a rebuild unless one is already running.
func (w *Watcher) trigger(ctx context.Context) {
	if !w.running.CompareAndSwap(false, true) {
		w.log.Info("rebuild already running, skipping change")
		return
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer w.running.Store(false)
		w.rebuild(ctx)
	}()
}

func (w *Watcher) rebuild(ctx context.Context) {
	report, err := w.builder.Build(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrBuildInProgress) {
			w.log.Info("another build holds the lock, skipping change")
			return
		}
		w.log.Error("rebuild failed: %v", err)
		return
	}
	if err := w.manager.Reload(ctx); err != nil {
		w.log.Error("reload after rebuild failed: %v", err)
		return
	}
	w.log.Info("rebuilt index: %d chunks from %d documents", report.Chunks, report.Documents)
}
