package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure IndexHandle implements the interfaces.
var (
	_ driving.IndexManager = (*IndexHandle)(nil)
	_ IndexSource          = (*IndexHandle)(nil)
)

type loadedIndex struct {
	idx driven.VectorIndex
}

// IndexHandle is the process-wide reference to the serving index.
// It is loaded once at startup and swapped only by an explicit Reload.
// Readers never block; queries in flight keep the index they started with.
type IndexHandle struct {
	store    driven.IndexStore
	factory  driven.VectorIndexFactory
	embedder driven.Embedder
	path     string

	current atomic.Pointer[loadedIndex]
	reload  sync.Mutex
	log     *logger.Logger
}

// NewIndexHandle creates an empty handle for the index stored at path.
// embedder may be nil, which disables the dimension check.
func NewIndexHandle(
	store driven.IndexStore, factory driven.VectorIndexFactory, embedder driven.Embedder, path string,
) *IndexHandle {
	return &IndexHandle{
		store:    store,
		factory:  factory,
		embedder: embedder,
		path:     path,
		log:      logger.For("index"),
	}
}

// Current returns the loaded index, or nil.
func (h *IndexHandle) Current() driven.VectorIndex {
	if li := h.current.Load(); li != nil {
		return li.idx
	}
	return nil
}

// Info returns the loaded index metadata.
func (h *IndexHandle) Info() (domain.IndexInfo, bool) {
	idx := h.Current()
	if idx == nil {
		return domain.IndexInfo{}, false
	}
	return idx.Info(), true
}

// Path returns the index file path.
func (h *IndexHandle) Path() string {
	return h.path
}

// Reload loads the published index and swaps it in.
// On failure the previously loaded index stays in place.
func (h *IndexHandle) Reload(ctx context.Context) error {
	h.reload.Lock()
	defer h.reload.Unlock()

	snap, err := h.store.Load(ctx, h.path)
	if err != nil {
		return err
	}
	idx, err := h.factory.Build(snap.Chunks, snap.Info)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCorruptIndex, err)
	}
	if err := h.check(idx); err != nil {
		return err
	}

	h.current.Store(&loadedIndex{idx: idx})
	info := idx.Info()
	h.log.Info("loaded %d chunks (%d dimensions, model %s) from %s",
		info.Count, info.Dimensions, info.Model, h.path)
	return nil
}

// Set swaps in an index that was built in process.
func (h *IndexHandle) Set(idx driven.VectorIndex) error {
	if err := h.check(idx); err != nil {
		return err
	}
	h.current.Store(&loadedIndex{idx: idx})
	return nil
}

// check rejects an index the embedder cannot query.
func (h *IndexHandle) check(idx driven.VectorIndex) error {
	if h.embedder == nil {
		return nil
	}
	if dims := h.embedder.Dimensions(); dims > 0 && dims != idx.Dimensions() {
		return fmt.Errorf("%w: index has %d dimensions but embedder %s produces %d",
			domain.ErrDimensionMismatch, idx.Dimensions(), h.embedder.ModelName(), dims)
	}
	if model := idx.Info().Model; model != "" && model != h.embedder.ModelName() {
		h.log.Warn("index was built with model %s, querying with %s", model, h.embedder.ModelName())
	}
	return nil
}
