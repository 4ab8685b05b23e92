package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure IndexBuilder implements the interface.
var _ driving.IndexBuilder = (*IndexBuilder)(nil)

// BuildConfig holds the index build parameters.
type BuildConfig struct {
	CorpusDir string
	Pattern   string
	IndexPath string
	BatchSize int

	// Force removes a stale build lock before starting.
	Force bool
}

// IndexBuilder runs the full corpus-to-index pipeline:
// load, chunk, embed, build, publish.
type IndexBuilder struct {
	loader   driven.DocumentLoader
	chunker  driven.Chunker
	embedder driven.Embedder
	factory  driven.VectorIndexFactory
	store    driven.IndexStore
	mirror   driven.IndexMirror
	cfg      BuildConfig
	now      func() time.Time
	log      *logger.Logger
}

// NewIndexBuilder creates an index builder.
func NewIndexBuilder(
	loader driven.DocumentLoader,
	chunker driven.Chunker,
	embedder driven.Embedder,
	factory driven.VectorIndexFactory,
	store driven.IndexStore,
	cfg BuildConfig,
) *IndexBuilder {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = domain.DefaultEmbedBatchSize
	}
	return &IndexBuilder{
		loader:   loader,
		chunker:  chunker,
		embedder: embedder,
		factory:  factory,
		store:    store,
		cfg:      cfg,
		now:      time.Now,
		log:      logger.For("build"),
	}
}

// SetMirror sets an external store that receives a copy of every
// published index. Mirror failures are reported as build warnings.
func (b *IndexBuilder) SetMirror(m driven.IndexMirror) {
	b.mirror = m
}

// Build rebuilds the index from the corpus and publishes it.
// The previously published index is untouched unless the build succeeds.
func (b *IndexBuilder) Build(ctx context.Context) (*domain.BuildReport, error) {
	start := b.now()

	lock, err := acquireBuildLock(b.cfg.IndexPath, b.cfg.Force)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := lock.release(); rerr != nil {
			b.log.Warn("release build lock: %v", rerr)
		}
	}()

	logger.Section("Index Build")
	b.log.Info("loading %s from %s", b.cfg.Pattern, b.cfg.CorpusDir)

	loaded, err := b.loader.Load(ctx, b.cfg.CorpusDir, b.cfg.Pattern)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	b.log.Info("loaded %d documents from %d files", len(loaded.Documents), loaded.Files)
	for _, s := range loaded.Skipped {
		b.log.Warn("skipped %s: %s", s.Path, s.Reason)
	}

	chunks, err := b.chunker.Chunk(ctx, loaded.Documents)
	if err != nil {
		return nil, fmt.Errorf("chunk documents: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: documents in %s contain no text", domain.ErrEmptyCorpus, b.cfg.CorpusDir)
	}
	b.log.Info("created %d chunks (%s)", len(chunks), b.chunker.Name())

	if err := b.embed(ctx, chunks); err != nil {
		return nil, err
	}

	info := domain.IndexInfo{
		Model:   b.embedder.ModelName(),
		BuiltAt: b.now().UTC(),
		Format:  b.store.Format(),
	}
	idx, err := b.factory.Build(chunks, info)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	snapshot := idx.Snapshot()
	if err := b.store.Save(ctx, b.cfg.IndexPath, snapshot); err != nil {
		return nil, fmt.Errorf("publish index: %w", err)
	}
	b.log.Info("published %d chunks to %s", idx.Len(), b.cfg.IndexPath)

	report := &domain.BuildReport{
		Documents:  len(loaded.Documents),
		Skipped:    loaded.Skipped,
		Chunks:     idx.Len(),
		Dimensions: idx.Dimensions(),
		Path:       b.cfg.IndexPath,
	}

	if b.mirror != nil {
		if err := b.mirror.Replace(ctx, snapshot); err != nil {
			b.log.Warn("mirror update failed: %v", err)
			report.Warnings = append(report.Warnings, fmt.Sprintf("mirror update failed: %v", err))
		}
	}

	report.Duration = b.now().Sub(start)
	return report, nil
}

// embed fills in chunk embeddings in batches.
func (b *IndexBuilder) embed(ctx context.Context, chunks []domain.Chunk) error {
	batches := (len(chunks) + b.cfg.BatchSize - 1) / b.cfg.BatchSize
	for n := 0; n < batches; n++ {
		lo := n * b.cfg.BatchSize
		hi := min(lo+b.cfg.BatchSize, len(chunks))

		texts := make([]string, 0, hi-lo)
		for _, c := range chunks[lo:hi] {
			texts = append(texts, c.Content)
		}

		vectors, err := b.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed batch %d: %w", n+1, err)
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("embed batch %d: %w: got %d vectors for %d texts",
				n+1, domain.ErrEmbeddingUnavailable, len(vectors), len(texts))
		}
		for i, v := range vectors {
			chunks[lo+i].Embedding = v
		}
		b.log.Info("embedded batch %d/%d (%d chunks)", n+1, batches, hi)
	}
	return nil
}
