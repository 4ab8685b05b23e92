package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/ai"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/loader"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/bolt"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/chroma"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/core/services"
	"github.com/custodia-labs/ragchat/internal/normalisers"
	"github.com/custodia-labs/ragchat/internal/postprocessors"
)

// Wired components. Commands obtain them through the require functions,
// which build whatever is still nil from configuration. Tests assign them
// directly.
var (
	configStore  driven.ConfigStore
	settings     *domain.Settings
	promptStore  driven.PromptStore
	embedder     driven.Embedder
	indexHandle  *services.IndexHandle
	indexManager driving.IndexManager
	indexBuilder driving.IndexBuilder
	queryService driving.QueryService

	closers []io.Closer
)

func requireConfigStore() (driven.ConfigStore, error) {
	if configStore != nil {
		return configStore, nil
	}
	store, err := file.NewConfigStore(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("%w: open config: %w", domain.ErrConfig, err)
	}
	configStore = store
	return store, nil
}

// requireSettings loads and validates configuration.
func requireSettings() (domain.Settings, error) {
	if settings != nil {
		return *settings, nil
	}
	store, err := requireConfigStore()
	if err != nil {
		return domain.Settings{}, err
	}

	s, err := services.LoadSettings(store, os.Getenv)
	if err != nil {
		return domain.Settings{}, err
	}
	settings = &s
	return s, nil
}

func requireEmbedder(s domain.Settings) (driven.Embedder, error) {
	if embedder != nil {
		return embedder, nil
	}
	e, err := ai.CreateEmbedder(s.Embedding)
	if err != nil {
		return nil, err
	}
	embedder = e
	closers = append(closers, e)
	return e, nil
}

func requirePrompts(s domain.Settings) (driven.PromptStore, error) {
	if promptStore != nil {
		return promptStore, nil
	}
	store, err := file.NewPromptStore(s.PromptDir)
	if err != nil {
		return nil, err
	}
	promptStore = store
	return store, nil
}

// indexStoreFor selects the persistence format.
func indexStoreFor(format domain.IndexFormat) (driven.IndexStore, error) {
	switch format {
	case domain.IndexFormatSQLite, "":
		return sqlite.NewIndexStore(), nil
	case domain.IndexFormatBolt:
		return bolt.NewIndexStore(), nil
	default:
		return nil, fmt.Errorf("%w: unknown index.format %q", domain.ErrConfig, format)
	}
}

// requireIndex returns the index manager, loading the published index.
// A missing index is logged and left unloaded, so queries fail with a
// not-found error until a build and reload succeed. Any other load error,
// such as a corrupt file or an index built with a different embedding
// model, is returned.
func requireIndex(ctx context.Context) (driving.IndexManager, error) {
	if indexManager != nil {
		return indexManager, nil
	}
	s, err := requireSettings()
	if err != nil {
		return nil, err
	}
	emb, err := requireEmbedder(s)
	if err != nil {
		return nil, err
	}
	store, err := indexStoreFor(s.Index.Format)
	if err != nil {
		return nil, err
	}

	handle := services.NewIndexHandle(store, memory.Factory{}, emb, s.Index.Path)
	if err := handle.Reload(ctx); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("loading index %s: %w (run 'ragchat build' to rebuild it)", s.Index.Path, err)
		}
		log.Warn("no index at %s; run 'ragchat build' first", s.Index.Path)
	}
	indexHandle = handle
	indexManager = handle
	return handle, nil
}

// requireBuilder returns the index builder. force removes a stale build lock.
func requireBuilder(force bool) (driving.IndexBuilder, error) {
	if indexBuilder != nil {
		return indexBuilder, nil
	}
	s, err := requireSettings()
	if err != nil {
		return nil, err
	}
	emb, err := requireEmbedder(s)
	if err != nil {
		return nil, err
	}
	registry, err := normalisers.NewDefaultRegistry(s.Corpus)
	if err != nil {
		return nil, err
	}
	chunker, err := postprocessors.NewChunker(s.Chunk)
	if err != nil {
		return nil, err
	}
	store, err := indexStoreFor(s.Index.Format)
	if err != nil {
		return nil, err
	}

	builder := services.NewIndexBuilder(
		loader.New(registry, loader.WithRecursive(s.Corpus.Recursive)),
		chunker, emb, memory.Factory{}, store,
		services.BuildConfig{
			CorpusDir: s.Corpus.Dir,
			Pattern:   s.Corpus.Pattern,
			IndexPath: s.Index.Path,
			BatchSize: s.Embedding.BatchSize,
			Force:     force,
		},
	)
	if s.Index.ChromaURL != "" {
		mirror, err := chroma.New(s.Index.ChromaURL, s.Index.ChromaCollection)
		if err != nil {
			return nil, err
		}
		builder.SetMirror(mirror)
		closers = append(closers, mirror)
	}
	indexBuilder = builder
	return builder, nil
}

// requireQuery returns the query service. A missing generator credential
// fails here, before anything is served.
func requireQuery(ctx context.Context) (driving.QueryService, error) {
	if queryService != nil {
		return queryService, nil
	}
	s, err := requireSettings()
	if err != nil {
		return nil, err
	}
	generator, err := ai.CreateGenerator(ctx, s.LLM)
	if err != nil {
		return nil, err
	}
	closers = append(closers, generator)

	prompts, err := requirePrompts(s)
	if err != nil {
		return nil, err
	}
	tmpl, err := prompts.Load(driven.PromptAnswer)
	if err != nil {
		return nil, err
	}
	assembler, err := services.NewPromptAssembler(tmpl)
	if err != nil {
		return nil, err
	}

	if _, err := requireIndex(ctx); err != nil {
		return nil, err
	}
	if indexHandle == nil {
		return nil, errors.New("index handle not configured")
	}

	svc := services.NewQueryService(indexHandle, embedder, assembler, generator, services.QueryConfigFromSettings(s))
	svc.SetObserver(func(requestID string, from, to domain.QueryState) {
		log.Debug("request %s: %s -> %s", requestID, from, to)
	})
	queryService = svc
	return svc, nil
}

// greeting returns the assistant's opening line, or "" if none is configured.
func greeting() string {
	s, err := requireSettings()
	if err != nil {
		return ""
	}
	prompts, err := requirePrompts(s)
	if err != nil {
		return ""
	}
	text, err := prompts.Load(driven.PromptGreeting)
	if err != nil {
		log.Debug("greeting prompt: %v", err)
		return ""
	}
	return text
}

// closeServices releases wired resources in reverse order.
func closeServices() {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			log.Warn("close: %v", err)
		}
	}
	closers = nil
}
