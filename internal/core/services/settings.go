package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyCorpusDir        = "corpus.dir"
	KeyCorpusPattern    = "corpus.pattern"
	KeyCorpusRecursive  = "corpus.recursive"
	KeyCorpusExtractor  = "corpus.extractor"
	KeyUniPDFLicenseKey = "corpus.unipdf_license_key"
	KeyChunkStrategy    = "chunker.strategy"
	KeyChunkSize        = "chunker.size"
	KeyChunkOverlap     = "chunker.overlap"
	KeyEmbedProvider    = "embedding.provider"
	KeyEmbedModel       = "embedding.model"
	KeyEmbedBaseURL     = "embedding.base_url"
	KeyEmbedAPIKey      = "embedding.api_key"
	KeyEmbedDimensions  = "embedding.dimensions"
	KeyEmbedBatchSize   = "embedding.batch_size"
	KeyLLMProvider      = "llm.provider"
	KeyLLMModel         = "llm.model"
	KeyLLMBaseURL       = "llm.base_url"
	KeyLLMAPIKey        = "llm.api_key"
	KeyLLMTemperature   = "llm.temperature"
	KeyLLMMaxTokens     = "llm.max_tokens"
	KeyLLMRateLimit     = "llm.rate_limit"
	KeyRetrievalK       = "retrieval.k"
	KeyQueryTimeout     = "query.timeout"
	KeyQueryMaxRetries  = "query.max_retries"
	KeyQueryBackoff     = "query.initial_backoff"
	KeyQueryMaxBackoff  = "query.max_backoff"
	KeyIndexPath        = "index.path"
	KeyIndexFormat      = "index.format"
	KeyChromaURL        = "index.chroma.url"
	KeyChromaCollection = "index.chroma.collection"
	KeyServerAddr       = "server.addr"
	KeyServerStaticDir  = "server.static_dir"
	KeyWatchDebounce    = "watch.debounce"
	KeyPromptDir        = "prompts.dir"
)

// EnvUniPDFLicenseKey holds the unipdf metered license key.
//
//nolint:gosec // G101: environment variable name.
const EnvUniPDFLicenseKey = "UNIDOC_LICENSE_KEY"

// LoadSettings reads typed settings from store over the defaults and
// validates them. Credentials missing from the store are taken from the
// provider's environment variable via getenv.
func LoadSettings(store driven.ConfigStore, getenv func(string) string) (domain.Settings, error) {
	s := domain.DefaultSettings()
	r := settingsReader{store: store}

	s.Corpus.Dir = r.str(KeyCorpusDir, s.Corpus.Dir)
	s.Corpus.Pattern = r.str(KeyCorpusPattern, s.Corpus.Pattern)
	s.Corpus.Recursive = r.boolean(KeyCorpusRecursive, s.Corpus.Recursive)
	s.Corpus.Extractor = domain.PDFExtractor(r.str(KeyCorpusExtractor, string(s.Corpus.Extractor)))
	s.Corpus.UniPDFLicenseKey = r.str(KeyUniPDFLicenseKey, getenv(EnvUniPDFLicenseKey))

	s.Chunk.Strategy = domain.ChunkStrategy(r.str(KeyChunkStrategy, string(s.Chunk.Strategy)))
	s.Chunk.Size = r.integer(KeyChunkSize, s.Chunk.Size)
	s.Chunk.Overlap = r.integer(KeyChunkOverlap, s.Chunk.Overlap)

	embedProvider := domain.AIProvider(r.str(KeyEmbedProvider, string(s.Embedding.Provider)))
	if embedProvider != s.Embedding.Provider {
		// Zero lets the adapter use its model's native size.
		s.Embedding.Dimensions = 0
	}
	s.Embedding.Provider = embedProvider
	s.Embedding.Model = r.str(KeyEmbedModel, s.Embedding.Model)
	s.Embedding.BaseURL = r.str(KeyEmbedBaseURL, "")
	s.Embedding.APIKey = r.str(KeyEmbedAPIKey, getenv(s.Embedding.Provider.EnvVar()))
	s.Embedding.Dimensions = r.integer(KeyEmbedDimensions, s.Embedding.Dimensions)
	s.Embedding.BatchSize = r.integer(KeyEmbedBatchSize, s.Embedding.BatchSize)

	llmProvider := domain.AIProvider(r.str(KeyLLMProvider, string(s.LLM.Provider)))
	if llmProvider != s.LLM.Provider {
		// The default model belongs to the default provider.
		s.LLM.Model = ""
	}
	s.LLM.Provider = llmProvider
	s.LLM.Model = r.str(KeyLLMModel, s.LLM.Model)
	s.LLM.BaseURL = r.str(KeyLLMBaseURL, "")
	s.LLM.APIKey = r.str(KeyLLMAPIKey, getenv(s.LLM.Provider.EnvVar()))
	s.LLM.Temperature = r.float(KeyLLMTemperature, s.LLM.Temperature)
	s.LLM.MaxTokens = r.integer(KeyLLMMaxTokens, s.LLM.MaxTokens)
	s.LLM.RateLimit = r.float(KeyLLMRateLimit, s.LLM.RateLimit)

	s.Query.K = r.integer(KeyRetrievalK, s.Query.K)
	s.Query.MaxRetries = r.integer(KeyQueryMaxRetries, s.Query.MaxRetries)

	var err error
	if s.Query.Timeout, err = r.duration(KeyQueryTimeout, s.Query.Timeout); err != nil {
		return s, err
	}
	if s.Query.InitialBackoff, err = r.duration(KeyQueryBackoff, s.Query.InitialBackoff); err != nil {
		return s, err
	}
	if s.Query.MaxBackoff, err = r.duration(KeyQueryMaxBackoff, s.Query.MaxBackoff); err != nil {
		return s, err
	}
	if s.Watch.Debounce, err = r.duration(KeyWatchDebounce, s.Watch.Debounce); err != nil {
		return s, err
	}

	s.Index.Path = r.str(KeyIndexPath, s.Index.Path)
	s.Index.Format = domain.IndexFormat(r.str(KeyIndexFormat, string(s.Index.Format)))
	s.Index.ChromaURL = r.str(KeyChromaURL, s.Index.ChromaURL)
	s.Index.ChromaCollection = r.str(KeyChromaCollection, s.Index.ChromaCollection)

	s.Server.Addr = r.str(KeyServerAddr, s.Server.Addr)
	s.Server.StaticDir = r.str(KeyServerStaticDir, s.Server.StaticDir)
	s.PromptDir = r.str(KeyPromptDir, s.PromptDir)

	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// settingsReader reads typed values with defaults for absent keys.
type settingsReader struct {
	store driven.ConfigStore
}

func (r settingsReader) has(key string) bool {
	_, ok := r.store.Get(key)
	return ok
}

func (r settingsReader) str(key, def string) string {
	if v := strings.TrimSpace(r.store.GetString(key)); v != "" {
		return v
	}
	return def
}

func (r settingsReader) integer(key string, def int) int {
	if !r.has(key) {
		return def
	}
	return r.store.GetInt(key)
}

func (r settingsReader) float(key string, def float64) float64 {
	if !r.has(key) {
		return def
	}
	return r.store.GetFloat(key)
}

func (r settingsReader) boolean(key string, def bool) bool {
	if !r.has(key) {
		return def
	}
	return r.store.GetBool(key)
}

// duration accepts Go duration strings ("30s") or whole seconds.
func (r settingsReader) duration(key string, def time.Duration) (time.Duration, error) {
	if !r.has(key) {
		return def, nil
	}
	if s := r.store.GetString(key); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %w", domain.ErrConfig, key, err)
		}
		return d, nil
	}
	return time.Duration(r.store.GetInt(key)) * time.Second, nil
}
