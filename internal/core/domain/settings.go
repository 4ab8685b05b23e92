package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies a provider for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderHash is the built-in deterministic feature-hashing embedder.
	AIProviderHash AIProvider = "hash"

	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is the Google Gemini API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderHuggingFace is the Hugging Face Inference API.
	AIProviderHuggingFace AIProvider = "huggingface"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderHash, AIProviderOllama, AIProviderOpenAI,
		AIProviderAnthropic, AIProviderGemini, AIProviderHuggingFace:
		return true
	default:
		return false
	}
}

// SupportsEmbedding returns true if this provider can produce embeddings.
func (p AIProvider) SupportsEmbedding() bool {
	return p == AIProviderHash || p == AIProviderOllama || p == AIProviderOpenAI
}

// SupportsGeneration returns true if this provider can generate answers.
func (p AIProvider) SupportsGeneration() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic,
		AIProviderGemini, AIProviderHuggingFace:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs a credential.
func (p AIProvider) RequiresAPIKey() bool {
	switch p {
	case AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini, AIProviderHuggingFace:
		return true
	default:
		return false
	}
}

// EnvVar returns the environment variable holding this provider's credential.
func (p AIProvider) EnvVar() string {
	switch p {
	case AIProviderOpenAI:
		return "OPENAI_API_KEY"
	case AIProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case AIProviderGemini:
		return "GEMINI_API_KEY"
	case AIProviderHuggingFace:
		return "HF_TOKEN"
	default:
		return ""
	}
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderHash:
		return "Feature hashing (built-in, offline)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	case AIProviderHuggingFace:
		return "Hugging Face Inference (cloud)"
	default:
		return unknownDescription
	}
}

// ChunkStrategy selects the chunking algorithm.
type ChunkStrategy string

// Available chunk strategies.
const (
	// ChunkStrategyWindow is the greedy whitespace-preferring window split.
	ChunkStrategyWindow ChunkStrategy = "window"

	// ChunkStrategyRecursive is the separator-recursive split.
	ChunkStrategyRecursive ChunkStrategy = "recursive"
)

// PDFExtractor selects the PDF text extraction engine.
type PDFExtractor string

// Available PDF extractors.
const (
	PDFExtractorLedongthuc PDFExtractor = "ledongthuc"
	PDFExtractorUniPDF     PDFExtractor = "unipdf"
)

// Defaults.
const (
	DefaultCorpusDir      = "data"
	DefaultCorpusPattern  = "*.pdf"
	DefaultChunkSize      = 500
	DefaultChunkOverlap   = 200
	DefaultK              = 3
	DefaultIndexPath      = "vector_store/index.db"
	DefaultTemperature    = 0.5
	DefaultMaxTokens      = 512
	DefaultQueryTimeout   = 60 * time.Second
	DefaultInitialBackoff = 500 * time.Millisecond
	DefaultMaxBackoff     = 5 * time.Second
	DefaultServerAddr     = ":5000"
	DefaultEmbedBatchSize = 32
	DefaultWatchDebounce  = 2 * time.Second
)

// CorpusSettings configures the document loader.
type CorpusSettings struct {
	Dir              string
	Pattern          string
	Recursive        bool
	Extractor        PDFExtractor
	UniPDFLicenseKey string
}

// ChunkSettings configures the chunker.
type ChunkSettings struct {
	Strategy ChunkStrategy

	// Size and Overlap are counted in characters.
	Size    int
	Overlap int
}

// EmbeddingSettings holds embedding configuration.
type EmbeddingSettings struct {
	Provider   AIProvider
	Model      string
	BaseURL    string
	APIKey     string
	Dimensions int
	BatchSize  int
}

// LLMSettings holds answer generator configuration.
type LLMSettings struct {
	Provider    AIProvider
	Model       string
	BaseURL     string
	APIKey      string
	Temperature float64
	MaxTokens   int

	// RateLimit is the proactive request rate in requests per second.
	// Zero disables client-side throttling.
	RateLimit float64
}

// HasCredential returns true if the provider has what it needs to authenticate.
func (s LLMSettings) HasCredential() bool {
	return !s.Provider.RequiresAPIKey() || s.APIKey != ""
}

// QuerySettings configures the query service.
type QuerySettings struct {
	K              int
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// IndexSettings configures index persistence.
type IndexSettings struct {
	Path   string
	Format IndexFormat

	// ChromaURL enables mirroring the built index into a Chroma collection.
	ChromaURL        string
	ChromaCollection string
}

// ServerSettings configures the HTTP shell.
type ServerSettings struct {
	Addr      string
	StaticDir string
}

// WatchSettings configures rebuild-on-change.
type WatchSettings struct {
	// Debounce is how long the corpus must stay quiet before a rebuild.
	Debounce time.Duration
}

// Settings is the complete typed configuration.
type Settings struct {
	Corpus    CorpusSettings
	Chunk     ChunkSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Query     QuerySettings
	Index     IndexSettings
	Server    ServerSettings
	Watch     WatchSettings
	PromptDir string
}

// DefaultSettings returns settings matching the reference deployment:
// MiniLM-sized hash embeddings, Mistral-7B on Hugging Face, k=3.
func DefaultSettings() Settings {
	return Settings{
		Corpus: CorpusSettings{
			Dir:       DefaultCorpusDir,
			Pattern:   DefaultCorpusPattern,
			Extractor: PDFExtractorLedongthuc,
		},
		Chunk: ChunkSettings{
			Strategy: ChunkStrategyWindow,
			Size:     DefaultChunkSize,
			Overlap:  DefaultChunkOverlap,
		},
		Embedding: EmbeddingSettings{
			Provider:   AIProviderHash,
			Dimensions: 384,
			BatchSize:  DefaultEmbedBatchSize,
		},
		LLM: LLMSettings{
			Provider:    AIProviderHuggingFace,
			Model:       "mistralai/Mistral-7B-Instruct-v0.3",
			Temperature: DefaultTemperature,
			MaxTokens:   DefaultMaxTokens,
		},
		Query: QuerySettings{
			K:              DefaultK,
			Timeout:        DefaultQueryTimeout,
			InitialBackoff: DefaultInitialBackoff,
			MaxBackoff:     DefaultMaxBackoff,
		},
		Index: IndexSettings{
			Path:             DefaultIndexPath,
			Format:           IndexFormatSQLite,
			ChromaCollection: "ragchat",
		},
		Server: ServerSettings{
			Addr: DefaultServerAddr,
		},
		Watch: WatchSettings{
			Debounce: DefaultWatchDebounce,
		},
	}
}

// Validate checks every setting that would otherwise fail mid-run.
// Credentials are checked by the provider factory, not here, so that
// commands that never generate (build) can run without one.
func (s *Settings) Validate() error {
	if s.Corpus.Pattern == "" {
		return fmt.Errorf("%w: corpus.pattern must not be empty", ErrConfig)
	}
	if s.Corpus.Extractor != PDFExtractorLedongthuc && s.Corpus.Extractor != PDFExtractorUniPDF {
		return fmt.Errorf("%w: unknown corpus.extractor %q", ErrConfig, s.Corpus.Extractor)
	}
	if s.Chunk.Strategy != ChunkStrategyWindow && s.Chunk.Strategy != ChunkStrategyRecursive {
		return fmt.Errorf("%w: unknown chunker.strategy %q", ErrConfig, s.Chunk.Strategy)
	}
	if s.Chunk.Size <= 0 {
		return fmt.Errorf("%w: chunker.size must be positive, got %d", ErrConfig, s.Chunk.Size)
	}
	if s.Chunk.Overlap <= 0 || s.Chunk.Overlap >= s.Chunk.Size {
		return fmt.Errorf("%w: chunker.overlap must satisfy 0 < overlap < size, got %d (size %d)",
			ErrConfig, s.Chunk.Overlap, s.Chunk.Size)
	}
	if !s.Embedding.Provider.SupportsEmbedding() {
		return fmt.Errorf("%w: embedding.provider %q does not support embeddings", ErrConfig, s.Embedding.Provider)
	}
	if !s.LLM.Provider.SupportsGeneration() {
		return fmt.Errorf("%w: llm.provider %q does not support generation", ErrConfig, s.LLM.Provider)
	}
	if s.LLM.Temperature < 0 {
		return fmt.Errorf("%w: llm.temperature must not be negative", ErrConfig)
	}
	if s.LLM.MaxTokens <= 0 {
		return fmt.Errorf("%w: llm.max_tokens must be positive", ErrConfig)
	}
	if s.Query.K <= 0 {
		return fmt.Errorf("%w: retrieval.k must be positive, got %d", ErrConfig, s.Query.K)
	}
	if s.Query.Timeout <= 0 {
		return fmt.Errorf("%w: query.timeout must be positive", ErrConfig)
	}
	if s.Query.MaxRetries < 0 {
		return fmt.Errorf("%w: query.max_retries must not be negative", ErrConfig)
	}
	if s.Watch.Debounce <= 0 {
		return fmt.Errorf("%w: watch.debounce must be positive", ErrConfig)
	}
	if s.Index.Path == "" {
		return fmt.Errorf("%w: index.path must not be empty", ErrConfig)
	}
	if !s.Index.Format.IsValid() {
		return fmt.Errorf("%w: unknown index.format %q", ErrConfig, s.Index.Format)
	}
	return nil
}
