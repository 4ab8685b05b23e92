// Package openai provides an answer generator using the OpenAI chat
// completions API. BaseURL may point at any compatible server.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/llm"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure Generator implements the interface.
var _ driven.Generator = (*Generator)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 120 * time.Second

	providerName = "openai"
)

// Config holds configuration for the OpenAI generator.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for Azure OpenAI or compatible APIs.
	BaseURL string

	// Model is the model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// Generator produces answers using the OpenAI API.
type Generator struct {
	client openai.Client
	model  string
}

// New creates an OpenAI generator.
// A missing API key fails with domain.ErrConfig.
func New(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, llm.MissingCredential(domain.AIProviderOpenAI)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Generator{
		client: NewClient(cfg.APIKey, cfg.BaseURL, cfg.Timeout),
		model:  cfg.Model,
	}, nil
}

// NewClient builds an SDK client with retries disabled; the query service
// owns the retry policy.
func NewClient(apiKey, baseURL string, timeout time.Duration) openai.Client {
	return openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithRequestTimeout(timeout),
		option.WithMaxRetries(0),
	)
}

// Generate produces a completion for prompt.
func (g *Generator) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}
	if opts.Temperature > 0 {
		params.Temperature = openai.Float(opts.Temperature)
	}
	if len(opts.StopWords) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: opts.StopWords}
	}

	completion, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", Classify(err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: %s: no response choices returned", domain.ErrProvider, providerName)
	}
	return completion.Choices[0].Message.Content, nil
}

// Classify maps an SDK error onto the generation error taxonomy.
func Classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		var header http.Header
		if apiErr.Response != nil {
			header = apiErr.Response.Header
		}
		return llm.StatusError(providerName, apiErr.StatusCode, header, apiErr.Message)
	}
	return llm.TransportError(providerName, err)
}

// ModelName returns the name of the model being used.
func (g *Generator) ModelName() string {
	return g.model
}

// Ping validates the API key by listing models, without running inference.
func (g *Generator) Ping(ctx context.Context) error {
	if _, err := g.client.Models.List(ctx); err != nil {
		return Classify(err)
	}
	return nil
}

// Close releases resources.
func (g *Generator) Close() error {
	return nil
}
