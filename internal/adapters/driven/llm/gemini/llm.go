// Package gemini provides an answer generator using the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/llm"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure Generator implements the interface.
var _ driven.Generator = (*Generator)(nil)

// Default configuration values.
const (
	DefaultModel   = "gemini-2.5-flash"
	DefaultTimeout = 120 * time.Second

	providerName = "gemini"
)

// Config holds configuration for the Gemini generator.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// BaseURL overrides the API endpoint. Empty uses the SDK default.
	BaseURL string

	// Model is the model to use (default: gemini-2.5-flash).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// Generator produces answers using Gemini.
type Generator struct {
	client *genai.Client
	model  string
}

// New creates a Gemini generator.
// A missing API key fails with domain.ErrConfig.
func New(ctx context.Context, cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, llm.MissingCredential(domain.AIProviderGemini)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(cfg.BaseURL, "/") + "/"}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: gemini client: %w", domain.ErrConfig, err)
	}

	return &Generator{client: client, model: cfg.Model}, nil
}

// Generate produces a completion for prompt.
func (g *Generator) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:   genai.Ptr(float32(opts.Temperature)),
		StopSequences: opts.StopWords,
	}
	if opts.MaxTokens > 0 {
		config.MaxOutputTokens = int32(opts.MaxTokens)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", classify(err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: %s: empty response", domain.ErrProvider, providerName)
	}
	return text, nil
}

// classify maps SDK errors onto the generation taxonomy.
func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return llm.StatusError(providerName, apiErr.Code, nil, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return llm.StatusError(providerName, apiErrPtr.Code, nil, apiErrPtr.Message)
	}
	return llm.TransportError(providerName, err)
}

// ModelName returns the name of the model being used.
func (g *Generator) ModelName() string {
	return g.model
}

// Ping validates the key by fetching the configured model's metadata.
func (g *Generator) Ping(ctx context.Context) error {
	if _, err := g.client.Models.Get(ctx, g.model, nil); err != nil {
		return classify(err)
	}
	return nil
}

// Close releases resources.
func (g *Generator) Close() error {
	return nil
}
