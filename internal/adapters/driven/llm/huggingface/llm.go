// Package huggingface provides an answer generator backed by the
// Hugging Face Inference text-generation API.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/llm"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure Generator implements the interface.
var _ driven.Generator = (*Generator)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://router.huggingface.co/hf-inference/models"
	DefaultModel   = "mistralai/Mistral-7B-Instruct-v0.3"
	DefaultTimeout = 120 * time.Second

	providerName = "huggingface"
)

// Config holds configuration for the Hugging Face generator.
type Config struct {
	// Token is the Hugging Face access token (required).
	Token string

	// BaseURL is the models endpoint; the model ID is appended.
	BaseURL string

	// Model is the repository ID (default: mistralai/Mistral-7B-Instruct-v0.3).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// Generator produces answers with a hosted text-generation model.
type Generator struct {
	client  *http.Client
	baseURL string
	token   string
	model   string
}

type generateRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters generateParameters `json:"parameters"`
}

type generateParameters struct {
	Temperature    float64  `json:"temperature,omitempty"`
	MaxNewTokens   int      `json:"max_new_tokens,omitempty"`
	DoSample       bool     `json:"do_sample"`
	ReturnFullText bool     `json:"return_full_text"`
	Stop           []string `json:"stop,omitempty"`
}

type generateResult struct {
	GeneratedText string `json:"generated_text"`
}

type errorResponse struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time"`
}

// New creates a Hugging Face generator.
// A missing token fails with domain.ErrConfig.
func New(cfg Config) (*Generator, error) {
	if cfg.Token == "" {
		return nil, llm.MissingCredential(domain.AIProviderHuggingFace)
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
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		model:   cfg.Model,
	}, nil
}

// Generate produces a completion for prompt.
func (g *Generator) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	reqBody := generateRequest{
		Inputs: prompt,
		Parameters: generateParameters{
			Temperature:  opts.Temperature,
			MaxNewTokens: opts.MaxTokens,
			DoSample:     opts.Temperature > 0,
			Stop:         opts.StopWords,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.modelURL(), bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.token)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", llm.TransportError(providerName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", llm.TransportError(providerName, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", g.statusError(resp, body)
	}

	var results []generateResult
	if err := json.Unmarshal(body, &results); err != nil {
		return "", fmt.Errorf("%w: %s: decode response: %w", domain.ErrProvider, providerName, err)
	}
	if len(results) == 0 {
		return "", fmt.Errorf("%w: %s: no generations returned", domain.ErrProvider, providerName)
	}
	return results[0].GeneratedText, nil
}

// statusError classifies a failed response. A model that is still loading
// is reported as rate limited with the estimated wait, so it is retried.
func (g *Generator) statusError(resp *http.Response, body []byte) error {
	var er errorResponse
	_ = json.Unmarshal(body, &er)
	detail := er.Error
	if detail == "" {
		detail = string(body)
	}

	if resp.StatusCode == http.StatusServiceUnavailable && er.EstimatedTime > 0 {
		return fmt.Errorf("%w: %s", &domain.RateLimitError{
			Provider:   providerName,
			RetryAfter: time.Duration(er.EstimatedTime * float64(time.Second)),
		}, detail)
	}
	return llm.StatusError(providerName, resp.StatusCode, resp.Header, detail)
}

func (g *Generator) modelURL() string {
	return g.baseURL + "/" + g.model
}

// ModelName returns the model repository ID.
func (g *Generator) ModelName() string {
	return g.model
}

// Ping checks that the token is accepted.
func (g *Generator) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://huggingface.co/api/whoami-v2", http.NoBody)
	if err != nil {
		return fmt.Errorf("huggingface: failed to create ping request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.token)

	resp, err := g.client.Do(req)
	if err != nil {
		return llm.TransportError(providerName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return llm.StatusError(providerName, resp.StatusCode, resp.Header, "ping failed")
	}
	return nil
}

// Close releases resources.
func (g *Generator) Close() error {
	return nil
}
