// Package ai provides factory functions for creating embedding and
// generation adapters from settings.
package ai

import (
	"context"
	"fmt"
	"time"

	hashembed "github.com/custodia-labs/ragchat/internal/adapters/driven/embedding/hash"
	ollamaembed "github.com/custodia-labs/ragchat/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/ragchat/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/ragchat/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/ragchat/internal/adapters/driven/llm/gemini"
	hfllm "github.com/custodia-labs/ragchat/internal/adapters/driven/llm/huggingface"
	ollamallm "github.com/custodia-labs/ragchat/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/ragchat/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/llm/throttle"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// throttleBurst is the token bucket size used when llm.rate_limit is set.
const throttleBurst = 2

// CreateEmbedder creates the embedder named by settings.
// Unknown or generation-only providers fail with domain.ErrConfig.
func CreateEmbedder(settings domain.EmbeddingSettings) (driven.Embedder, error) {
	switch settings.Provider {
	case domain.AIProviderHash, "":
		emb, err := hashembed.New(settings.Dimensions)
		if err != nil {
			return nil, err
		}
		return emb, nil

	case domain.AIProviderOllama:
		return ollamaembed.New(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		}), nil

	case domain.AIProviderOpenAI:
		emb, err := openaiembed.New(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})
		if err != nil {
			return nil, err
		}
		return emb, nil

	default:
		return nil, fmt.Errorf("%w: %s does not support embeddings, use hash, ollama or openai",
			domain.ErrConfig, settings.Provider)
	}
}

// CreateGenerator creates the answer generator named by settings.
// A provider that needs a credential fails with domain.ErrConfig when
// none is configured. A positive RateLimit wraps the result in a throttle.
func CreateGenerator(ctx context.Context, settings domain.LLMSettings) (driven.Generator, error) {
	gen, err := createGenerator(ctx, settings)
	if err != nil {
		return nil, err
	}
	return throttle.Wrap(gen, settings.RateLimit, throttleBurst), nil
}

func createGenerator(ctx context.Context, settings domain.LLMSettings) (driven.Generator, error) {
	switch settings.Provider {
	case domain.AIProviderHuggingFace:
		return hfllm.New(hfllm.Config{
			Token:   settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderOllama:
		return ollamallm.New(ollamallm.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.New(openaillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.New(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderGemini:
		return geminillm.New(ctx, geminillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("%w: unsupported llm provider %q", domain.ErrConfig, settings.Provider)
	}
}

// CreateAndValidateEmbedder creates an embedder and checks it is reachable.
func CreateAndValidateEmbedder(ctx context.Context, settings domain.EmbeddingSettings) (driven.Embedder, error) {
	emb, err := CreateEmbedder(settings)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := emb.Ping(pingCtx); err != nil {
		emb.Close()
		return nil, fmt.Errorf("%w: %s unreachable (%w). Run 'ragchat config check' to diagnose",
			domain.ErrEmbeddingUnavailable, settings.Provider, err)
	}
	return emb, nil
}

// CreateAndValidateGenerator creates a generator and checks the provider
// accepts the credential.
func CreateAndValidateGenerator(ctx context.Context, settings domain.LLMSettings) (driven.Generator, error) {
	gen, err := CreateGenerator(ctx, settings)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := gen.Ping(pingCtx); err != nil {
		gen.Close()
		return nil, fmt.Errorf("%s unreachable: %w", settings.Provider, err)
	}
	return gen, nil
}
