package ai

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// CheckResult is the outcome of validating one provider.
type CheckResult struct {
	// Component is "embedding" or "llm".
	Component string
	Provider  domain.AIProvider
	Model     string
	Err       error
}

// OK returns true if the provider was created and answered a ping.
func (r CheckResult) OK() bool {
	return r.Err == nil
}

// ConfigValidator validates AI provider configurations.
type ConfigValidator struct{}

// NewConfigValidator creates a new AI config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// Check creates both providers from settings and pings them.
// It always returns one result per component.
func (v *ConfigValidator) Check(ctx context.Context, settings domain.Settings) []CheckResult {
	results := make([]CheckResult, 0, 2)

	emb := CheckResult{Component: "embedding", Provider: settings.Embedding.Provider}
	if e, err := CreateAndValidateEmbedder(ctx, settings.Embedding); err != nil {
		emb.Err = err
	} else {
		emb.Model = e.ModelName()
		e.Close()
	}
	results = append(results, emb)

	gen := CheckResult{Component: "llm", Provider: settings.LLM.Provider}
	if g, err := CreateAndValidateGenerator(ctx, settings.LLM); err != nil {
		gen.Err = err
	} else {
		gen.Model = g.ModelName()
		g.Close()
	}
	results = append(results, gen)

	return results
}
