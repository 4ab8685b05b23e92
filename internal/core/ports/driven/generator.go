package driven

import "context"

// Generator produces an answer from an assembled prompt.
//
// It is treated as a remote call. Implementations map failures onto
// domain.ErrAuth, domain.ErrRateLimited, domain.ErrTimeout and
// domain.ErrProvider, and never include credentials in error text.
// A provider that needs a credential fails with domain.ErrConfig at
// construction when none is configured.
type Generator interface {
	// Generate produces a completion for prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}
