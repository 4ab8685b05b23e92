// Package throttle wraps a Generator with a client-side token bucket.
package throttle

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure Generator implements the interface.
var _ driven.Generator = (*Generator)(nil)

// DefaultBurst is used when Wrap is given a non-positive burst.
const DefaultBurst = 1

// Generator delays calls so the wrapped provider sees at most the
// configured request rate. A rate limit reported by the provider pauses
// all callers until its retry hint has passed.
type Generator struct {
	next    driven.Generator
	limiter *rate.Limiter

	mu      sync.Mutex
	retryAt time.Time
	now     func() time.Time
}

// Wrap returns gen throttled to rps requests per second.
// A non-positive rps returns gen unchanged.
func Wrap(gen driven.Generator, rps float64, burst int) driven.Generator {
	if rps <= 0 {
		return gen
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	return &Generator{
		next:    gen,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		now:     time.Now,
	}
}

// Generate waits for a token, then delegates.
func (g *Generator) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if err := g.wait(ctx); err != nil {
		return "", err
	}

	text, err := g.next.Generate(ctx, prompt, opts)

	var rl *domain.RateLimitError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		g.mu.Lock()
		if until := g.now().Add(rl.RetryAfter); until.After(g.retryAt) {
			g.retryAt = until
		}
		g.mu.Unlock()
	}
	return text, err
}

func (g *Generator) wait(ctx context.Context) error {
	g.mu.Lock()
	pause := g.retryAt.Sub(g.now())
	g.mu.Unlock()

	if pause > 0 {
		timer := time.NewTimer(pause)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	// rate.Limiter.Wait fails early when the deadline cannot be met.
	if err := g.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return context.DeadlineExceeded
	}
	return nil
}

// ModelName returns the wrapped model name.
func (g *Generator) ModelName() string {
	return g.next.ModelName()
}

// Ping delegates without consuming a token.
func (g *Generator) Ping(ctx context.Context) error {
	return g.next.Ping(ctx)
}

// Close closes the wrapped generator.
func (g *Generator) Close() error {
	return g.next.Close()
}
