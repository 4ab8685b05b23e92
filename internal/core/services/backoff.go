package services

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// Backoff computes exponential retry delays.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
}

// Delay returns the wait before retry number attempt+1.
// It is Initial * 2^attempt, raised to the provider's Retry-After hint when
// that is longer, and capped at Max.
func (b Backoff) Delay(attempt int, err error) time.Duration {
	d := b.Initial
	for i := 0; i < attempt; i++ {
		d *= 2
		if b.Max > 0 && d >= b.Max {
			d = b.Max
			break
		}
	}

	var rl *domain.RateLimitError
	if errors.As(err, &rl) && rl.RetryAfter > d {
		d = rl.RetryAfter
	}

	if b.Max > 0 && d > b.Max {
		d = b.Max
	}
	return d
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
