// Package llm holds helpers shared by the answer generator adapters.
// Provider packages live in its subdirectories.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// maxDetail bounds how much of an upstream error body is kept.
const maxDetail = 300

// StatusError maps an HTTP failure onto the generation error taxonomy.
// detail is upstream text for logs; it must never contain the credential.
func StatusError(provider string, status int, header http.Header, detail string) error {
	detail = truncate(strings.TrimSpace(detail))

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s (status %d): %s", domain.ErrAuth, provider, status, detail)

	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", &domain.RateLimitError{
			Provider:   provider,
			RetryAfter: RetryAfter(header, time.Now()),
		}, detail)

	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %s (status %d): %s", domain.ErrTimeout, provider, status, detail)

	default:
		return fmt.Errorf("%w: %s (status %d): %s", domain.ErrProvider, provider, status, detail)
	}
}

// TransportError maps a failure to reach the provider onto the taxonomy.
// Deadline and network timeouts become domain.ErrTimeout; caller
// cancellation is returned unchanged.
func TransportError(provider string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %w", domain.ErrTimeout, provider, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %s: %w", domain.ErrTimeout, provider, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrProvider, provider, err)
}

// RetryAfter parses a Retry-After header given in seconds or as an HTTP date.
// It returns zero when the header is absent or unparseable.
func RetryAfter(header http.Header, now time.Time) time.Duration {
	v := strings.TrimSpace(header.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// MissingCredential is the construction error for a provider without its key.
func MissingCredential(provider domain.AIProvider) error {
	if env := provider.EnvVar(); env != "" {
		return fmt.Errorf("%w: %s requires an API key (set %s or llm.api_key)", domain.ErrConfig, provider, env)
	}
	return fmt.Errorf("%w: %s requires an API key", domain.ErrConfig, provider)
}

func truncate(s string) string {
	if len(s) <= maxDetail {
		return s
	}
	return s[:maxDetail] + "..."
}
