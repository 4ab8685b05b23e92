package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrConfig", ErrConfig},
		{"ErrLoad", ErrLoad},
		{"ErrNotFound", ErrNotFound},
		{"ErrCorruptIndex", ErrCorruptIndex},
		{"ErrEmptyCorpus", ErrEmptyCorpus},
		{"ErrInvalidK", ErrInvalidK},
		{"ErrTemplate", ErrTemplate},
		{"ErrDimensionMismatch", ErrDimensionMismatch},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrBuildInProgress", ErrBuildInProgress},
		{"ErrAuth", ErrAuth},
		{"ErrRateLimited", ErrRateLimited},
		{"ErrTimeout", ErrTimeout},
		{"ErrProvider", ErrProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ""},
		{"wrapped config", fmt.Errorf("%w: missing HF_TOKEN", ErrConfig), KindConfig},
		{"wrapped twice", fmt.Errorf("load: %w", fmt.Errorf("%w: bad blob", ErrCorruptIndex)), KindCorruptIndex},
		{"rate limit struct", &RateLimitError{Provider: "openai"}, KindRateLimit},
		{"timeout", ErrTimeout, KindTimeout},
		{"validation", ErrInvalidInput, KindValidation},
		{"embedding failure", fmt.Errorf("%w: connection refused", ErrEmbeddingUnavailable), KindProvider},
		{"unknown", errors.New("boom"), KindInternal},
		{"query error keeps its kind", &QueryError{Kind: KindTemplate, Err: errors.New("x")}, KindTemplate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorKind_Retryable(t *testing.T) {
	assert.True(t, KindRateLimit.Retryable())
	assert.True(t, KindTimeout.Retryable())
	assert.False(t, KindAuth.Retryable())
	assert.False(t, KindProvider.Retryable())
	assert.False(t, KindValidation.Retryable())
}

func TestErrorKind_IsUpstream(t *testing.T) {
	assert.True(t, KindAuth.IsUpstream())
	assert.True(t, KindProvider.IsUpstream())
	assert.False(t, KindTemplate.IsUpstream())
	assert.False(t, KindNotFound.IsUpstream())
}

func TestRateLimitError(t *testing.T) {
	err := &RateLimitError{Provider: "huggingface", RetryAfter: 3 * time.Second}

	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Contains(t, err.Error(), "retry after 3s")

	wrapped := fmt.Errorf("generate: %w", err)
	var rle *RateLimitError
	require.True(t, errors.As(wrapped, &rle))
	assert.Equal(t, 3*time.Second, rle.RetryAfter)

	assert.Equal(t, "huggingface: rate limited", (&RateLimitError{Provider: "huggingface"}).Error())
}

func TestQueryError(t *testing.T) {
	err := &QueryError{
		Kind:    KindRateLimit,
		Message: "The assistant is busy.",
		State:   QueryGenerating,
		Err:     fmt.Errorf("openai: %w", ErrRateLimited),
	}

	assert.Equal(t, "rate_limit: The assistant is busy.", err.Error())
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.NotErrorIs(t, err, ErrTimeout)
}
