package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, domain.ErrConfig)
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")
}

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultModel, req.Model)
		assert.Equal(t, 256, req.MaxTokens)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Hello "},{"type":"text","text":"there"}]}`))
	}))
	defer srv.Close()

	g, err := New(Config{APIKey: "sk-ant", BaseURL: srv.URL})
	require.NoError(t, err)

	text, err := g.Generate(context.Background(), "hi", driven.GenerateOptions{MaxTokens: 256})
	require.NoError(t, err)
	assert.Equal(t, "Hello there", text)
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
		want    error
	}{
		{"auth", http.StatusUnauthorized, `{"error":{"type":"authentication_error","message":"invalid x-api-key"}}`, domain.ErrAuth},
		{"rate limit", http.StatusTooManyRequests, `{"error":{"type":"rate_limit_error","message":"slow down"}}`, domain.ErrRateLimited},
		{"overloaded", statusOverloaded, `{"error":{"type":"overloaded_error","message":"Overloaded"}}`, domain.ErrRateLimited},
		{"server", http.StatusInternalServerError, `{"error":{"type":"api_error","message":"boom"}}`, domain.ErrProvider},
		{"no text", http.StatusOK, `{"content":[]}`, domain.ErrProvider},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.payload))
			}))
			defer srv.Close()

			g, err := New(Config{APIKey: "sk-ant-secret", BaseURL: srv.URL})
			require.NoError(t, err)

			_, err = g.Generate(context.Background(), "hi", driven.GenerateOptions{})
			assert.ErrorIs(t, err, tc.want)
			assert.NotContains(t, err.Error(), "sk-ant-secret")
		})
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		if r.Header.Get("x-api-key") != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	good, err := New(Config{APIKey: "good", BaseURL: srv.URL})
	require.NoError(t, err)
	assert.NoError(t, good.Ping(context.Background()))

	bad, err := New(Config{APIKey: "bad", BaseURL: srv.URL})
	require.NoError(t, err)
	assert.ErrorIs(t, bad.Ping(context.Background()), domain.ErrAuth)
}
