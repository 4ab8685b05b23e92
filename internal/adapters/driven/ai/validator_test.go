package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

func TestConfigValidator_Check(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()

	settings := domain.DefaultSettings()
	settings.LLM.Provider = domain.AIProviderOllama
	settings.LLM.Model = "mistral"
	settings.LLM.BaseURL = srv.URL

	results := NewConfigValidator().Check(context.Background(), settings)
	require.Len(t, results, 2)

	assert.Equal(t, "embedding", results[0].Component)
	assert.True(t, results[0].OK())
	assert.Equal(t, "hash-fnv1a-384", results[0].Model)

	assert.Equal(t, "llm", results[1].Component)
	assert.True(t, results[1].OK())
	assert.Equal(t, "mistral", results[1].Model)
}

func TestConfigValidator_MissingCredential(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.LLM.APIKey = ""

	results := NewConfigValidator().Check(context.Background(), settings)
	require.Len(t, results, 2)
	assert.False(t, results[1].OK())
	assert.ErrorIs(t, results[1].Err, domain.ErrConfig)
}
