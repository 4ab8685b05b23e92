package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAIProvider_Capabilities(t *testing.T) {
	tests := []struct {
		provider   AIProvider
		embed      bool
		generate   bool
		needsKey   bool
		envVar     string
		validValue bool
	}{
		{AIProviderHash, true, false, false, "", true},
		{AIProviderOllama, true, true, false, "", true},
		{AIProviderOpenAI, true, true, true, "OPENAI_API_KEY", true},
		{AIProviderAnthropic, false, true, true, "ANTHROPIC_API_KEY", true},
		{AIProviderGemini, false, true, true, "GEMINI_API_KEY", true},
		{AIProviderHuggingFace, false, true, true, "HF_TOKEN", true},
		{AIProvider("faiss"), false, false, false, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			assert.Equal(t, tt.validValue, tt.provider.IsValid())
			assert.Equal(t, tt.embed, tt.provider.SupportsEmbedding())
			assert.Equal(t, tt.generate, tt.provider.SupportsGeneration())
			assert.Equal(t, tt.needsKey, tt.provider.RequiresAPIKey())
			assert.Equal(t, tt.envVar, tt.provider.EnvVar())
		})
	}
}

func TestAIProvider_Description(t *testing.T) {
	assert.Equal(t, "Ollama (local)", AIProviderOllama.Description())
	assert.Equal(t, unknownDescription, AIProvider("x").Description())
}

func TestDefaultSettings_Valid(t *testing.T) {
	s := DefaultSettings()
	require.NoError(t, s.Validate())

	assert.Equal(t, 3, s.Query.K)
	assert.Equal(t, 500, s.Chunk.Size)
	assert.Equal(t, 200, s.Chunk.Overlap)
	assert.Equal(t, 0.5, s.LLM.Temperature)
	assert.Equal(t, 512, s.LLM.MaxTokens)
	assert.Equal(t, ":5000", s.Server.Addr)
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Settings)
	}{
		{"zero k", func(s *Settings) { s.Query.K = 0 }},
		{"negative k", func(s *Settings) { s.Query.K = -1 }},
		{"overlap equals size", func(s *Settings) { s.Chunk.Overlap = s.Chunk.Size }},
		{"overlap zero", func(s *Settings) { s.Chunk.Overlap = 0 }},
		{"size zero", func(s *Settings) { s.Chunk.Size = 0 }},
		{"unknown strategy", func(s *Settings) { s.Chunk.Strategy = "semantic" }},
		{"generator as embedder", func(s *Settings) { s.Embedding.Provider = AIProviderAnthropic }},
		{"embedder as generator", func(s *Settings) { s.LLM.Provider = AIProviderHash }},
		{"unknown index format", func(s *Settings) { s.Index.Format = "faiss" }},
		{"empty index path", func(s *Settings) { s.Index.Path = "" }},
		{"zero timeout", func(s *Settings) { s.Query.Timeout = 0 }},
		{"negative retries", func(s *Settings) { s.Query.MaxRetries = -1 }},
		{"unknown extractor", func(s *Settings) { s.Corpus.Extractor = "pdftotext" }},
		{"zero max tokens", func(s *Settings) { s.LLM.MaxTokens = 0 }},
		{"zero watch debounce", func(s *Settings) { s.Watch.Debounce = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.modify(&s)
			assert.ErrorIs(t, s.Validate(), ErrConfig)
		})
	}
}

func TestLLMSettings_HasCredential(t *testing.T) {
	assert.False(t, LLMSettings{Provider: AIProviderHuggingFace}.HasCredential())
	assert.True(t, LLMSettings{Provider: AIProviderHuggingFace, APIKey: "hf_x"}.HasCredential())
	assert.True(t, LLMSettings{Provider: AIProviderOllama}.HasCredential())
}
