package cli

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/services"
)

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"", "****"},
		{"short", "****"},
		{"12345678", "****"},
		{"123456789", "1234...6789"},
		{"sk-abcdefghijklmnop", "sk-a...mnop"},
	}

	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			assert.Equal(t, tc.want, maskAPIKey(tc.key))
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty uses default", "", 2},
		{"valid", "3", 3},
		{"lower bound", "1", 1},
		{"upper bound", "5", 5},
		{"too high", "6", 2},
		{"zero", "0", 2},
		{"not a number", "abc", 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, parseChoice(tc.input, 5, 2))
		})
	}
}

func TestReadLine(t *testing.T) {
	reader := bufio.NewReader(strings.NewReader("  first \nsecond"))

	assert.Equal(t, "first", readLine(reader))
	assert.Equal(t, "second", readLine(reader))
	assert.Equal(t, "", readLine(reader))
}

func TestConfigPathCmd(t *testing.T) {
	setupTestServices(t)

	out, _, err := execute(t, "", "config", "path")

	require.NoError(t, err)
	assert.Equal(t, ":memory:\n", out)
}

func TestConfigShowCmd(t *testing.T) {
	setupTestServices(t)
	s := domain.DefaultSettings()
	s.LLM.Provider = domain.AIProviderOpenAI
	s.LLM.Model = "gpt-4o-mini"
	s.LLM.APIKey = "sk-abcdefghijklmnop"
	settings = &s

	out, _, err := execute(t, "", "config", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "[Corpus]")
	assert.Contains(t, out, "Pattern: *.pdf")
	assert.Contains(t, out, "Size: 500")
	assert.Contains(t, out, "Overlap: 200")
	assert.Contains(t, out, "Model: gpt-4o-mini")
	assert.Contains(t, out, "API Key: sk-a...mnop")
	assert.Contains(t, out, "k: 3")
	assert.Contains(t, out, "Configuration is valid.")
	assert.NotContains(t, out, "sk-abcdefghijklmnop")
}

func TestConfigShowCmd_MissingCredential(t *testing.T) {
	setupTestServices(t)

	out, _, err := execute(t, "", "config")

	require.NoError(t, err)
	assert.Contains(t, out, "(not set, $HF_TOKEN)")
	assert.Contains(t, out, "Warning: no API key for huggingface")
}

func TestConfigInitCmd_Defaults(t *testing.T) {
	svc := setupTestServices(t)

	out, _, err := execute(t, "", "config", "init")

	require.NoError(t, err)
	assert.Contains(t, out, "Wrote :memory:")
	assert.Equal(t, "data", svc.config.GetString(services.KeyCorpusDir))
	assert.Equal(t, "*.pdf", svc.config.GetString(services.KeyCorpusPattern))
	assert.Equal(t, 500, svc.config.GetInt(services.KeyChunkSize))
	assert.Equal(t, 200, svc.config.GetInt(services.KeyChunkOverlap))
	assert.Equal(t, 3, svc.config.GetInt(services.KeyRetrievalK))
	assert.Equal(t, "1m0s", svc.config.GetString(services.KeyQueryTimeout))
	assert.Equal(t, "2s", svc.config.GetString(services.KeyWatchDebounce))
	assert.Equal(t, "huggingface", svc.config.GetString(services.KeyLLMProvider))
	_, hasKey := svc.config.Get(services.KeyLLMAPIKey)
	assert.False(t, hasKey)

	loaded, err := services.LoadSettings(svc.config, func(string) string { return "" })
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings().Query, loaded.Query)
	assert.Equal(t, domain.DefaultSettings().Chunk, loaded.Chunk)
}

func TestConfigInitCmd_Interactive(t *testing.T) {
	svc := setupTestServices(t)
	isTerminal = func() bool { return true }

	out, _, err := execute(t, "3\n\nsk-ant-0123456789\n", "config", "init")

	require.NoError(t, err)
	assert.Contains(t, out, "Select Answer Provider")
	assert.Equal(t, "anthropic", svc.config.GetString(services.KeyLLMProvider))
	assert.Equal(t, "claude-3-5-haiku-latest", svc.config.GetString(services.KeyLLMModel))
	assert.Equal(t, "sk-ant-0123456789", svc.config.GetString(services.KeyLLMAPIKey))
}

func TestConfigInitCmd_DefaultsFlagSkipsQuestions(t *testing.T) {
	svc := setupTestServices(t)
	isTerminal = func() bool { return true }

	out, _, err := execute(t, "3\n", "config", "init", "--defaults")

	require.NoError(t, err)
	assert.NotContains(t, out, "Select Answer Provider")
	assert.Equal(t, "huggingface", svc.config.GetString(services.KeyLLMProvider))
}

func TestConfigCheckCmd_ReportsFailures(t *testing.T) {
	setupTestServices(t)

	out, _, err := execute(t, "", "config", "check")

	require.Error(t, err)
	assert.Contains(t, out, "embedding")
	assert.Contains(t, out, "OK")
	assert.Contains(t, out, "FAILED")
}
