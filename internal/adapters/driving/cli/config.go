package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/ai"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/services"
)

var (
	configInitForce    bool
	configInitDefaults bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and initialise the configuration file.

Credentials can also come from the environment (HF_TOKEN, OPENAI_API_KEY,
ANTHROPIC_API_KEY, GEMINI_API_KEY) or a .env file in the working directory.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file",
	Long: `Writes a configuration file with the defaults. On a terminal, asks
for the answer provider and its API key first; --defaults skips the questions.`,
	RunE: runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	RunE:  runConfigPath,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the embedding and answer providers respond",
	RunE:  runConfigCheck,
}

// llmProviders are offered by config init, default first.
var llmProviders = []domain.AIProvider{
	domain.AIProviderHuggingFace,
	domain.AIProviderOpenAI,
	domain.AIProviderAnthropic,
	domain.AIProviderGemini,
	domain.AIProviderOllama,
}

var defaultLLMModels = map[domain.AIProvider]string{
	domain.AIProviderHuggingFace: "mistralai/Mistral-7B-Instruct-v0.3",
	domain.AIProviderOpenAI:      "gpt-4o-mini",
	domain.AIProviderAnthropic:   "claude-3-5-haiku-latest",
	domain.AIProviderGemini:      "gemini-2.0-flash",
	domain.AIProviderOllama:      "llama3.2",
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite an existing file")
	configInitCmd.Flags().BoolVar(&configInitDefaults, "defaults", false, "write defaults without asking")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	store, err := requireConfigStore()
	if err != nil {
		return err
	}
	s, err := requireSettings()
	if err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'ragchat config init --force' to start from the defaults.")
		return err
	}

	cmd.Printf("Configuration (%s)\n", store.Path())
	cmd.Println("=============")
	cmd.Println()

	cmd.Println("[Corpus]")
	cmd.Printf("  Directory: %s\n", s.Corpus.Dir)
	cmd.Printf("  Pattern: %s\n", s.Corpus.Pattern)
	cmd.Printf("  Recursive: %t\n", s.Corpus.Recursive)
	cmd.Printf("  PDF extractor: %s\n", s.Corpus.Extractor)
	cmd.Println()

	cmd.Println("[Chunker]")
	cmd.Printf("  Strategy: %s\n", s.Chunk.Strategy)
	cmd.Printf("  Size: %d\n", s.Chunk.Size)
	cmd.Printf("  Overlap: %d\n", s.Chunk.Overlap)
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", s.Embedding.Provider.Description())
	if s.Embedding.Model != "" {
		cmd.Printf("  Model: %s\n", s.Embedding.Model)
	}
	if s.Embedding.Dimensions > 0 {
		cmd.Printf("  Dimensions: %d\n", s.Embedding.Dimensions)
	}
	if s.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", s.Embedding.BaseURL)
	}
	if s.Embedding.Provider.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", credential(s.Embedding.APIKey, s.Embedding.Provider))
	}
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", s.LLM.Provider.Description())
	if s.LLM.Model != "" {
		cmd.Printf("  Model: %s\n", s.LLM.Model)
	}
	if s.LLM.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", s.LLM.BaseURL)
	}
	cmd.Printf("  Temperature: %g\n", s.LLM.Temperature)
	cmd.Printf("  Max tokens: %d\n", s.LLM.MaxTokens)
	if s.LLM.Provider.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", credential(s.LLM.APIKey, s.LLM.Provider))
	}
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  k: %d\n", s.Query.K)
	cmd.Printf("  Timeout: %s\n", s.Query.Timeout)
	cmd.Printf("  Max retries: %d\n", s.Query.MaxRetries)
	cmd.Println()

	cmd.Println("[Index]")
	cmd.Printf("  Path: %s\n", s.Index.Path)
	cmd.Printf("  Format: %s\n", s.Index.Format)
	if s.Index.ChromaURL != "" {
		cmd.Printf("  Chroma: %s (collection %s)\n", s.Index.ChromaURL, s.Index.ChromaCollection)
	}
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Address: %s\n", s.Server.Addr)
	if s.Server.StaticDir != "" {
		cmd.Printf("  Static dir: %s\n", s.Server.StaticDir)
	}
	cmd.Printf("  Watch debounce: %s\n", s.Watch.Debounce)
	cmd.Println()

	if s.LLM.HasCredential() {
		cmd.Println("Configuration is valid.")
	} else {
		cmd.Printf("Warning: no API key for %s. Set %s or run 'ragchat config init'.\n",
			s.LLM.Provider, s.LLM.Provider.EnvVar())
	}
	return nil
}

func credential(key string, provider domain.AIProvider) string {
	if key == "" {
		return fmt.Sprintf("(not set, $%s)", provider.EnvVar())
	}
	return maskAPIKey(key)
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	store, err := requireConfigStore()
	if err != nil {
		return err
	}
	cmd.Println(store.Path())
	return nil
}

type configEntry struct {
	key   string
	value any
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	store, err := requireConfigStore()
	if err != nil {
		return err
	}
	if _, err := os.Stat(store.Path()); err == nil && !configInitForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", store.Path())
	}

	d := domain.DefaultSettings()
	provider, model, apiKey := d.LLM.Provider, d.LLM.Model, ""

	if isTerminal() && !configInitDefaults {
		reader := bufio.NewReader(cmd.InOrStdin())

		cmd.Println("Select Answer Provider")
		for i, p := range llmProviders {
			cmd.Printf("  %d. %s\n", i+1, p.Description())
		}
		cmd.Print("\nEnter choice [1]: ")
		provider = llmProviders[parseChoice(readLine(reader), len(llmProviders), 1)-1]

		model = defaultLLMModels[provider]
		cmd.Printf("Enter model name [%s]: ", model)
		if m := readLine(reader); m != "" {
			model = m
		}

		if provider.RequiresAPIKey() {
			cmd.Printf("Enter API key (empty to use $%s): ", provider.EnvVar())
			apiKey = readPassword(reader)
			cmd.Println()
		}
	}

	entries := []configEntry{
		{services.KeyCorpusDir, d.Corpus.Dir},
		{services.KeyCorpusPattern, d.Corpus.Pattern},
		{services.KeyCorpusExtractor, string(d.Corpus.Extractor)},
		{services.KeyChunkStrategy, string(d.Chunk.Strategy)},
		{services.KeyChunkSize, d.Chunk.Size},
		{services.KeyChunkOverlap, d.Chunk.Overlap},
		{services.KeyEmbedProvider, string(d.Embedding.Provider)},
		{services.KeyEmbedDimensions, d.Embedding.Dimensions},
		{services.KeyLLMProvider, string(provider)},
		{services.KeyLLMModel, model},
		{services.KeyLLMTemperature, d.LLM.Temperature},
		{services.KeyLLMMaxTokens, d.LLM.MaxTokens},
		{services.KeyRetrievalK, d.Query.K},
		{services.KeyQueryTimeout, d.Query.Timeout.String()},
		{services.KeyIndexPath, d.Index.Path},
		{services.KeyIndexFormat, string(d.Index.Format)},
		{services.KeyServerAddr, d.Server.Addr},
		{services.KeyWatchDebounce, d.Watch.Debounce.String()},
	}
	if apiKey != "" {
		entries = append(entries, configEntry{services.KeyLLMAPIKey, apiKey})
	}

	for _, e := range entries {
		if err := store.Set(e.key, e.value); err != nil {
			return fmt.Errorf("failed to write %s: %w", e.key, err)
		}
	}
	if err := store.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	settings = nil

	cmd.Printf("Wrote %s\n", store.Path())
	cmd.Printf("Answer provider: %s (%s)\n", provider.Description(), model)
	return nil
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	s, err := requireSettings()
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range ai.NewConfigValidator().Check(cmd.Context(), s) {
		if r.OK() {
			cmd.Printf("%-10s %-12s %s OK\n", r.Component, r.Provider, r.Model)
			continue
		}
		failed++
		cmd.Printf("%-10s %-12s FAILED: %v\n", r.Component, r.Provider, r.Err)
	}
	if failed > 0 {
		return errors.New("provider check failed")
	}
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when stdin is a terminal, else a plain line.
func readPassword(reader *bufio.Reader) string {
	if reader.Buffered() == 0 && term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

