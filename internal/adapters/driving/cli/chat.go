package cli

import (
	"bufio"
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

// isTerminal reports whether stdin is interactive. Replaced in tests.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with your documents",
	Long: `Starts an interactive chat. On a terminal this opens the full-screen
chat UI; otherwise it reads one question per line from stdin and prints
one answer per line, until EOF or "exit".

Controls:
  Enter    - Send
  Tab      - Browse the sources of the last answer
  PgUp/Dn  - Scroll the transcript
  F1       - Help
  Ctrl+C   - Quit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	query, err := requireQuery(cmd.Context())
	if err != nil {
		return err
	}

	if !isTerminal() {
		return chatLoop(cmd, query)
	}
	return runTUI(cmd, query)
}

func runTUI(cmd *cobra.Command, query driving.QueryService) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	index, err := requireIndex(cmd.Context())
	if err != nil {
		return err
	}

	app, err := tui.NewApp(&tui.Ports{
		Query:    query,
		Index:    index,
		Greeting: greeting(),
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// chatLoop answers one line at a time. Failures are printed and the loop
// continues.
func chatLoop(cmd *cobra.Command, query driving.QueryService) error {
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" {
			return nil
		}

		answer, err := query.Ask(cmd.Context(), line)
		if err != nil {
			cmd.Printf("Error: %s\n", userError(err))
			continue
		}
		cmd.Printf("Bot: %s\n", oneLine(answer.Text))

		if cmd.Context().Err() != nil {
			return nil
		}
	}
	return scanner.Err()
}

// oneLine keeps the one-answer-per-line framing.
func oneLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
