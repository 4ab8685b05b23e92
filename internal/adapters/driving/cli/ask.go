package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

var (
	askJSON    bool
	askSources bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask one question",
	Long: `Answers a single question from the indexed documents and exits.
Multiple arguments are joined with spaces.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().BoolVarP(&askSources, "sources", "s", false, "also print the passages the answer was grounded on")
	rootCmd.AddCommand(askCmd)
}

// askOutput is the --json form of an answer.
type askOutput struct {
	RequestID string          `json:"request_id"`
	Response  string          `json:"response"`
	Sources   []sourceOutput  `json:"sources,omitempty"`
	Error     *askErrorOutput `json:"error,omitempty"`
}

type sourceOutput struct {
	Source  string  `json:"source"`
	Page    int     `json:"page,omitempty"`
	Score   float64 `json:"score"`
	Content string  `json:"content"`
}

type askErrorOutput struct {
	Kind    domain.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	query, err := requireQuery(cmd.Context())
	if err != nil {
		return err
	}

	answer, err := query.Ask(cmd.Context(), question)
	if askJSON {
		return outputAskJSON(cmd, answer, err)
	}
	if err != nil {
		return userError(err)
	}

	cmd.Printf("RESULT: %s\n", answer.Text)
	if askSources {
		cmd.Println()
		cmd.Println("SOURCE DOCUMENTS:")
		for i, p := range answer.Sources {
			cmd.Printf("  [%d] %s (%.2f)\n", i+1, sourceLabel(p.Chunk), p.Score)
			cmd.Printf("      %s\n", preview(p.Chunk.Content, 160))
		}
	}
	return nil
}

func outputAskJSON(cmd *cobra.Command, answer *domain.Answer, askErr error) error {
	var out askOutput
	if askErr != nil {
		kind, message := domain.KindOf(askErr), askErr.Error()
		var qe *domain.QueryError
		if errors.As(askErr, &qe) {
			kind, message = qe.Kind, qe.Message
			out.RequestID = qe.RequestID
		}
		out.Error = &askErrorOutput{Kind: kind, Message: message}
	} else {
		out.RequestID = answer.RequestID
		out.Response = answer.Text
		if askSources {
			for _, p := range answer.Sources {
				out.Sources = append(out.Sources, sourceOutput{
					Source:  p.Chunk.Source,
					Page:    p.Chunk.Page,
					Score:   p.Score,
					Content: p.Chunk.Content,
				})
			}
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	if askErr != nil {
		return userError(askErr)
	}
	return nil
}

// userError keeps the user-facing message of a query failure and drops
// upstream detail, which is logged instead.
func userError(err error) error {
	var qe *domain.QueryError
	if errors.As(err, &qe) {
		log.Debug("query failed: %v", qe.Err)
		return errors.New(qe.Message)
	}
	return err
}

func sourceLabel(c domain.Chunk) string {
	name := c.Source
	if name == "" {
		name = c.ID
	}
	if c.Page > 0 {
		return fmt.Sprintf("%s p.%d", name, c.Page)
	}
	return name
}

// preview collapses whitespace and truncates to n characters.
func preview(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n-3]) + "..."
}
