// Package cli provides the cobra command tree for ragchat.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/logger"
)

var (
	// version is set by Execute from the build.
	version = "dev"

	cfgFile string
	verbose bool
)

var log = logger.For("cli")

var rootCmd = &cobra.Command{
	Use:   "ragchat",
	Short: "Chat with your documents",
	Long: `ragchat answers questions from a folder of PDF documents.

Build an index once with 'ragchat build', then ask questions from the
command line, the terminal chat, the web page served by 'ragchat serve',
or an MCP client. Answers come only from the indexed documents; anything
else gets "I don't know."`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default ~/.ragchat/config.toml; .yaml and .yml are read as YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the command tree with ctx and releases wired resources on exit.
func Execute(ctx context.Context, v string) error {
	if v != "" {
		version = v
	}
	defer closeServices()
	return rootCmd.ExecuteContext(ctx)
}
