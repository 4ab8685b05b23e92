package cli

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/mcp"
)

var mcpPort int

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose the chatbot to MCP clients",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server",
	Long: `Run a Model Context Protocol server over the loaded index.

Tools:
  ask       answer a question and list the passages it used
  retrieve  return the top-k passages for a question without generating

Resource:
  ragchat://index  embedding model, dimensions and chunk count

The server speaks JSON-RPC on stdin/stdout unless --port is given, in
which case it serves the streamable HTTP transport on that port.

Desktop client entry:
  "ragchat": {"command": "ragchat", "args": ["mcp", "serve"]}`,
	Example: `  ragchat mcp serve
  ragchat mcp serve --port 8090`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "serve HTTP on this port instead of stdio")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	query, err := requireQuery(ctx)
	if err != nil {
		return err
	}
	index, err := requireIndex(ctx)
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{Query: query, Index: index})
	if err != nil {
		return err
	}

	if mcpPort <= 0 {
		// stdout carries the protocol, so nothing else may be printed.
		return server.Run(ctx)
	}

	addr := net.JoinHostPort("", strconv.Itoa(mcpPort))
	fmt.Fprintf(cmd.ErrOrStderr(), "MCP endpoint: http://localhost%s\n", addr)
	return server.RunHTTP(ctx, addr)
}
