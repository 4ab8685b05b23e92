// Package driving holds the interfaces the shells call into: answering and
// retrieving (QueryService), building the index (IndexBuilder) and swapping
// the live index (IndexManager). The services package implements them; the
// CLI, HTTP, TUI and MCP adapters only depend on these interfaces.
package driving
