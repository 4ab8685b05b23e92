// Package mcp provides an MCP (Model Context Protocol) server adapter for ragchat.
// It lets AI assistants ask questions of the indexed documents and pull the
// passages behind an answer.
package mcp

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")

// toolError converts a query failure into the error reported to the client.
// Only the user-facing message and kind leave the process.
func toolError(err error) error {
	var qe *domain.QueryError
	if errors.As(err, &qe) {
		return fmt.Errorf("%s (%s)", qe.Message, qe.Kind)
	}
	return fmt.Errorf("request failed (%s)", domain.KindOf(err))
}
