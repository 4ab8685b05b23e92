package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Message string `json:"message" jsonschema:"the question to answer from the indexed documents"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	RequestID string          `json:"request_id"`
	Response  string          `json:"response"`
	Sources   []PassageOutput `json:"sources"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"the text to find similar passages for"`
	K     int    `json:"k,omitempty" jsonschema:"number of passages to return (default from configuration)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Passages []PassageOutput `json:"passages"`
	Count    int             `json:"count"`
}

// PassageOutput is one retrieved chunk.
type PassageOutput struct {
	Rank    int     `json:"rank"`
	ChunkID string  `json:"chunk_id"`
	Source  string  `json:"source"`
	Page    int     `json:"page,omitempty"`
	Score   float64 `json:"score"`
	Content string  `json:"content"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using only the indexed documents",
	}, s.handleAsk)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "retrieve",
		Description: "Return the passages most similar to a query, without generating an answer",
	}, s.handleRetrieve)
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Query.Ask(ctx, input.Message)
	if err != nil {
		return nil, AskOutput{}, toolError(err)
	}

	return nil, AskOutput{
		RequestID: answer.RequestID,
		Response:  answer.Text,
		Sources:   passages(answer.Sources),
	}, nil
}

func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	// Zero means "use the configured default"; negatives are rejected by the service.
	result, err := s.ports.Query.Retrieve(ctx, input.Query, input.K)
	if err != nil {
		return nil, RetrieveOutput{}, toolError(err)
	}

	out := passages(result)
	return nil, RetrieveOutput{Passages: out, Count: len(out)}, nil
}

func passages(result domain.RetrievalResult) []PassageOutput {
	out := make([]PassageOutput, len(result))
	for i := range result {
		c := result[i].Chunk
		out[i] = PassageOutput{
			Rank:    i + 1,
			ChunkID: c.ID,
			Source:  c.Source,
			Page:    c.Page,
			Score:   result[i].Score,
			Content: c.Content,
		}
	}
	return out
}
