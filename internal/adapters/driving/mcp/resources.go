package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for ragchat resources.
	uriScheme = "ragchat://"

	indexURI = uriScheme + "index"
)

// IndexResource is the content of the ragchat://index resource.
type IndexResource struct {
	Loaded bool              `json:"loaded"`
	Info   *domain.IndexInfo `json:"info,omitempty"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.mcp.AddResource(&mcp.Resource{
		URI:         indexURI,
		Name:        "index",
		Description: "Metadata of the loaded document index",
		MIMEType:    "application/json",
	}, s.handleIndexResource)
}

func (s *Server) handleIndexResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	var res IndexResource
	if s.ports.Index != nil {
		if info, ok := s.ports.Index.Info(); ok {
			res = IndexResource{Loaded: true, Info: &info}
		}
	}

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling index info: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
