// Package mcp exposes the question-answering pipeline as a Model Context
// Protocol server with an "ask" and a "retrieve" tool.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragchat/internal/logger"
)

// Version is reported to clients during initialisation.
const Version = "0.1.0"

const instructions = `ragchat answers questions from a fixed document collection.
Call "ask" for a grounded answer with its sources, or "retrieve" to see
the raw passages. Answers outside the collection come back as "I don't know."
Read ragchat://index for the model and size of the loaded index.`

const shutdownTimeout = 5 * time.Second

var log = logger.For("mcp")

// Server wraps an MCP server bound to the query ports.
type Server struct {
	ports *Ports
	mcp   *mcp.Server
}

// NewServer registers the tools and resources. Ports must carry a query service.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("mcp server: %w", err)
	}

	s := &Server{
		ports: ports,
		mcp: mcp.NewServer(
			&mcp.Implementation{Name: "ragchat", Version: Version},
			&mcp.ServerOptions{Instructions: instructions},
		),
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves a single client over stdin/stdout until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	log.Info("serving over stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is done.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.serveHTTP(ctx, ln)
}

func (s *Server) serveHTTP(ctx context.Context, ln net.Listener) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil)

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	log.Info("serving over http on %s", ln.Addr())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown: %v", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
