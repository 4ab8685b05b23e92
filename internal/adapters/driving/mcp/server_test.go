package mcp

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

func TestNewServer(t *testing.T) {
	t.Run("nil query service returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingQueryService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{Query: &mockQueryService{}})
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("nil ports", func(t *testing.T) {
		var ports *Ports
		assert.ErrorIs(t, ports.Validate(), ErrMissingQueryService)
	})

	t.Run("missing query service", func(t *testing.T) {
		ports := &Ports{Index: &mockIndexManager{}}
		assert.ErrorIs(t, ports.Validate(), ErrMissingQueryService)
	})

	t.Run("query only is valid", func(t *testing.T) {
		assert.NoError(t, (&Ports{Query: &mockQueryService{}}).Validate())
	})

	t.Run("all ports is valid", func(t *testing.T) {
		ports := &Ports{Query: &mockQueryService{}, Index: &mockIndexManager{}}
		assert.NoError(t, ports.Validate())
	})
}

// connect runs the server over in-memory transports and returns a client session.
func connect(t *testing.T, ports *Ports) *mcp.ClientSession {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	server, err := NewServer(ports)
	require.NoError(t, err)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	_, err = server.mcp.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func TestServer_ListsToolsAndResources(t *testing.T) {
	session := connect(t, &Ports{Query: &mockQueryService{}})
	ctx := context.Background()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"ask", "retrieve"}, names)

	resources, err := session.ListResources(ctx, nil)
	require.NoError(t, err)
	require.Len(t, resources.Resources, 1)
	assert.Equal(t, "ragchat://index", resources.Resources[0].URI)
}

func TestServer_AskFailureIsToolError(t *testing.T) {
	query := &mockQueryService{err: &domain.QueryError{
		Kind:    domain.KindNotFound,
		Message: "The document index is not available.",
		Err:     domain.ErrNotFound,
	}}
	session := connect(t, &Ports{Query: query})

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "ask",
		Arguments: map[string]any{"message": "hello"},
	})

	require.NoError(t, err)
	assert.True(t, result.IsError)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "The document index is not available.")
}

func TestServer_SendsInstructions(t *testing.T) {
	session := connect(t, &Ports{Query: &mockQueryService{}})

	init := session.InitializeResult()

	require.NotNil(t, init)
	assert.Equal(t, "ragchat", init.ServerInfo.Name)
	assert.Contains(t, init.Instructions, "ragchat://index")
}

func TestServer_ServeHTTP(t *testing.T) {
	server, err := NewServer(&Ports{Query: &mockQueryService{}})
	require.NoError(t, err)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.serveHTTP(ctx, ln) }()

	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "0"}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{
		Endpoint: "http://" + ln.Addr().String(),
	}, nil)
	require.NoError(t, err)

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, tools.Tools, 2)
	require.NoError(t, session.Close())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_RunHTTP_BadAddress(t *testing.T) {
	server, err := NewServer(&Ports{Query: &mockQueryService{}})
	require.NoError(t, err)

	err = server.RunHTTP(context.Background(), "not-an-address")

	assert.Error(t, err)
}
