package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

//go:embed static
var embedded embed.FS

var log = logger.For("web")

// Config configures the HTTP shell.
type Config struct {
	// Addr is the listen address, e.g. ":5000".
	Addr string

	// StaticDir replaces the embedded chat page when set.
	StaticDir string

	// EmbeddingModel and LLMModel are reported by /health.
	EmbeddingModel string
	LLMModel       string
}

// Server is the gin-based HTTP shell.
type Server struct {
	cfg    Config
	query  driving.QueryService
	index  driving.IndexManager
	static fs.FS
	engine *gin.Engine
}

// NewServer creates the server and registers its routes.
// index may be nil, in which case /health reports no index details and
// /admin/reload is unavailable.
func NewServer(query driving.QueryService, index driving.IndexManager, cfg Config) (*Server, error) {
	if query == nil {
		return nil, ErrMissingQueryService
	}

	static, err := staticFS(cfg.StaticDir)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:    cfg,
		query:  query,
		index:  index,
		static: static,
		engine: gin.New(),
	}
	s.engine.Use(gin.Recovery(), requestLog(), cors())
	s.routes()
	return s, nil
}

func staticFS(dir string) (fs.FS, error) {
	if dir == "" {
		return fs.Sub(embedded, "static")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("server.static_dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("server.static_dir: %s is not a directory", dir)
	}
	return os.DirFS(dir), nil
}

func (s *Server) routes() {
	s.engine.GET("/", s.home)
	s.engine.GET("/health", s.health)
	s.engine.POST("/chat", s.chat)

	admin := s.engine.Group("/admin")
	{
		admin.POST("/reload", s.reload)
	}

	s.engine.NoRoute(s.assets)
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	log.Info("listening on %s", s.cfg.Addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
