package cli

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/web"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/services"
	"github.com/custodia-labs/ragchat/internal/logger"
)

var (
	serveAddr  string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat page and HTTP API",
	Long: `Starts the HTTP server:

  GET  /              chat page
  POST /chat          {"message": "..."} -> {"response": "..."}
  GET  /health        index and model status
  POST /admin/reload  reload the index from disk

Use --watch to rebuild and reload the index when the corpus changes.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (default server.addr, \":5000\")")
	serveCmd.Flags().BoolVarP(&serveWatch, "watch", "w", false, "rebuild the index when the corpus changes")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(true)
	ctx := cmd.Context()

	s, err := requireSettings()
	if err != nil {
		return err
	}
	query, err := requireQuery(ctx)
	if err != nil {
		return err
	}
	index, err := requireIndex(ctx)
	if err != nil {
		return err
	}

	addr := s.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = logger.Writer("gin")

	server, err := web.NewServer(query, index, web.Config{
		Addr:           addr,
		StaticDir:      s.Server.StaticDir,
		EmbeddingModel: embeddingModel(s),
		LLMModel:       s.LLM.Model,
	})
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	if serveWatch {
		builder, err := requireBuilder(false)
		if err != nil {
			return err
		}
		watcher := services.NewWatcher(s.Corpus.Dir, s.Corpus.Pattern, s.Watch.Debounce, builder, index,
			services.WatchRecursive(s.Corpus.Recursive))
		g.Go(func() error { return watcher.Run(ctx) })
	}
	g.Go(func() error { return server.Run(ctx) })

	cmd.Printf("Serving on %s\n", addr)
	return g.Wait()
}

func embeddingModel(s domain.Settings) string {
	if embedder != nil {
		return embedder.ModelName()
	}
	return s.Embedding.Model
}
