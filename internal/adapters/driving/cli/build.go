package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/services"
	"github.com/custodia-labs/ragchat/internal/logger"
)

var (
	buildForce bool
	buildWatch bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the document index",
	Long: `Loads every document matching corpus.pattern under corpus.dir, splits
it into overlapping chunks, embeds them and publishes the index at
index.path. The previous index is replaced only if the build succeeds.

Use --watch to keep running and rebuild whenever the corpus changes.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&buildForce, "force", false, "remove a stale build lock before building")
	buildCmd.Flags().BoolVarP(&buildWatch, "watch", "w", false, "rebuild when the corpus changes")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(true)
	ctx := cmd.Context()

	builder, err := requireBuilder(buildForce)
	if err != nil {
		return err
	}

	report, err := builder.Build(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrBuildInProgress) {
			return fmt.Errorf("%w (use --force if no other build is running)", err)
		}
		return fmt.Errorf("build failed: %w", err)
	}
	printReport(cmd, report)

	if !buildWatch {
		return nil
	}

	s, err := requireSettings()
	if err != nil {
		return err
	}
	manager, err := requireIndex(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("Watching %s for changes (Ctrl+C to stop)...\n", s.Corpus.Dir)
	w := services.NewWatcher(s.Corpus.Dir, s.Corpus.Pattern, s.Watch.Debounce, builder, manager,
		services.WatchRecursive(s.Corpus.Recursive))
	return w.Run(ctx)
}

func printReport(cmd *cobra.Command, r *domain.BuildReport) {
	cmd.Printf("Indexed %d documents into %d chunks (%d dimensions) in %s\n",
		r.Documents, r.Chunks, r.Dimensions, r.Duration.Round(time.Millisecond))
	cmd.Printf("Index written to %s\n", r.Path)
	if len(r.Skipped) > 0 {
		cmd.Printf("Skipped %d files:\n", len(r.Skipped))
		for _, f := range r.Skipped {
			cmd.Printf("  %s: %s\n", f.Path, f.Reason)
		}
	}
	for _, w := range r.Warnings {
		cmd.Printf("Warning: %s\n", w)
	}
}
