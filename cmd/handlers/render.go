package handlers

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"newscycle/internal/citations"
	"newscycle/internal/config"
	"newscycle/internal/render"
	"newscycle/internal/store"
	"newscycle/internal/taxonomy"
)

// NewRenderCmd creates the render command, which re-renders the newsletter
// from a stored run without reprocessing.
func NewRenderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render [run_id]",
		Short: "Render the newsletter for a stored run",
		Long: `Render rebuilds the newsletter markdown from a run already in the history
store. Without an argument it renders the most recent run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg := config.Get()

			historyStore, err := store.NewStore(cfg.App.DataDir)
			if err != nil {
				return err
			}
			defer historyStore.Close()

			runID := ""
			if len(args) == 1 {
				runID = args[0]
			} else {
				runID, err = historyStore.LatestRunID(ctx)
				if err != nil {
					return err
				}
			}

			result, articles, err := historyStore.LoadRun(ctx, runID)
			if err != nil {
				return err
			}

			table, err := taxonomy.Load(cfg.Taxonomy.File)
			if err != nil {
				return err
			}

			validator := citations.NewValidator(table, cfg.Similarity.Thresholds())
			renderer := render.NewRenderer(validator)

			content, err := renderer.Render(result, articles)
			if err != nil {
				return fmt.Errorf("failed to render newsletter for run %s: %w", runID, err)
			}

			filePath, err := render.WriteFile(content, cfg.Output.Directory)
			if err != nil {
				return err
			}
			fmt.Printf("Newsletter for run %s written to %s\n", runID, filePath)
			return nil
		},
	}
}
