package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"newscycle/internal/citations"
	"newscycle/internal/config"
	"newscycle/internal/core"
	"newscycle/internal/llm"
	"newscycle/internal/logger"
	"newscycle/internal/pipeline"
	"newscycle/internal/render"
	"newscycle/internal/store"
	"newscycle/internal/taxonomy"
)

// NewProcessCmd creates the process command, which runs one publication
// cycle over a JSON article file.
func NewProcessCmd() *cobra.Command {
	var (
		writeNewsletter bool
		embedMissing    bool
		dryRun          bool
	)

	cmd := &cobra.Command{
		Use:   "process [articles.json]",
		Short: "Run one publication cycle over an article pool",
		Long: `Process reads a JSON array of articles (with embeddings), classifies and
clusters them, detects relationships against the pool and prior cycles, and
stores the results in the history database.

Articles without embeddings fail the run unless --embed is given, in which
case missing embeddings are generated through the Gemini API first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(args[0], writeNewsletter, embedMissing, dryRun)
		},
	}

	cmd.Flags().BoolVar(&writeNewsletter, "newsletter", false, "render the newsletter markdown after processing")
	cmd.Flags().BoolVar(&embedMissing, "embed", false, "generate embeddings for articles that lack one")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "process without writing to the history store")

	return cmd
}

func runProcess(path string, writeNewsletter, embedMissing, dryRun bool) error {
	ctx := context.Background()
	cfg := config.Get()
	log := logger.Get()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read article file %s: %w", path, err)
	}

	var pool []core.Article
	if err := json.Unmarshal(data, &pool); err != nil {
		return fmt.Errorf("failed to parse article file %s: %w", path, err)
	}
	if len(pool) == 0 {
		return fmt.Errorf("article file %s contains no articles", path)
	}

	if embedMissing {
		embedder, err := llm.NewEmbedder(ctx, cfg.Embedding)
		if err != nil {
			return err
		}
		pool, err = embedder.EmbedArticles(ctx, pool)
		if err != nil {
			return err
		}
	}

	table, err := taxonomy.Load(cfg.Taxonomy.File)
	if err != nil {
		return err
	}

	historyStore, err := store.NewStore(cfg.App.DataDir)
	if err != nil {
		return err
	}
	defer historyStore.Close()

	runner := pipeline.NewRunner(
		table,
		cfg.Similarity.Thresholds(),
		historyStore,
		time.Duration(cfg.Store.HistoryDays)*24*time.Hour,
	)

	result, err := runner.Run(ctx, pool)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	processed := pipeline.Apply(result, pool)

	if !dryRun {
		if err := historyStore.SaveRun(ctx, result, processed); err != nil {
			return fmt.Errorf("failed to persist run: %w", err)
		}
	}

	multiSource := 0
	for _, cluster := range result.Clusters {
		if cluster.IsMultiSource() {
			multiSource++
		}
	}
	fmt.Printf("Processed %d articles into %d clusters (%d multi-source), %d relationships\n",
		len(pool), len(result.Clusters), multiSource, len(result.Relationships))

	if writeNewsletter {
		validator := citations.NewValidator(table, cfg.Similarity.Thresholds())
		renderer := render.NewRenderer(validator)

		content, err := renderer.Render(result, processed)
		if err != nil {
			return fmt.Errorf("failed to render newsletter: %w", err)
		}
		filePath, err := render.WriteFile(content, cfg.Output.Directory)
		if err != nil {
			return err
		}
		fmt.Printf("Newsletter written to %s\n", filePath)
	}

	log.Info("process command finished", "run_id", result.RunID, "dry_run", dryRun)
	return nil
}
