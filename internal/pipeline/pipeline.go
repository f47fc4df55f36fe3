// Package pipeline orchestrates one publication cycle over a bounded article
// pool: classify domains, build clusters, detect relationships against the
// pool and prior cycles, and aggregate source counts. A run is
// run-to-completion; a failure partway fails the whole run rather than
// producing an inconsistent partial clustering, and the retry policy is
// retry-whole-run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"newscycle/internal/clustering"
	"newscycle/internal/core"
	"newscycle/internal/logger"
	"newscycle/internal/relationship"
	"newscycle/internal/similarity"
	"newscycle/internal/taxonomy"
)

// SnapshotLoader supplies the read-only view of prior publication cycles
// taken at the start of a run. Injected so the run logic stays unit-testable
// without a live database.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context, since time.Time) (core.RunSnapshot, error)
}

// Runner executes processing runs.
type Runner struct {
	table      *taxonomy.Table
	thresholds similarity.Thresholds
	builder    *clustering.Builder
	detector   *relationship.Detector
	snapshots  SnapshotLoader
	historyAge time.Duration
	log        *slog.Logger
}

// NewRunner wires a run executor from its collaborators.
func NewRunner(table *taxonomy.Table, thresholds similarity.Thresholds, snapshots SnapshotLoader, historyAge time.Duration) *Runner {
	return &Runner{
		table:      table,
		thresholds: thresholds,
		builder:    clustering.NewBuilder(table, thresholds),
		detector:   relationship.NewDetector(table, thresholds),
		snapshots:  snapshots,
		historyAge: historyAge,
		log:        logger.Get(),
	}
}

// Run processes one publication cycle over the given article pool. The pool
// is not mutated; cluster assignments and is_update flags land on the copies
// returned inside the result and via Apply.
func (r *Runner) Run(ctx context.Context, pool []core.Article) (*core.RunResult, error) {
	started := time.Now().UTC()

	if err := validatePool(pool); err != nil {
		return nil, err
	}

	snapshot := core.RunSnapshot{}
	if r.snapshots != nil {
		var err error
		snapshot, err = r.snapshots.LoadSnapshot(ctx, started.Add(-r.historyAge))
		if err != nil {
			return nil, fmt.Errorf("failed to load history snapshot: %w", err)
		}
	}

	// Classify every article once up front; clustering, relationship
	// detection and citation checks all consult the same labels.
	domains := make(map[string]core.Domain, len(pool))
	for _, article := range pool {
		domain, _ := r.table.ClassifyArticle(article)
		domains[article.ID] = domain
	}

	clusters, err := r.builder.Build(pool, domains)
	if err != nil {
		return nil, err
	}

	edges, updated, err := r.detector.DetectAll(pool, domains, snapshot)
	if err != nil {
		return nil, err
	}

	assignments := make(map[string]string, len(pool))
	for _, cluster := range clusters {
		for _, articleID := range cluster.ArticleIDs {
			assignments[articleID] = cluster.ID
		}
	}

	result := &core.RunResult{
		RunID:         uuid.NewString(),
		Clusters:      clusters,
		Relationships: edges,
		Assignments:   assignments,
		Domains:       domains,
		SourceCounts:  clustering.SourceCounts(clusters),
		Updated:       updated,
		StartedAt:     started,
		CompletedAt:   time.Now().UTC(),
	}

	r.log.Info("run complete",
		"run_id", result.RunID,
		"articles", len(pool),
		"clusters", len(clusters),
		"relationships", len(edges),
		"duration", result.CompletedAt.Sub(started).String())

	return result, nil
}

// Apply copies a run's decisions onto the article pool: topic cluster
// assignments and is_update flags. Returns the mutated copies.
func Apply(result *core.RunResult, pool []core.Article) []core.Article {
	out := make([]core.Article, len(pool))
	copy(out, pool)
	for i := range out {
		if clusterID, ok := result.Assignments[out[i].ID]; ok {
			out[i].TopicCluster = clusterID
		}
		if result.Updated[out[i].ID] {
			out[i].IsUpdate = true
		}
	}
	return out
}

// validatePool rejects malformed input before any processing starts. Missing
// IDs or embeddings are data-quality problems that must surface, not be
// skipped.
func validatePool(pool []core.Article) error {
	dimension := 0
	seen := make(map[string]bool, len(pool))
	for _, article := range pool {
		if article.ID == "" {
			return fmt.Errorf("article with title %q has no ID", article.Title)
		}
		if seen[article.ID] {
			return fmt.Errorf("duplicate article ID %s in pool", article.ID)
		}
		seen[article.ID] = true

		if len(article.Embedding) == 0 {
			return fmt.Errorf("article %s: %w", article.ID, similarity.ErrEmptyEmbedding)
		}
		if dimension == 0 {
			dimension = len(article.Embedding)
		} else if len(article.Embedding) != dimension {
			return fmt.Errorf("article %s: %w: %d vs %d",
				article.ID, similarity.ErrDimensionMismatch, len(article.Embedding), dimension)
		}
		if article.PublishedDate.IsZero() {
			return fmt.Errorf("article %s has no published date", article.ID)
		}
	}
	return nil
}
