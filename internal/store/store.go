// Package store persists run outputs (articles, clusters, relationship
// edges) in SQLite and serves the read-only history snapshots that cross-run
// sequel/update detection consumes.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"newscycle/internal/clustering"
	"newscycle/internal/core"
)

// Store is the SQLite-backed history store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the history database under dataDir.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "newscycle.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{
		db:   db,
		path: dbPath,
	}

	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

// initialize creates the necessary tables.
func (s *Store) initialize() error {
	articlesTable := `
	CREATE TABLE IF NOT EXISTS articles (
		article_id TEXT PRIMARY KEY,
		title TEXT,
		content_summary TEXT,
		embedding TEXT,
		published_date DATETIME,
		source_id TEXT,
		topic_cluster TEXT,
		ai_relevance_score REAL,
		is_update INTEGER DEFAULT 0,
		run_id TEXT,
		stored_at DATETIME
	);`

	clustersTable := `
	CREATE TABLE IF NOT EXISTS clusters (
		cluster_id TEXT,
		run_id TEXT,
		domain TEXT,
		article_ids TEXT,
		source_count INTEGER,
		created_at DATETIME,
		PRIMARY KEY (cluster_id, run_id)
	);`

	// One edge of a given type per ordered pair within a run; a later run
	// that decides differently supersedes by adding rows under its own
	// run_id, never by overwriting.
	relationshipsTable := `
	CREATE TABLE IF NOT EXISTS relationships (
		id TEXT PRIMARY KEY,
		run_id TEXT,
		parent_article_id TEXT,
		child_article_id TEXT,
		relationship_type TEXT,
		similarity_score REAL,
		reasoning TEXT,
		created_at DATETIME,
		UNIQUE (run_id, parent_article_id, child_article_id, relationship_type)
	);`

	tables := []string{articlesTable, clustersTable, relationshipsTable}
	for _, table := range tables {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun persists a completed run: the processed articles (upsert keyed by
// article_id), the clusters, and the relationship edges.
func (s *Store) SaveRun(ctx context.Context, result *core.RunResult, articles []core.Article) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	for _, article := range articles {
		embedding, err := json.Marshal(article.Embedding)
		if err != nil {
			return fmt.Errorf("failed to encode embedding for %s: %w", article.ID, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO articles
			(article_id, title, content_summary, embedding, published_date, source_id,
			 topic_cluster, ai_relevance_score, is_update, run_id, stored_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			article.ID,
			article.Title,
			article.ContentSummary,
			string(embedding),
			article.PublishedDate.UTC(),
			article.SourceID,
			article.TopicCluster,
			article.RelevanceScore,
			article.IsUpdate,
			result.RunID,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to store article %s: %w", article.ID, err)
		}
	}

	for _, cluster := range result.Clusters {
		memberIDs, err := json.Marshal(cluster.ArticleIDs)
		if err != nil {
			return fmt.Errorf("failed to encode members of %s: %w", cluster.ID, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO clusters
			(cluster_id, run_id, domain, article_ids, source_count, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			cluster.ID,
			result.RunID,
			string(cluster.Domain),
			string(memberIDs),
			cluster.SourceCount,
			cluster.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to store cluster %s: %w", cluster.ID, err)
		}
	}

	for _, edge := range result.Relationships {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO relationships
			(id, run_id, parent_article_id, child_article_id, relationship_type,
			 similarity_score, reasoning, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			edge.ID,
			result.RunID,
			edge.ParentArticleID,
			edge.ChildArticleID,
			string(edge.Type),
			edge.SimilarityScore,
			edge.Reasoning,
			edge.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to store relationship %s -> %s: %w",
				edge.ParentArticleID, edge.ChildArticleID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", result.RunID, err)
	}
	return nil
}

// LoadSnapshot returns the read-only view of prior cycles: articles published
// after the cutoff and the relationship edges recorded for them. It
// implements pipeline.SnapshotLoader.
func (s *Store) LoadSnapshot(ctx context.Context, since time.Time) (core.RunSnapshot, error) {
	var snapshot core.RunSnapshot

	rows, err := s.db.QueryContext(ctx, `
		SELECT article_id, title, content_summary, embedding, published_date,
		       source_id, topic_cluster, ai_relevance_score, is_update
		FROM articles
		WHERE published_date >= ?
		ORDER BY published_date, article_id`,
		since.UTC(),
	)
	if err != nil {
		return snapshot, fmt.Errorf("failed to query historical articles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var article core.Article
		var embedding string
		if err := rows.Scan(
			&article.ID,
			&article.Title,
			&article.ContentSummary,
			&embedding,
			&article.PublishedDate,
			&article.SourceID,
			&article.TopicCluster,
			&article.RelevanceScore,
			&article.IsUpdate,
		); err != nil {
			return snapshot, fmt.Errorf("failed to scan historical article: %w", err)
		}
		if err := json.Unmarshal([]byte(embedding), &article.Embedding); err != nil {
			return snapshot, fmt.Errorf("failed to decode embedding for %s: %w", article.ID, err)
		}
		snapshot.Articles = append(snapshot.Articles, article)
	}
	if err := rows.Err(); err != nil {
		return snapshot, fmt.Errorf("failed reading historical articles: %w", err)
	}

	edgeRows, err := s.db.QueryContext(ctx, `
		SELECT id, parent_article_id, child_article_id, relationship_type,
		       similarity_score, reasoning, created_at
		FROM relationships
		WHERE created_at >= ?
		ORDER BY created_at, id`,
		since.UTC(),
	)
	if err != nil {
		return snapshot, fmt.Errorf("failed to query historical relationships: %w", err)
	}
	defer edgeRows.Close()

	for edgeRows.Next() {
		var edge core.Relationship
		var relType string
		if err := edgeRows.Scan(
			&edge.ID,
			&edge.ParentArticleID,
			&edge.ChildArticleID,
			&relType,
			&edge.SimilarityScore,
			&edge.Reasoning,
			&edge.CreatedAt,
		); err != nil {
			return snapshot, fmt.Errorf("failed to scan historical relationship: %w", err)
		}
		edge.Type = core.RelationshipType(relType)
		snapshot.Relationships = append(snapshot.Relationships, edge)
	}
	if err := edgeRows.Err(); err != nil {
		return snapshot, fmt.Errorf("failed reading historical relationships: %w", err)
	}

	return snapshot, nil
}

// LatestRunID returns the run_id of the most recently stored run, or an error
// if the store is empty.
func (s *Store) LatestRunID(ctx context.Context) (string, error) {
	var runID sql.NullString
	if err := s.db.QueryRowContext(ctx, `
		SELECT run_id FROM articles ORDER BY stored_at DESC, run_id DESC LIMIT 1`,
	).Scan(&runID); err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("history store has no runs")
		}
		return "", fmt.Errorf("failed to find latest run: %w", err)
	}
	if !runID.Valid || runID.String == "" {
		return "", fmt.Errorf("history store has no runs")
	}
	return runID.String, nil
}

// LoadRun reconstructs a stored run: its clusters, relationship edges, and the
// articles saved under it. Used to re-render a newsletter without reprocessing.
func (s *Store) LoadRun(ctx context.Context, runID string) (*core.RunResult, []core.Article, error) {
	result := &core.RunResult{
		RunID:       runID,
		Assignments: make(map[string]string),
		Updated:     make(map[string]bool),
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT cluster_id, domain, article_ids, source_count, created_at
		FROM clusters
		WHERE run_id = ?
		ORDER BY cluster_id`,
		runID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query clusters for run %s: %w", runID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var cluster core.TopicCluster
		var domain, memberIDs string
		if err := rows.Scan(&cluster.ID, &domain, &memberIDs, &cluster.SourceCount, &cluster.CreatedAt); err != nil {
			return nil, nil, fmt.Errorf("failed to scan cluster: %w", err)
		}
		cluster.Domain = core.Domain(domain)
		if err := json.Unmarshal([]byte(memberIDs), &cluster.ArticleIDs); err != nil {
			return nil, nil, fmt.Errorf("failed to decode members of %s: %w", cluster.ID, err)
		}
		for _, id := range cluster.ArticleIDs {
			result.Assignments[id] = cluster.ID
		}
		result.Clusters = append(result.Clusters, cluster)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed reading clusters for run %s: %w", runID, err)
	}
	if len(result.Clusters) == 0 {
		return nil, nil, fmt.Errorf("run %s not found in history store", runID)
	}
	result.SourceCounts = clustering.SourceCounts(result.Clusters)

	edgeRows, err := s.db.QueryContext(ctx, `
		SELECT id, parent_article_id, child_article_id, relationship_type,
		       similarity_score, reasoning, created_at
		FROM relationships
		WHERE run_id = ?
		ORDER BY created_at, id`,
		runID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query relationships for run %s: %w", runID, err)
	}
	defer edgeRows.Close()

	for edgeRows.Next() {
		var edge core.Relationship
		var relType string
		if err := edgeRows.Scan(
			&edge.ID,
			&edge.ParentArticleID,
			&edge.ChildArticleID,
			&relType,
			&edge.SimilarityScore,
			&edge.Reasoning,
			&edge.CreatedAt,
		); err != nil {
			return nil, nil, fmt.Errorf("failed to scan relationship: %w", err)
		}
		edge.Type = core.RelationshipType(relType)
		result.Relationships = append(result.Relationships, edge)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed reading relationships for run %s: %w", runID, err)
	}

	articleRows, err := s.db.QueryContext(ctx, `
		SELECT article_id, title, content_summary, embedding, published_date,
		       source_id, topic_cluster, ai_relevance_score, is_update
		FROM articles
		WHERE run_id = ?
		ORDER BY published_date, article_id`,
		runID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query articles for run %s: %w", runID, err)
	}
	defer articleRows.Close()

	var articles []core.Article
	for articleRows.Next() {
		var article core.Article
		var embedding string
		if err := articleRows.Scan(
			&article.ID,
			&article.Title,
			&article.ContentSummary,
			&embedding,
			&article.PublishedDate,
			&article.SourceID,
			&article.TopicCluster,
			&article.RelevanceScore,
			&article.IsUpdate,
		); err != nil {
			return nil, nil, fmt.Errorf("failed to scan article: %w", err)
		}
		if err := json.Unmarshal([]byte(embedding), &article.Embedding); err != nil {
			return nil, nil, fmt.Errorf("failed to decode embedding for %s: %w", article.ID, err)
		}
		if article.IsUpdate {
			result.Updated[article.ID] = true
		}
		articles = append(articles, article)
	}
	if err := articleRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed reading articles for run %s: %w", runID, err)
	}

	return result, articles, nil
}

// Stats summarizes the history store for the CLI.
type Stats struct {
	ArticleCount      int       `json:"article_count"`
	ClusterCount      int       `json:"cluster_count"`
	RelationshipCount int       `json:"relationship_count"`
	LastRunAt         time.Time `json:"last_run_at"`
	Path              string    `json:"path"`
}

// GetStats returns counts over the stored history.
func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	stats := Stats{Path: s.path}

	counts := map[string]*int{
		"articles":      &stats.ArticleCount,
		"clusters":      &stats.ClusterCount,
		"relationships": &stats.RelationshipCount,
	}
	for table, target := range counts {
		if err := s.db.QueryRowContext(ctx,
			fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(target); err != nil {
			return stats, fmt.Errorf("failed to count %s: %w", table, err)
		}
	}

	var lastRun sql.NullTime
	if err := s.db.QueryRowContext(ctx,
		"SELECT MAX(stored_at) FROM articles").Scan(&lastRun); err != nil {
		return stats, fmt.Errorf("failed to read last run time: %w", err)
	}
	if lastRun.Valid {
		stats.LastRunAt = lastRun.Time
	}

	return stats, nil
}
