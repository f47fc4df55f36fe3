package store

import (
	"context"
	"testing"
	"time"

	"newscycle/internal/core"
)

var storedAt = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun() (*core.RunResult, []core.Article) {
	articles := []core.Article{
		{
			ID:             "art-1",
			Title:          "Acme Robotics secures funding from Nexus Capital",
			ContentSummary: "The round values the company at 90 billion.",
			Embedding:      []float64{1, 0},
			PublishedDate:  storedAt,
			SourceID:       "feed-a",
			TopicCluster:   "cluster_000",
			RelevanceScore: 0.9,
		},
		{
			ID:             "art-2",
			Title:          "Acme Robotics funding from Nexus Capital confirmed",
			ContentSummary: "",
			Embedding:      []float64{0.95, 0.3122},
			PublishedDate:  storedAt.Add(time.Hour),
			SourceID:       "feed-b",
			TopicCluster:   "cluster_000",
			RelevanceScore: 0.8,
			IsUpdate:       true,
		},
	}

	result := &core.RunResult{
		RunID: "run-test-1",
		Clusters: []core.TopicCluster{
			{
				ID:          "cluster_000",
				Domain:      core.DomainBusiness,
				ArticleIDs:  []string{"art-1", "art-2"},
				SourceCount: 2,
				CreatedAt:   storedAt,
			},
		},
		Relationships: []core.Relationship{
			{
				ID:              "rel-1",
				ParentArticleID: "art-1",
				ChildArticleID:  "art-2",
				Type:            core.RelationUpdate,
				SimilarityScore: 0.95,
				Reasoning:       "later article revises figures",
				CreatedAt:       storedAt.Add(time.Hour),
			},
		},
		StartedAt:   storedAt,
		CompletedAt: storedAt.Add(time.Minute),
	}

	return result, articles
}

func TestSaveRunAndLoadSnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	result, articles := sampleRun()
	if err := s.SaveRun(ctx, result, articles); err != nil {
		t.Fatalf("SaveRun() error: %v", err)
	}

	snapshot, err := s.LoadSnapshot(ctx, storedAt.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("LoadSnapshot() error: %v", err)
	}

	if len(snapshot.Articles) != 2 {
		t.Fatalf("got %d articles, want 2", len(snapshot.Articles))
	}
	first := snapshot.Articles[0]
	if first.ID != "art-1" {
		t.Errorf("articles out of order: first is %s", first.ID)
	}
	if first.Title != articles[0].Title {
		t.Errorf("title = %q, want %q", first.Title, articles[0].Title)
	}
	if len(first.Embedding) != 2 || first.Embedding[0] != 1 {
		t.Errorf("embedding round-trip failed: %v", first.Embedding)
	}
	if !snapshot.Articles[1].IsUpdate {
		t.Error("is_update flag lost in round-trip")
	}

	if len(snapshot.Relationships) != 1 {
		t.Fatalf("got %d relationships, want 1", len(snapshot.Relationships))
	}
	edge := snapshot.Relationships[0]
	if edge.Type != core.RelationUpdate {
		t.Errorf("relationship type = %q, want update", edge.Type)
	}
	if edge.ParentArticleID != "art-1" || edge.ChildArticleID != "art-2" {
		t.Errorf("edge = %s -> %s, want art-1 -> art-2", edge.ParentArticleID, edge.ChildArticleID)
	}
}

func TestLoadSnapshot_WindowExcludesOldArticles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	result, articles := sampleRun()
	if err := s.SaveRun(ctx, result, articles); err != nil {
		t.Fatalf("SaveRun() error: %v", err)
	}

	snapshot, err := s.LoadSnapshot(ctx, storedAt.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("LoadSnapshot() error: %v", err)
	}
	if len(snapshot.Articles) != 1 {
		t.Fatalf("got %d articles, want only the one inside the window", len(snapshot.Articles))
	}
	if snapshot.Articles[0].ID != "art-2" {
		t.Errorf("wrong article survived the cutoff: %s", snapshot.Articles[0].ID)
	}
}

func TestSaveRun_ReprocessingUpserts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	result, articles := sampleRun()
	if err := s.SaveRun(ctx, result, articles); err != nil {
		t.Fatalf("SaveRun() error: %v", err)
	}

	// Same articles land again under a new run ID with a changed title, as
	// happens when a pool is reprocessed.
	articles[0].Title = "Acme Robotics funding total revised upward"
	second := *result
	second.RunID = "run-test-2"
	second.Relationships = nil
	if err := s.SaveRun(ctx, &second, articles); err != nil {
		t.Fatalf("SaveRun() on reprocess error: %v", err)
	}

	snapshot, err := s.LoadSnapshot(ctx, storedAt.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("LoadSnapshot() error: %v", err)
	}
	if len(snapshot.Articles) != 2 {
		t.Fatalf("got %d articles, want 2: reprocessing must upsert, not duplicate", len(snapshot.Articles))
	}
	if snapshot.Articles[0].Title != articles[0].Title {
		t.Errorf("title = %q, want the reprocessed value", snapshot.Articles[0].Title)
	}
}

func TestLoadRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	result, articles := sampleRun()
	if err := s.SaveRun(ctx, result, articles); err != nil {
		t.Fatalf("SaveRun() error: %v", err)
	}

	latest, err := s.LatestRunID(ctx)
	if err != nil {
		t.Fatalf("LatestRunID() error: %v", err)
	}
	if latest != result.RunID {
		t.Errorf("LatestRunID() = %q, want %q", latest, result.RunID)
	}

	loaded, loadedArticles, err := s.LoadRun(ctx, result.RunID)
	if err != nil {
		t.Fatalf("LoadRun() error: %v", err)
	}

	if len(loaded.Clusters) != 1 {
		t.Fatalf("got %d clusters, want 1", len(loaded.Clusters))
	}
	cluster := loaded.Clusters[0]
	if cluster.Domain != core.DomainBusiness || cluster.SourceCount != 2 {
		t.Errorf("cluster round-trip lost fields: %+v", cluster)
	}
	if len(cluster.ArticleIDs) != 2 {
		t.Errorf("cluster members = %v, want 2", cluster.ArticleIDs)
	}
	if loaded.Assignments["art-1"] != "cluster_000" {
		t.Errorf("assignment for art-1 = %q", loaded.Assignments["art-1"])
	}
	if len(loaded.Relationships) != 1 || loaded.Relationships[0].Type != core.RelationUpdate {
		t.Errorf("relationships round-trip failed: %+v", loaded.Relationships)
	}
	if loaded.SourceCounts["cluster_000"] != 2 {
		t.Errorf("source counts round-trip failed: %+v", loaded.SourceCounts)
	}
	if !loaded.Updated["art-2"] {
		t.Error("update set not rebuilt from stored is_update flags")
	}
	if len(loadedArticles) != 2 {
		t.Fatalf("got %d articles, want 2", len(loadedArticles))
	}
	if !loadedArticles[1].IsUpdate {
		t.Error("is_update flag lost in run round-trip")
	}
}

func TestLoadRun_UnknownRun(t *testing.T) {
	s := newTestStore(t)

	if _, _, err := s.LoadRun(context.Background(), "no-such-run"); err == nil {
		t.Fatal("LoadRun() should fail for an unknown run ID")
	}
	if _, err := s.LatestRunID(context.Background()); err == nil {
		t.Fatal("LatestRunID() should fail on an empty store")
	}
}

func TestGetStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	empty, err := s.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats() error: %v", err)
	}
	if empty.ArticleCount != 0 || !empty.LastRunAt.IsZero() {
		t.Errorf("fresh store stats = %+v, want zeros", empty)
	}

	result, articles := sampleRun()
	if err := s.SaveRun(ctx, result, articles); err != nil {
		t.Fatalf("SaveRun() error: %v", err)
	}

	stats, err := s.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats() error: %v", err)
	}
	if stats.ArticleCount != 2 {
		t.Errorf("article count = %d, want 2", stats.ArticleCount)
	}
	if stats.ClusterCount != 1 {
		t.Errorf("cluster count = %d, want 1", stats.ClusterCount)
	}
	if stats.RelationshipCount != 1 {
		t.Errorf("relationship count = %d, want 1", stats.RelationshipCount)
	}
	if stats.LastRunAt.IsZero() {
		t.Error("last run time should be set after a save")
	}
	if stats.Path == "" {
		t.Error("stats should report the database path")
	}
}
