package clustering

import (
	"testing"
	"time"

	"newscycle/internal/core"
)

func TestCountSources(t *testing.T) {
	articles := []core.Article{
		{ID: "a", SourceID: "feed-a"},
		{ID: "b", SourceID: "feed-b"},
		{ID: "c", SourceID: "feed-a"},
		{ID: "d", SourceID: ""},
	}
	if got := CountSources(articles); got != 2 {
		t.Errorf("CountSources() = %d, want 2 distinct sources (empty ignored)", got)
	}
	if got := CountSources(nil); got != 0 {
		t.Errorf("CountSources(nil) = %d, want 0", got)
	}
}

func TestAggregate(t *testing.T) {
	// Three articles from three distinct publishers in one cluster.
	pool := []core.Article{
		{ID: "a", SourceID: "feed-a"},
		{ID: "b", SourceID: "feed-b"},
		{ID: "c", SourceID: "feed-c"},
		{ID: "other", SourceID: "feed-d"},
	}
	cluster := core.TopicCluster{
		ID:         "cluster_000",
		ArticleIDs: []string{"a", "b", "c"},
	}

	if got := Aggregate(cluster, pool); got != 3 {
		t.Errorf("Aggregate() = %d, want 3", got)
	}

	// Member IDs missing from the pool are skipped, not counted.
	cluster.ArticleIDs = append(cluster.ArticleIDs, "ghost")
	if got := Aggregate(cluster, pool); got != 3 {
		t.Errorf("Aggregate() with unknown member = %d, want 3", got)
	}
}

func TestSourceCounts(t *testing.T) {
	pool := []core.Article{
		article("a", day1, "feed-a", []float64{1, 0}),
		article("b", day1.Add(time.Hour), "feed-b", []float64{0.95, 0.3122}),
		article("c", day1.Add(2*time.Hour), "feed-c", []float64{0.96, 0.28}),
		article("d", day1.Add(3*time.Hour), "feed-a", []float64{0, 1}),
	}
	domains := map[string]core.Domain{
		"a": core.DomainResearch,
		"b": core.DomainResearch,
		"c": core.DomainResearch,
		"d": core.DomainResearch,
	}

	clusters, err := testBuilder().Build(pool, domains)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	counts := SourceCounts(clusters)
	if len(counts) != len(clusters) {
		t.Fatalf("SourceCounts() has %d entries, want one per cluster", len(counts))
	}
	for _, cluster := range clusters {
		want := 1
		if len(cluster.ArticleIDs) == 3 {
			want = 3
		}
		if counts[cluster.ID] != want {
			t.Errorf("counts[%s] = %d, want %d", cluster.ID, counts[cluster.ID], want)
		}
	}
}
