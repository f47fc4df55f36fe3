package clustering

import "newscycle/internal/core"

// CountSources counts the distinct source IDs among a set of articles.
// Articles without a source ID are ignored rather than counted as one shared
// anonymous publisher.
func CountSources(articles []core.Article) int {
	seen := make(map[string]bool)
	for _, article := range articles {
		if article.SourceID == "" {
			continue
		}
		seen[article.SourceID] = true
	}
	return len(seen)
}

// Aggregate recomputes the source count for a cluster from the article pool.
// A cluster with two or more distinct sources is a multi-source topic: the
// newsletter flags those as independently corroborated stories.
func Aggregate(cluster core.TopicCluster, pool []core.Article) int {
	byID := make(map[string]core.Article, len(pool))
	for _, article := range pool {
		byID[article.ID] = article
	}

	var members []core.Article
	for _, id := range cluster.ArticleIDs {
		if article, ok := byID[id]; ok {
			members = append(members, article)
		}
	}
	return CountSources(members)
}

// SourceCounts returns the cluster_id -> source_count mapping consumed by the
// downstream reporter.
func SourceCounts(clusters []core.TopicCluster) map[string]int {
	counts := make(map[string]int, len(clusters))
	for _, cluster := range clusters {
		counts[cluster.ID] = cluster.SourceCount
	}
	return counts
}
