// Package clustering groups a run's article pool into topic clusters using
// single-linkage agglomeration over embedding similarity, gated by domain
// coherence. Embedding similarity alone is known to produce false positives
// across lexically similar but topically unrelated stories, so the domain
// check runs before similarity is consulted.
package clustering

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"newscycle/internal/core"
	"newscycle/internal/logger"
	"newscycle/internal/similarity"
	"newscycle/internal/taxonomy"
)

// Builder partitions articles into domain-coherent topic clusters.
type Builder struct {
	table      *taxonomy.Table
	thresholds similarity.Thresholds
	log        *slog.Logger
}

// NewBuilder creates a cluster builder over the given taxonomy and thresholds.
func NewBuilder(table *taxonomy.Table, thresholds similarity.Thresholds) *Builder {
	return &Builder{
		table:      table,
		thresholds: thresholds,
		log:        logger.Get(),
	}
}

// Build partitions the article pool into clusters. Invariants:
//   - every member of a cluster shares the cluster's domain label, and
//     unclassified articles only ever share a cluster with other
//     unclassified articles;
//   - any two members are linked by a chain of pairwise similarities each
//     exceeding the clustering threshold, and the chain never crosses a
//     domain boundary.
//
// Articles are visited in (published_date, article_id) order and assignment
// is sequential, so the partition is deterministic for an unchanged pool.
// A malformed embedding fails the whole build; a partial clustering would be
// silently wrong downstream.
func (b *Builder) Build(articles []core.Article, domains map[string]core.Domain) ([]core.TopicCluster, error) {
	if len(articles) == 0 {
		return nil, nil
	}

	ordered := make([]core.Article, len(articles))
	copy(ordered, articles)
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].PublishedDate.Equal(ordered[j].PublishedDate) {
			return ordered[i].PublishedDate.Before(ordered[j].PublishedDate)
		}
		return ordered[i].ID < ordered[j].ID
	})

	type cluster struct {
		domain  core.Domain
		members []core.Article
	}
	var clusters []*cluster

	for _, article := range ordered {
		domain := domains[article.ID]

		joined := false
		for _, c := range clusters {
			// Domain gate first: an article may not join a cluster of a
			// different domain even at similarity 1.0, and unclassified
			// articles only group with other unclassified articles.
			if c.domain != domain {
				continue
			}

			match, err := b.linksTo(article, c.members)
			if err != nil {
				return nil, fmt.Errorf("clustering failed at article %s: %w", article.ID, err)
			}
			if match {
				c.members = append(c.members, article)
				joined = true
				break
			}
		}

		if !joined {
			clusters = append(clusters, &cluster{
				domain:  domain,
				members: []core.Article{article},
			})
		}
	}

	result := make([]core.TopicCluster, 0, len(clusters))
	for i, c := range clusters {
		tc := core.TopicCluster{
			ID:        fmt.Sprintf("cluster_%03d", i),
			Domain:    c.domain,
			CreatedAt: time.Now().UTC(),
		}
		for _, member := range c.members {
			tc.ArticleIDs = append(tc.ArticleIDs, member.ID)
		}
		tc.SourceCount = CountSources(c.members)
		result = append(result, tc)
	}

	b.log.Debug("clustering complete",
		"articles", len(ordered),
		"clusters", len(result),
		"threshold", b.thresholds.Clustering)

	return result, nil
}

// linksTo reports whether the article exceeds the clustering threshold
// against any current member of a cluster. Matching a single member is
// sufficient for single-linkage agglomeration.
func (b *Builder) linksTo(article core.Article, members []core.Article) (bool, error) {
	for _, member := range members {
		score, err := similarity.Cosine(article.Embedding, member.Embedding)
		if err != nil {
			return false, fmt.Errorf("similarity between %s and %s: %w", article.ID, member.ID, err)
		}
		if similarity.Exceeds(score, b.thresholds.Clustering) {
			return true, nil
		}
	}
	return false, nil
}
