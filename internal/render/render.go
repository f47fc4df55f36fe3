// Package render produces the markdown newsletter sections from a run's
// decisions. Citation gating happens here, at render time: related articles
// are only exposed under a main story when the citation validator admits
// them. A rejected citation simply does not appear; no error surfaces to the
// reader.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"newscycle/internal/citations"
	"newscycle/internal/core"
)

// Renderer renders newsletter markdown for a completed run.
type Renderer struct {
	validator *citations.Validator
}

// NewRenderer creates a renderer that gates citations through the given
// validator.
func NewRenderer(validator *citations.Validator) *Renderer {
	return &Renderer{validator: validator}
}

// Render produces the newsletter markdown for a run. Clusters appear in a
// deterministic order: multi-source topics first, then by lead article
// relevance, then by cluster ID.
func (r *Renderer) Render(result *core.RunResult, pool []core.Article) (string, error) {
	byID := make(map[string]core.Article, len(pool))
	for _, article := range pool {
		byID[article.ID] = article
	}

	clusters := make([]core.TopicCluster, len(result.Clusters))
	copy(clusters, result.Clusters)

	leads := make(map[string]core.Article, len(clusters))
	for _, cluster := range clusters {
		leads[cluster.ID] = leadArticle(cluster, byID)
	}

	sort.Slice(clusters, func(i, j int) bool {
		a, b := clusters[i], clusters[j]
		if a.IsMultiSource() != b.IsMultiSource() {
			return a.IsMultiSource()
		}
		la, lb := leads[a.ID], leads[b.ID]
		if la.RelevanceScore != lb.RelevanceScore {
			return la.RelevanceScore > lb.RelevanceScore
		}
		return a.ID < b.ID
	})

	var md strings.Builder
	dateStr := time.Now().UTC().Format("2006-01-02")
	md.WriteString(fmt.Sprintf("# AI News - %s\n\n", dateStr))

	if len(clusters) == 0 {
		md.WriteString("No articles this cycle.\n")
		return md.String(), nil
	}

	for _, cluster := range clusters {
		lead := leads[cluster.ID]

		title := lead.Title
		if lead.IsUpdate {
			title = "UPDATE: " + title
		}
		md.WriteString(fmt.Sprintf("## %s\n\n", title))

		if cluster.IsMultiSource() {
			md.WriteString(fmt.Sprintf("*Covered by %d independent sources.*\n\n", cluster.SourceCount))
		}

		if lead.ContentSummary != "" {
			md.WriteString(lead.ContentSummary + "\n\n")
		}

		related, err := r.admittedCitations(lead, cluster, byID)
		if err != nil {
			return "", err
		}
		if len(related) > 0 {
			md.WriteString("**Related:**\n\n")
			for _, article := range related {
				line := article.Title
				if article.IsUpdate {
					line = "UPDATE: " + line
				}
				md.WriteString(fmt.Sprintf("- %s (%s)\n", line, article.SourceID))
			}
			md.WriteString("\n")
		}

		md.WriteString("---\n\n")
	}

	return md.String(), nil
}

// admittedCitations returns the cluster members, other than the lead, that
// the validator admits as citations under it, in deterministic order.
func (r *Renderer) admittedCitations(lead core.Article, cluster core.TopicCluster, byID map[string]core.Article) ([]core.Article, error) {
	var admitted []core.Article
	for _, id := range cluster.ArticleIDs {
		if id == lead.ID {
			continue
		}
		candidate, ok := byID[id]
		if !ok {
			continue
		}
		allowed, err := r.validator.MayCite(lead, candidate)
		if err != nil {
			return nil, fmt.Errorf("citation check for %s under %s: %w", candidate.ID, lead.ID, err)
		}
		if allowed {
			admitted = append(admitted, candidate)
		}
	}

	sort.Slice(admitted, func(i, j int) bool {
		if !admitted[i].PublishedDate.Equal(admitted[j].PublishedDate) {
			return admitted[i].PublishedDate.Before(admitted[j].PublishedDate)
		}
		return admitted[i].ID < admitted[j].ID
	})
	return admitted, nil
}

// leadArticle picks the article shown as a cluster's main story: highest
// relevance, then earliest publication, then lowest ID.
func leadArticle(cluster core.TopicCluster, byID map[string]core.Article) core.Article {
	var lead core.Article
	first := true
	for _, id := range cluster.ArticleIDs {
		article, ok := byID[id]
		if !ok {
			continue
		}
		if first {
			lead = article
			first = false
			continue
		}
		if article.RelevanceScore > lead.RelevanceScore {
			lead = article
			continue
		}
		if article.RelevanceScore == lead.RelevanceScore {
			if article.PublishedDate.Before(lead.PublishedDate) ||
				(article.PublishedDate.Equal(lead.PublishedDate) && article.ID < lead.ID) {
				lead = article
			}
		}
	}
	return lead
}

// WriteFile writes rendered newsletter content into the output directory,
// named by date.
func WriteFile(content, outputDir string) (string, error) {
	if outputDir == "" {
		outputDir = "newsletters"
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	filename := fmt.Sprintf("newsletter_%s.md", time.Now().UTC().Format("2006-01-02"))
	filePath := filepath.Join(outputDir, filename)

	if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write newsletter file %s: %w", filePath, err)
	}

	return filePath, nil
}
