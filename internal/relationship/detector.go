// Package relationship classifies how a later article relates to an earlier
// one on the same topic: a sequel of a progressing event, an update revising
// earlier figures, or merely related coverage.
package relationship

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"newscycle/internal/core"
	"newscycle/internal/logger"
	"newscycle/internal/similarity"
	"newscycle/internal/taxonomy"
)

// materialGap is the minimum publication gap for a later article to count as
// a follow-up rather than parallel coverage of the same moment.
const materialGap = 6 * time.Hour

// minSharedEntities is how many named entities two articles must share before
// they are treated as covering the same underlying event.
const minSharedEntities = 2

// Detector classifies pairs of articles that pass the similarity pre-filter
// and share a domain.
type Detector struct {
	table      *taxonomy.Table
	thresholds similarity.Thresholds
	log        *slog.Logger
}

// NewDetector creates a relationship detector.
func NewDetector(table *taxonomy.Table, thresholds similarity.Thresholds) *Detector {
	return &Detector{
		table:      table,
		thresholds: thresholds,
		log:        logger.Get(),
	}
}

// Detect classifies the relationship between two articles, or returns nil if
// none applies. Classification is deterministic: the same two articles with
// the same embeddings and timestamps always classify identically.
//
// Rules, first match wins:
//  1. later + shared entities + clustering-level similarity + revision
//     markers in the later article -> update (the later article is the one
//     flagged is_update)
//  2. later + shared entities + clustering-level similarity -> sequel
//  3. similarity above the relationship pre-filter -> related
func (d *Detector) Detect(a, b core.Article, domainA, domainB core.Domain) (*core.Relationship, error) {
	// Same compatibility rule as clustering: cross-domain pairs are never
	// related, and unclassified only pairs with unclassified.
	if domainA != domainB {
		return nil, nil
	}

	score, err := similarity.Cosine(a.Embedding, b.Embedding)
	if err != nil {
		return nil, fmt.Errorf("similarity between %s and %s: %w", a.ID, b.ID, err)
	}
	if !similarity.Exceeds(score, d.thresholds.Relationship) {
		return nil, nil
	}

	parent, child := orderPair(a, b)
	gap := child.PublishedDate.Sub(parent.PublishedDate)

	shared := sharedEntities(parent.Text(), child.Text())
	sameEvent := gap >= materialGap &&
		len(shared) >= minSharedEntities &&
		similarity.Exceeds(score, d.thresholds.Clustering)

	var relType core.RelationshipType
	var reasoning string
	switch {
	case sameEvent && hasRevisionSignal(parent.Text(), child.Text()):
		relType = core.RelationUpdate
		reasoning = fmt.Sprintf("later article revises figures/claims of %s (gap %s, shared entities %v, similarity %.3f)",
			parent.ID, gap.Round(time.Hour), shared, score)
	case sameEvent:
		relType = core.RelationSequel
		reasoning = fmt.Sprintf("same event progressing after %s (gap %s, shared entities %v, similarity %.3f)",
			parent.ID, gap.Round(time.Hour), shared, score)
	default:
		relType = core.RelationRelated
		reasoning = fmt.Sprintf("same-domain coverage, similarity %.3f", score)
	}

	return &core.Relationship{
		ID:              uuid.NewString(),
		ParentArticleID: parent.ID,
		ChildArticleID:  child.ID,
		Type:            relType,
		SimilarityScore: score,
		Reasoning:       reasoning,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// DetectAll evaluates every pair in the pool plus every (historical, current)
// pair from the snapshot, in deterministic order. It returns the detected
// edges, unique per (parent, child, type), and the set of article IDs that
// must be flagged is_update, which includes children of update edges recorded
// by prior cycles.
func (d *Detector) DetectAll(pool []core.Article, domains map[string]core.Domain, snapshot core.RunSnapshot) ([]core.Relationship, map[string]bool, error) {
	ordered := make([]core.Article, len(pool))
	copy(ordered, pool)
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].PublishedDate.Equal(ordered[j].PublishedDate) {
			return ordered[i].PublishedDate.Before(ordered[j].PublishedDate)
		}
		return ordered[i].ID < ordered[j].ID
	})

	historical := make([]core.Article, len(snapshot.Articles))
	copy(historical, snapshot.Articles)
	sort.Slice(historical, func(i, j int) bool {
		if !historical[i].PublishedDate.Equal(historical[j].PublishedDate) {
			return historical[i].PublishedDate.Before(historical[j].PublishedDate)
		}
		return historical[i].ID < historical[j].ID
	})

	historicalDomains := make(map[string]core.Domain, len(historical))
	for _, article := range historical {
		domain, _ := d.table.ClassifyArticle(article)
		historicalDomains[article.ID] = domain
	}

	seen := make(map[core.RelationshipKey]bool)
	var edges []core.Relationship
	updated := make(map[string]bool)

	// Update flags recorded by prior cycles stay sticky: a pool article that a
	// prior run classified as an update keeps the flag on reprocessing, even
	// when its parent has aged out of the article window.
	poolIDs := make(map[string]bool, len(ordered))
	for _, article := range ordered {
		poolIDs[article.ID] = true
	}
	for _, prior := range snapshot.Relationships {
		if prior.Type == core.RelationUpdate && poolIDs[prior.ChildArticleID] {
			updated[prior.ChildArticleID] = true
		}
	}

	record := func(rel *core.Relationship) {
		if rel == nil || seen[rel.Key()] {
			return
		}
		seen[rel.Key()] = true
		edges = append(edges, *rel)
		if rel.Type == core.RelationUpdate {
			updated[rel.ChildArticleID] = true
		}
	}

	// Within the current pool.
	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			rel, err := d.Detect(ordered[i], ordered[j], domains[ordered[i].ID], domains[ordered[j].ID])
			if err != nil {
				return nil, nil, err
			}
			record(rel)
		}
	}

	// Current articles against prior cycles, for cross-run update/sequel
	// detection. Historical articles never gain the is_update flag; only the
	// current pool is mutated by a run.
	for _, prior := range historical {
		for _, current := range ordered {
			if prior.ID == current.ID {
				// The history window can overlap the current pool.
				continue
			}
			rel, err := d.Detect(prior, current, historicalDomains[prior.ID], domains[current.ID])
			if err != nil {
				return nil, nil, err
			}
			record(rel)
		}
	}

	d.log.Debug("relationship detection complete",
		"pool", len(ordered),
		"historical", len(historical),
		"edges", len(edges),
		"updates", len(updated))

	return edges, updated, nil
}

// orderPair orders two articles so the parent precedes the child. Identical
// timestamps fall back to ID order to keep the direction stable.
func orderPair(a, b core.Article) (parent, child core.Article) {
	if a.PublishedDate.Before(b.PublishedDate) {
		return a, b
	}
	if b.PublishedDate.Before(a.PublishedDate) {
		return b, a
	}
	if a.ID < b.ID {
		return a, b
	}
	return b, a
}
