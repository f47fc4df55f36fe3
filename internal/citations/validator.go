// Package citations gates which related articles may be shown as citations
// under a main story at render time. The validator is deliberately
// conservative: a missing citation degrades the newsletter gracefully, while
// a wrong one is a visible correctness bug.
package citations

import (
	"fmt"
	"log/slog"

	"newscycle/internal/core"
	"newscycle/internal/logger"
	"newscycle/internal/similarity"
	"newscycle/internal/taxonomy"
)

// Decision is the outcome of a citation check, with the reason retained for
// audit. Reason is never used in control flow.
type Decision struct {
	Allowed    bool    `json:"allowed"`
	Reason     string  `json:"reason"`
	Similarity float64 `json:"similarity"`
}

// Validator decides whether a candidate article may be cited under a main
// article.
type Validator struct {
	table      *taxonomy.Table
	thresholds similarity.Thresholds
	log        *slog.Logger
}

// NewValidator creates a citation validator over the given taxonomy and
// thresholds.
func NewValidator(table *taxonomy.Table, thresholds similarity.Thresholds) *Validator {
	return &Validator{
		table:      table,
		thresholds: thresholds,
		log:        logger.Get(),
	}
}

// Validate decides whether candidate may be cited under main.
//
// Checks run in order:
//  1. Domain exclusion: if both sides classify and the domains form a
//     declared exclusion pair, reject regardless of similarity. This is the
//     primary defense against citing topically unrelated articles that share
//     surface keywords.
//  2. Incompatible patterns: curated phrase pairs known to cause false
//     positives, checked bidirectionally.
//  3. Same-domain admission: identical domains (including both unclassified)
//     admit when similarity clears the citation threshold.
//  4. One-sided classification is a borderline case and rejects.
func (v *Validator) Validate(main, candidate core.Article) (Decision, error) {
	mainDomain, mainOK := v.table.ClassifyArticle(main)
	candDomain, candOK := v.table.ClassifyArticle(candidate)

	if mainOK && candOK && v.table.Excluded(mainDomain, candDomain) {
		return Decision{
			Allowed: false,
			Reason:  fmt.Sprintf("domains %s and %s are a declared exclusion pair", mainDomain, candDomain),
		}, nil
	}

	if v.table.Incompatible(main.Text(), candidate.Text()) {
		return Decision{
			Allowed: false,
			Reason:  "matched a curated incompatible phrase pair",
		}, nil
	}

	score, err := similarity.Cosine(main.Embedding, candidate.Embedding)
	if err != nil {
		return Decision{}, fmt.Errorf("citation similarity between %s and %s: %w", main.ID, candidate.ID, err)
	}

	if mainDomain == candDomain {
		if similarity.Exceeds(score, v.thresholds.Citation) {
			reason := fmt.Sprintf("same domain %s, similarity %.3f", mainDomain, score)
			if !mainOK {
				// Both unclassified: similarity-only fallback keeps genuinely
				// novel topics usable ahead of taxonomy coverage.
				reason = fmt.Sprintf("both unclassified, similarity %.3f", score)
			}
			return Decision{Allowed: true, Reason: reason, Similarity: score}, nil
		}
		return Decision{
			Allowed:    false,
			Reason:     fmt.Sprintf("similarity %.3f below citation threshold %.2f", score, v.thresholds.Citation),
			Similarity: score,
		}, nil
	}

	// Mixed classification (one side unclassified, or differing non-excluded
	// domains): reject the borderline case rather than risk a wrong citation.
	return Decision{
		Allowed:    false,
		Reason:     fmt.Sprintf("domains differ (%q vs %q)", mainDomain, candDomain),
		Similarity: score,
	}, nil
}

// MayCite is the boolean form of Validate used by the renderer.
func (v *Validator) MayCite(main, candidate core.Article) (bool, error) {
	decision, err := v.Validate(main, candidate)
	if err != nil {
		return false, err
	}
	if !decision.Allowed {
		v.log.Debug("citation rejected",
			"main", main.ID,
			"candidate", candidate.ID,
			"reason", decision.Reason)
	}
	return decision.Allowed, nil
}
