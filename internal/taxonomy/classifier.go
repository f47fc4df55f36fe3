package taxonomy

import (
	"strings"

	"newscycle/internal/core"
)

// Classify maps free text (typically an article's title plus summary) to a
// domain using keyword evidence. The domain with the most keyword hits wins;
// ties break by declaration order in the table, so the function is total and
// deterministic for identical input. A no-match returns (DomainNone, false),
// which is a valid outcome and not an error: an unclassifiable article still
// flows through clustering and citation under the unclassified label rather
// than being dropped.
func (t *Table) Classify(text string) (core.Domain, bool) {
	if text == "" {
		return core.DomainNone, false
	}

	lowered := strings.ToLower(text)

	best := core.DomainNone
	bestHits := 0
	for _, spec := range t.Domains {
		hits := countHits(lowered, spec.Keywords)
		if hits > bestHits {
			bestHits = hits
			best = spec.Domain
		}
	}

	if bestHits == 0 {
		return core.DomainNone, false
	}
	return best, true
}

// ClassifyArticle classifies an article by its concatenated title and summary.
func (t *Table) ClassifyArticle(article core.Article) (core.Domain, bool) {
	return t.Classify(article.Text())
}

// Incompatible reports whether two texts trip a curated incompatible phrase
// pair. The check is bidirectional: a pattern excluding A from citing B also
// excludes B from citing A.
func (t *Table) Incompatible(textA, textB string) bool {
	a := strings.ToLower(textA)
	b := strings.ToLower(textB)

	for _, pair := range t.IncompatiblePatterns {
		first := strings.ToLower(pair.First)
		second := strings.ToLower(pair.Second)
		if strings.Contains(a, first) && strings.Contains(b, second) {
			return true
		}
		if strings.Contains(b, first) && strings.Contains(a, second) {
			return true
		}
	}
	return false
}

// countHits counts how many distinct keywords from the set occur in the
// already-lowercased text. Multiple occurrences of one keyword count once;
// hit counts compare evidence breadth, not frequency.
func countHits(lowered string, keywords []string) int {
	hits := 0
	for _, keyword := range keywords {
		if keyword == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(keyword)) {
			hits++
		}
	}
	return hits
}
