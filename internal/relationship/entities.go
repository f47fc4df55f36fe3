package relationship

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// katakanaRun matches katakana sequences of three or more characters, the
// usual written form of company and product names in Japanese coverage.
var katakanaRun = regexp.MustCompile(`[ァ-ヶー]{3,}`)

// numberPattern matches figures worth comparing between revisions: plain
// numbers, percentages, and money-like amounts.
var numberPattern = regexp.MustCompile(`\d+(?:[.,]\d+)*%?`)

// revisionMarkers are the textual signals that a later article revises or
// corrects an earlier one, in both English and Japanese forms.
var revisionMarkers = []string{
	"revised", "corrected", "correction", "updated", "update:", "now says",
	"previously reported", "clarif", "retract",
	"修正", "訂正", "更新", "上方修正", "下方修正", "続報",
}

// extractEntities pulls candidate named entities from text: capitalized
// English tokens longer than two characters and katakana runs. This is a
// deliberately shallow heuristic; it only needs to agree with itself across
// runs, not match a full NER system.
func extractEntities(text string) map[string]bool {
	entities := make(map[string]bool)

	for _, token := range strings.Fields(text) {
		token = strings.Trim(token, ".,:;!?\"'()[]")
		if len(token) < 3 {
			continue
		}
		runes := []rune(token)
		if unicode.IsUpper(runes[0]) && !allUpper(runes) {
			entities[strings.ToLower(token)] = true
		}
	}

	for _, run := range katakanaRun.FindAllString(text, -1) {
		entities[run] = true
	}

	return entities
}

// allUpper reports whether every letter in the token is uppercase. All-caps
// tokens are mostly acronyms and shouting, both too noisy as entity evidence.
func allUpper(runes []rune) bool {
	letters := 0
	for _, r := range runes {
		if unicode.IsLetter(r) {
			letters++
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return letters > 1
}

// sharedEntities returns the sorted entities present in both texts.
func sharedEntities(textA, textB string) []string {
	a := extractEntities(textA)
	b := extractEntities(textB)

	var shared []string
	for entity := range a {
		if b[entity] {
			shared = append(shared, entity)
		}
	}
	sort.Strings(shared)
	return shared
}

// hasRevisionSignal reports whether the child text reads like a revision of
// the parent: either an explicit revision marker, or figures that changed
// between two otherwise matching articles.
func hasRevisionSignal(parentText, childText string) bool {
	lowered := strings.ToLower(childText)
	for _, marker := range revisionMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}

	parentFigures := numberPattern.FindAllString(parentText, -1)
	childFigures := numberPattern.FindAllString(childText, -1)
	if len(parentFigures) == 0 || len(childFigures) == 0 {
		return false
	}
	return !sameFigures(parentFigures, childFigures)
}

// sameFigures compares two figure lists as sets.
func sameFigures(a, b []string) bool {
	setA := make(map[string]bool, len(a))
	for _, figure := range a {
		setA[figure] = true
	}
	setB := make(map[string]bool, len(b))
	for _, figure := range b {
		setB[figure] = true
	}
	if len(setA) != len(setB) {
		return false
	}
	for figure := range setA {
		if !setB[figure] {
			return false
		}
	}
	return true
}
