package retrieval

import (
	"strings"
	"unicode/utf8"
)

// DefaultEntityMinLen ignores entity names too short to be a reliable mention.
const DefaultEntityMinLen = 4

// DetectEntityFilter reports the entity (commission) the question names, if
// any. Names are matched as case-insensitive substrings of the question.
// Names shorter than minLen runes are never matched, and when several names
// match the longest one wins; among equal lengths the first in sorted order.
func DetectEntityFilter(question string, entities []string, minLen int) (string, bool) {
	q := strings.TrimSpace(normalizeText(question))
	if q == "" {
		return "", false
	}
	best := ""
	bestLen := 0
	for _, e := range entities {
		n := utf8.RuneCountInString(e)
		if e == "" || n < minLen {
			continue
		}
		if !strings.Contains(q, normalizeText(e)) {
			continue
		}
		if n > bestLen {
			best, bestLen = e, n
		}
	}
	return best, best != ""
}
