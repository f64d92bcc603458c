package retrieval

import (
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	DefaultMaxSnippets   = 6
	DefaultSnippetRadius = 280

	// fallbackHeadRunes is the leading excerpt used when no keyword occurs.
	fallbackHeadRunes = 8000
	// rawHitFactor bounds raw hits to maxSnippets*rawHitFactor.
	rawHitFactor = 3
)

var newlineReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

type hit struct {
	pos     int
	snippet string
}

// ExtractSnippets returns up to maxSnippets excerpts of text centred on
// keyword occurrences, in reading order. An excerpt contained in another is
// dropped in favour of the larger one. When no keyword occurs the head of the
// text is returned as a single excerpt.
func ExtractSnippets(text string, keywords KeywordSet, maxSnippets, radius int) []string {
	if text == "" {
		return nil
	}
	if maxSnippets <= 0 {
		maxSnippets = DefaultMaxSnippets
	}
	if radius < 0 {
		radius = DefaultSnippetRadius
	}

	orig := []rune(norm.NFC.String(text))
	low := string(lowerRunes(orig))
	maxHits := maxSnippets * rawHitFactor

	var hits []hit
collect:
	for _, w := range keywords {
		if utf8.RuneCountInString(w) < minKeywordRunes {
			continue
		}
		wRunes := utf8.RuneCountInString(w)
		byteOff, runeOff := 0, 0
		for {
			i := strings.Index(low[byteOff:], w)
			if i < 0 {
				break
			}
			runeOff += utf8.RuneCountInString(low[byteOff : byteOff+i])
			byteOff += i
			start := max(0, runeOff-radius)
			end := min(len(orig), runeOff+wRunes+radius)
			hits = append(hits, hit{pos: runeOff, snippet: cleanSnippet(string(orig[start:end]))})
			if len(hits) >= maxHits {
				break collect
			}
			byteOff += len(w)
			runeOff += wRunes
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
	var kept []string
	for _, h := range hits {
		kept = keepSnippet(kept, h.snippet)
		if len(kept) >= maxSnippets {
			break
		}
	}

	if len(kept) == 0 {
		if head := cleanSnippet(truncateRunes(string(orig), fallbackHeadRunes)); head != "" {
			kept = append(kept, head)
		}
	}
	return kept
}

// keepSnippet adds s unless an already kept snippet contains it. Kept
// snippets that s contains are replaced by s.
func keepSnippet(kept []string, s string) []string {
	if s == "" {
		return kept
	}
	for _, k := range kept {
		if strings.Contains(k, s) {
			return kept
		}
	}
	out := kept[:0]
	for _, k := range kept {
		if !strings.Contains(s, k) {
			out = append(out, k)
		}
	}
	return append(out, s)
}

func cleanSnippet(s string) string {
	return strings.TrimSpace(newlineReplacer.Replace(s))
}
