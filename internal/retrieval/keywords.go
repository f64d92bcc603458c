// Package retrieval turns a free-text question into ranked, cited fragments of
// the legislative document repository. Everything here is lexical: keyword
// extraction, a path/metadata pass, a capped term-count content pass and
// snippet windows around keyword hits.
package retrieval

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// KeywordSet is the ordered, deduplicated list of search terms of a question.
type KeywordSet []string

const minKeywordRunes = 3

// fallbackHint is appended to a question that yields no keywords of its own.
const fallbackHint = " sesión comisión"

var wordRe = regexp.MustCompile(`[a-záéíóúüñ0-9\-]{3,}`)

var stopWords = map[string]struct{}{
	"que": {}, "qué": {}, "cual": {}, "cuál": {}, "como": {}, "cómo": {},
	"para": {}, "por": {}, "con": {}, "sin": {}, "una": {}, "uno": {},
	"unos": {}, "unas": {}, "del": {}, "de": {}, "la": {}, "el": {},
	"los": {}, "las": {}, "y": {}, "o": {}, "a": {}, "en": {}, "al": {},
	"un": {}, "es": {}, "se": {}, "sus": {}, "su": {},
}

// ExtractKeywords lower-cases the question and returns its qualifying terms.
// When nothing qualifies, generic domain words are added so retrieval always
// has some signal.
func ExtractKeywords(question string) KeywordSet {
	kws := keywords(question)
	if len(kws) == 0 {
		kws = keywords(question + fallbackHint)
	}
	return kws
}

func keywords(q string) KeywordSet {
	matches := wordRe.FindAllString(normalizeText(q), -1)
	out := make(KeywordSet, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, w := range matches {
		if _, stop := stopWords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// normalizeText composes accents (NFC) and lower-cases rune by rune, so the
// result has exactly as many runes as the NFC form of the input.
func normalizeText(s string) string {
	return string(lowerRunes([]rune(norm.NFC.String(s))))
}

func lowerRunes(in []rune) []rune {
	out := make([]rune, len(in))
	for i, r := range in {
		out[i] = unicode.ToLower(r)
	}
	return out
}

// Contains reports whether term is a keyword of the set.
func (k KeywordSet) Contains(term string) bool {
	term = strings.TrimSpace(normalizeText(term))
	for _, w := range k {
		if w == term {
			return true
		}
	}
	return false
}
