package util

import (
	"strings"
	"unicode"
)

// SanitizeText cleans text extracted from transcripts (PDF output in
// particular): NUL and other control runes are dropped, soft hyphens are
// removed, runs of blanks inside a line collapse to one space, and more than
// one empty line in a row collapses to a single blank line.
func SanitizeText(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	blank := false
	newlines := 0
	for _, ch := range s {
		switch {
		case ch == '\r':
			continue
		case ch == '\n':
			newlines++
			blank = false
			continue
		case ch == '\u00ad', ch == '\ufeff':
			continue
		case ch == '\t' || ch == ' ' || ch == '\u00a0':
			blank = true
			continue
		case unicode.IsControl(ch):
			continue
		}
		if newlines > 0 {
			if b.Len() > 0 {
				b.WriteString(strings.Repeat("\n", min(newlines, 2)))
			}
			newlines = 0
			blank = false
		}
		if blank && b.Len() > 0 {
			b.WriteByte(' ')
		}
		blank = false
		b.WriteRune(ch)
	}
	return b.String()
}
