package retrieval

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestExtractSnippetsWindowBound(t *testing.T) {
	text := strings.Repeat("x ", 1000) + "riego\n" + strings.Repeat(" y", 1000)
	got := ExtractSnippets(text, KeywordSet{"riego"}, DefaultMaxSnippets, DefaultSnippetRadius)
	require.Len(t, got, 1)
	require.Contains(t, got[0], "riego")
	require.NotContains(t, got[0], "\n")
	require.LessOrEqual(t, utf8.RuneCountInString(got[0]), 2*DefaultSnippetRadius+len("riego"))
}

func TestExtractSnippetsKeepsOriginalCase(t *testing.T) {
	got := ExtractSnippets("La Comisión de Agricultura aprobó", KeywordSet{"agricultura"}, 6, 3)
	require.Equal(t, []string{"de Agricultura ap"}, got)
}

func TestExtractSnippetsReadingOrder(t *testing.T) {
	filler := strings.Repeat("z", 500)
	text := filler + " riego " + filler + " agua " + filler
	got := ExtractSnippets(text, KeywordSet{"agua", "riego"}, 6, 20)
	require.Len(t, got, 2)
	require.Contains(t, got[0], "riego")
	require.Contains(t, got[1], "agua")
}

func TestExtractSnippetsCapsCount(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 10; i++ {
		b.WriteString(strings.Repeat("x", 200))
		fmt.Fprintf(&b, " riego%03d ", i)
	}
	got := ExtractSnippets(b.String(), KeywordSet{"riego"}, 6, 10)
	require.Len(t, got, 6)
}

func TestExtractSnippetsDropsDuplicates(t *testing.T) {
	got := ExtractSnippets("agua agua", KeywordSet{"agua"}, 6, 50)
	require.Equal(t, []string{"agua agua"}, got)
}

func TestExtractSnippetsFallbackHead(t *testing.T) {
	got := ExtractSnippets(strings.Repeat("x", 9000), KeywordSet{"riego"}, 6, 280)
	require.Len(t, got, 1)
	require.Equal(t, fallbackHeadRunes, utf8.RuneCountInString(got[0]))
}

func TestExtractSnippetsNeverWhitespaceOnly(t *testing.T) {
	require.Empty(t, ExtractSnippets("   \n\n\t  ", KeywordSet{"riego"}, 6, 280))
	require.Empty(t, ExtractSnippets("", KeywordSet{"riego"}, 6, 280))
	for _, s := range ExtractSnippets("\n\n riego \n\n", KeywordSet{"riego"}, 6, 280) {
		require.NotEmpty(t, strings.TrimSpace(s))
	}
}

func TestKeepSnippetPrefersSupersets(t *testing.T) {
	kept := keepSnippet(nil, "agua")
	kept = keepSnippet(kept, "el agua fría")
	require.Equal(t, []string{"el agua fría"}, kept)

	kept = keepSnippet(kept, "agua fría")
	require.Equal(t, []string{"el agua fría"}, kept)

	kept = keepSnippet(kept, "riego")
	require.Equal(t, []string{"el agua fría", "riego"}, kept)

	require.Equal(t, []string{"riego"}, keepSnippet([]string{"riego"}, ""))
}
