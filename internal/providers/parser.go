package providers

import (
	"os"
	"strings"
)

type ProviderRef struct {
	Raw      string
	Name     string
	KeyAlias string
}

// ParseProviderList parses "gemini|groq:team|mock" into provider references.
// An empty list means the default gemini provider.
func ParseProviderList(raw string) []ProviderRef {
	parts := strings.Split(raw, "|")
	out := make([]ProviderRef, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		ref := ProviderRef{Raw: p}
		if strings.Contains(p, ":") {
			x := strings.SplitN(p, ":", 2)
			ref.Name = strings.TrimSpace(x[0])
			ref.KeyAlias = strings.TrimSpace(x[1])
		} else {
			ref.Name = p
		}
		out = append(out, ref)
	}
	if len(out) == 0 {
		out = append(out, ProviderRef{Raw: "gemini", Name: "gemini"})
	}
	return out
}

func resolveGeminiKey(alias, fallback string) string {
	if alias != "" {
		if v := strings.TrimSpace(os.Getenv("LEGIS_GEMINI_KEY_" + sanitizeEnvToken(alias))); v != "" {
			return v
		}
	}
	return fallback
}
