package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"observatorio/internal/config"
)

var ErrNoProviders = errors.New("no generation provider configured")

type NamedGenerator struct {
	Ref      ProviderRef
	Provider Generator
}

// Manager holds the generators named in LEGIS_LLM_PROVIDERS in preference
// order. Providers without a credential are kept so they can be reported,
// but they are never called.
type Manager struct {
	generators []NamedGenerator
}

func NewManager(cfg config.Config) (*Manager, error) {
	m := &Manager{}
	for _, ref := range ParseProviderList(cfg.LLMProviders) {
		p, err := buildProvider(ref, cfg)
		if err != nil {
			return nil, err
		}
		m.generators = append(m.generators, NamedGenerator{Ref: ref, Provider: p})
	}
	return m, nil
}

// NewManagerWith wraps already built generators, mainly for tests.
func NewManagerWith(gens ...NamedGenerator) *Manager {
	return &Manager{generators: gens}
}

// Configured reports whether at least one provider can be called.
func (m *Manager) Configured() bool {
	return len(m.PreferredOrder()) > 0
}

func (m *Manager) Count() int {
	return len(m.generators)
}

func (m *Manager) Refs() []ProviderRef {
	out := make([]ProviderRef, 0, len(m.generators))
	for i := range m.generators {
		out = append(out, m.generators[i].Ref)
	}
	return out
}

// PreferredOrder lists callable providers, real ones before the mock.
func (m *Manager) PreferredOrder() []int {
	out := make([]int, 0, len(m.generators))
	for pass := 0; pass < 2; pass++ {
		for i, g := range m.generators {
			if !ready(g.Provider) {
				continue
			}
			isMock := strings.EqualFold(g.Ref.Name, "mock")
			if (pass == 0) != isMock {
				out = append(out, i)
			}
		}
	}
	return out
}

func ready(p Generator) bool {
	if c, ok := p.(credentialed); ok {
		return c.HasCredential()
	}
	return true
}

func (m *Manager) FindByName(name string) (Generator, ProviderRef, bool) {
	target := strings.ToLower(strings.TrimSpace(name))
	if target == "" {
		return nil, ProviderRef{}, false
	}
	for i := range m.generators {
		if strings.ToLower(m.generators[i].Ref.Name) == target {
			return m.generators[i].Provider, m.generators[i].Ref, true
		}
	}
	return nil, ProviderRef{}, false
}

// Generate calls the providers in preferred order and returns the first
// non-empty answer. The last error is returned when all of them fail.
func (m *Manager) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	var (
		resp GenerateResponse
		info ProviderInfo
		err  = ErrNoProviders
	)
	for _, idx := range m.PreferredOrder() {
		if ctx.Err() != nil {
			return GenerateResponse{}, info, ctx.Err()
		}
		g := m.generators[idx]
		resp, info, err = g.Provider.Generate(ctx, req)
		if err == nil && strings.TrimSpace(resp.Text) != "" {
			return resp, info, nil
		}
		if err == nil {
			err = fmt.Errorf("%s returned empty text", g.Ref.Name)
		}
	}
	return GenerateResponse{}, info, err
}

func buildProvider(ref ProviderRef, cfg config.Config) (Generator, error) {
	switch strings.ToLower(ref.Name) {
	case "gemini":
		return NewGeminiProvider(ref.KeyAlias, resolveGeminiKey(ref.KeyAlias, cfg.GeminiAPIKey), cfg.GeminiModel), nil
	case "mock":
		return NewMockProvider(), nil
	case "openai":
		return NewOpenAIProvider(ref.KeyAlias), nil
	case "groq":
		return NewGroqProvider(ref.KeyAlias), nil
	case "ollama":
		return NewOllamaProvider(ref.KeyAlias), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", ref.Name)
	}
}
