package providers

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiProvider generates through the Gemini API. The client is created on
// first use so that constructing an unconfigured provider never dials out.
// A failed creation is retried on the next call.
type GeminiProvider struct {
	keyName string
	apiKey  string
	model   string

	mu        sync.Mutex
	client    *genai.Client
	newClient func(context.Context, *genai.ClientConfig) (*genai.Client, error)
}

func NewGeminiProvider(keyName, apiKey, model string) *GeminiProvider {
	if strings.TrimSpace(model) == "" {
		model = DefaultGeminiModel
	}
	return &GeminiProvider{
		keyName:   keyName,
		apiKey:    strings.TrimSpace(apiKey),
		model:     model,
		newClient: genai.NewClient,
	}
}

func (g *GeminiProvider) HasCredential() bool {
	return g.apiKey != ""
}

func (g *GeminiProvider) info() ProviderInfo {
	return ProviderInfo{Name: "gemini", Model: g.model, Key: g.keyName}
}

func (g *GeminiProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	if g.apiKey == "" {
		return GenerateResponse{}, g.info(), fmt.Errorf("gemini key missing for alias %q", g.keyName)
	}
	client, err := g.clientFor(ctx)
	if err != nil {
		return GenerateResponse{}, g.info(), fmt.Errorf("create gemini client: %w", err)
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxOutputTokens)
	}
	if strings.TrimSpace(req.SystemInstruction) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return GenerateResponse{}, g.info(), fmt.Errorf("gemini generate failed: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return GenerateResponse{}, g.info(), fmt.Errorf("gemini returned empty text")
	}
	return GenerateResponse{Text: text}, g.info(), nil
}

// clientFor returns the shared client, creating it if needed. Only a
// successful creation is cached. The request context's cancellation does not
// carry into the client.
func (g *GeminiProvider) clientFor(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		return g.client, nil
	}
	c, err := g.newClient(context.WithoutCancel(ctx), &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	g.client = c
	return c, nil
}
