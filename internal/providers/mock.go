package providers

import (
	"context"
	"fmt"
	"strings"

	"observatorio/internal/prompt"
)

// MockProvider answers deterministically from the evidence headers of the
// prompt. It is meant for local runs without a model.
type MockProvider struct{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (m *MockProvider) HasCredential() bool { return true }

func (m *MockProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	info := ProviderInfo{Name: "mock", Model: "mock-llm-v1", Key: "mock"}
	if err := ctx.Err(); err != nil {
		return GenerateResponse{}, info, err
	}
	headers := prompt.ParseHeaders(req.Prompt)
	var b strings.Builder
	fmt.Fprintf(&b, "Respuesta simulada basada en %d fuente(s).", len(headers))
	for _, h := range headers {
		fmt.Fprintf(&b, "\n- Fuente: %s (Comisión %s)", h.Document, h.Entity)
	}
	return GenerateResponse{Text: b.String()}, info, nil
}
