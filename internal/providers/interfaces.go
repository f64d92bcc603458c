package providers

import "context"

type ProviderInfo struct {
	Name  string `json:"name"`
	Model string `json:"model"`
	Key   string `json:"key"`
}

type GenerateRequest struct {
	Operation         string  `json:"operation"`
	Prompt            string  `json:"prompt"`
	SystemInstruction string  `json:"system_instruction"`
	Temperature       float64 `json:"temperature"`
	MaxOutputTokens   int     `json:"max_output_tokens"`
}

type GenerateResponse struct {
	Text string `json:"text"`
}

// Generator produces text for a fully assembled prompt.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error)
}

// credentialed is implemented by providers that can tell whether they hold
// the credential they need.
type credentialed interface {
	HasCredential() bool
}
