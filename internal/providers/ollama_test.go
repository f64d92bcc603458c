package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOllamaGenerate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"respuesta local"}}`))
	}))
	defer srv.Close()

	t.Setenv("LEGIS_OLLAMA_BASE_URL", srv.URL+"/")
	p := NewOllamaProvider("llama3.2:3b")
	require.True(t, p.HasCredential())

	resp, info, err := p.Generate(context.Background(), GenerateRequest{Prompt: "hola", SystemInstruction: "sé breve", MaxOutputTokens: 64})
	require.NoError(t, err)
	require.Equal(t, "respuesta local", resp.Text)
	require.Equal(t, "ollama", info.Name)
	require.Equal(t, "llama3.2:3b", info.Model)
	require.Equal(t, "llama3.2:3b", got["model"])
	require.Equal(t, false, got["stream"])
	require.Len(t, got["messages"], 2)
}

func TestOllamaServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	t.Setenv("LEGIS_OLLAMA_BASE_URL", srv.URL)
	_, _, err := NewOllamaProvider("").Generate(context.Background(), GenerateRequest{Prompt: "hola"})
	require.Error(t, err)
	require.Equal(t, ErrorTransient, ClassifyError(err))
}

func TestGroqKeyResolution(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "fallback")
	t.Setenv("LEGIS_GROQ_KEY_TEAM_B", "team-b")

	require.Equal(t, "team-b", NewGroqProvider("team-b").apiKey)
	require.Equal(t, "fallback", NewGroqProvider("other").apiKey)

	t.Setenv("GROQ_API_KEY", "")
	p := NewGroqProvider("")
	require.False(t, p.HasCredential())
	_, _, err := p.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	require.Error(t, err)
}
