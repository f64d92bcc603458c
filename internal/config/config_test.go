package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"LEGIS_TOP_K", "LEGIS_CANDIDATE_LIMIT", "LEGIS_GENERATION_TIMEOUT", "LEGIS_CONFIG_FILE", "GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 6, cfg.Retrieval.TopK)
	require.Equal(t, 60, cfg.Retrieval.CandidateLimit)
	require.Equal(t, 250_000, cfg.Retrieval.MaxReadChars)
	require.Equal(t, 280, cfg.Retrieval.SnippetRadius)
	require.Equal(t, 60*time.Second, cfg.Generation.Timeout)
	require.Equal(t, 1200, cfg.Generation.MaxOutputTokens)
	require.Empty(t, cfg.GeminiAPIKey)
	require.True(t, filepath.IsAbs(cfg.DataRepoDir))
}

func TestLoadFallsBackToGoogleKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", " g-key ")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "g-key", cfg.GeminiAPIKey)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("LEGIS_TOP_K", "many")
	t.Setenv("LEGIS_GENERATION_TIMEOUT", "soon")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 6, cfg.Retrieval.TopK)
	require.Equal(t, 60*time.Second, cfg.Generation.Timeout)
}

func TestLoadRejectsNonPositiveTopK(t *testing.T) {
	t.Setenv("LEGIS_TOP_K", "0")
	_, err := Load()
	require.ErrorContains(t, err, "LEGIS_TOP_K")
}

func TestLoadAppliesYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "observatorio.yaml")
	body := "retrieval:\n  top_k: 3\n  snippet_radius: 120\ngeneration:\n  timeout: 15s\n  max_output_tokens: 800\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	t.Setenv("LEGIS_CONFIG_FILE", path)
	t.Setenv("LEGIS_TOP_K", "9")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Retrieval.TopK)
	require.Equal(t, 120, cfg.Retrieval.SnippetRadius)
	require.Equal(t, 60, cfg.Retrieval.CandidateLimit)
	require.Equal(t, 15*time.Second, cfg.Generation.Timeout)
	require.Equal(t, 800, cfg.Generation.MaxOutputTokens)
}

func TestLoadMissingOverlayIsIgnored(t *testing.T) {
	t.Setenv("LEGIS_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := Load()
	require.NoError(t, err)
}
