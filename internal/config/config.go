package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIAddr           string
	DataRepoDir       string
	KomDir            string
	DataOutRoot       string
	PublicDir         string
	GeminiAPIKey      string
	GeminiModel       string
	LLMProviders      string
	PostgresURL       string
	TemporalAddress   string
	TemporalTaskQueue string
	WatchCatalog      bool
	CatalogStructured bool
	LogLevel          string
	Retrieval         Retrieval
	Generation        Generation
}

// Retrieval holds the knobs of the lexical retrieval pipeline. They can be
// overridden from the YAML file named by LEGIS_CONFIG_FILE.
type Retrieval struct {
	TopK           int `yaml:"top_k"`
	CandidateLimit int `yaml:"candidate_limit"`
	MaxReadChars   int `yaml:"max_read_chars"`
	MaxSnippets    int `yaml:"max_snippets"`
	SnippetRadius  int `yaml:"snippet_radius"`
	EntityMinLen   int `yaml:"entity_min_len"`
	ReadParallel   int `yaml:"read_parallel"`
}

type Generation struct {
	Timeout         time.Duration `yaml:"timeout"`
	Temperature     float64       `yaml:"temperature"`
	MaxOutputTokens int           `yaml:"max_output_tokens"`
	RequestsPerSec  float64       `yaml:"requests_per_sec"`
	Burst           int           `yaml:"burst"`
}

type overlay struct {
	Retrieval  *Retrieval  `yaml:"retrieval"`
	Generation *Generation `yaml:"generation"`
}

func Load() (Config, error) {
	cfg := Config{
		APIAddr:           getenv("LEGIS_API_ADDR", ":8000"),
		DataRepoDir:       absOrRaw(getenv("DATA_REPO_DIR", "./REPO_V40_HISTORIAL_COMPLETO_V2")),
		KomDir:            absOrRaw(getenv("KOM_DIR", "./KOM")),
		DataOutRoot:       getenv("LEGIS_DATA_OUT", "./data/out"),
		PublicDir:         getenv("LEGIS_PUBLIC_DIR", "./public"),
		GeminiAPIKey:      firstNonEmpty(os.Getenv("GEMINI_API_KEY"), os.Getenv("GOOGLE_API_KEY")),
		GeminiModel:       getenv("LEGIS_GEMINI_MODEL", "gemini-2.5-flash"),
		LLMProviders:      getenv("LEGIS_LLM_PROVIDERS", "gemini"),
		PostgresURL:       os.Getenv("LEGIS_POSTGRES_URL"),
		TemporalAddress:   getenv("LEGIS_TEMPORAL_ADDRESS", "localhost:7233"),
		TemporalTaskQueue: getenv("LEGIS_TEMPORAL_TASK_QUEUE", "observatorio"),
		WatchCatalog:      getenvBool("LEGIS_WATCH_CATALOG", false),
		CatalogStructured: getenvBool("LEGIS_CATALOG_STRUCTURED", true),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		Retrieval: Retrieval{
			TopK:           getenvInt("LEGIS_TOP_K", 6),
			CandidateLimit: getenvInt("LEGIS_CANDIDATE_LIMIT", 60),
			MaxReadChars:   getenvInt("LEGIS_MAX_READ_CHARS", 250_000),
			MaxSnippets:    getenvInt("LEGIS_MAX_SNIPPETS", 6),
			SnippetRadius:  getenvInt("LEGIS_SNIPPET_RADIUS", 280),
			EntityMinLen:   getenvInt("LEGIS_ENTITY_MIN_LEN", 4),
			ReadParallel:   getenvInt("LEGIS_READ_PARALLEL", 8),
		},
		Generation: Generation{
			Timeout:         getenvDuration("LEGIS_GENERATION_TIMEOUT", 60*time.Second),
			Temperature:     getenvFloat("LEGIS_TEMPERATURE", 0.2),
			MaxOutputTokens: getenvInt("LEGIS_MAX_OUTPUT_TOKENS", 1200),
			RequestsPerSec:  getenvFloat("LEGIS_GENERATION_RPS", 2),
			Burst:           getenvInt("LEGIS_GENERATION_BURST", 4),
		},
	}

	if path := strings.TrimSpace(os.Getenv("LEGIS_CONFIG_FILE")); path != "" {
		if err := applyOverlay(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	r := c.Retrieval
	switch {
	case r.TopK <= 0:
		return fmt.Errorf("LEGIS_TOP_K must be positive")
	case r.CandidateLimit <= 0:
		return fmt.Errorf("LEGIS_CANDIDATE_LIMIT must be positive")
	case r.MaxReadChars <= 0:
		return fmt.Errorf("LEGIS_MAX_READ_CHARS must be positive")
	case r.MaxSnippets <= 0:
		return fmt.Errorf("LEGIS_MAX_SNIPPETS must be positive")
	case r.SnippetRadius < 0:
		return fmt.Errorf("LEGIS_SNIPPET_RADIUS cannot be negative")
	case r.EntityMinLen < 0:
		return fmt.Errorf("LEGIS_ENTITY_MIN_LEN cannot be negative")
	}
	if c.Generation.Timeout <= 0 {
		return fmt.Errorf("LEGIS_GENERATION_TIMEOUT must be positive")
	}
	if c.Generation.MaxOutputTokens <= 0 {
		return fmt.Errorf("LEGIS_MAX_OUTPUT_TOKENS must be positive")
	}
	return nil
}

// applyOverlay merges non-zero values of the YAML file over the env config.
// A missing file is not an error.
func applyOverlay(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	var o overlay
	if err := yaml.Unmarshal(data, &o); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if r := o.Retrieval; r != nil {
		setInt(&cfg.Retrieval.TopK, r.TopK)
		setInt(&cfg.Retrieval.CandidateLimit, r.CandidateLimit)
		setInt(&cfg.Retrieval.MaxReadChars, r.MaxReadChars)
		setInt(&cfg.Retrieval.MaxSnippets, r.MaxSnippets)
		setInt(&cfg.Retrieval.SnippetRadius, r.SnippetRadius)
		setInt(&cfg.Retrieval.EntityMinLen, r.EntityMinLen)
		setInt(&cfg.Retrieval.ReadParallel, r.ReadParallel)
	}
	if g := o.Generation; g != nil {
		if g.Timeout > 0 {
			cfg.Generation.Timeout = g.Timeout
		}
		if g.Temperature > 0 {
			cfg.Generation.Temperature = g.Temperature
		}
		setInt(&cfg.Generation.MaxOutputTokens, g.MaxOutputTokens)
		if g.RequestsPerSec > 0 {
			cfg.Generation.RequestsPerSec = g.RequestsPerSec
		}
		setInt(&cfg.Generation.Burst, g.Burst)
	}
	return nil
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func getenv(k, fallback string) string {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	return v
}

func getenvInt(k string, fallback int) int {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvFloat(k string, fallback float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(k string, fallback bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getenvDuration(k string, fallback time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func absOrRaw(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}
