// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) initializer to build a Config with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Embedding providers.
const (
	ProviderHashing = "hashing"
	ProviderGemini  = "gemini"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// KeywordThreshold is the minimum partial ratio (0-100) for a keyword hit.
	KeywordThreshold int `koanf:"keyword_threshold"`

	// HardWeight and SemanticWeight combine the two scores into the final score.
	HardWeight     float64 `koanf:"hard_weight"`
	SemanticWeight float64 `koanf:"semantic_weight"`

	// HighThreshold and MediumThreshold are inclusive lower bounds on the final score.
	HighThreshold   float64 `koanf:"high_threshold"`
	MediumThreshold float64 `koanf:"medium_threshold"`

	// DefaultKeywords is used when an analysis request carries no keywords.
	DefaultKeywords []string `koanf:"default_keywords"`

	// EmbeddingProvider selects the embedder: hashing or gemini.
	EmbeddingProvider string `koanf:"embedding_provider"`

	// EmbeddingDimension is the vector length used by the embedder and the index.
	EmbeddingDimension int `koanf:"embedding_dimension"`

	// GeminiAPIKey and GeminiModel configure the gemini provider.
	GeminiAPIKey string `koanf:"gemini_api_key"`
	GeminiModel  string `koanf:"gemini_model"`

	// StoreBackend selects where vectors and results live: memory or postgres.
	StoreBackend string `koanf:"store_backend"`

	// DatabaseURL is the Postgres connection string for the postgres backend.
	DatabaseURL string `koanf:"database_url"`

	// IndexName names the job description vector index (table).
	IndexName string `koanf:"index_name"`

	// AnalysisTimeoutMS bounds a single relevance computation; 0 disables it.
	AnalysisTimeoutMS int `koanf:"analysis_timeout_ms"`

	// MaxUploadBytes caps multipart uploads on POST /analyze.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// MaxResultsLimit caps GET /shortlist?limit.
	MaxResultsLimit int `koanf:"max_results_limit"`
}

// New creates a Config with defaults. Context is accepted first to satisfy the
// project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		KeywordThreshold: 70,
		HardWeight:       0.6,
		SemanticWeight:   0.4,
		HighThreshold:    0.7,
		MediumThreshold:  0.4,
		DefaultKeywords: []string{
			"AWS", "FastAPI", "Python", "Docker", "Machine Learning", "Kubernetes", "PostgreSQL",
		},
		EmbeddingProvider:  ProviderHashing,
		EmbeddingDimension: 384,
		GeminiModel:        "gemini-embedding-001",
		StoreBackend:       BackendMemory,
		IndexName:          "jd_embeddings",
		AnalysisTimeoutMS:  10_000,
		MaxUploadBytes:     10 << 20,
		MaxResultsLimit:    100,
	}
}

// AnalysisTimeout returns the per-analysis timeout as a duration.
func (c *Config) AnalysisTimeout() time.Duration {
	return time.Duration(c.AnalysisTimeoutMS) * time.Millisecond
}

// Validate checks value ranges and cross-field requirements.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return invalid("addr must not be empty")
	case c.LogFormat != "text" && c.LogFormat != "json":
		return invalid("log_format must be text or json, got %q", c.LogFormat)
	case c.KeywordThreshold < 0 || c.KeywordThreshold > 100:
		return invalid("keyword_threshold must be within [0, 100], got %d", c.KeywordThreshold)
	case c.HardWeight < 0 || c.SemanticWeight < 0:
		return invalid("weights must be non-negative")
	case c.HardWeight+c.SemanticWeight == 0:
		return invalid("hard_weight and semantic_weight must not both be zero")
	case c.MediumThreshold < 0 || c.HighThreshold < c.MediumThreshold:
		return invalid("thresholds must satisfy 0 <= medium_threshold <= high_threshold")
	case c.EmbeddingDimension <= 0:
		return invalid("embedding_dimension must be positive")
	case c.AnalysisTimeoutMS < 0:
		return invalid("analysis_timeout_ms must not be negative")
	case c.MaxUploadBytes <= 0:
		return invalid("max_upload_bytes must be positive")
	case c.MaxResultsLimit <= 0:
		return invalid("max_results_limit must be positive")
	case strings.TrimSpace(c.IndexName) == "":
		return invalid("index_name must not be empty")
	}

	switch c.EmbeddingProvider {
	case ProviderHashing:
	case ProviderGemini:
		if strings.TrimSpace(c.GeminiAPIKey) == "" {
			return invalid("gemini_api_key is required for the gemini provider")
		}
	default:
		return invalid("unknown embedding_provider %q", c.EmbeddingProvider)
	}

	switch c.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return invalid("database_url is required for the postgres backend")
		}
	default:
		return invalid("unknown store_backend %q", c.StoreBackend)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
