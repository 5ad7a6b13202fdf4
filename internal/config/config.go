// Package config loads and validates the application configuration from
// YAML, with environment variable overrides for deployment secrets.
package config

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/ololopopova/ai-chat/internal/errors"
)

// Environment variable overrides. These take priority over file values.
const (
	EnvAPIKey  = "AICHAT_OPENAI_API_KEY"
	EnvDataDir = "AICHAT_DATA_DIR"
)

// Config is the complete application configuration.
type Config struct {
	Paths      PathsConfig      `yaml:"paths"`
	Search     SearchConfig     `yaml:"search"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Reranker   RerankerConfig   `yaml:"reranker"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// PathsConfig configures on-disk locations.
type PathsConfig struct {
	// DataDir holds the chunk database and search indexes.
	DataDir string `yaml:"data_dir"`
}

// SearchConfig configures hybrid search parameters.
type SearchConfig struct {
	// DenseWeight is the weight for vector similarity (0.0-1.0).
	// Should sum to 1.0 with SparseWeight.
	DenseWeight float64 `yaml:"dense_weight"`

	// SparseWeight is the weight for full-text relevance (0.0-1.0).
	SparseWeight float64 `yaml:"sparse_weight"`

	// TopK is the default result count.
	TopK int `yaml:"top_k"`

	// MinScore drops results scoring below it.
	MinScore float64 `yaml:"min_score"`

	// CandidateMultiplier widens the per-signal fetch window.
	CandidateMultiplier int `yaml:"candidate_multiplier"`
}

// EmbeddingsConfig configures the embedding provider. Durations are
// strings like "30s" or "500ms", parsed with time.ParseDuration.
type EmbeddingsConfig struct {
	Endpoint   string `yaml:"endpoint"`
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	Timeout    string `yaml:"timeout"`
	CacheSize  int    `yaml:"cache_size"`

	// Retry policy for transient provider failures.
	MaxRetries    int    `yaml:"max_retries"`
	RetryMinDelay string `yaml:"retry_min_delay"`
	RetryMaxDelay string `yaml:"retry_max_delay"`
}

// TimeoutDuration returns the parsed request timeout (0 when unset).
func (e EmbeddingsConfig) TimeoutDuration() time.Duration {
	return parseDuration(e.Timeout)
}

// RetryMinDelayDuration returns the parsed first-retry delay (0 when unset).
func (e EmbeddingsConfig) RetryMinDelayDuration() time.Duration {
	return parseDuration(e.RetryMinDelay)
}

// RetryMaxDelayDuration returns the parsed backoff cap (0 when unset).
func (e EmbeddingsConfig) RetryMaxDelayDuration() time.Duration {
	return parseDuration(e.RetryMaxDelay)
}

// RerankerConfig configures the cross-encoder reranker service.
type RerankerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	Timeout  string `yaml:"timeout"`
}

// TimeoutDuration returns the parsed request timeout (0 when unset).
func (r RerankerConfig) TimeoutDuration() time.Duration {
	return parseDuration(r.Timeout)
}

// IngestConfig configures the ingestion pipeline.
type IngestConfig struct {
	// MinChunkSize drops sections shorter than this many characters.
	MinChunkSize int `yaml:"min_chunk_size"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	FilePath string `yaml:"file_path"`
}

// Default returns the standard configuration.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Paths: PathsConfig{
			DataDir: filepath.Join(home, ".ai-chat"),
		},
		Search: SearchConfig{
			DenseWeight:         0.7,
			SparseWeight:        0.3,
			TopK:                5,
			MinScore:            0.0,
			CandidateMultiplier: 2,
		},
		Embeddings: EmbeddingsConfig{
			Endpoint:      "https://api.openai.com/v1",
			Model:         "text-embedding-3-large",
			Dimensions:    1536,
			Timeout:       "60s",
			CacheSize:     1000,
			MaxRetries:    3,
			RetryMinDelay: "1s",
			RetryMaxDelay: "10s",
		},
		Reranker: RerankerConfig{
			Enabled:  false,
			Endpoint: "http://localhost:8787",
			Model:    "cross-encoder/ms-marco-MiniLM-L-6-v2",
			Timeout:  "30s",
		},
		Ingest: IngestConfig{
			MinChunkSize: 100,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the config file at path, merges it over defaults and applies
// environment overrides. An empty path returns defaults plus environment
// overrides; a missing explicit path is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, apperrors.Newf(apperrors.ErrCodeConfigNotFound, "config file not found: %s", path)
			}
			return nil, apperrors.Wrap(apperrors.ErrCodeConfigInvalid, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, apperrors.New(apperrors.ErrCodeConfigInvalid, "failed to parse config file", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if key := os.Getenv(EnvAPIKey); key != "" {
		cfg.Embeddings.APIKey = key
	}
	if dir := os.Getenv(EnvDataDir); dir != "" {
		cfg.Paths.DataDir = dir
	}
}

// Validate hard-fails on out-of-range values and warns about suspicious
// but workable settings.
func (c *Config) Validate() error {
	if c.Search.DenseWeight < 0 || c.Search.DenseWeight > 1 {
		return apperrors.Newf(apperrors.ErrCodeConfigInvalid,
			"search.dense_weight must be in [0,1], got %v", c.Search.DenseWeight)
	}
	if c.Search.SparseWeight < 0 || c.Search.SparseWeight > 1 {
		return apperrors.Newf(apperrors.ErrCodeConfigInvalid,
			"search.sparse_weight must be in [0,1], got %v", c.Search.SparseWeight)
	}
	if c.Search.TopK <= 0 {
		return apperrors.Newf(apperrors.ErrCodeConfigInvalid,
			"search.top_k must be positive, got %d", c.Search.TopK)
	}
	if c.Search.MinScore < 0 || c.Search.MinScore > 1 {
		return apperrors.Newf(apperrors.ErrCodeConfigInvalid,
			"search.min_score must be in [0,1], got %v", c.Search.MinScore)
	}
	if c.Embeddings.Dimensions <= 0 {
		return apperrors.Newf(apperrors.ErrCodeConfigInvalid,
			"embeddings.dimensions must be positive, got %d", c.Embeddings.Dimensions)
	}
	if c.Ingest.MinChunkSize < 0 {
		return apperrors.Newf(apperrors.ErrCodeConfigInvalid,
			"ingest.min_chunk_size must not be negative, got %d", c.Ingest.MinChunkSize)
	}

	durations := []struct {
		name  string
		value string
	}{
		{"embeddings.timeout", c.Embeddings.Timeout},
		{"embeddings.retry_min_delay", c.Embeddings.RetryMinDelay},
		{"embeddings.retry_max_delay", c.Embeddings.RetryMaxDelay},
		{"reranker.timeout", c.Reranker.Timeout},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return apperrors.Newf(apperrors.ErrCodeConfigInvalid,
				"%s is not a valid duration: %q", d.name, d.value)
		}
		if parsed < 0 {
			return apperrors.Newf(apperrors.ErrCodeConfigInvalid,
				"%s must not be negative, got %s", d.name, d.value)
		}
	}

	// Weights not summing to 1.0 skew fusion but stay workable.
	sum := c.Search.DenseWeight + c.Search.SparseWeight
	if math.Abs(sum-1.0) > 0.001 {
		slog.Warn("search weights do not sum to 1.0",
			slog.Float64("dense_weight", c.Search.DenseWeight),
			slog.Float64("sparse_weight", c.Search.SparseWeight),
			slog.Float64("sum", sum))
	}

	return nil
}

// parseDuration converts a validated duration string, returning 0 for an
// empty or malformed value so the component default applies.
func parseDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

// String renders a redacted summary for diagnostics.
func (c *Config) String() string {
	key := c.Embeddings.APIKey
	if key != "" {
		key = "***"
	}
	return fmt.Sprintf("data_dir=%s model=%s dims=%d api_key=%s reranker_enabled=%v",
		c.Paths.DataDir, c.Embeddings.Model, c.Embeddings.Dimensions, key, c.Reranker.Enabled)
}
