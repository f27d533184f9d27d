package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for nlq-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, API keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8000"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// LLM endpoints for generation and embeddings
	LLM LLMConfig `yaml:"llm"`

	// NLQ pipeline tuning
	NLQ NLQConfig `yaml:"nlq"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"nlq"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"nlq_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// LLMConfig holds endpoints for the generative and embedding models.
// Both are optional: an empty generation endpoint triggers the template
// fallback path, and an empty embedding model selects keyword retrieval.
type LLMConfig struct {
	Endpoint       string `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:""`
	Model          string `yaml:"model" env:"LLM_MODEL" env-default:""`
	APIKey         string `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML
	EmbeddingModel string `yaml:"embedding_model" env:"LLM_EMBEDDING_MODEL" env-default:""`
}

// IsAvailable returns true if the generative backend is configured.
func (c *LLMConfig) IsAvailable() bool {
	return c.Endpoint != "" && c.Model != ""
}

// EmbeddingsAvailable returns true if the embedding backend is configured.
func (c *LLMConfig) EmbeddingsAvailable() bool {
	return c.Endpoint != "" && c.EmbeddingModel != ""
}

// NLQConfig holds tunable parameters for the query-resolution pipeline.
// The disambiguation threshold and top_k defaults carry over from the
// registry bootstrap; neither is a proven-optimal constant.
type NLQConfig struct {
	TopK                    int     `yaml:"top_k" env:"NLQ_TOP_K" env-default:"3"`
	DisambiguationThreshold float64 `yaml:"disambiguation_threshold" env:"NLQ_DISAMBIGUATION_THRESHOLD" env-default:"0.15"`
	DefaultQueryLimit       int     `yaml:"default_query_limit" env:"NLQ_DEFAULT_QUERY_LIMIT" env-default:"1000"`
	RequestTimeoutSeconds   int     `yaml:"request_timeout_seconds" env:"NLQ_REQUEST_TIMEOUT_SECONDS" env-default:"30"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. When config.yaml does not exist, configuration comes from the
// environment alone. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment config: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.NLQ.TopK < 1 {
		return fmt.Errorf("top_k must be at least 1, got %d", c.NLQ.TopK)
	}
	if c.NLQ.DisambiguationThreshold < 0 {
		return fmt.Errorf("disambiguation_threshold must be non-negative, got %g", c.NLQ.DisambiguationThreshold)
	}
	if c.NLQ.DefaultQueryLimit < 1 {
		return fmt.Errorf("default_query_limit must be at least 1, got %d", c.NLQ.DefaultQueryLimit)
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
