// Package config loads lineembed settings from a YAML file.
//
// Values missing from the file keep their defaults, and a missing file yields
// the defaults unchanged. Command-line flags override whatever is loaded here.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/poiesic/lineembed/ai"
	"github.com/poiesic/lineembed/pipeline"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "lineembed.yaml"

// Config holds all lineembed configuration.
type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Run       RunConfig       `yaml:"run"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// EmbeddingConfig selects and tunes the embedding provider.
type EmbeddingConfig struct {
	Provider     string `yaml:"provider"`
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model"`
	LocalModelID string `yaml:"localModelId"`
	APIKey       string `yaml:"apiKey,omitempty"`
	// APIKeyEnv names an environment variable read when APIKey is empty.
	APIKeyEnv         string        `yaml:"apiKeyEnv"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requestsPerSecond"`
	MaxRetries        int           `yaml:"maxRetries"`
	RetryDelay        time.Duration `yaml:"retryDelay"`
}

// PipelineConfig controls batching.
type PipelineConfig struct {
	BatchSize    int           `yaml:"batchSize"`
	MaxBuffered  int           `yaml:"maxBuffered"`
	BatchTimeout time.Duration `yaml:"batchTimeout"`
}

// RunConfig controls how input files are processed.
type RunConfig struct {
	Concurrency  int    `yaml:"concurrency"`
	OutputSuffix string `yaml:"outputSuffix"`
	// DB is the report ledger directory. Empty disables the ledger.
	DB string `yaml:"db"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	emb := ai.DefaultConfig()
	pl := pipeline.DefaultConfig()
	return &Config{
		Embedding: EmbeddingConfig{
			Provider:     string(emb.Provider),
			Endpoint:     emb.Endpoint,
			Model:        emb.Model,
			LocalModelID: emb.LocalModelID,
			APIKeyEnv:    "LINEEMBED_API_KEY",
			Timeout:      emb.Timeout,
			MaxRetries:   emb.MaxRetries,
			RetryDelay:   emb.RetryDelay,
		},
		Pipeline: PipelineConfig{
			BatchSize:    pl.BatchSize,
			MaxBuffered:  pl.MaxBuffered,
			BatchTimeout: pl.BatchTimeout,
		},
		Run: RunConfig{
			Concurrency:  1,
			OutputSuffix: ".embedded",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from path.
// If the file doesn't exist, returns the default config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// ResolveAPIKey returns APIKey, or the value of APIKeyEnv when APIKey is empty.
func (e EmbeddingConfig) ResolveAPIKey() string {
	if e.APIKey != "" {
		return e.APIKey
	}
	if e.APIKeyEnv != "" {
		return os.Getenv(e.APIKeyEnv)
	}
	return ""
}

// AIConfig converts the embedding section into a validated provider config.
func (c *Config) AIConfig() (*ai.Config, error) {
	e := c.Embedding
	cfg := ai.NewConfig(
		ai.WithProvider(ai.ProviderKind(e.Provider)),
		ai.WithEndpoint(e.Endpoint),
		ai.WithModel(e.Model),
		ai.WithLocalModelID(e.LocalModelID),
		ai.WithAPIKey(e.ResolveAPIKey()),
		ai.WithTimeout(e.Timeout),
		ai.WithRequestsPerSecond(e.RequestsPerSecond),
		ai.WithRetries(e.MaxRetries, e.RetryDelay),
	)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// PipelineConfig converts the pipeline section.
func (c *Config) PipelineConfig() pipeline.Config {
	return pipeline.Config{
		BatchSize:    c.Pipeline.BatchSize,
		MaxBuffered:  c.Pipeline.MaxBuffered,
		BatchTimeout: c.Pipeline.BatchTimeout,
	}
}
