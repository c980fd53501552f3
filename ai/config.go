// Copyright 2026 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ProviderKind selects the embedding provider strategy.
type ProviderKind string

const (
	// ProviderRemote posts each batch to an OpenAI-compatible endpoint.
	ProviderRemote ProviderKind = "remote"
	// ProviderOpenAI uses langchaingo's OpenAI client.
	ProviderOpenAI ProviderKind = "openai"
	// ProviderLocal runs an in-process model.
	ProviderLocal ProviderKind = "local"
)

// Config holds configuration for embedding providers.
type Config struct {
	// Provider selects the provider strategy.
	// Default: remote
	Provider ProviderKind

	// Endpoint is the provider URL.
	// For remote it is the full embeddings URL, e.g. "http://localhost:11434/v1/embeddings".
	// For openai it is the API base URL, e.g. "https://api.openai.com/v1".
	Endpoint string

	// Model is the provider model identifier.
	// Example: "nomic-embed-text", "text-embedding-3-small"
	Model string

	// APIKey is sent as a bearer token when set.
	APIKey string

	// LocalModelID identifies the in-process model used by the local provider.
	// Example: "feature-hash:384"
	LocalModelID string

	// Timeout bounds a single HTTP request. Zero disables the client timeout.
	// Default: 60s
	Timeout time.Duration

	// RequestsPerSecond throttles remote requests. Zero disables throttling.
	RequestsPerSecond float64

	// MaxRetries is the number of attempts made per batch by NewRetryingEmbedder.
	// 1 means no retry.
	// Default: 1
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff between attempts.
	// Default: 1s
	RetryDelay time.Duration
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithProvider sets the provider strategy.
func WithProvider(kind ProviderKind) ConfigOption {
	return func(c *Config) {
		c.Provider = kind
	}
}

// WithEndpoint sets the provider URL.
func WithEndpoint(endpoint string) ConfigOption {
	return func(c *Config) {
		c.Endpoint = endpoint
	}
}

// WithModel sets the provider model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithAPIKey sets the bearer token sent to the provider.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithLocalModelID sets the in-process model identifier.
func WithLocalModelID(id string) ConfigOption {
	return func(c *Config) {
		c.LocalModelID = id
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithRequestsPerSecond throttles remote requests.
func WithRequestsPerSecond(rps float64) ConfigOption {
	return func(c *Config) {
		c.RequestsPerSecond = rps
	}
}

// WithRetries sets the attempt count and base backoff delay.
func WithRetries(maxAttempts int, baseDelay time.Duration) ConfigOption {
	return func(c *Config) {
		c.MaxRetries = maxAttempts
		c.RetryDelay = baseDelay
	}
}

// DefaultConfig returns a Config with sensible defaults for a local
// OpenAI-compatible server.
func DefaultConfig() *Config {
	return &Config{
		Provider:     ProviderRemote,
		Endpoint:     "http://localhost:11434/v1/embeddings",
		Model:        "nomic-embed-text",
		LocalModelID: "feature-hash:384",
		Timeout:      60 * time.Second,
		MaxRetries:   1,
		RetryDelay:   1 * time.Second,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithProvider(ProviderLocal),
//	    WithLocalModelID("feature-hash:256"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// The openai provider appends "/embeddings" itself, so a full embeddings URL
// is trimmed back to its base.
func (c *Config) Normalize() {
	c.Provider = ProviderKind(strings.ToLower(strings.TrimSpace(string(c.Provider))))
	c.Endpoint = strings.TrimSpace(c.Endpoint)
	c.Model = strings.TrimSpace(c.Model)
	c.LocalModelID = strings.TrimSpace(c.LocalModelID)

	if c.Provider == ProviderOpenAI && c.Endpoint != "" {
		c.Endpoint = strings.TrimSuffix(c.Endpoint, "/")
		c.Endpoint = strings.TrimSuffix(c.Endpoint, "/embeddings")
	}
}

// Validate checks that the configuration is valid and complete for its provider.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	switch c.Provider {
	case ProviderRemote, ProviderOpenAI:
		if c.Endpoint == "" {
			return errors.New("ai config: Endpoint is required")
		}
		if c.Model == "" {
			return errors.New("ai config: Model is required")
		}
	case ProviderLocal:
		if c.LocalModelID == "" {
			return errors.New("ai config: LocalModelID is required")
		}
	default:
		return fmt.Errorf("ai config: %w: %q", ErrUnknownProvider, c.Provider)
	}

	if c.Timeout < 0 {
		return errors.New("ai config: Timeout cannot be negative")
	}
	if c.RequestsPerSecond < 0 {
		return errors.New("ai config: RequestsPerSecond cannot be negative")
	}
	if c.MaxRetries < 1 {
		return errors.New("ai config: MaxRetries must be at least 1")
	}
	return nil
}
