// Copyright 2025 Poiesic Systems
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
	"strings"
	"time"
)

// EmbeddingBackend selects which Embedder implementation a provider builds.
type EmbeddingBackend string

const (
	// EmbeddingBackendOpenAI embeds through an OpenAI-compatible HTTP API.
	EmbeddingBackendOpenAI EmbeddingBackend = "openai"

	// EmbeddingBackendLocal embeds in-process with an ONNX sentence transformer.
	EmbeddingBackendLocal EmbeddingBackend = "local"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// GenerationHost is the base URL for the text generation service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	GenerationHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "all-minilm", "text-embedding-3-small"
	EmbeddingModel string

	// GenerationModel is the model identifier used for extraction and
	// citation re-attribution.
	// Example: "qwen2.5:7b", "gpt-4o-mini"
	GenerationModel string

	// APIToken is sent as the bearer token. Local servers accept "none".
	APIToken string

	// RequestTimeout bounds a single generation request.
	// Default: 120s
	RequestTimeout time.Duration

	// EmbeddingBackend picks the embedder implementation.
	// Default: EmbeddingBackendOpenAI
	EmbeddingBackend EmbeddingBackend

	// LocalModelDir is where the local embedding model is stored or downloaded.
	// Only used with EmbeddingBackendLocal.
	LocalModelDir string
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithGenerationHost sets the generation service host URL.
func WithGenerationHost(host string) ConfigOption {
	return func(c *Config) {
		c.GenerationHost = host
	}
}

// WithHost sets both embedding and generation hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.GenerationHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithGenerationModel sets the generation model identifier.
func WithGenerationModel(model string) ConfigOption {
	return func(c *Config) {
		c.GenerationModel = model
	}
}

// WithAPIToken sets the bearer token.
func WithAPIToken(token string) ConfigOption {
	return func(c *Config) {
		c.APIToken = token
	}
}

// WithRequestTimeout sets the per-request generation timeout.
func WithRequestTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.RequestTimeout = d
	}
}

// WithLocalEmbeddings switches to in-process embeddings using the model stored under dir.
func WithLocalEmbeddings(dir string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingBackend = EmbeddingBackendLocal
		c.LocalModelDir = dir
	}
}

// DefaultConfig returns a Config with sensible defaults for local OpenAI-compatible services.
// By default, both embedding and generation use the same host.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		EmbeddingHost:    defaultHost,
		GenerationHost:   defaultHost,
		EmbeddingModel:   "all-minilm",
		GenerationModel:  "qwen2.5:7b",
		APIToken:         "none",
		RequestTimeout:   120 * time.Second,
		EmbeddingBackend: EmbeddingBackendOpenAI,
		LocalModelDir:    "./models",
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("http://localhost:11434/v1"),
//	    WithGenerationModel("gpt-4o-mini"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to hosts if missing, which is required by most
// OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc), and fills an empty
// token with "none".
func (c *Config) Normalize() {
	c.EmbeddingHost = withV1Suffix(c.EmbeddingHost)
	c.GenerationHost = withV1Suffix(c.GenerationHost)
	if c.APIToken == "" {
		c.APIToken = "none"
	}
	if c.EmbeddingBackend == "" {
		c.EmbeddingBackend = EmbeddingBackendOpenAI
	}
}

func withV1Suffix(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.GenerationHost == "" {
		return errors.New("ai config: GenerationHost is required")
	}
	if c.GenerationModel == "" {
		return errors.New("ai config: GenerationModel is required")
	}
	if c.RequestTimeout < 0 {
		return errors.New("ai config: RequestTimeout cannot be negative")
	}
	switch c.EmbeddingBackend {
	case EmbeddingBackendOpenAI:
		if c.EmbeddingHost == "" {
			return errors.New("ai config: EmbeddingHost is required")
		}
		if c.EmbeddingModel == "" {
			return errors.New("ai config: EmbeddingModel is required")
		}
	case EmbeddingBackendLocal:
		if c.LocalModelDir == "" {
			return errors.New("ai config: LocalModelDir is required for local embeddings")
		}
	default:
		return errors.New("ai config: unknown EmbeddingBackend " + string(c.EmbeddingBackend))
	}
	return nil
}
