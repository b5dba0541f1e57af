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
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "https://api.openai.com/v1", or "http://localhost:11434/v1"
	// for a local OpenAI-compatible server.
	EmbeddingHost string

	// GenerationHost is the base URL for the text generation service API.
	GenerationHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "text-embedding-3-small", "embeddinggemma"
	EmbeddingModel string

	// GenerationModel is the model identifier to use for answer generation.
	// Example: "gpt-4.1-nano", "qwen2.5:3b"
	GenerationModel string

	// Token is the API token. Local OpenAI-compatible services that do not
	// require authentication may leave it empty.
	Token string

	// MaxHistoryTurns bounds how many of the most recent prior turns are
	// folded into a generation request.
	// Default: 10
	MaxHistoryTurns int
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

// WithToken sets the API token.
func WithToken(token string) ConfigOption {
	return func(c *Config) {
		c.Token = token
	}
}

// WithMaxHistoryTurns sets the history window for generation requests.
func WithMaxHistoryTurns(turns int) ConfigOption {
	return func(c *Config) {
		c.MaxHistoryTurns = turns
	}
}

// DefaultConfig returns a Config with defaults matching the hosted OpenAI API.
// By default, embedding and generation use the same host.
func DefaultConfig() *Config {
	defaultHost := "https://api.openai.com/v1"
	return &Config{
		EmbeddingHost:   defaultHost,
		GenerationHost:  defaultHost,
		EmbeddingModel:  "text-embedding-3-small",
		GenerationModel: "gpt-4.1-nano",
		MaxHistoryTurns: 10,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
// This is the recommended way to create a Config with custom settings.
//
// Example:
//   cfg := NewConfig(
//       WithHost("http://localhost:11434/v1"),
//       WithEmbeddingModel("embeddinggemma"),
//   )
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It automatically adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (OpenAI, Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/")
		c.EmbeddingHost = c.EmbeddingHost + "/v1"
	}
	if c.GenerationHost != "" && !strings.HasSuffix(c.GenerationHost, "/v1") {
		c.GenerationHost = strings.TrimSuffix(c.GenerationHost, "/")
		c.GenerationHost = c.GenerationHost + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.GenerationHost == "" {
		return errors.New("ai config: GenerationHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.GenerationModel == "" {
		return errors.New("ai config: GenerationModel is required")
	}
	if c.MaxHistoryTurns < 0 {
		return errors.New("ai config: MaxHistoryTurns must not be negative")
	}
	return nil
}
