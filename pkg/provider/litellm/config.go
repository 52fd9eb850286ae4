package litellm

import (
	"time"

	"go.uber.org/zap"
)

// Config holds configuration for the LiteLLM provider adapter.
type Config struct {
	// BaseURL is the LiteLLM proxy API root (e.g., "http://localhost:4000/v1").
	BaseURL string

	// APIKey for LiteLLM authentication (optional).
	APIKey string

	// Timeout for non-streaming requests. Defaults to 120s.
	Timeout time.Duration

	// StreamIdleTimeout bounds each stream read. Zero disables it.
	StreamIdleTimeout time.Duration

	// Headers are added to every request.
	Headers map[string]string

	// ModelMapping maps requested model names to LiteLLM model identifiers.
	// For example: {"scout": "ollama/llama4:scout", "gpt": "openai/gpt-4o"}.
	// If a model is not in the map, it is passed through unchanged.
	ModelMapping map[string]string

	// Logger receives request logs.
	Logger *zap.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		Timeout: 120 * time.Second,
	}
}
