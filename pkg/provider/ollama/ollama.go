// Package ollama adapts the openaicompat client to an Ollama server's
// OpenAI-compatible endpoint.
package ollama

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sklau6/RustLLMRunner/pkg/api"
	"github.com/sklau6/RustLLMRunner/pkg/provider"
	"github.com/sklau6/RustLLMRunner/pkg/provider/openaicompat"
	"github.com/sklau6/RustLLMRunner/pkg/stream"
)

// Defaults for a local Ollama install. Ollama ignores the API key but
// OpenAI clients conventionally send one.
const (
	DefaultBaseURL = "http://localhost:11434/v1"
	DefaultAPIKey  = "not-needed"
	DefaultTag     = "latest"
)

// Config holds configuration for the Ollama provider adapter.
type Config struct {
	// BaseURL is the Ollama OpenAI-compatible root. Defaults to DefaultBaseURL.
	BaseURL string

	// APIKey defaults to DefaultAPIKey.
	APIKey string

	// Timeout for non-streaming requests. Defaults to 120s.
	Timeout time.Duration

	// StreamIdleTimeout bounds each stream read. Zero disables it.
	StreamIdleTimeout time.Duration

	// Headers are added to every request.
	Headers map[string]string

	// Logger receives request logs.
	Logger *zap.Logger
}

// OllamaProvider implements provider.Provider for Ollama.
type OllamaProvider struct {
	client *openaicompat.Client
}

// Ensure OllamaProvider implements provider.Provider at compile time.
var _ provider.Provider = (*OllamaProvider)(nil)

// New creates a new OllamaProvider with the given configuration.
func New(cfg Config) (*OllamaProvider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.APIKey == "" {
		cfg.APIKey = DefaultAPIKey
	}

	client, err := openaicompat.NewClient(openaicompat.Config{
		BaseURL:           cfg.BaseURL,
		APIKey:            cfg.APIKey,
		Timeout:           cfg.Timeout,
		StreamIdleTimeout: cfg.StreamIdleTimeout,
		Headers:           cfg.Headers,
	},
		openaicompat.WithLogger(cfg.Logger),
		openaicompat.WithModelMapper(NormalizeModel),
	)
	if err != nil {
		return nil, err
	}
	return &OllamaProvider{client: client}, nil
}

// NormalizeModel appends the default tag to an untagged model name, so
// "llama4" and "llama4:latest" address the same model.
func NormalizeModel(model string) string {
	if model == "" || strings.Contains(model, ":") {
		return model
	}
	return model + ":" + DefaultTag
}

// Name returns the provider identifier.
func (p *OllamaProvider) Name() string {
	return provider.KindOllama
}

// Complete performs a non-streaming chat completion.
func (p *OllamaProvider) Complete(ctx context.Context, req *api.CompletionRequest) (*api.CompletionResponse, error) {
	return p.client.Complete(ctx, req)
}

// StreamCompletion performs a streaming chat completion.
func (p *OllamaProvider) StreamCompletion(ctx context.Context, req *api.CompletionRequest, onFragment func(stream.Fragment)) (stream.Result, error) {
	return p.client.StreamCompletion(ctx, req, onFragment)
}

// ListModels returns the models pulled on the Ollama server.
func (p *OllamaProvider) ListModels(ctx context.Context) ([]api.ModelInfo, error) {
	return p.client.ListModels(ctx)
}

// Close releases provider resources.
func (p *OllamaProvider) Close() error {
	return p.client.Close()
}
