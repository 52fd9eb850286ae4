package litellm

import (
	"context"
	"fmt"
	"maps"

	"github.com/sklau6/RustLLMRunner/pkg/api"
	"github.com/sklau6/RustLLMRunner/pkg/provider"
	"github.com/sklau6/RustLLMRunner/pkg/provider/openaicompat"
	"github.com/sklau6/RustLLMRunner/pkg/stream"
)

// LiteLLMProvider implements provider.Provider for LiteLLM proxy servers.
// It delegates HTTP communication to the shared openaicompat.Client and
// supports model name mapping for multi-provider routing.
type LiteLLMProvider struct {
	client *openaicompat.Client
}

// Ensure LiteLLMProvider implements provider.Provider at compile time.
var _ provider.Provider = (*LiteLLMProvider)(nil)

// New creates a new LiteLLMProvider with the given configuration.
// Returns an error if the configuration is invalid.
func New(cfg Config) (*LiteLLMProvider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("litellm: BaseURL is required")
	}

	opts := []openaicompat.ClientOption{openaicompat.WithLogger(cfg.Logger)}
	if len(cfg.ModelMapping) > 0 {
		mapping := maps.Clone(cfg.ModelMapping)
		opts = append(opts, openaicompat.WithModelMapper(func(model string) string {
			if mapped, ok := mapping[model]; ok {
				return mapped
			}
			return model
		}))
	}

	client, err := openaicompat.NewClient(openaicompat.Config{
		BaseURL:           cfg.BaseURL,
		APIKey:            cfg.APIKey,
		Timeout:           cfg.Timeout,
		StreamIdleTimeout: cfg.StreamIdleTimeout,
		Headers:           cfg.Headers,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("litellm: %w", err)
	}

	return &LiteLLMProvider{client: client}, nil
}

// Name returns the provider identifier.
func (p *LiteLLMProvider) Name() string {
	return provider.KindLiteLLM
}

// Complete performs a non-streaming chat completion.
func (p *LiteLLMProvider) Complete(ctx context.Context, req *api.CompletionRequest) (*api.CompletionResponse, error) {
	return p.client.Complete(ctx, req)
}

// StreamCompletion performs a streaming chat completion.
func (p *LiteLLMProvider) StreamCompletion(ctx context.Context, req *api.CompletionRequest, onFragment func(stream.Fragment)) (stream.Result, error) {
	return p.client.StreamCompletion(ctx, req, onFragment)
}

// ListModels returns available models from the proxy.
func (p *LiteLLMProvider) ListModels(ctx context.Context) ([]api.ModelInfo, error) {
	return p.client.ListModels(ctx)
}

// Close releases provider resources.
func (p *LiteLLMProvider) Close() error {
	return p.client.Close()
}
