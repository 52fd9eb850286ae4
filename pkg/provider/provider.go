package provider

import (
	"context"

	"github.com/sklau6/RustLLMRunner/pkg/api"
	"github.com/sklau6/RustLLMRunner/pkg/stream"
)

// Provider abstracts an OpenAI-compatible chat completion backend.
//
// Implementations must be safe for concurrent use by multiple goroutines;
// each call owns its own request and stream state.
type Provider interface {
	// Name returns the provider identifier (e.g., "ollama", "litellm").
	Name() string

	// Complete performs a non-streaming chat completion.
	Complete(ctx context.Context, req *api.CompletionRequest) (*api.CompletionResponse, error)

	// StreamCompletion performs a streaming chat completion, calling
	// onFragment for each accepted fragment in arrival order. The Result
	// carries partial text even when an error is returned.
	StreamCompletion(ctx context.Context, req *api.CompletionRequest, onFragment func(stream.Fragment)) (stream.Result, error)

	// ListModels returns available models from the backend.
	ListModels(ctx context.Context) ([]api.ModelInfo, error)

	// Close releases provider resources (HTTP clients, connections).
	Close() error
}

// Provider kinds accepted in configuration.
const (
	KindOpenAI  = "openai"
	KindOllama  = "ollama"
	KindLiteLLM = "litellm"
)

// Kinds lists every supported provider kind.
func Kinds() []string {
	return []string{KindOpenAI, KindOllama, KindLiteLLM}
}
