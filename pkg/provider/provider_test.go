package provider_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sklau6/RustLLMRunner/pkg/provider"
	"github.com/sklau6/RustLLMRunner/pkg/provider/openaicompat"
)

var _ provider.Provider = (*openaicompat.Client)(nil)

func TestKinds(t *testing.T) {
	assert.ElementsMatch(t, []string{"openai", "ollama", "litellm"}, provider.Kinds())
}
