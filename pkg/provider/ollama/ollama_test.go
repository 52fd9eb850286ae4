package ollama

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sklau6/RustLLMRunner/internal/mockbackend"
	"github.com/sklau6/RustLLMRunner/pkg/api"
)

func TestNormalizeModel(t *testing.T) {
	assert.Equal(t, "llama4:latest", NormalizeModel("llama4"))
	assert.Equal(t, "llama4:scout", NormalizeModel("llama4:scout"))
	assert.Equal(t, "", NormalizeModel(""))
}

func TestOllamaProvider_Name(t *testing.T) {
	p, err := New(Config{})
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, "ollama", p.Name())
}

func TestOllamaProvider_Complete(t *testing.T) {
	mock := mockbackend.New()
	srv := httptest.NewServer(mock.Handler())
	defer srv.Close()

	p, err := New(Config{BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)
	defer p.Close()

	req, err := api.Build("llama4", []api.Message{{Role: api.RoleUser, Content: "hi"}})
	require.NoError(t, err)

	resp, err := p.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", resp.Content())

	recorded := mock.Requests()
	require.Len(t, recorded, 1)
	assert.Equal(t, "llama4:latest", recorded[0].Request.Model)
	assert.Equal(t, "Bearer not-needed", recorded[0].Header.Get("Authorization"))
}

func TestOllamaProvider_StreamCompletion(t *testing.T) {
	srv := httptest.NewServer(mockbackend.New().Handler())
	defer srv.Close()

	p, err := New(Config{BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)
	defer p.Close()

	req, err := api.Build("llama4:scout", []api.Message{{Role: api.RoleUser, Content: "hi"}}, api.WithStream(true))
	require.NoError(t, err)

	result, err := p.StreamCompletion(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", result.Text)
}

func TestOllamaProvider_Headers(t *testing.T) {
	mock := mockbackend.New()
	srv := httptest.NewServer(mock.Handler())
	defer srv.Close()

	p, err := New(Config{
		BaseURL: srv.URL + "/v1",
		Headers: map[string]string{"X-Team": "research"},
	})
	require.NoError(t, err)
	defer p.Close()

	req, err := api.Build("llama4", []api.Message{{Role: api.RoleUser, Content: "hi"}})
	require.NoError(t, err)
	_, err = p.Complete(context.Background(), req)
	require.NoError(t, err)

	recorded := mock.Requests()
	require.Len(t, recorded, 1)
	assert.Equal(t, "research", recorded[0].Header.Get("X-Team"))
}
