// Package provider defines the interface shared by chat completion backends.
// Adapters (ollama, litellm) wrap the openaicompat client with backend
// specific defaults and model naming, so callers such as the CLI can pick a
// backend from configuration without knowing its details.
package provider
