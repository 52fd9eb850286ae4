// Package litellm implements the Provider interface for LiteLLM proxy
// servers. It wraps the shared openaicompat client and adds model name
// mapping so a short alias can route to a provider-qualified model.
package litellm
