package openaicompat

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Default connection settings for a local OpenAI-compatible server.
const (
	DefaultBaseURL = "http://localhost:11434/v1"
	DefaultTimeout = 120 * time.Second
)

// Config holds the connection settings for a Client.
type Config struct {
	// BaseURL is the API root including the version segment, for example
	// "http://localhost:11434/v1". Endpoints are appended to it.
	BaseURL string

	// APIKey is sent as a bearer token. Empty sends no Authorization header.
	APIKey string

	// Timeout bounds a non-streaming call end to end. Zero means DefaultTimeout.
	Timeout time.Duration

	// StreamIdleTimeout bounds the wait for each stream read. Zero disables
	// it; the request context still applies.
	StreamIdleTimeout time.Duration

	// Headers are added to every request.
	Headers map[string]string
}

func (c Config) normalize() (Config, error) {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return c, fmt.Errorf("invalid base URL %q: %w", c.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return c, fmt.Errorf("invalid base URL %q: scheme must be http or https", c.BaseURL)
	}
	if u.Host == "" {
		return c, fmt.Errorf("invalid base URL %q: missing host", c.BaseURL)
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.StreamIdleTimeout < 0 {
		c.StreamIdleTimeout = 0
	}
	return c, nil
}
