package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"

	"go.uber.org/zap/zapcore"

	"github.com/sklau6/RustLLMRunner/pkg/provider"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	// client.base_url must be an absolute http(s) URL.
	if c.Client.BaseURL == "" {
		errs = append(errs, fmt.Errorf("client.base_url is required"))
	} else if u, err := url.Parse(c.Client.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("client.base_url must be an http or https URL, got %q", c.Client.BaseURL))
	}

	if kinds := provider.Kinds(); !slices.Contains(kinds, c.Client.Provider) {
		errs = append(errs, fmt.Errorf("client.provider must be one of %q, got %q", kinds, c.Client.Provider))
	}

	if c.Client.Model == "" {
		errs = append(errs, fmt.Errorf("client.model is required"))
	}

	if c.Client.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("client.timeout must be > 0, got %v", c.Client.Timeout))
	}
	if c.Client.StreamIdleTimeout < 0 {
		errs = append(errs, fmt.Errorf("client.stream_idle_timeout must be >= 0, got %v", c.Client.StreamIdleTimeout))
	}

	if len(c.Client.ModelMapping) > 0 && c.Client.Provider != provider.KindLiteLLM {
		errs = append(errs, fmt.Errorf("client.model_mapping requires client.provider \"litellm\""))
	}

	if t := c.Request.Temperature; t != nil && (*t < 0 || *t > 2) {
		errs = append(errs, fmt.Errorf("request.temperature must be in [0, 2], got %v", *t))
	}
	if n := c.Request.MaxTokens; n != nil && *n <= 0 {
		errs = append(errs, fmt.Errorf("request.max_tokens must be > 0, got %d", *n))
	}
	if p := c.Request.TopP; p != nil && (*p < 0 || *p > 1) {
		errs = append(errs, fmt.Errorf("request.top_p must be in [0, 1], got %v", *p))
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		errs = append(errs, fmt.Errorf("log.max_size_mb, log.max_backups and log.max_age_days must be >= 0"))
	}

	return errors.Join(errs...)
}
