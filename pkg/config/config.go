// Package config provides unified configuration for the chat client.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. Config file, YAML or TOML (discovered or explicitly specified)
//  3. Environment variable overrides (RUNNER_ prefix, then OPENAI_ fallbacks)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the chat client.
type Config struct {
	Client  ClientConfig  `yaml:"client" toml:"client"`
	Request RequestConfig `yaml:"request" toml:"request"`
	Log     LogConfig     `yaml:"log" toml:"log"`
	Metrics MetricsConfig `yaml:"metrics" toml:"metrics"`
}

// ClientConfig holds connection settings for the backend.
type ClientConfig struct {
	Provider          string            `yaml:"provider" toml:"provider"`                       // "openai", "ollama" or "litellm", default: "openai"
	BaseURL           string            `yaml:"base_url" toml:"base_url"`                       // default: http://localhost:11434/v1
	APIKey            string            `yaml:"api_key" toml:"api_key"`                         // default: "not-needed"
	APIKeyFile        string            `yaml:"api_key_file" toml:"api_key_file"`               // _file variant for api_key
	Timeout           time.Duration     `yaml:"timeout" toml:"timeout"`                         // default: 120s
	StreamIdleTimeout time.Duration     `yaml:"stream_idle_timeout" toml:"stream_idle_timeout"` // default: 0 (disabled)
	Model             string            `yaml:"model" toml:"model"`                             // default: llama4:scout
	Headers           map[string]string `yaml:"headers" toml:"headers"`
	ModelMapping      map[string]string `yaml:"model_mapping" toml:"model_mapping"` // litellm only
}

// RequestConfig holds default sampling parameters. Unset fields fall back
// to the request builder defaults.
type RequestConfig struct {
	Temperature *float64 `yaml:"temperature" toml:"temperature"`
	MaxTokens   *int     `yaml:"max_tokens" toml:"max_tokens"`
	TopP        *float64 `yaml:"top_p" toml:"top_p"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `yaml:"level" toml:"level"`               // debug, info, warn, error; default: info
	Debug      string `yaml:"debug" toml:"debug"`               // debug categories, e.g. "http,stream"
	File       string `yaml:"file" toml:"file"`                 // optional rotating log file
	MaxSizeMB  int    `yaml:"max_size_mb" toml:"max_size_mb"`   // default: 10
	MaxBackups int    `yaml:"max_backups" toml:"max_backups"`   // default: 3
	MaxAgeDays int    `yaml:"max_age_days" toml:"max_age_days"` // default: 28
	Compress   bool   `yaml:"compress" toml:"compress"`
}

// MetricsConfig holds Prometheus textfile export settings.
type MetricsConfig struct {
	Textfile string `yaml:"textfile" toml:"textfile"` // written on exit when set
}

// Defaults returns a Config with all default values applied.
func Defaults() Config {
	return Config{
		Client: ClientConfig{
			Provider: "openai",
			BaseURL:  "http://localhost:11434/v1",
			APIKey:   "not-needed",
			Timeout:  120 * time.Second,
			Model:    "llama4:scout",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}
