// Package debug provides category-based debug logging.
//
// Two orthogonal controls:
//   - Categories (WHAT to debug): RUNNER_DEBUG env or log.debug in config
//   - Level (HOW MUCH detail): the zap logger handed to Init
//
// Usage:
//
//	debug.Log("http", "request", zap.String("url", url))
//	if debug.Enabled("stream") { /* expensive formatting */ }
//
// Categories: http, stream, config, all.
package debug

import (
	"os"
	"sort"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"go.uber.org/zap"
)

// EnvVar names the environment variable holding the enabled categories.
const EnvVar = "RUNNER_DEBUG"

type state struct {
	logger     *zap.Logger
	categories map[string]bool
}

var current atomic.Pointer[state]

func init() {
	// Categories from the environment are available before Init runs; output
	// stays disabled until a logger is installed.
	current.Store(&state{
		logger:     zap.NewNop(),
		categories: parseCategories(os.Getenv(EnvVar)),
	})
}

// Init installs the logger used for debug output and the enabled
// categories. The environment overrides the configured categories.
func Init(logger *zap.Logger, configCategories string) {
	cats := os.Getenv(EnvVar)
	if cats == "" {
		cats = configCategories
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	current.Store(&state{
		logger:     logger,
		categories: parseCategories(cats),
	})
}

// Enabled reports whether debug output is active for the given category.
func Enabled(category string) bool {
	s := current.Load()
	return s.categories["all"] || s.categories[category]
}

// Log emits a debug-level message tagged with the category. It is a no-op
// when the category is disabled.
func Log(category string, msg string, fields ...zap.Field) {
	s := current.Load()
	if !s.categories["all"] && !s.categories[category] {
		return
	}
	s.logger.Debug(msg, append([]zap.Field{zap.String("debug", category)}, fields...)...)
}

// Categories returns the enabled categories in sorted order.
func Categories() []string {
	s := current.Load()
	result := make([]string, 0, len(s.categories))
	for k := range s.categories {
		result = append(result, k)
	}
	sort.Strings(result)
	return result
}

// Truncate returns s cut to at most maxLen bytes, with "..." appended if
// truncated. The cut never splits a multi-byte rune.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := max(maxLen, 0)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func parseCategories(s string) map[string]bool {
	m := make(map[string]bool)
	if s == "" {
		return m
	}
	for _, cat := range strings.Split(s, ",") {
		cat = strings.TrimSpace(strings.ToLower(cat))
		if cat != "" {
			m[cat] = true
		}
	}
	return m
}
