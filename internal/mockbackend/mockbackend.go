// Package mockbackend is a deterministic OpenAI-compatible Chat Completions
// server for tests and local demos. Replies are chosen from the last user
// message; trigger phrases in that message select failure modes.
//
// Trigger phrases:
//
//	trigger:server-error  HTTP 500 with an error envelope
//	trigger:rate-limit    HTTP 429 with an error envelope
//	trigger:malformed     200 with no choices, or a broken frame mid-stream
//	trigger:error-frame   an in-band error frame mid-stream
//	trigger:abort         the stream connection is cut mid-frame
//	trigger:no-done       the stream ends without a finish reason or [DONE]
package mockbackend

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sklau6/RustLLMRunner/pkg/api"
)

// Trigger phrases recognized in the last user message.
const (
	TriggerServerError = "trigger:server-error"
	TriggerRateLimit   = "trigger:rate-limit"
	TriggerMalformed   = "trigger:malformed"
	TriggerErrorFrame  = "trigger:error-frame"
	TriggerAbort       = "trigger:abort"
	TriggerNoDone      = "trigger:no-done"
)

// DefaultModel is reported when the request names no model.
const DefaultModel = "mock-model"

// Server serves the mock API. Create one with New.
type Server struct {
	logger *zap.Logger
	apiKey string
	delay  time.Duration
	models []string

	mu       sync.Mutex
	requests []Recorded
}

// Recorded is one chat completion request as the server received it.
type Recorded struct {
	Request api.CompletionRequest
	Header  http.Header
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAPIKey makes the server require "Authorization: Bearer <key>".
func WithAPIKey(key string) Option {
	return func(s *Server) { s.apiKey = key }
}

// WithTokenDelay pauses between streamed tokens.
func WithTokenDelay(d time.Duration) Option {
	return func(s *Server) { s.delay = d }
}

// WithModels sets the model IDs listed by /v1/models.
func WithModels(ids ...string) Option {
	return func(s *Server) { s.models = ids }
}

// New creates a Server.
func New(opts ...Option) *Server {
	s := &Server{
		logger: zap.NewNop(),
		models: []string{DefaultModel},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler. The API is mounted under /v1.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", s.authorized(s.handleChatCompletions))
	mux.HandleFunc("GET /v1/models", s.authorized(s.handleModels))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return Chain(Recovery(s.logger), RequestID(), Logging(s.logger))(mux)
}

// Requests returns the chat completion requests received so far.
func (s *Server) Requests() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Recorded(nil), s.requests...)
}

func (s *Server) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" {
			got := r.Header.Get("Authorization")
			want := "Bearer " + s.apiKey
			if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
				writeError(w, http.StatusUnauthorized, "invalid_api_key", "incorrect API key provided")
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req api.CompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: "+err.Error())
		return
	}
	if err := api.Validate(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", err.Error())
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, Recorded{Request: req, Header: r.Header.Clone()})
	s.mu.Unlock()

	prompt := lastUserMessage(&req)
	s.logger.Debug("chat completion",
		zap.String("model", req.Model),
		zap.Bool("stream", req.Stream),
		zap.String("request_id", RequestIDFromContext(r.Context())),
	)

	switch {
	case strings.Contains(prompt, TriggerServerError):
		writeError(w, http.StatusInternalServerError, "server_error", "the model crashed")
		return
	case strings.Contains(prompt, TriggerRateLimit):
		writeError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "rate limit reached")
		return
	}

	if req.Stream {
		s.handleStreaming(w, r, &req, prompt)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if strings.Contains(prompt, TriggerMalformed) {
		_, _ = w.Write([]byte(`{"id":"chatcmpl-mock-text","object":"chat.completion","choices":[]}`))
		return
	}
	_ = json.NewEncoder(w).Encode(textResponse(modelOf(&req), Reply(prompt), &req))
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	list := api.ModelList{Object: "list"}
	for _, id := range s.models {
		list.Data = append(list.Data, api.ModelInfo{ID: id, Object: "model", OwnedBy: "mockbackend"})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

// Reply returns the deterministic answer for a prompt.
func Reply(prompt string) string {
	p := strings.ToLower(prompt)
	switch {
	case strings.Contains(p, "count from 1 to 5"):
		return "1, 2, 3, 4, 5"
	case strings.Contains(p, "poem"):
		return "Semicolons fall like rain,\nloops return to start again;\nthe compiler hums, the tests run green,\nthe cleanest code I've ever seen."
	case strings.Contains(p, "rust"):
		return "Rust is a systems programming language focused on safety, speed and concurrency."
	default:
		return "Hello world"
	}
}

// Tokens splits text into stream fragments, attaching each space to the
// word that follows it ("Hello world" -> "Hello", " world").
func Tokens(text string) []string {
	var out []string
	start := 0
	for i := 1; i < len(text); i++ {
		if text[i] == ' ' || text[i] == '\n' {
			out = append(out, text[start:i])
			start = i
		}
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

func textResponse(model, text string, req *api.CompletionRequest) api.CompletionResponse {
	prompt := promptTokens(req)
	completion := len(Tokens(text))
	return api.CompletionResponse{
		ID:      "chatcmpl-mock-text",
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []api.Choice{{
			Index:        0,
			Message:      &api.Message{Role: api.RoleAssistant, Content: text},
			FinishReason: api.FinishReasonStop,
		}},
		Usage: api.Usage{
			PromptTokens:     prompt,
			CompletionTokens: completion,
			TotalTokens:      prompt + completion,
		},
	}
}

func writeError(w http.ResponseWriter, status int, typ, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{
		Error: &api.ErrorBody{Message: message, Type: typ},
	})
}

func modelOf(req *api.CompletionRequest) string {
	if req.Model == "" {
		return DefaultModel
	}
	return req.Model
}

func lastUserMessage(req *api.CompletionRequest) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == api.RoleUser {
			return req.Messages[i].Content
		}
	}
	return ""
}

// promptTokens approximates the prompt size as a word count.
func promptTokens(req *api.CompletionRequest) int {
	n := 0
	for _, m := range req.Messages {
		n += len(strings.Fields(m.Content))
	}
	if n == 0 {
		n = 1
	}
	return n
}
