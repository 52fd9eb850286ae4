package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sklau6/RustLLMRunner/pkg/api"
	"github.com/sklau6/RustLLMRunner/pkg/debug"
	"github.com/sklau6/RustLLMRunner/pkg/observability"
	"github.com/sklau6/RustLLMRunner/pkg/stream"
)

// ProviderName identifies this client in logs.
const ProviderName = "openai-compatible"

// Client performs HTTP requests against an OpenAI-compatible Chat Completions
// server. It is safe for concurrent use; every call owns its own request,
// response body and stream state.
type Client struct {
	httpClient   *http.Client
	streamClient *http.Client
	baseURL      string
	apiKey       string
	headers      map[string]string
	streamIdle   time.Duration
	logger       *zap.Logger

	// modelMapper transforms the model name before it is sent. nil sends
	// the name unchanged.
	modelMapper func(string) string
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithLogger sets the logger used for request logging.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client. Its Transport is
// wrapped with metrics recording; its Timeout applies to non-streaming calls.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithModelMapper rewrites model names before they are sent.
func WithModelMapper(fn func(string) string) ClientOption {
	return func(c *Client) { c.modelMapper = fn }
}

// NewClient creates a Client for the server described by cfg.
func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		headers:    cfg.Headers,
		streamIdle: cfg.StreamIdleTimeout,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	transport := observability.NewTransport(c.httpClient.Transport)
	c.httpClient = &http.Client{
		Transport:     transport,
		Timeout:       c.httpClient.Timeout,
		CheckRedirect: c.httpClient.CheckRedirect,
		Jar:           c.httpClient.Jar,
	}
	// A stream can legitimately outlive any fixed timeout. Its lifetime is
	// bounded by the context and the idle timeout instead.
	c.streamClient = &http.Client{
		Transport:     transport,
		CheckRedirect: c.httpClient.CheckRedirect,
		Jar:           c.httpClient.Jar,
	}
	return c, nil
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return ProviderName
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Complete performs a non-streaming chat completion.
func (c *Client) Complete(ctx context.Context, req *api.CompletionRequest) (*api.CompletionResponse, error) {
	out, err := c.prepare(req, false)
	if err != nil {
		return nil, c.record(err)
	}

	httpReq, requestID, err := c.newRequest(ctx, http.MethodPost, "/chat/completions", out)
	if err != nil {
		return nil, c.record(err)
	}

	log := c.logger.With(zap.String("request_id", requestID), zap.String("model", out.Model))
	start := time.Now()

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.Warn("completion request failed", zap.Error(err))
		return nil, c.record(MapNetworkError(err))
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		apiErr := httpError(httpResp, requestID)
		log.Warn("completion rejected", zap.Int("status", httpResp.StatusCode), zap.Error(apiErr))
		return nil, c.record(apiErr)
	}

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, c.record(MapNetworkError(err))
	}
	debug.Log("http", "completion response",
		zap.String("request_id", requestID),
		zap.String("body", debug.Truncate(string(body), 500)),
	)

	resp, err := ParseComplete(body)
	if err != nil {
		return nil, c.record(err)
	}

	observability.RecordUsage(resp.Model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	log.Debug("completion finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.String("finish_reason", resp.Choices[0].FinishReason),
	)
	return resp, nil
}

// Stream starts a streaming chat completion and returns a reader over its
// frames. The caller must Close the reader. Errors before the first frame
// (rejected request, connection failure) are returned here.
func (c *Client) Stream(ctx context.Context, req *api.CompletionRequest) (*SSEReader, error) {
	out, err := c.prepare(req, true)
	if err != nil {
		return nil, c.record(err)
	}

	httpReq, requestID, err := c.newRequest(ctx, http.MethodPost, "/chat/completions", out)
	if err != nil {
		return nil, c.record(err)
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	httpResp, err := c.streamClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("stream request failed", zap.String("request_id", requestID), zap.Error(err))
		return nil, c.record(MapNetworkError(err))
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		apiErr := httpError(httpResp, requestID)
		httpResp.Body.Close()
		c.logger.Warn("stream rejected",
			zap.String("request_id", requestID),
			zap.Int("status", httpResp.StatusCode),
			zap.Error(apiErr),
		)
		return nil, c.record(apiErr)
	}

	c.logger.Debug("stream opened", zap.String("request_id", requestID), zap.String("model", out.Model))
	return NewSSEReader(httpResp.Body, c.streamIdle), nil
}

// StreamCompletion runs a streaming chat completion to a terminal state,
// calling onFragment (if non-nil) for each accepted text fragment in
// arrival order. The returned Result carries the text accumulated so far
// even when err is non-nil.
func (c *Client) StreamCompletion(ctx context.Context, req *api.CompletionRequest, onFragment func(stream.Fragment)) (stream.Result, error) {
	reader, err := c.Stream(ctx, req)
	if err != nil {
		return stream.Result{State: stream.StateFailed}, err
	}
	defer reader.Close()

	model := c.mapModel(req.Model)
	fragments := observability.StreamFragmentsTotal.WithLabelValues(model)

	start := time.Now()
	result, err := stream.Consume(ctx, reader,
		stream.WithLogger(c.logger),
		stream.WithFragmentHandler(func(f stream.Fragment) {
			fragments.Inc()
			if onFragment != nil {
				onFragment(f)
			}
		}),
	)

	observability.StreamsTotal.WithLabelValues(model, result.State.String()).Inc()
	if result.Usage != nil {
		observability.RecordUsage(model, result.Usage.PromptTokens, result.Usage.CompletionTokens)
	}

	fields := []zap.Field{
		zap.String("model", model),
		zap.Stringer("state", result.State),
		zap.Int("frames", result.Frames),
		zap.Int("chars", len(result.Text)),
		zap.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		c.logger.Warn("stream failed", append(fields, zap.Error(err))...)
		return result, c.record(err)
	}
	c.logger.Debug("stream finished", append(fields, zap.String("finish_reason", result.FinishReason))...)
	return result, nil
}

// ListModels returns the models the server advertises at {base}/models.
func (c *Client) ListModels(ctx context.Context) ([]api.ModelInfo, error) {
	httpReq, requestID, err := c.newRequest(ctx, http.MethodGet, "/models", nil)
	if err != nil {
		return nil, c.record(err)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.record(MapNetworkError(err))
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		apiErr := httpError(httpResp, requestID)
		c.logger.Warn("model listing rejected",
			zap.String("request_id", requestID),
			zap.Int("status", httpResp.StatusCode),
			zap.Error(apiErr),
		)
		return nil, c.record(apiErr)
	}

	var list api.ModelList
	if err := json.NewDecoder(httpResp.Body).Decode(&list); err != nil {
		return nil, c.record(api.NewMalformedResponseError(
			fmt.Sprintf("failed to parse models response: %s", err.Error()), err))
	}
	return list.Data, nil
}

// httpError maps a non-2xx response, falling back to the request ID this
// client generated when the server did not echo one.
func httpError(resp *http.Response, requestID string) *api.APIError {
	apiErr := MapHTTPError(resp)
	if apiErr.RequestID == "" {
		apiErr.RequestID = requestID
	}
	return apiErr
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// prepare validates req and returns a copy with stream mode and model
// mapping applied. The caller's request is never modified.
func (c *Client) prepare(req *api.CompletionRequest, streaming bool) (*api.CompletionRequest, error) {
	if req == nil {
		return nil, api.NewInvalidRequestError("", "request is nil")
	}
	if err := api.Validate(req); err != nil {
		return nil, err
	}
	out := *req
	out.Stream = streaming
	out.Model = c.mapModel(out.Model)
	return &out, nil
}

func (c *Client) mapModel(model string) string {
	if c.modelMapper == nil {
		return model
	}
	return c.modelMapper(model)
}

// newRequest builds an HTTP request for path relative to the base URL with
// JSON body, auth and request ID headers set.
func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, string, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, "", api.NewInvalidRequestError("", fmt.Sprintf("failed to marshal request: %s", err.Error()))
		}
		debug.Log("http", "request body", zap.String("path", path), zap.String("body", debug.Truncate(string(data), 500)))
		reader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, "", api.NewInvalidRequestError("", fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}

	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	requestID := api.NewRequestID()
	httpReq.Header.Set(api.RequestIDHeader, requestID)

	debug.Log("http", "sending request",
		zap.String("method", method),
		zap.String("url", httpReq.URL.String()),
		zap.String("request_id", requestID),
	)
	return httpReq, requestID, nil
}

// record counts err by taxonomy type and returns it unchanged.
func (c *Client) record(err error) error {
	observability.ErrorsTotal.WithLabelValues(errorType(err)).Inc()
	return err
}

func errorType(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return string(apiErr.Type)
	}
	return "unknown"
}
