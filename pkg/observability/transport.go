package observability

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Transport wraps an http.RoundTripper to record request metrics.
//
// It captures:
//   - runner_requests_total (counter): one per round trip, with a status class label
//     ("2xx", "4xx", "5xx", or "error" when no response arrived)
//   - runner_request_duration_seconds (histogram): time until response headers
//   - runner_streams_active (gauge): held while an event-stream response body is open
type Transport struct {
	// Base is the underlying transport. nil means http.DefaultTransport.
	Base http.RoundTripper
}

// NewTransport wraps base with metrics recording.
func NewTransport(base http.RoundTripper) *Transport {
	return &Transport{Base: base}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	start := time.Now()
	endpoint := Endpoint(req.URL.Path)

	resp, err := base.RoundTrip(req)
	RequestDuration.WithLabelValues(req.Method, endpoint).Observe(time.Since(start).Seconds())

	if err != nil {
		RequestsTotal.WithLabelValues(req.Method, endpoint, "error").Inc()
		return nil, err
	}
	RequestsTotal.WithLabelValues(req.Method, endpoint, strconv.Itoa(resp.StatusCode/100)+"xx").Inc()

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream") {
		ActiveStreams.Inc()
		resp.Body = &streamBody{ReadCloser: resp.Body}
	}
	return resp, nil
}

// CloseIdleConnections forwards to the base transport when supported.
func (t *Transport) CloseIdleConnections() {
	type closeIdler interface{ CloseIdleConnections() }
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if c, ok := base.(closeIdler); ok {
		c.CloseIdleConnections()
	}
}

// Endpoint reduces a request path to its last segment so label
// cardinality stays bounded ("/v1/chat/completions" -> "completions").
func Endpoint(path string) string {
	path = strings.TrimRight(path, "/")
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		path = path[i+1:]
	}
	if path == "" {
		return "root"
	}
	return path
}

// streamBody releases the active-stream gauge exactly once on Close.
type streamBody struct {
	io.ReadCloser
	once sync.Once
}

func (b *streamBody) Close() error {
	b.once.Do(ActiveStreams.Dec)
	return b.ReadCloser.Close()
}
