// Package observability provides Prometheus metrics for the chat client
// and an instrumented HTTP transport that records them.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets defines histogram buckets suited for LLM inference latencies,
// ranging from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// RequestsTotal counts HTTP requests sent to the backend by method,
	// endpoint and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runner_requests_total",
			Help: "Backend requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration records time to response headers in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "runner_request_duration_seconds",
			Help:    "Backend request duration",
			Buckets: LLMBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// ActiveStreams tracks streamed responses whose body is still open.
	ActiveStreams = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "runner_streams_active",
			Help: "Active streamed responses",
		},
	)

	// StreamFragmentsTotal counts text fragments accepted from streams.
	StreamFragmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runner_stream_fragments_total",
			Help: "Accepted stream fragments",
		},
		[]string{"model"},
	)

	// StreamsTotal counts finished streams by terminal state.
	StreamsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runner_streams_total",
			Help: "Completed streams by terminal state",
		},
		[]string{"model", "state"},
	)

	// TokensTotal counts tokens reported by the backend, by direction
	// (prompt/completion).
	TokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runner_tokens_total",
			Help: "Token count",
		},
		[]string{"model", "direction"},
	)

	// ErrorsTotal counts client errors by taxonomy type.
	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runner_errors_total",
			Help: "Client errors",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		ActiveStreams,
		StreamFragmentsTotal,
		StreamsTotal,
		TokensTotal,
		ErrorsTotal,
	)
}

// RecordUsage adds prompt and completion token counts for model.
func RecordUsage(model string, prompt, completion int) {
	if prompt > 0 {
		TokensTotal.WithLabelValues(model, "prompt").Add(float64(prompt))
	}
	if completion > 0 {
		TokensTotal.WithLabelValues(model, "completion").Add(float64(completion))
	}
}
