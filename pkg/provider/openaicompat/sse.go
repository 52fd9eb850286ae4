package openaicompat

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/sklau6/RustLLMRunner/pkg/api"
	"github.com/sklau6/RustLLMRunner/pkg/debug"
)

const (
	// doneSentinel is the data payload that ends an OpenAI-style stream.
	doneSentinel = "[DONE]"

	initialFrameBuffer = 64 * 1024
	maxFrameSize       = 1 << 20
)

// chunkEnvelope decodes either a stream chunk or an in-band error.
type chunkEnvelope struct {
	api.StreamChunk
	Error *api.ErrorBody `json:"error"`
}

// SSEReader decodes a Chat Completions server-sent event stream into
// StreamChunk frames. It implements stream.FrameSource.
//
// SSE format expected:
//
//	data: {"id":"...","choices":[...]}\n
//	\n
//	data: [DONE]\n
//	\n
//
// Multi-line data fields are joined with "\n". Comment lines, event, id and
// retry fields are ignored. Next returns io.EOF after the [DONE] sentinel or
// when the body ends on a frame boundary.
//
// An SSEReader owns the response body and is not safe for concurrent use,
// except that Close may be called from any goroutine.
type SSEReader struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	idle    time.Duration
	data    []string
	frames  int
	done    bool

	closeOnce sync.Once
	closeErr  error
	timedOut  atomic.Bool
}

// NewSSEReader wraps body. A positive idle bounds the wait for each line.
func NewSSEReader(body io.ReadCloser, idle time.Duration) *SSEReader {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, initialFrameBuffer), maxFrameSize)
	return &SSEReader{
		body:    body,
		scanner: scanner,
		idle:    idle,
	}
}

// Next returns the next decoded frame. Cancelling ctx closes the body so a
// blocked read returns promptly.
func (r *SSEReader) Next(ctx context.Context) (*api.StreamChunk, error) {
	if r.done {
		return nil, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() { _ = r.Close() })
	defer stop()

	for {
		ok := r.scan()
		if !ok {
			return r.finish(ctx)
		}

		line := r.scanner.Text()
		if line == "" {
			if len(r.data) == 0 {
				continue
			}
			return r.dispatch()
		}
		r.field(line)
	}
}

// scan reads one line, arming the idle timer around the blocking read.
func (r *SSEReader) scan() bool {
	if r.idle <= 0 {
		return r.scanner.Scan()
	}
	timer := time.AfterFunc(r.idle, func() {
		r.timedOut.Store(true)
		_ = r.Close()
	})
	ok := r.scanner.Scan()
	timer.Stop()
	return ok
}

// field records one non-empty line.
func (r *SSEReader) field(line string) {
	if strings.HasPrefix(line, ":") {
		return
	}
	name, value, found := strings.Cut(line, ":")
	if !found {
		value = ""
	}
	value = strings.TrimPrefix(value, " ")
	if name == "data" {
		r.data = append(r.data, value)
	}
}

// dispatch decodes the buffered data lines as one frame.
func (r *SSEReader) dispatch() (*api.StreamChunk, error) {
	payload := strings.Join(r.data, "\n")
	r.data = r.data[:0]

	if payload == doneSentinel {
		r.done = true
		debug.Log("stream", "done sentinel received", zap.Int("frames", r.frames))
		return nil, io.EOF
	}

	var env chunkEnvelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		r.done = true
		return nil, api.NewStreamProtocolError(
			"malformed stream frame: "+debug.Truncate(payload, 200), err)
	}
	if env.Error != nil {
		r.done = true
		return nil, errorFromBody(env.Error)
	}

	r.frames++
	debug.Log("stream", "frame received",
		zap.Int("frame", r.frames),
		zap.String("data", debug.Truncate(payload, 200)),
	)
	chunk := env.StreamChunk
	return &chunk, nil
}

// finish handles the end of the line sequence.
func (r *SSEReader) finish(ctx context.Context) (*api.StreamChunk, error) {
	err := r.scanner.Err()
	if err == nil {
		// A final frame without its blank-line terminator still counts.
		if len(r.data) > 0 {
			return r.dispatch()
		}
		r.done = true
		return nil, io.EOF
	}

	r.done = true
	switch {
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case r.timedOut.Load():
		return nil, api.NewTransportFailure("stream idle timeout exceeded", err)
	case errors.Is(err, bufio.ErrTooLong):
		return nil, api.NewStreamProtocolError("stream frame exceeds maximum size", err)
	}
	return nil, err
}

// Frames returns the number of frames decoded so far.
func (r *SSEReader) Frames() int {
	return r.frames
}

// Close releases the response body. It is safe to call more than once.
func (r *SSEReader) Close() error {
	r.closeOnce.Do(func() {
		r.closeErr = r.body.Close()
	})
	return r.closeErr
}
