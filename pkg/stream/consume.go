package stream

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/sklau6/RustLLMRunner/pkg/api"
)

// FrameSource delivers decoded frames in arrival order. Next blocks until a
// frame is available and returns io.EOF when the stream ended cleanly. Read
// timeouts are the source's responsibility.
type FrameSource interface {
	Next(ctx context.Context) (*api.StreamChunk, error)
}

// FrameSourceFunc adapts a function to FrameSource.
type FrameSourceFunc func(ctx context.Context) (*api.StreamChunk, error)

// Next calls f(ctx).
func (f FrameSourceFunc) Next(ctx context.Context) (*api.StreamChunk, error) {
	return f(ctx)
}

// Option configures Consume.
type Option func(*consumeOptions)

type consumeOptions struct {
	choices    int
	onFragment func(Fragment)
	logger     *zap.Logger
}

// WithChoices declares how many choices the request asked for (n).
func WithChoices(n int) Option {
	return func(o *consumeOptions) { o.choices = n }
}

// WithFragmentHandler registers fn to receive every accepted fragment as
// soon as its frame is applied.
func WithFragmentHandler(fn func(Fragment)) Option {
	return func(o *consumeOptions) { o.onFragment = fn }
}

// WithLogger sets the logger for protocol warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(o *consumeOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Consume reads frames from src until the stream reaches a terminal state.
// It always returns the accumulated Result; the error is non-nil exactly
// when Result.State is StateFailed. Cancelling ctx stops consumption before
// the next frame is applied and fails the stream with a transport_failure
// wrapping the context error.
func Consume(ctx context.Context, src FrameSource, opts ...Option) (Result, error) {
	o := consumeOptions{choices: 1, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	acc := NewAccumulator(o.choices)
	acc.logger = o.logger

	for !acc.State().Terminal() {
		if err := ctx.Err(); err != nil {
			acc.Fail(api.NewTransportFailure("stream cancelled", err))
			break
		}

		chunk, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				acc.Finish()
				break
			}
			acc.Fail(classify(ctx, err))
			break
		}

		// A frame that raced with cancellation is dropped, not applied.
		if err := ctx.Err(); err != nil {
			acc.Fail(api.NewTransportFailure("stream cancelled", err))
			break
		}

		fragments, err := acc.Apply(chunk)
		if o.onFragment != nil {
			for _, f := range fragments {
				o.onFragment(f)
			}
		}
		if err != nil {
			o.logger.Warn("stream frame rejected",
				zap.Int("frames", acc.frames),
				zap.Error(err),
			)
		}
	}

	return acc.Result(), acc.Err()
}

// classify turns a source error into the error taxonomy. Errors that are
// already *api.APIError pass through unchanged.
func classify(ctx context.Context, err error) error {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return api.NewTransportFailure("stream cancelled", ctxErr)
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return api.NewStreamProtocolError("stream ended mid-frame", err)
	}
	return api.NewTransportFailure("stream read failed: "+err.Error(), err)
}
