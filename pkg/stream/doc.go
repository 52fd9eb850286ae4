// Package stream consumes a token-streamed chat completion.
//
// An [Accumulator] is the state machine: it starts in StateAwaitingChunk,
// moves to StateAccumulating on the first text fragment, and ends in
// StateDone (finish reason or clean end-of-stream) or StateFailed
// (malformed frame, transport error, cancellation). Fragments are appended
// per choice index in arrival order; text gathered before a failure is kept.
//
// [Consume] drives an Accumulator over a [FrameSource], surfacing each
// accepted fragment to the caller as soon as its frame has been applied.
// The package knows nothing about HTTP or SSE framing.
package stream
