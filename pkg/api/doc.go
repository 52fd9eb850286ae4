// Package api defines the wire types and error taxonomy for talking to an
// OpenAI-compatible chat completion server.
//
// The package performs no I/O. It covers:
//   - [Message], [CompletionRequest]: the request side, assembled by [Build]
//   - [CompletionResponse]: a complete non-streaming reply
//   - [StreamChunk]: one decoded frame of a streamed reply
//   - [APIError]: the single error type, classified by [ErrorType]
//
// All types marshal to the JSON accepted and produced by
// /v1/chat/completions and /v1/models.
package api
