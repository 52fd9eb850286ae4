// Package openaicompat is the HTTP transport for an OpenAI-compatible Chat
// Completions server. It serializes requests built by package api, parses
// non-streaming responses, decodes server-sent event streams into frames
// for package stream, and maps HTTP and network failures onto the api error
// taxonomy.
package openaicompat
