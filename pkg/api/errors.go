package api

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of a client-side error.
type ErrorType string

const (
	ErrorTypeInvalidRequest      ErrorType = "invalid_request"
	ErrorTypeServerError         ErrorType = "server_error"
	ErrorTypeMalformedResponse   ErrorType = "malformed_response"
	ErrorTypeStreamProtocolError ErrorType = "stream_protocol_error"
	ErrorTypeTransportFailure    ErrorType = "transport_failure"
)

// Codes set on server_error values derived from the HTTP status when the
// server's error envelope carries no code of its own.
const (
	CodeBadRequest    = "bad_request"
	CodeUnauthorized  = "unauthorized"
	CodeNotFound      = "not_found"
	CodeRateLimited   = "rate_limited"
	CodeUpstreamError = "upstream_error"
)

// APIError is the single error type surfaced by this module. Type selects
// the taxonomy bucket; Status and RequestID carry transport context when the
// error came back from the server.
type APIError struct {
	Type      ErrorType `json:"type"`
	Code      string    `json:"code,omitempty"`
	Param     string    `json:"param,omitempty"`
	Message   string    `json:"message"`
	Status    int       `json:"status,omitempty"`
	RequestID string    `json:"request_id,omitempty"`

	// Cause is the underlying error, if any. Not serialized.
	Cause error `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s (param: %s)", e.Type, e.Message, e.Param)
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (HTTP %d)", e.Type, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause so errors.Is can see through to
// context.Canceled, os.ErrDeadlineExceeded and friends.
func (e *APIError) Unwrap() error {
	return e.Cause
}

// ErrorResponse is the error envelope returned by OpenAI-compatible servers.
type ErrorResponse struct {
	Error *ErrorBody `json:"error"`
}

// ErrorBody is the inner object of an ErrorResponse. Code is left untyped
// because servers disagree on whether it is a string or a number.
type ErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	Param   string `json:"param,omitempty"`
	Code    any    `json:"code,omitempty"`
}

// IsType reports whether err is (or wraps) an *APIError of type t.
func IsType(err error, t ErrorType) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Type == t
	}
	return false
}

// NewInvalidRequestError creates an APIError for structurally invalid input.
func NewInvalidRequestError(param, message string) *APIError {
	return &APIError{
		Type:    ErrorTypeInvalidRequest,
		Param:   param,
		Message: message,
	}
}

// NewServerError creates an APIError for a failure reported by the server.
func NewServerError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeServerError,
		Message: message,
	}
}

// NewMalformedResponseError creates an APIError for a non-streaming body
// that is not valid JSON or lacks required fields.
func NewMalformedResponseError(message string, cause error) *APIError {
	return &APIError{
		Type:    ErrorTypeMalformedResponse,
		Message: message,
		Cause:   cause,
	}
}

// NewStreamProtocolError creates an APIError for a malformed stream frame.
func NewStreamProtocolError(message string, cause error) *APIError {
	return &APIError{
		Type:    ErrorTypeStreamProtocolError,
		Message: message,
		Cause:   cause,
	}
}

// NewTransportFailure creates an APIError for network-level failures.
func NewTransportFailure(message string, cause error) *APIError {
	return &APIError{
		Type:    ErrorTypeTransportFailure,
		Message: message,
		Cause:   cause,
	}
}
