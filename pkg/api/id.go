package api

import "github.com/google/uuid"

// RequestIDHeader carries the client-generated request identifier.
const RequestIDHeader = "X-Request-Id"

// NewRequestID returns a random identifier for one outbound call. It is sent
// in RequestIDHeader and attached to logs and errors for that call.
func NewRequestID() string {
	return "req_" + uuid.NewString()
}
