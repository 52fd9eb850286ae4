package openaicompat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/sklau6/RustLLMRunner/pkg/api"
)

// MapHTTPError converts an HTTP response with a non-2xx status code into
// a server_error APIError. Status keeps the HTTP code; Code is the server's
// own error code when the body is an error envelope that carries one, and a
// status-derived code otherwise.
func MapHTTPError(resp *http.Response) *api.APIError {
	body := extractErrorBody(resp.Body)

	var message, code string
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		message, code = "invalid request to backend", api.CodeBadRequest
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		message, code = "backend authentication failed", api.CodeUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		message, code = "backend resource not found", api.CodeNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		message, code = "backend rate limit exceeded", api.CodeRateLimited
	case resp.StatusCode >= http.StatusInternalServerError:
		message, code = fmt.Sprintf("backend server error (HTTP %d)", resp.StatusCode), api.CodeUpstreamError
	default:
		message = fmt.Sprintf("unexpected backend error (HTTP %d)", resp.StatusCode)
	}

	apiErr := api.NewServerError(message)
	if body != nil {
		apiErr = errorFromBody(body)
	}
	if apiErr.Code == "" {
		apiErr.Code = code
	}
	apiErr.Status = resp.StatusCode
	apiErr.RequestID = resp.Header.Get(api.RequestIDHeader)
	return apiErr
}

// MapNetworkError converts a network-level error (connection refused, timeout,
// DNS resolution failure, cancellation) into a transport_failure APIError
// that still unwraps to the original error.
func MapNetworkError(err error) *api.APIError {
	switch {
	case errors.Is(err, context.Canceled):
		return api.NewTransportFailure("request cancelled", err)
	case errors.Is(err, context.DeadlineExceeded):
		return api.NewTransportFailure("request timed out", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return api.NewTransportFailure("request timed out", err)
	}
	return api.NewTransportFailure(fmt.Sprintf("backend connection error: %s", err.Error()), err)
}

// ExtractErrorMessage tries to parse the response body as an error envelope
// and returns the error message if found.
func ExtractErrorMessage(body io.Reader) string {
	if eb := extractErrorBody(body); eb != nil {
		return eb.Message
	}
	return ""
}

// extractErrorBody returns the error envelope in body, or nil when body is
// not one or its message is empty.
func extractErrorBody(body io.Reader) *api.ErrorBody {
	if body == nil {
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return nil
	}

	var errResp api.ErrorResponse
	if err := json.Unmarshal(data, &errResp); err != nil || errResp.Error == nil || errResp.Error.Message == "" {
		return nil
	}
	return errResp.Error
}

// errorFromBody builds a server_error from an error envelope embedded in a
// 2xx body or a stream frame.
func errorFromBody(body *api.ErrorBody) *api.APIError {
	msg := body.Message
	if msg == "" {
		msg = "backend reported an error"
	}
	apiErr := api.NewServerError(msg)
	apiErr.Param = body.Param
	if body.Code != nil {
		apiErr.Code = fmt.Sprint(body.Code)
	}
	return apiErr
}
