package openaicompat

import (
	"encoding/json"
	"fmt"

	"github.com/sklau6/RustLLMRunner/pkg/api"
)

// completionEnvelope decodes either a completion or an error envelope.
type completionEnvelope struct {
	api.CompletionResponse
	Error *api.ErrorBody `json:"error"`
}

// ParseComplete decodes a non-streaming response body.
//
// A body that is not a JSON object, has no choices, or has a choice without
// a message fails with malformed_response. An error envelope in the body is
// surfaced as server_error with the server's message.
func ParseComplete(data []byte) (*api.CompletionResponse, error) {
	var env completionEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, api.NewMalformedResponseError(
			fmt.Sprintf("failed to parse backend response: %s", err.Error()), err)
	}

	if env.Error != nil {
		return nil, errorFromBody(env.Error)
	}

	resp := env.CompletionResponse
	if len(resp.Choices) == 0 {
		return nil, api.NewMalformedResponseError("response has no choices", nil)
	}
	for i, c := range resp.Choices {
		if c.Message == nil {
			return nil, api.NewMalformedResponseError(
				fmt.Sprintf("choices[%d] has no message", i), nil)
		}
	}
	return &resp, nil
}
