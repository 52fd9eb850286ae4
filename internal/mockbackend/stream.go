package mockbackend

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sklau6/RustLLMRunner/pkg/api"
)

const streamID = "chatcmpl-mock-stream"

// failAfter is the number of content frames sent before a triggered
// stream failure.
const failAfter = 2

func (s *Server) handleStreaming(w http.ResponseWriter, r *http.Request, req *api.CompletionRequest, prompt string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	model := modelOf(req)
	tokens := Tokens(Reply(prompt))
	reason := api.FinishReasonStop
	if req.MaxTokens != nil && *req.MaxTokens < len(tokens) {
		tokens = tokens[:*req.MaxTokens]
		reason = api.FinishReasonLength
	}

	failure := streamFailure(prompt)
	if failure != "" && len(tokens) > failAfter {
		tokens = tokens[:failAfter]
	}

	emit := func(s string) {
		_, _ = io.WriteString(w, s)
		flusher.Flush()
	}

	// Role chunk and a keep-alive comment precede the content.
	emit(frame(chunkJSON(model, api.Delta{Role: api.RoleAssistant}, nil, nil)))
	emit(": keep-alive\n\n")

	for i, tok := range tokens {
		select {
		case <-r.Context().Done():
			s.logger.Debug("client went away", zap.Int("sent", i))
			return
		default:
		}
		if s.delay > 0 && i > 0 {
			time.Sleep(s.delay)
		}

		content := tok
		emit(frame(chunkJSON(model, api.Delta{Content: &content}, nil, nil)))
	}

	switch failure {
	case TriggerMalformed:
		emit("data: {\"id\":\"" + streamID + "\",\"choices\":[{\n\n")
		return
	case TriggerErrorFrame:
		data, _ := json.Marshal(api.ErrorResponse{Error: &api.ErrorBody{
			Message: "generation interrupted",
			Type:    "server_error",
		}})
		emit(frame(data))
		return
	case TriggerAbort:
		// Leave a partial line in the body, then drop the connection.
		emit("data: {\"id\":")
		panic(http.ErrAbortHandler)
	case TriggerNoDone:
		return
	}

	prompted := promptTokens(req)
	usage := &api.Usage{
		PromptTokens:     prompted,
		CompletionTokens: len(tokens),
		TotalTokens:      prompted + len(tokens),
	}
	emit(frame(chunkJSON(model, api.Delta{}, &reason, usage)))
	emit("data: [DONE]\n\n")
}

// streamFailure returns the stream failure trigger present in prompt.
func streamFailure(prompt string) string {
	for _, t := range []string{TriggerMalformed, TriggerErrorFrame, TriggerAbort, TriggerNoDone} {
		if strings.Contains(prompt, t) {
			return t
		}
	}
	return ""
}

func frame(data []byte) string {
	return "data: " + string(data) + "\n\n"
}

func chunkJSON(model string, delta api.Delta, finish *string, usage *api.Usage) []byte {
	data, _ := json.Marshal(api.StreamChunk{
		ID:      streamID,
		Object:  "chat.completion.chunk",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []api.ChunkChoice{{
			Index:        0,
			Delta:        delta,
			FinishReason: finish,
		}},
		Usage: usage,
	})
	return data
}
