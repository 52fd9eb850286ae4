package api

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Finish reasons reported by OpenAI-compatible servers. Any non-empty value
// is terminal for its choice; these are the ones with known meaning.
const (
	FinishReasonStop          = "stop"
	FinishReasonLength        = "length"
	FinishReasonContentFilter = "content_filter"
	FinishReasonToolCalls     = "tool_calls"
)

// Message is one turn of the conversation.
type Message struct {
	Role    Role   `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content"`
}

// CompletionRequest is the request body for POST {base}/chat/completions.
// Build one with Build; do not mutate it after handing it to a client.
type CompletionRequest struct {
	Model       string    `json:"model" validate:"required"`
	Messages    []Message `json:"messages" validate:"required,min=1,dive"`
	Temperature float64   `json:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   *int      `json:"max_tokens,omitempty" validate:"omitempty,gt=0"`
	TopP        *float64  `json:"top_p,omitempty" validate:"omitempty,gte=0,lte=1"`
	Stop        []string  `json:"stop,omitempty" validate:"max=4"`
	Stream      bool      `json:"stream"`
}

// CompletionResponse is the non-streaming response from /chat/completions.
type CompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Content returns the assistant text of the first choice.
func (r *CompletionResponse) Content() string {
	if len(r.Choices) == 0 || r.Choices[0].Message == nil {
		return ""
	}
	return r.Choices[0].Message.Content
}

// Choice is one completion alternative. Message is a pointer so that a
// missing "message" key can be told apart from an empty one.
type Choice struct {
	Index        int      `json:"index"`
	Message      *Message `json:"message"`
	FinishReason string   `json:"finish_reason"`
}

// Usage holds server-reported token counts.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// StreamChunk is one decoded frame of a streaming response.
type StreamChunk struct {
	ID      string        `json:"id,omitempty"`
	Object  string        `json:"object,omitempty"`
	Created int64         `json:"created,omitempty"`
	Model   string        `json:"model,omitempty"`
	Choices []ChunkChoice `json:"choices"`
	Usage   *Usage        `json:"usage,omitempty"`
}

// ChunkChoice carries the delta for one choice index. FinishReason is nil
// until the choice terminates.
type ChunkChoice struct {
	Index        int     `json:"index"`
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason"`
}

// Terminal reports whether the choice carries a terminal marker.
func (c *ChunkChoice) Terminal() bool {
	return c.FinishReason != nil && *c.FinishReason != ""
}

// Delta holds the incremental content of a frame. Content is a pointer so
// that an absent field is distinguishable from an empty string.
type Delta struct {
	Role    Role    `json:"role,omitempty"`
	Content *string `json:"content,omitempty"`
}

// Text returns the fragment carried by the delta, or "" when absent.
func (d Delta) Text() string {
	if d.Content == nil {
		return ""
	}
	return *d.Content
}

// ModelList is the response from GET {base}/models.
type ModelList struct {
	Object string      `json:"object"`
	Data   []ModelInfo `json:"data"`
}

// ModelInfo describes one model served by the backend.
type ModelInfo struct {
	ID      string `json:"id"`
	Object  string `json:"object,omitempty"`
	OwnedBy string `json:"owned_by,omitempty"`
}
