package stream

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sklau6/RustLLMRunner/pkg/api"
	"github.com/sklau6/RustLLMRunner/pkg/debug"
)

// Fragment is one accepted text delta, surfaced in arrival order.
type Fragment struct {
	Index int
	Text  string
}

// ChoiceResult is the accumulated output of one choice index.
type ChoiceResult struct {
	Index        int
	Text         string
	FinishReason string
}

// Result is a snapshot of an Accumulator. Text and FinishReason mirror
// choice 0, the only choice in single-choice requests.
type Result struct {
	State        State
	Text         string
	FinishReason string
	Choices      []ChoiceResult
	Usage        *api.Usage
	Model        string
	ID           string
	Frames       int
}

type choiceState struct {
	text         strings.Builder
	finishReason string
	finished     bool
}

// Accumulator is the streaming state machine. It is not safe for
// concurrent use; each streamed call owns one.
type Accumulator struct {
	state    State
	choices  []choiceState
	finished int
	usage    *api.Usage
	model    string
	id       string
	frames   int
	err      error
	logger   *zap.Logger
}

// NewAccumulator returns an Accumulator expecting n choices (n < 1 means 1).
func NewAccumulator(n int) *Accumulator {
	if n < 1 {
		n = 1
	}
	return &Accumulator{
		state:   StateAwaitingChunk,
		choices: make([]choiceState, n),
		logger:  zap.NewNop(),
	}
}

// State returns the current state.
func (a *Accumulator) State() State {
	return a.state
}

// Err returns the error that moved the accumulator to StateFailed.
func (a *Accumulator) Err() error {
	return a.err
}

// Apply processes one frame and returns the fragments it accepted, in the
// order they appear in the frame. Within a choice, content is appended
// before a finish reason in the same frame is honored.
//
// A frame is validated as a whole before anything is appended; an invalid
// frame moves the accumulator to StateFailed and leaves the text untouched.
// Frames arriving after a terminal state are ignored.
func (a *Accumulator) Apply(chunk *api.StreamChunk) ([]Fragment, error) {
	if a.state.Terminal() {
		debug.Log("stream", "ignoring frame after terminal state",
			zap.Stringer("state", a.state),
		)
		return nil, nil
	}

	if err := a.check(chunk); err != nil {
		return nil, a.Fail(err)
	}

	a.frames++
	if a.id == "" {
		a.id = chunk.ID
	}
	if a.model == "" {
		a.model = chunk.Model
	}
	if chunk.Usage != nil {
		u := *chunk.Usage
		a.usage = &u
	}

	var fragments []Fragment
	terminal := false
	for i := range chunk.Choices {
		c := &chunk.Choices[i]
		cs := &a.choices[c.Index]

		if cs.finished {
			if c.Delta.Text() != "" {
				a.logger.Warn("dropping content for finished choice",
					zap.Int("index", c.Index),
					zap.Int("frame", a.frames),
				)
			}
			continue
		}

		if text := c.Delta.Text(); text != "" {
			cs.text.WriteString(text)
			fragments = append(fragments, Fragment{Index: c.Index, Text: text})
			a.state = StateAccumulating
		}

		if c.Terminal() {
			cs.finished = true
			cs.finishReason = *c.FinishReason
			a.finished++
			terminal = true
		}
	}

	if len(fragments) == 0 && !terminal {
		debug.Log("stream", "keep-alive frame", zap.Int("frame", a.frames))
	}

	if a.finished == len(a.choices) {
		a.state = StateDone
	}
	return fragments, nil
}

// check validates the structure of a frame.
func (a *Accumulator) check(chunk *api.StreamChunk) error {
	if chunk == nil {
		return api.NewStreamProtocolError("nil frame", nil)
	}
	for _, c := range chunk.Choices {
		if c.Index < 0 || c.Index >= len(a.choices) {
			return api.NewStreamProtocolError(
				fmt.Sprintf("choice index %d out of range [0,%d)", c.Index, len(a.choices)), nil)
		}
	}
	return nil
}

// Finish records a clean end-of-stream from the transport. It is a no-op
// once a terminal state has been reached.
func (a *Accumulator) Finish() {
	if a.state.Terminal() {
		return
	}
	a.state = StateDone
}

// Fail moves the accumulator to StateFailed and returns err. Failing an
// already terminal accumulator keeps the first outcome.
func (a *Accumulator) Fail(err error) error {
	if a.state.Terminal() {
		return a.err
	}
	a.state = StateFailed
	a.err = err
	return err
}

// Text returns the text accumulated so far for choice index i.
func (a *Accumulator) Text(i int) string {
	if i < 0 || i >= len(a.choices) {
		return ""
	}
	return a.choices[i].text.String()
}

// Result returns a snapshot of the accumulated output.
func (a *Accumulator) Result() Result {
	r := Result{
		State:   a.state,
		Usage:   a.usage,
		Model:   a.model,
		ID:      a.id,
		Frames:  a.frames,
		Choices: make([]ChoiceResult, len(a.choices)),
	}
	for i := range a.choices {
		r.Choices[i] = ChoiceResult{
			Index:        i,
			Text:         a.choices[i].text.String(),
			FinishReason: a.choices[i].finishReason,
		}
	}
	r.Text = r.Choices[0].Text
	r.FinishReason = r.Choices[0].FinishReason
	return r
}
