package stream

// State is the lifecycle position of a streamed completion.
type State int

const (
	// StateAwaitingChunk is the initial state: no fragment accepted yet.
	StateAwaitingChunk State = iota
	// StateAccumulating means at least one fragment has been appended.
	StateAccumulating
	// StateDone is terminal success: every expected choice reported a
	// finish reason, or the transport ended the stream cleanly.
	StateDone
	// StateFailed is terminal failure: a malformed frame, a transport error
	// or cancellation. Text accumulated so far is kept.
	StateFailed
)

var stateNames = [...]string{
	StateAwaitingChunk: "awaiting_chunk",
	StateAccumulating:  "accumulating",
	StateDone:          "done",
	StateFailed:        "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further frames may be applied.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
