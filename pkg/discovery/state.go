package discovery

// State is the phase of a discovery run.
type State int

const (
	StateInitialized State = iota
	StateLengthResolved
	StateFetching
	StateDrained
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateLengthResolved:
		return "length_resolved"
	case StateFetching:
		return "fetching"
	case StateDrained:
		return "drained"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Progress is reported on every state transition. Index is the pair index
// being submitted while Fetching.
type Progress struct {
	State State
	Index uint64
	Total uint64
	Rows  int
}
