// ABOUTME: Transport state machine for the playout engine
// ABOUTME: Gates scheduling and coordinates pause/resume transitions
package engine

// State represents the transport state
type State int

const (
	// StateStopped indicates no active session
	StateStopped State = iota
	// StateLoading indicates a session is filling the look-ahead window
	StateLoading
	// StatePlaying indicates scheduled units are audible
	StatePlaying
	// StatePaused indicates playback is suspended with the cursor frozen
	StatePaused
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Transport manages transport state transitions. Exactly one instance
// exists per engine; no scheduled unit may be created while stopped.
type Transport struct {
	current     State
	transitions map[State][]State
}

// NewTransport creates a transport in the stopped state
func NewTransport() *Transport {
	return &Transport{
		current: StateStopped,
		transitions: map[State][]State{
			StateStopped: {StateLoading},
			StateLoading: {StatePlaying, StateStopped},
			StatePlaying: {StatePaused, StateStopped},
			StatePaused:  {StatePlaying, StateStopped},
		},
	}
}

// Current returns the current state
func (t *Transport) Current() State {
	return t.current
}

// Transition attempts to move to the given state and reports whether
// the transition was legal
func (t *Transport) Transition(to State) bool {
	for _, s := range t.transitions[t.current] {
		if s == to {
			t.current = to
			return true
		}
	}
	return false
}

// CanSchedule reports whether decoded buffers may be scheduled in the
// current state
func (t *Transport) CanSchedule() bool {
	return t.current == StateLoading || t.current == StatePlaying
}
