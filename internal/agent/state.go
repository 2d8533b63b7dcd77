package agent

// State is a point in an AgentInstance's lifecycle (§4.2). Transitions
// only ever move forward; CanTransition is the single source of truth
// for which moves are legal, the same table-driven shape this
// codebase's unit-status machine uses.
type State string

const (
	StatePending     State = "pending"
	StateStarting    State = "starting"
	StateRunning     State = "running"
	StateTerminating State = "terminating"

	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateTimeout   State = "timeout"
	StateCancelled State = "cancelled"
)

// validTransitions enumerates every legal forward move.
var validTransitions = map[State][]State{
	StatePending:     {StateStarting, StateFailed},
	StateStarting:    {StateRunning, StateTerminating, StateFailed, StateCancelled},
	StateRunning:     {StateTerminating, StateSucceeded, StateFailed, StateTimeout, StateCancelled},
	StateTerminating: {StateSucceeded, StateFailed, StateTimeout, StateCancelled},
	StateSucceeded:   {},
	StateFailed:      {},
	StateTimeout:     {},
	StateCancelled:   {},
}

// CanTransition reports whether moving from -> to is a legal forward
// transition.
func CanTransition(from, to State) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s is one of the four terminal states.
func (s State) IsTerminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateTimeout, StateCancelled:
		return true
	default:
		return false
	}
}

// terminalOrder gives each agent terminal state a rank for the Job
// failure-composition rule in §4.4 (ranks 1 and 2, warnings-only and
// partial-failure, exist only at Job level and are not in this map):
// the Job's
// classification is the worst of its agents' classifications.
var terminalOrder = map[State]int{
	StateSucceeded: 0,
	StateFailed:    3,
	StateTimeout:   4,
	StateCancelled: 5,
}

// Severity returns the total-order rank used to pick the worst of a set
// of terminal states, resolving the "should severity propagate as a
// number" open question (§9) in the affirmative.
func (s State) Severity() int {
	return terminalOrder[s]
}
