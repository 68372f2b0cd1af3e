package transaction

// State represents the lifecycle state of a transaction.
type State string

const (
	StatePending           State = "pending"
	StateHandoverConfirmed State = "handover_confirmed"
	StateReturnConfirmed   State = "return_confirmed"
	StateCompleted         State = "completed"
	StateDisputed          State = "disputed"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// IsValid checks if the state is a known lifecycle state.
func (s State) IsValid() bool {
	switch s {
	case StatePending, StateHandoverConfirmed, StateReturnConfirmed, StateCompleted, StateDisputed:
		return true
	}
	return false
}

// IsTerminal returns true for absorbing states.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateDisputed
}

// transitions defines valid state transitions.
// Self edges are confirmer set extensions.
var transitions = map[State][]State{
	StatePending:           {StateHandoverConfirmed, StateDisputed},
	StateHandoverConfirmed: {StateHandoverConfirmed, StateReturnConfirmed, StateDisputed},
	StateReturnConfirmed:   {StateReturnConfirmed, StateCompleted, StateDisputed},
	StateCompleted:         {}, // Terminal state
	StateDisputed:          {}, // Terminal state
}

// CanTransitionTo checks if a transition from the current state to target is valid.
func (s State) CanTransitionTo(target State) bool {
	allowed, ok := transitions[s]
	if !ok {
		return false
	}
	for _, a := range allowed {
		if a == target {
			return true
		}
	}
	return false
}

// AllowedTransitions returns all allowed transitions from the current state.
func (s State) AllowedTransitions() []State {
	allowed, ok := transitions[s]
	if !ok {
		return []State{}
	}
	result := make([]State, len(allowed))
	copy(result, allowed)
	return result
}

// ResourceType is the kind of listing a transaction covers.
type ResourceType string

const (
	ResourceItem    ResourceType = "item"
	ResourceService ResourceType = "service"
)

// IsValid checks if the resource type is known.
func (t ResourceType) IsValid() bool {
	return t == ResourceItem || t == ResourceService
}
