package state

// validTransitions contains the permitted transitions between calculator modes.
// Leaving StateError is only possible through a reset to StateIdle.
var validTransitions = map[State][]State{
	StateIdle: {
		StateAwaitingOperand,
		StateError,
	},
	StateAwaitingOperand: {
		StateIdle,
		StateError,
	},
}

// IsTransitionAllowed reports whether moving from one state to another is valid.
func IsTransitionAllowed(from, to State) bool {
	if from == to || to == StateIdle {
		return true
	}

	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}

	for _, state := range allowed {
		if state == to {
			return true
		}
	}

	return false
}
