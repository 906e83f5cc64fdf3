package state

import "testing"

func TestIsTransitionAllowed(t *testing.T) {
	testCases := []struct {
		name     string
		from     State
		to       State
		expected bool
	}{
		{name: "idle to awaiting operand", from: StateIdle, to: StateAwaitingOperand, expected: true},
		{name: "idle to error", from: StateIdle, to: StateError, expected: true},
		{name: "awaiting operand to idle", from: StateAwaitingOperand, to: StateIdle, expected: true},
		{name: "awaiting operand to error", from: StateAwaitingOperand, to: StateError, expected: true},
		{name: "error to idle on reset", from: StateError, to: StateIdle, expected: true},
		{name: "error stays error", from: StateError, to: StateError, expected: true},
		{name: "error to awaiting operand invalid", from: StateError, to: StateAwaitingOperand, expected: false},
		{name: "unknown state to awaiting operand invalid", from: State("unknown"), to: StateAwaitingOperand, expected: false},
		{name: "any state to idle", from: State("whatever"), to: StateIdle, expected: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if actual := IsTransitionAllowed(tc.from, tc.to); actual != tc.expected {
				t.Errorf("IsTransitionAllowed(%s -> %s) = %t, expected %t", tc.from, tc.to, actual, tc.expected)
			}
		})
	}
}
