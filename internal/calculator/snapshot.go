package calculator

import (
	"fmt"
	"strconv"
)

// Snapshot is the serializable state of a Calculator.
type Snapshot struct {
	Current      string         `json:"current"`
	Previous     string         `json:"previous,omitempty"`
	Pending      Operation      `json:"pending,omitempty"`
	Memory       float64        `json:"memory"`
	History      []HistoryEntry `json:"history,omitempty"`
	Mode         Mode           `json:"mode"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

// Snapshot captures the calculator state.
func (c *Calculator) Snapshot() Snapshot {
	return Snapshot{
		Current:      c.current,
		Previous:     c.previous,
		Pending:      c.pending,
		Memory:       c.memory,
		History:      c.History(),
		Mode:         c.mode,
		ErrorMessage: c.errMsg,
	}
}

// Restore rebuilds a calculator from a snapshot. A zero Snapshot restores the
// initial state.
func Restore(s Snapshot, opts ...Option) (*Calculator, error) {
	c := New(opts...)

	if s.Mode == "" {
		s.Mode = ModeIdle
	}
	if !s.Mode.Valid() {
		return nil, fmt.Errorf("restore calculator: unknown mode %q", s.Mode)
	}
	if s.Pending != OpNone && !s.Pending.Valid() {
		return nil, fmt.Errorf("restore calculator: unknown operation %q", s.Pending)
	}
	if s.Current == "" {
		s.Current = defaultOperand
	}
	if _, err := strconv.ParseFloat(s.Current, 64); err != nil {
		return nil, fmt.Errorf("restore calculator: invalid operand %q", s.Current)
	}

	c.current = s.Current
	c.previous = s.Previous
	c.pending = s.Pending
	c.memory = s.Memory
	c.mode = s.Mode
	c.errMsg = s.ErrorMessage

	history := s.History
	if len(history) > MaxHistory {
		history = history[:MaxHistory]
	}
	c.history = append([]HistoryEntry(nil), history...)

	return c, nil
}
