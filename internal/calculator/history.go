package calculator

import (
	"github.com/Proton-105/calc-bot/internal/arith"
)

// MaxHistory is the number of history entries retained.
const MaxHistory = 10

// HistoryEntry records one completed calculation.
type HistoryEntry struct {
	Expression string  `json:"expression"`
	Result     float64 `json:"result"`
	Timestamp  string  `json:"timestamp"`
}

// String renders the entry as "{expression} = {formatted result}".
func (e HistoryEntry) String() string {
	return e.Expression + " = " + arith.FormatValue(e.Result)
}

// RecordHistory prepends an entry and evicts the oldest one beyond MaxHistory.
func (c *Calculator) RecordHistory(expression string, result float64) {
	entry := HistoryEntry{
		Expression: expression,
		Result:     result,
		Timestamp:  c.now().Format(c.timeLayout),
	}

	history := make([]HistoryEntry, 0, MaxHistory+1)
	history = append(history, entry)
	history = append(history, c.history...)
	if len(history) > MaxHistory {
		history = history[:MaxHistory]
	}

	c.history = history
}

// History returns a copy of the entries, most recent first.
func (c *Calculator) History() []HistoryEntry {
	out := make([]HistoryEntry, len(c.history))
	copy(out, c.history)
	return out
}

// HistoryLines renders every entry for display.
func (c *Calculator) HistoryLines() []string {
	lines := make([]string, 0, len(c.history))
	for _, entry := range c.history {
		lines = append(lines, entry.String())
	}
	return lines
}

// ClearHistory drops all entries.
func (c *Calculator) ClearHistory() {
	c.history = nil
}

// RecallHistory loads the result of the entry at index into the current operand.
func (c *Calculator) RecallHistory(index int) error {
	if c.mode == ModeError {
		return ErrLocked
	}
	if index < 0 || index >= len(c.history) {
		return ErrHistoryIndex
	}

	c.current = arith.FormatOperand(c.history[index].Result)
	c.setMode(ModeAwaitingOperand)
	return nil
}
