package state

import (
	"time"

	"github.com/Proton-105/calc-bot/internal/calculator"
)

// State is the calculator input mode as seen by the session layer.
type State string

const (
	// StateIdle indicates that digits extend the current operand.
	StateIdle = State(calculator.ModeIdle)
	// StateAwaitingOperand indicates that the next digit starts a new operand.
	StateAwaitingOperand = State(calculator.ModeAwaitingOperand)
	// StateError indicates that the calculator refuses input until reset.
	StateError = State(calculator.ModeError)
)

// States lists every state in display order.
var States = []State{StateIdle, StateAwaitingOperand, StateError}

// Session is the calculator of one Telegram user, persisted between updates.
type Session struct {
	UserID     int64               `json:"user_id"`
	ChatID     int64               `json:"chat_id"`
	Calculator calculator.Snapshot `json:"calculator"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// NewSession returns a session holding a calculator in its initial state.
func NewSession(userID, chatID int64) *Session {
	return &Session{
		UserID:     userID,
		ChatID:     chatID,
		Calculator: calculator.New().Snapshot(),
	}
}

// CurrentState returns the state derived from the stored calculator mode.
func (s *Session) CurrentState() State {
	if s == nil || s.Calculator.Mode == "" {
		return StateIdle
	}
	return State(s.Calculator.Mode)
}

// Restore rebuilds the stored calculator.
func (s *Session) Restore(opts ...calculator.Option) (*calculator.Calculator, error) {
	return calculator.Restore(s.Calculator, opts...)
}
