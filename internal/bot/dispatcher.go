package bot

import (
	"errors"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/calc-bot/internal/bot/handlers"
	"github.com/Proton-105/calc-bot/internal/state"
)

// Dispatcher picks the handler for typed input from the mode of the user's
// calculator: digits mean different things in error mode than while idle.
type Dispatcher struct {
	fsm     state.StateMachine
	byState *registry[handlers.Handler]
	log     *slog.Logger
}

// NewDispatcher creates a Dispatcher with no state handlers.
func NewDispatcher(fsm state.StateMachine, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{fsm: fsm, byState: newRegistry[handlers.Handler](), log: log}
}

// RegisterStateHandler registers the handler serving input in state s.
func (d *Dispatcher) RegisterStateHandler(s state.State, h handlers.Handler) {
	d.byState.set(string(s), h)
}

// Resolve returns the handler for the sender's current state. Users without a
// session are idle. A nil handler means none is registered.
func (d *Dispatcher) Resolve(c telebot.Context) (handlers.Handler, error) {
	if c == nil || c.Sender() == nil {
		d.log.Warn("cannot dispatch without sender information")
		return nil, nil
	}

	current, err := d.currentState(c)
	if err != nil {
		return nil, err
	}

	handler, ok := d.byState.get(string(current))
	if !ok {
		d.log.Info("no handler registered for state", "state", current, "user_id", c.Sender().ID)
	}
	return handler, nil
}

func (d *Dispatcher) currentState(c telebot.Context) (state.State, error) {
	session, err := d.fsm.Load(handlers.RequestContext(c), c.Sender().ID)
	switch {
	case errors.Is(err, state.ErrStateNotFound):
		return state.StateIdle, nil
	case err != nil:
		return "", err
	default:
		return session.CurrentState(), nil
	}
}
