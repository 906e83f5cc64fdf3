package handlers

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/calc-bot/internal/bot/keyboard"
	"github.com/Proton-105/calc-bot/internal/calculator"
	"github.com/Proton-105/calc-bot/internal/state"
)

// ErrUnknownAction is returned for keypad callbacks that map to no action.
var ErrUnknownAction = errors.New("unknown keypad action")

// NewKeypadHandler applies a "calc:<action>" button press and redraws the
// keypad message.
func NewKeypadHandler(d Deps) CallbackHandler {
	log := d.logger()

	return func(c telebot.Context, action string) error {
		if c == nil || c.Sender() == nil {
			log.Warn("keypad handler invoked without sender")
			return nil
		}

		if action == keyboard.ActionShow {
			session, _, err := d.FSM.Start(RequestContext(c), UserID(c), ChatID(c))
			if err != nil {
				return err
			}
			return d.editScreen(c, session, nil, "")
		}

		mutation, err := KeypadMutation(action)
		if err != nil {
			log.Warn("unknown keypad action", "user_id", UserID(c), "action", action)
			return c.Respond(&telebot.CallbackResponse{Text: d.t("error.unknown_action")})
		}

		session, err := d.FSM.Apply(RequestContext(c), UserID(c), ChatID(c), mutation)
		if session == nil {
			return err
		}

		notice := ""
		if errors.Is(err, calculator.ErrLocked) {
			notice = d.t("error.locked")
		}

		return d.editScreen(c, session, nil, notice)
	}
}

// KeypadMutation maps a keypad action to a calculator mutation.
func KeypadMutation(action string) (state.Mutation, error) {
	switch {
	case action == keyboard.ActionClear:
		return func(calc *calculator.Calculator) error {
			calc.Reset()
			return nil
		}, nil
	case action == keyboard.ActionEquals:
		return func(calc *calculator.Calculator) error {
			return finalize(calc)
		}, nil
	case isDigit(action):
		return func(calc *calculator.Calculator) error {
			return calc.InputDigit(action)
		}, nil
	}

	if op, err := calculator.ParseOperation(action); err == nil {
		return func(calc *calculator.Calculator) error {
			return setOperator(calc, op)
		}, nil
	}

	if fn, err := calculator.ParseFunction(action); err == nil {
		return func(calc *calculator.Calculator) error {
			err := calc.ApplyUnary(fn)
			observeCalculation(string(fn), err)
			return err
		}, nil
	}

	if memory, err := calculator.ParseMemoryAction(action); err == nil {
		return func(calc *calculator.Calculator) error {
			return calc.MemoryOp(memory)
		}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
}

// evaluates reports whether finishing or chaining now computes the pending operation.
func evaluates(calc *calculator.Calculator) bool {
	return !calc.InError() && calc.Pending() != calculator.OpNone && !calc.AwaitingOperand()
}

func finalize(calc *calculator.Calculator) error {
	op, evaluated := calc.Pending(), evaluates(calc)
	err := calc.Finalize()
	if evaluated {
		observeCalculation(string(op), err)
	}
	return err
}

func setOperator(calc *calculator.Calculator, op calculator.Operation) error {
	pending, evaluated := calc.Pending(), evaluates(calc)
	err := calc.SetOperator(op)
	if evaluated {
		observeCalculation(string(pending), err)
	}
	return err
}

func isDigit(action string) bool {
	return len(action) == 1 && (action == "." || (action[0] >= '0' && action[0] <= '9'))
}

// SplitKeys breaks typed text into keys: the named keys Enter and Escape are
// whole words, everything else is one key per character.
func SplitKeys(text string) []string {
	keys := make([]string, 0, len(text))
	for _, field := range strings.Fields(text) {
		switch {
		case strings.EqualFold(field, calculator.KeyEnter):
			keys = append(keys, calculator.KeyEnter)
		case strings.EqualFold(field, calculator.KeyEscape):
			keys = append(keys, calculator.KeyEscape)
		default:
			for _, r := range field {
				if !unicode.IsSpace(r) {
					keys = append(keys, string(r))
				}
			}
		}
	}
	return keys
}

// KeyResult summarizes a typed key sequence.
type KeyResult struct {
	Unknown []string
	Locked  bool
}

// PressKeys returns a mutation feeding keys through the keyboard bindings and
// filling result. Unbound keys are skipped.
func PressKeys(keys []string, result *KeyResult) state.Mutation {
	return func(calc *calculator.Calculator) error {
		*result = KeyResult{}
		for _, key := range keys {
			bound, err := pressKey(calc, key)
			if !bound {
				result.Unknown = append(result.Unknown, key)
				continue
			}
			if errors.Is(err, calculator.ErrLocked) {
				result.Locked = true
			}
		}
		return nil
	}
}

func pressKey(calc *calculator.Calculator, key string) (bool, error) {
	if key == calculator.KeyEnter || key == calculator.KeyEquals {
		if calc.InError() {
			return true, calculator.ErrLocked
		}
		return true, finalize(calc)
	}

	if op, err := calculator.ParseOperation(key); err == nil && calculator.IsBoundKey(key) && !calc.InError() {
		return true, setOperator(calc, op)
	}

	return calc.HandleKey(key)
}

// NewKeyInputHandler feeds typed text into the calculator key by key and
// answers with a fresh keypad message.
func NewKeyInputHandler(d Deps) Handler {
	log := d.logger()

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			log.Warn("key input handler invoked without sender")
			return nil
		}

		keys := SplitKeys(c.Text())
		if len(keys) == 0 {
			return nil
		}

		var result KeyResult
		session, err := d.FSM.Apply(RequestContext(c), UserID(c), ChatID(c), PressKeys(keys, &result))
		if err != nil {
			return err
		}

		var notices []string
		if result.Locked {
			notices = append(notices, d.t("error.locked"))
		}
		if len(result.Unknown) > 0 {
			notices = append(notices, d.tf("error.unknown_key", map[string]any{"Key": result.Unknown[0]}))
		}

		return d.sendScreen(c, session, notices...)
	}
}

// NewErrorStateHandler answers typed text while the calculator is in error
// mode: text carrying a reset key is applied, anything else only gets the hint.
func NewErrorStateHandler(d Deps) Handler {
	input := NewKeyInputHandler(d)

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		for _, key := range SplitKeys(c.Text()) {
			if calculator.IsResetKey(key) {
				return input(c)
			}
		}

		session, err := d.FSM.Load(RequestContext(c), UserID(c))
		if err != nil {
			return err
		}

		return d.sendScreen(c, session)
	}
}
