package handlers

import (
	"errors"
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/calc-bot/internal/bot/keyboard"
	"github.com/Proton-105/calc-bot/internal/calculator"
	"github.com/Proton-105/calc-bot/internal/i18n"
	"github.com/Proton-105/calc-bot/internal/state"
	"github.com/Proton-105/calc-bot/pkg/metrics"
)

// Deps holds what the calculator handlers share.
type Deps struct {
	FSM        state.StateMachine
	Keyboard   *keyboard.Builder
	Translator i18n.Translator
	Log        *slog.Logger
	// CalculatorOptions are applied when a stored session is rendered.
	CalculatorOptions []calculator.Option
}

func (d Deps) logger() *slog.Logger {
	if d.Log == nil {
		return slog.Default()
	}
	return d.Log
}

func (d Deps) t(key string) string {
	if d.Translator == nil {
		return key
	}
	return d.Translator.T(key)
}

func (d Deps) tf(key string, data map[string]any) string {
	if d.Translator == nil {
		return key
	}
	return d.Translator.Tf(key, data)
}

// Screen renders the calculator display: the expression line when it differs
// from the display, the display, the memory indicator and, in error mode, a
// reset hint.
func Screen(calc *calculator.Calculator, t i18n.Translator) string {
	lines := make([]string, 0, 4)

	display := calc.Display()
	if expr := calc.Expression(); expr != "" && expr != display {
		lines = append(lines, expr)
	}
	lines = append(lines, display)

	if memory := calc.MemoryIndicator(); memory != "" {
		lines = append(lines, memory)
	}

	if calc.InError() {
		hint := "screen.error_hint"
		if t != nil {
			hint = t.T(hint)
		}
		lines = append(lines, hint)
	}

	return strings.Join(lines, "\n")
}

func (d Deps) restore(session *state.Session) (*calculator.Calculator, error) {
	if session == nil {
		return calculator.New(d.CalculatorOptions...), nil
	}
	return session.Restore(d.CalculatorOptions...)
}

// sendScreen sends a new keypad message showing the session.
func (d Deps) sendScreen(c telebot.Context, session *state.Session, extra ...string) error {
	calc, err := d.restore(session)
	if err != nil {
		return err
	}

	markup, err := d.Keyboard.Keypad()
	if err != nil {
		return err
	}

	return c.Send(joinLines(Screen(calc, d.Translator), extra...), markup)
}

// editScreen replaces the pressed keypad message with the session screen and
// answers the callback.
func (d Deps) editScreen(c telebot.Context, session *state.Session, markup *telebot.ReplyMarkup, notice string) error {
	calc, err := d.restore(session)
	if err != nil {
		return err
	}

	if markup == nil {
		if markup, err = d.Keyboard.Keypad(); err != nil {
			return err
		}
	}

	if err := c.Edit(Screen(calc, d.Translator), markup); err != nil && !IsNotModified(err) {
		return err
	}

	if notice == "" {
		return c.Respond()
	}
	return c.Respond(&telebot.CallbackResponse{Text: notice})
}

// IsNotModified reports whether Telegram rejected an edit that changes nothing.
func IsNotModified(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}

func joinLines(text string, extra ...string) string {
	for _, line := range extra {
		if line != "" {
			text += "\n\n" + line
		}
	}
	return text
}

// observeCalculation counts an evaluation of op and its domain error, if any.
func observeCalculation(op string, err error) {
	if errors.Is(err, calculator.ErrLocked) {
		return
	}

	metrics.RecordCalculation(op, err)
	if domainErr, ok := calculator.AsDomainError(err); ok {
		metrics.RecordDomainError(string(domainErr.Kind))
	}
}
