package handlers

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/calc-bot/internal/bot/keyboard"
	"github.com/Proton-105/calc-bot/internal/calculator"
	"github.com/Proton-105/calc-bot/internal/state"
)

// NewHistoryHandler sends the first history page.
func NewHistoryHandler(d Deps) Handler {
	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		calc, err := d.load(c)
		if err != nil {
			return err
		}

		entries := calc.History()
		if len(entries) == 0 {
			return c.Send(d.t("history.empty"))
		}

		markup, err := d.Keyboard.HistoryPage(entries, 1)
		if err != nil {
			return err
		}

		return c.Send(historyText(d, entries, 1), markup)
	}
}

// NewHistoryPageHandler redraws the pressed message with the requested
// "hist:<page>" history page.
func NewHistoryPageHandler(d Deps) CallbackHandler {
	return func(c telebot.Context, data string) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		page, err := strconv.Atoi(data)
		if err != nil || page < 1 {
			page = 1
		}

		calc, err := d.load(c)
		if err != nil {
			return err
		}

		entries := calc.History()
		if len(entries) == 0 {
			return c.Respond(&telebot.CallbackResponse{Text: d.t("history.empty")})
		}

		markup, err := d.Keyboard.HistoryPage(entries, page)
		if err != nil {
			return err
		}

		if err := c.Edit(historyText(d, entries, page), markup); err != nil && !IsNotModified(err) {
			return err
		}
		return c.Respond()
	}
}

// NewRecallHandler loads the result of history entry "recall:<index>" into the
// current operand and shows the keypad again.
func NewRecallHandler(d Deps) CallbackHandler {
	log := d.logger()

	return func(c telebot.Context, data string) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		index, err := strconv.Atoi(data)
		if err != nil {
			log.Warn("malformed recall index", slog.String("data", data))
			return c.Respond(&telebot.CallbackResponse{Text: d.t("history.not_found")})
		}

		session, err := d.FSM.Apply(RequestContext(c), UserID(c), ChatID(c), func(calc *calculator.Calculator) error {
			return calc.RecallHistory(index)
		})
		if session == nil {
			return err
		}

		var notice string
		switch {
		case errors.Is(err, calculator.ErrHistoryIndex):
			notice = d.t("history.not_found")
		case errors.Is(err, calculator.ErrLocked):
			notice = d.t("error.locked")
		default:
			calc, restoreErr := d.restore(session)
			if restoreErr != nil {
				return restoreErr
			}
			notice = d.tf("history.recalled", map[string]any{"Value": calc.Display()})
		}

		return d.editScreen(c, session, nil, notice)
	}
}

// NewClearHistoryHandler empties the history.
func NewClearHistoryHandler(d Deps) Handler {
	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		_, err := d.FSM.Apply(RequestContext(c), UserID(c), ChatID(c), func(calc *calculator.Calculator) error {
			calc.ClearHistory()
			return nil
		})
		if err != nil {
			return err
		}

		return c.Send(d.t("history.cleared"))
	}
}

func (d Deps) load(c telebot.Context) (*calculator.Calculator, error) {
	session, err := d.FSM.Load(RequestContext(c), UserID(c))
	if errors.Is(err, state.ErrStateNotFound) {
		return d.restore(nil)
	}
	if err != nil {
		return nil, err
	}
	return d.restore(session)
}

func historyText(d Deps, entries []calculator.HistoryEntry, page int) string {
	var b strings.Builder
	b.WriteString(d.t("history.title"))

	start, end := keyboard.PageBounds(len(entries), page)
	for i := start; i < end; i++ {
		b.WriteString("\n")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(entries[i].String())
		if entries[i].Timestamp != "" {
			b.WriteString("  ")
			b.WriteString(entries[i].Timestamp)
		}
	}
	return b.String()
}
