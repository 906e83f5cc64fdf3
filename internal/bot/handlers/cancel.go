package handlers

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/calc-bot/internal/calculator"
)

// NewResetHandler resets the calculator, keeping memory and history, and
// sends a fresh keypad. It is accepted in every mode, including error.
func NewResetHandler(d Deps) Handler {
	log := d.logger()

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			log.Warn("reset handler invoked without sender context")
			return nil
		}

		userID := UserID(c)
		session, err := d.FSM.Apply(RequestContext(c), userID, ChatID(c), func(calc *calculator.Calculator) error {
			calc.Reset()
			return nil
		})
		if err != nil {
			log.Error("failed to reset calculator", slog.Int64("user_id", userID), slog.Any("error", err))
			return err
		}

		if err := c.Send(d.t("reset")); err != nil {
			log.Error("failed to notify user about reset", slog.Int64("user_id", userID), slog.Any("error", err))
			return err
		}

		return d.sendScreen(c, session)
	}
}
