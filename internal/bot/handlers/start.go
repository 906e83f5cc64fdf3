package handlers

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/calc-bot/internal/bot/keyboard"
)

// NewStartHandler greets the user, creating the calculator session on first
// contact, and sends the main menu and the keypad.
func NewStartHandler(d Deps) Handler {
	log := d.logger()

	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil {
			log.Warn("start handler invoked without sender")
			return nil
		}

		session, created, err := d.FSM.Start(RequestContext(c), sender.ID, ChatID(c))
		if err != nil {
			log.Error("failed to start calculator session", slog.Int64("telegram_id", sender.ID), slog.Any("error", err))
			return err
		}

		greeting := "start.welcome_back"
		if created {
			greeting = "start.welcome"
			log.Info("calculator session created", slog.Int64("telegram_id", sender.ID))
		}

		if err := c.Send(d.tf(greeting, map[string]any{"Name": sender.FirstName}), keyboard.MainMenu(d.Translator)); err != nil {
			return err
		}

		return d.sendScreen(c, session)
	}
}

// NewHelpHandler sends the key reference.
func NewHelpHandler(d Deps) Handler {
	return func(c telebot.Context) error {
		return c.Send(d.t("help"), keyboard.MainMenu(d.Translator))
	}
}

// NewShowKeypadHandler sends a fresh keypad message for the current session.
func NewShowKeypadHandler(d Deps) Handler {
	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		session, _, err := d.FSM.Start(RequestContext(c), UserID(c), ChatID(c))
		if err != nil {
			return err
		}

		return d.sendScreen(c, session)
	}
}
