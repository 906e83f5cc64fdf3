package keyboard

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/calc-bot/internal/i18n"
)

// Reply keyboard label keys.
const (
	MenuCalculator   = "main_menu.calculator"
	MenuHistory      = "main_menu.history"
	MenuClearHistory = "main_menu.clear_history"
	MenuHelp         = "main_menu.help"
)

// MenuKeys lists the reply keyboard labels in display order.
var MenuKeys = []string{MenuCalculator, MenuHistory, MenuClearHistory, MenuHelp}

// MainMenu builds a localized reply keyboard for the bot main menu.
func MainMenu(t i18n.Translator) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{
		ResizeKeyboard:  true,
		OneTimeKeyboard: false,
	}

	lookup := func(key string) string {
		if t == nil {
			return key
		}
		return t.T(key)
	}

	markup.Reply(
		markup.Row(markup.Text(lookup(MenuCalculator)), markup.Text(lookup(MenuHistory))),
		markup.Row(markup.Text(lookup(MenuClearHistory)), markup.Text(lookup(MenuHelp))),
	)

	return markup
}
