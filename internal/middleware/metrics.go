package middleware

import (
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/calc-bot/internal/bot/handlers"
	"github.com/Proton-105/calc-bot/internal/bot/keyboard"
	"github.com/Proton-105/calc-bot/pkg/metrics"
)

// Metrics measures execution time and status for bot handlers, reporting them to Prometheus.
func Metrics(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		start := time.Now()
		err := next(c)

		status := "ok"
		if err != nil {
			status = "error"
		}

		metrics.RecordCommand(CommandLabel(c), status, time.Since(start))

		return err
	}
}

// CommandLabel names the update for metrics and rate-limit rules: the command
// without the leading slash, the callback namespace, or "text" for key input.
// Free text never becomes a label.
func CommandLabel(c telebot.Context) string {
	if c == nil {
		return "unknown"
	}

	if cb := c.Callback(); cb != nil {
		unique, _, err := keyboard.DecodeCallback(cb.Data)
		if err != nil || unique == "" {
			return "callback"
		}
		return "callback_" + unique
	}

	text := strings.TrimSpace(c.Text())
	if strings.HasPrefix(text, "/") {
		return CommandName(text)
	}
	if text != "" {
		return "text"
	}

	return "unknown"
}

// CommandName extracts "start" from "/start@calc_bot arg".
func CommandName(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}

	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}

	return strings.ToLower(name)
}
