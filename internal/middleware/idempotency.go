package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/calc-bot/internal/bot/handlers"
	"github.com/Proton-105/calc-bot/internal/idempotency"
)

// DefaultIdempotencyTTL bounds how long a processed update is remembered.
const DefaultIdempotencyTTL = 24 * time.Hour

// Idempotency runs the wrapped handler at most once per Telegram update.
// Redeliveries of a processed update are skipped, and so is a redelivery
// whose first delivery is still running. Failed updates are not remembered.
func Idempotency(manager idempotency.Manager, ttl time.Duration, log *slog.Logger) handlers.Middleware {
	if manager == nil {
		return func(next handlers.Handler) handlers.Handler { return next }
	}
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			key := UpdateKey(c)
			if key == "" {
				return next(c)
			}

			result, err := manager.Execute(handlers.RequestContext(c), key, ttl, func(context.Context) (interface{}, error) {
				return nil, next(c)
			})
			switch {
			case errors.Is(err, idempotency.ErrRequestInProgress):
				log.Debug("update already in progress", slog.String("key", key))
				return nil
			case err != nil:
				return err
			case result != nil && result.FromCache:
				log.Debug("duplicate update skipped", slog.String("key", key))
			}
			return nil
		}
	}
}

// UpdateKey derives the deduplication key of an update: the update id, else
// the callback id, else the chat and message ids. It returns "" when the
// update carries none of them.
func UpdateKey(c telebot.Context) string {
	if c == nil {
		return ""
	}
	if id := c.Update().ID; id != 0 {
		return idempotency.UpdateKey(id)
	}

	var msg *telebot.Message
	if cb := c.Callback(); cb != nil {
		if cb.ID != "" {
			return idempotency.CallbackKey(cb.ID)
		}
		msg = cb.Message
	} else {
		msg = c.Message()
	}

	if msg == nil || msg.ID == 0 {
		return ""
	}
	var chatID int64
	if msg.Chat != nil {
		chatID = msg.Chat.ID
	}
	return idempotency.MessageKey(chatID, msg.ID)
}
