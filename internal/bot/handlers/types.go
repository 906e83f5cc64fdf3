package handlers

import (
	"context"

	telebot "gopkg.in/telebot.v3"
)

// Handler processes bot commands.
type Handler func(c telebot.Context) error

// CallbackHandler processes inline callback events. data is the callback
// payload with its namespace removed.
type CallbackHandler func(c telebot.Context, data string) error

// Middleware wraps handlers with additional behavior.
type Middleware func(Handler) Handler

const requestContextKey = "request_ctx"

// RequestContext returns the context attached to the update, or a background
// context when none was attached.
func RequestContext(c telebot.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if ctx, ok := c.Get(requestContextKey).(context.Context); ok && ctx != nil {
		return ctx
	}
	return context.Background()
}

// SetRequestContext attaches ctx to the update.
func SetRequestContext(c telebot.Context, ctx context.Context) {
	if c == nil || ctx == nil {
		return
	}
	c.Set(requestContextKey, ctx)
}

// UserID returns the sender id, or 0 when the update carries no sender.
func UserID(c telebot.Context) int64 {
	if c == nil || c.Sender() == nil {
		return 0
	}
	return c.Sender().ID
}

// ChatID returns the chat id, or 0 when the update carries no chat.
func ChatID(c telebot.Context) int64 {
	if c == nil || c.Chat() == nil {
		return 0
	}
	return c.Chat().ID
}
