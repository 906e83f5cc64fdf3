package bot

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/calc-bot/internal/bot/handlers"
	errors "github.com/Proton-105/calc-bot/internal/errors"
	"github.com/Proton-105/calc-bot/internal/user"
	"github.com/Proton-105/calc-bot/pkg/logger"
)

const lastActiveTimeout = 5 * time.Second

// around builds a middleware from a function that receives the update and the
// wrapped handler. A nil handler stays nil.
func around(fn func(c telebot.Context, next handlers.Handler) error) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}
		return func(c telebot.Context) error {
			return fn(c, next)
		}
	}
}

// RequestContextMiddleware attaches a context carrying a fresh correlation id.
func RequestContextMiddleware(next handlers.Handler) handlers.Handler {
	return around(func(c telebot.Context, next handlers.Handler) error {
		if c != nil {
			handlers.SetRequestContext(c, logger.WithCorrelationID(context.Background(), uuid.NewString()))
		}
		return next(c)
	})(next)
}

// RecoveryMiddleware turns a handler panic into an internal error reported to
// Sentry and a generic reply to the user.
func RecoveryMiddleware(log *slog.Logger, errHandler *errors.Handler) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return around(func(c telebot.Context, next handlers.Handler) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			log.Error("panic recovered in handler", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
			report(c, errHandler, errors.NewInternalError(fmt.Errorf("panic recovered: %v", r)), log)
			err = nil
		}()

		return next(c)
	})
}

// ErrorHandlingMiddleware reports handler errors and answers the user with
// the message mapped from the error.
func ErrorHandlingMiddleware(errHandler *errors.Handler) handlers.Middleware {
	return around(func(c telebot.Context, next handlers.Handler) error {
		if err := next(c); err != nil {
			report(c, errHandler, err, nil)
		}
		return nil
	})
}

// report classifies err and tells the user about it.
func report(c telebot.Context, errHandler *errors.Handler, err error, log *slog.Logger) {
	msg := errors.DefaultUserMessage
	if errHandler != nil {
		if mapped, _ := errHandler.Handle(handlers.RequestContext(c), err); mapped != "" {
			msg = mapped
		}
	}

	if c == nil {
		return
	}
	if sendErr := notify(c, msg); sendErr != nil && log != nil {
		log.Error("failed to notify user about error", slog.Any("error", sendErr))
	}
}

// notify answers a callback with a toast or sends a message otherwise.
func notify(c telebot.Context, text string) error {
	if c.Callback() != nil {
		return c.Respond(&telebot.CallbackResponse{Text: text})
	}
	return c.Send(text)
}

// LoggingMiddleware logs every update with its action, duration and outcome.
func LoggingMiddleware(log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return around(func(c telebot.Context, next handlers.Handler) error {
		ctx := handlers.RequestContext(c)
		attrs := []any{
			slog.Int64("user_id", handlers.UserID(c)),
			slog.String("kind", updateKind(c)),
			slog.String("action", updateAction(c)),
			slog.String("correlation_id", logger.CorrelationIDFromContext(ctx)),
		}

		log.DebugContext(ctx, "handling update", attrs...)

		start := time.Now()
		err := next(c)

		attrs = append(attrs, slog.Duration("duration", time.Since(start)))
		if err != nil {
			log.WarnContext(ctx, "update failed", append(attrs, slog.Any("error", err))...)
			return err
		}
		log.InfoContext(ctx, "handled update", attrs...)
		return nil
	})
}

func updateKind(c telebot.Context) string {
	switch {
	case c == nil:
		return "unknown"
	case c.Callback() != nil:
		return "callback"
	default:
		return "message"
	}
}

func updateAction(c telebot.Context) string {
	if c == nil {
		return ""
	}
	if cb := c.Callback(); cb != nil {
		return cb.Data
	}
	return c.Text()
}

// AuthMiddleware registers the sender on first contact.
func AuthMiddleware(userService *user.Service, log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return around(func(c telebot.Context, next handlers.Handler) error {
		if userService == nil || c == nil || c.Sender() == nil {
			return next(c)
		}

		if _, err := userService.GetOrCreate(handlers.RequestContext(c), c.Sender()); err != nil {
			log.Error("failed to resolve user", slog.Int64("user_id", c.Sender().ID), slog.Any("error", err))
			return err
		}
		return next(c)
	})
}

// LastActiveMiddleware stamps user activity in the background.
func LastActiveMiddleware(userService *user.Service) handlers.Middleware {
	return around(func(c telebot.Context, next handlers.Handler) error {
		if userService == nil || c == nil || c.Sender() == nil {
			return next(c)
		}

		id := c.Sender().ID
		parent := context.WithoutCancel(handlers.RequestContext(c))
		go func() {
			ctx, cancel := context.WithTimeout(parent, lastActiveTimeout)
			defer cancel()
			_ = userService.UpdateLastActive(ctx, id)
		}()

		return next(c)
	})
}
