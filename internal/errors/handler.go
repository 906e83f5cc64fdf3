package errors

import (
	"context"
	"errors"
	"log/slog"

	"github.com/getsentry/sentry-go"

	"github.com/Proton-105/calc-bot/pkg/logger"
)

// Recorder observes every handled error, e.g. to count it in metrics.
type Recorder func(code string, severity Severity)

type Handler struct {
	log           *slog.Logger
	sentryEnabled bool
	record        Recorder
}

// HandlerOption customizes a Handler.
type HandlerOption func(*Handler)

// WithRecorder attaches an error recorder.
func WithRecorder(r Recorder) HandlerOption {
	return func(h *Handler) {
		h.record = r
	}
}

func NewHandler(log *slog.Logger, sentryEnabled bool, opts ...HandlerOption) *Handler {
	h := &Handler{
		log:           log,
		sentryEnabled: sentryEnabled,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle logs err, reports severe errors to Sentry and returns the message to
// show the user together with whether the operation may be retried.
func (h *Handler) Handle(ctx context.Context, err error) (string, bool) {
	if err == nil {
		return "", false
	}

	if ctx == nil {
		ctx = context.Background()
	}

	log := h.log
	if log == nil {
		log = slog.Default()
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		attrs := []slog.Attr{
			slog.String("code", appErr.Code),
			slog.String("message", appErr.Message),
			slog.String("severity", string(appErr.Severity)),
			slog.Bool("retryable", appErr.Retryable),
		}
		if cause := appErr.Unwrap(); cause != nil {
			attrs = append(attrs, slog.String("cause", cause.Error()))
		}

		if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
			attrs = append(attrs, slog.String("correlation_id", correlationID))
		}

		level := slog.LevelError
		if appErr.Severity == SeverityLow {
			level = slog.LevelWarn
		}
		log.LogAttrs(ctx, level, "application error", attrs...)
		h.observe(appErr.Code, appErr.Severity)

		if h.sentryEnabled && (appErr.Severity == SeverityCritical || appErr.Severity == SeverityHigh) {
			h.sendToSentry(ctx, err)
		}

		userMessage := appErr.UserMessage
		if userMessage == "" {
			userMessage = DefaultUserMessage
		}

		return userMessage, appErr.Retryable
	}

	attrs := []slog.Attr{
		slog.String("message", err.Error()),
		slog.String("severity", string(SeverityHigh)),
		slog.Bool("retryable", false),
	}

	if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
		attrs = append(attrs, slog.String("correlation_id", correlationID))
	}

	log.LogAttrs(ctx, slog.LevelError, "unknown error", attrs...)
	h.observe("unknown", SeverityHigh)

	if h.sentryEnabled {
		h.sendToSentry(ctx, err)
	}

	return DefaultUserMessage, false
}

func (h *Handler) observe(code string, severity Severity) {
	if h.record != nil {
		h.record(code, severity)
	}
}

func (h *Handler) sendToSentry(ctx context.Context, err error) {
	if err == nil {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		var appErr *AppError
		if errors.As(err, &appErr) && appErr != nil {
			if appErr.Code != "" {
				scope.SetTag("code", appErr.Code)
			}

			if appErr.Severity != "" {
				scope.SetTag("severity", string(appErr.Severity))
			}
		}

		if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
			scope.SetTag("correlation_id", correlationID)
		}

		sentry.CaptureException(err)
	})
}
