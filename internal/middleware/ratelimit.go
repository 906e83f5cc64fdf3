package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"gopkg.in/telebot.v3"

	"github.com/Proton-105/calc-bot/internal/bot/handlers"
	"github.com/Proton-105/calc-bot/internal/i18n"
	"github.com/Proton-105/calc-bot/internal/ratelimit"
)

// RateLimitMiddleware enforces per-user and per-command rate limits for
// incoming Telegram updates.
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	rules   *ratelimit.Rules
	t       i18n.Translator
	log     *slog.Logger
	now     func() time.Time
}

// NewRateLimitMiddleware constructs a rate-limit middleware component.
func NewRateLimitMiddleware(limiter ratelimit.Limiter, rules *ratelimit.Rules, t i18n.Translator, log *slog.Logger) *RateLimitMiddleware {
	if log == nil {
		log = slog.Default()
	}

	return &RateLimitMiddleware{
		limiter: limiter,
		rules:   rules,
		t:       t,
		log:     log,
		now:     time.Now,
	}
}

// Handle returns a telebot middleware that enforces the configured limits.
// Limiter failures let the update through.
func (m *RateLimitMiddleware) Handle(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		if m.limiter == nil || !m.rules.Enabled() {
			return next(c)
		}

		sender := c.Sender()
		if sender == nil {
			return next(c)
		}

		userID := sender.ID
		if m.rules.IsWhitelisted(userID) {
			return next(c)
		}

		command := CommandLabel(c)
		scopes := []struct {
			name string
			key  string
			rule func() (int, time.Duration, error)
		}{
			{name: "global", key: "global", rule: m.rules.GetGlobalLimit},
			{name: "per_user", key: fmt.Sprintf("user:%d", userID), rule: m.rules.GetPerUserLimit},
			{name: "command", key: fmt.Sprintf("user:%d:cmd:%s", userID, command), rule: func() (int, time.Duration, error) {
				return m.rules.GetCommandLimit(command)
			}},
		}

		for _, scope := range scopes {
			limit, window, err := scope.rule()
			if errors.Is(err, ratelimit.ErrNoRule) {
				continue
			}
			if err != nil {
				m.log.Debug("rate limit scope skipped", slog.String("scope", scope.name), slog.Any("error", err))
				continue
			}

			if result, blocked := m.check(c, scope.key, limit, window); blocked {
				return m.reject(c, userID, result)
			}
		}

		return next(c)
	}
}

func (m *RateLimitMiddleware) check(c telebot.Context, key string, limit int, window time.Duration) (*ratelimit.Result, bool) {
	result, err := m.limiter.Check(handlers.RequestContext(c), key, limit, window)
	if err != nil && !errors.Is(err, ratelimit.ErrLimitExceeded) {
		m.log.Warn("rate limiter error", slog.String("key", key), slog.Any("error", err))
		return nil, false
	}

	if errors.Is(err, ratelimit.ErrLimitExceeded) || (result != nil && !result.Allowed) {
		return result, true
	}

	return result, false
}

func (m *RateLimitMiddleware) reject(c telebot.Context, userID int64, result *ratelimit.Result) error {
	seconds := int(math.Ceil(result.RetryAfter(m.now()).Seconds()))
	if seconds < 1 {
		seconds = 1
	}

	m.log.Warn("rate limit exceeded", slog.Int64("user_id", userID), slog.Int("retry_after", seconds))

	text := fmt.Sprintf("Demasiadas pulsaciones. Espera %d s", seconds)
	if m.t != nil {
		text = m.t.Tf("error.rate_limited", map[string]any{"Seconds": seconds})
	}

	if c.Callback() != nil {
		return c.Respond(&telebot.CallbackResponse{Text: text})
	}
	return c.Send(text)
}
