// Package health checks the dependencies the bot needs to serve updates.
package health

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gopkg.in/telebot.v3"
)

// StatusOK is reported for healthy components.
const StatusOK = "OK"

const defaultCheckTimeout = 2 * time.Second

// Checkable represents a component that can report its health status.
type Checkable interface {
	HealthCheck(ctx context.Context) error
}

// CheckFunc adapts a function to Checkable.
type CheckFunc func(ctx context.Context) error

// HealthCheck calls f.
func (f CheckFunc) HealthCheck(ctx context.Context) error {
	return f(ctx)
}

// Checker runs the registered component checks and reports their status.
type Checker struct {
	log     *slog.Logger
	timeout time.Duration

	mu     sync.RWMutex
	checks map[string]Checkable
}

// NewChecker returns an empty Checker. Each check gets timeout to complete;
// zero selects a default.
func NewChecker(log *slog.Logger, timeout time.Duration) *Checker {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultCheckTimeout
	}

	return &Checker{log: log, timeout: timeout, checks: map[string]Checkable{}}
}

// AddCheck registers check under name, replacing any previous one. Empty
// names and nil checks are ignored.
func (c *Checker) AddCheck(name string, check Checkable) {
	if name == "" || check == nil {
		return
	}

	c.mu.Lock()
	c.checks[name] = check
	c.mu.Unlock()
}

type checkResult struct {
	name   string
	status string
}

// Check runs every check concurrently. The result maps each component to
// StatusOK or its error text.
func (c *Checker) Check(ctx context.Context) map[string]string {
	c.mu.RLock()
	pending := make(chan checkResult, len(c.checks))
	for name, check := range c.checks {
		go func(name string, check Checkable) {
			pending <- checkResult{name: name, status: c.run(ctx, name, check)}
		}(name, check)
	}
	n := len(c.checks)
	c.mu.RUnlock()

	results := make(map[string]string, n)
	for range n {
		r := <-pending
		results[r.name] = r.status
	}

	return results
}

func (c *Checker) run(ctx context.Context, name string, check Checkable) string {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := check.HealthCheck(ctx); err != nil {
		c.log.Error("health check failed", slog.String("component", name), slog.Any("error", err))
		return err.Error()
	}

	return StatusOK
}

// DBChecker verifies connectivity to a PostgreSQL database.
type DBChecker struct {
	db *sql.DB
}

// NewDBChecker constructs a DBChecker.
func NewDBChecker(db *sql.DB) *DBChecker {
	return &DBChecker{db: db}
}

// HealthCheck pings the database to ensure it is reachable.
func (c *DBChecker) HealthCheck(ctx context.Context) error {
	if c == nil || c.db == nil {
		return sql.ErrConnDone
	}
	return c.db.PingContext(ctx)
}

// Pinger abstracts the subset of redis.Client used for health checks.
type Pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisChecker verifies connectivity to a Redis instance.
type RedisChecker struct {
	pinger Pinger
}

// NewRedisChecker constructs a RedisChecker.
func NewRedisChecker(pinger Pinger) *RedisChecker {
	return &RedisChecker{pinger: pinger}
}

// HealthCheck issues a PING command against Redis.
func (c *RedisChecker) HealthCheck(ctx context.Context) error {
	if c == nil || c.pinger == nil {
		return redis.ErrClosed
	}
	return c.pinger.Ping(ctx).Err()
}

// errBotOffline is reported until the bot has authenticated with getMe.
var errBotOffline = errors.New("telegram bot is not authorized")

// TelegramChecker reports whether the bot authenticated against the Telegram API.
type TelegramChecker struct {
	bot *telebot.Bot
}

// NewTelegramChecker constructs a TelegramChecker.
func NewTelegramChecker(bot *telebot.Bot) *TelegramChecker {
	return &TelegramChecker{bot: bot}
}

// HealthCheck fails while the bot has no identity.
func (c *TelegramChecker) HealthCheck(context.Context) error {
	if c == nil || c.bot == nil || c.bot.Me == nil {
		return errBotOffline
	}
	return nil
}
