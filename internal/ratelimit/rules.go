package ratelimit

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Proton-105/calc-bot/pkg/config"
)

// ErrNoRule indicates that no limit is configured for the requested scope.
var ErrNoRule = errors.New("rate limit rule is not configured")

// Rules encapsulates configured rate limits and helper methods.
type Rules struct {
	config    config.RateLimitConfig
	whitelist map[int64]struct{}
}

// NewRules constructs rate limiting rules from configuration settings.
func NewRules(cfg config.RateLimitConfig) *Rules {
	whitelist := make(map[int64]struct{}, len(cfg.Whitelist))
	for _, id := range cfg.Whitelist {
		whitelist[id] = struct{}{}
	}

	return &Rules{config: cfg, whitelist: whitelist}
}

// Enabled reports whether rate limiting is switched on.
func (r *Rules) Enabled() bool {
	return r != nil && r.config.Enabled
}

// IsWhitelisted returns true if the userID bypasses rate limits.
func (r *Rules) IsWhitelisted(userID int64) bool {
	_, ok := r.whitelist[userID]
	return ok
}

// GetCommandLimit returns the limit and window for a specific command, e.g.
// "history" for /history. ErrNoRule is returned for unconfigured commands.
func (r *Rules) GetCommandLimit(command string) (int, time.Duration, error) {
	command = strings.TrimPrefix(strings.ToLower(command), "/")
	rule, ok := r.config.Commands[command]
	if !ok {
		return 0, 0, fmt.Errorf("%w: command %q", ErrNoRule, command)
	}
	return parseRule(rule)
}

// GetGlobalLimit returns the global rate limiting rule.
func (r *Rules) GetGlobalLimit() (int, time.Duration, error) {
	return parseRule(r.config.Global)
}

// GetPerUserLimit returns the per-user rate limiting rule.
func (r *Rules) GetPerUserLimit() (int, time.Duration, error) {
	return parseRule(r.config.PerUser)
}

func parseRule(rule config.RateLimitRule) (int, time.Duration, error) {
	if rule.Window == "" {
		return rule.Limit, 0, errors.New("window duration is not set")
	}
	window, err := time.ParseDuration(rule.Window)
	if err != nil {
		return 0, 0, err
	}
	if window <= 0 {
		return 0, 0, fmt.Errorf("window duration must be positive, got %s", rule.Window)
	}
	return rule.Limit, window, nil
}
