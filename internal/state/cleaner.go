package state

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner removes sessions that have not been touched within the TTL.
// Redis expiry normally handles this; the sweep covers keys whose expiry was
// lost, e.g. after a restore from a snapshot without TTLs.
type Cleaner struct {
	storage  Storage
	log      *slog.Logger
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
}

// NewCleaner constructs a Cleaner instance.
func NewCleaner(storage Storage, log *slog.Logger, ttl, interval time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	return &Cleaner{
		storage:  storage,
		log:      log,
		ttl:      ttl,
		interval: interval,
		now:      time.Now,
	}
}

// Run starts the cleanup loop until the context is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	if c == nil || c.storage == nil || c.interval <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("session cleaner stopped", slog.Any("reason", ctx.Err()))
			return
		case <-ticker.C:
			if _, err := c.Sweep(ctx); err != nil {
				c.log.Error("session sweep failed", slog.Any("error", err))
			}
		}
	}
}

// Sweep deletes stale sessions and returns how many were removed.
func (c *Cleaner) Sweep(ctx context.Context) (int, error) {
	sessions, err := c.storage.ListSessions(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := c.now().Add(-c.ttl)
	removed := 0
	for _, session := range sessions {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		if session == nil || session.UpdatedAt.After(cutoff) {
			continue
		}

		if err := c.storage.DeleteSession(ctx, session.UserID); err != nil {
			c.log.Error("session cleaner failed to delete session", slog.Int64("user_id", session.UserID), slog.Any("error", err))
			continue
		}
		removed++
		c.log.Debug("stale session removed", slog.Int64("user_id", session.UserID))
	}

	if removed > 0 {
		c.log.Info("session sweep finished", slog.Int("removed", removed))
	}

	return removed, nil
}
