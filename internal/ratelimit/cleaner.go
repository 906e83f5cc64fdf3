package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cleanerScanCount = 100
	defaultMaxIdle   = 5 * time.Minute
)

// Cleaner removes stale rate-limit entries from Redis and the in-memory fallback.
type Cleaner struct {
	redisClient *redis.Client
	memory      *MemoryLimiter
	log         *slog.Logger
	interval    time.Duration
	maxIdle     time.Duration
	now         func() time.Time
}

// NewCleaner constructs a Cleaner instance. Either backend may be nil.
func NewCleaner(client *redis.Client, memory *MemoryLimiter, log *slog.Logger, interval time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}

	return &Cleaner{
		redisClient: client,
		memory:      memory,
		log:         log,
		interval:    interval,
		maxIdle:     defaultMaxIdle,
		now:         time.Now,
	}
}

// Run starts the cleaner loop until the context is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	if c.interval <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("rate limit cleaner stopped", slog.String("reason", ctx.Err().Error()))
			return
		case <-ticker.C:
			if _, err := c.Sweep(ctx); err != nil {
				c.log.Error("rate limit sweep failed", slog.Any("error", err))
			}
		}
	}
}

// Sweep trims entries older than the idle window and deletes empty keys. It
// returns the number of Redis keys and memory buckets removed.
func (c *Cleaner) Sweep(ctx context.Context) (int, error) {
	cleaned := 0
	if c.memory != nil {
		cleaned += c.memory.Cleanup(c.maxIdle)
	}
	if c.redisClient == nil {
		return cleaned, nil
	}

	cutoff := c.now().Add(-c.maxIdle).UnixMilli()
	var cursor uint64

	for {
		if ctx.Err() != nil {
			return cleaned, ctx.Err()
		}

		keys, nextCursor, err := c.redisClient.Scan(ctx, cursor, keyPrefix+"*", cleanerScanCount).Result()
		if err != nil {
			c.log.Error("rate limit scan failed", slog.Any("error", err))
			return cleaned, err
		}

		for _, key := range keys {
			pipe := c.redisClient.TxPipeline()
			pipe.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("(%d", cutoff))
			cardCmd := pipe.ZCard(ctx, key)
			if _, err := pipe.Exec(ctx); err != nil {
				c.log.Warn("cleanup pipeline failed", slog.String("key", key), slog.Any("error", err))
				continue
			}

			if cardCmd.Val() > 0 {
				continue
			}

			if err := c.redisClient.Del(ctx, key).Err(); err != nil {
				c.log.Warn("failed to delete empty rate limit key", slog.String("key", key), slog.Any("error", err))
				continue
			}
			cleaned++
		}

		if nextCursor == 0 {
			break
		}
		cursor = nextCursor
	}

	if cleaned > 0 {
		c.log.Info("rate limit keys cleaned", slog.Int("keys_removed", cleaned))
	}

	return cleaned, nil
}
