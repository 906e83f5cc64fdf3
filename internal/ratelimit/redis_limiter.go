package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// errNoRedis is returned when the limiter was built without a client.
var errNoRedis = errors.New("ratelimit: redis client is not configured")

// RedisLimiter keeps one sorted set per key, scoring every request by its
// arrival in Unix milliseconds. Rejected requests stay in the window, so a
// client that keeps sending is throttled until it pauses.
type RedisLimiter struct {
	client *redis.Client
	log    *slog.Logger
	now    func() time.Time
}

var _ Limiter = (*RedisLimiter)(nil)

// NewRedisLimiter returns a sliding window limiter over client.
func NewRedisLimiter(client *redis.Client, log *slog.Logger) *RedisLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &RedisLimiter{client: client, log: log, now: time.Now}
}

// Check records one request for key and reports whether it fits in limit
// requests per window.
func (l *RedisLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	if l.client == nil {
		return nil, errNoRedis
	}

	now := l.now()
	resetAt := now.Add(window)
	if limit <= 0 {
		return &Result{ResetAt: resetAt}, nil
	}

	setKey := keyPrefix + key
	stale := "(" + strconv.FormatInt(now.Add(-window).UnixMilli(), 10)

	var (
		card   *redis.IntCmd
		oldest *redis.ZSliceCmd
	)
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, setKey, "-inf", stale)
		pipe.ZAdd(ctx, setKey, redis.Z{Score: float64(now.UnixMilli()), Member: uuid.NewString()})
		card = pipe.ZCard(ctx, setKey)
		oldest = pipe.ZRangeWithScores(ctx, setKey, 0, 0)
		pipe.Expire(ctx, setKey, 2*window)
		return nil
	})
	if err != nil {
		l.log.Error("rate limit check failed", slog.String("key", key), slog.Any("error", err))
		return nil, err
	}

	count := int(card.Val())
	if first := oldest.Val(); len(first) > 0 {
		resetAt = time.UnixMilli(int64(first[0].Score)).Add(window)
	}

	return &Result{
		Allowed:   count <= limit,
		Remaining: max(limit-count, 0),
		ResetAt:   resetAt,
	}, nil
}
