package idempotency

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Record statuses.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
)

const (
	keyPrefix  = "idempotency:"
	lockSuffix = ":lock"
)

// Record is the stored outcome of an update.
type Record struct {
	Status      string
	Response    []byte
	CompletedAt time.Time
}

// Store persists records and the per-key processing lock.
type Store interface {
	Lock(ctx context.Context, key string, lockTTL time.Duration) (bool, error)
	Get(ctx context.Context, key string) (*Record, error)
	Set(ctx context.Context, key string, record *Record, ttl time.Duration) error
	ReleaseLock(ctx context.Context, key string) error
}

// RedisStore keeps records as hashes under idempotency:<key> and locks under
// idempotency:<key>:lock. Locks carry a per-process owner token so a
// replica never releases a lock it lost to expiry.
type RedisStore struct {
	client *redis.Client
	log    *slog.Logger
	owner  string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a store with a fresh owner token.
func NewRedisStore(client *redis.Client, log *slog.Logger) *RedisStore {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStore{client: client, log: log, owner: uuid.NewString()}
}

// Lock claims key for lockTTL. It reports false when another owner holds it.
func (s *RedisStore) Lock(ctx context.Context, key string, lockTTL time.Duration) (bool, error) {
	acquired, err := s.client.SetNX(ctx, lockKey(key), s.owner, lockTTL).Result()
	if err != nil {
		s.log.Error("failed to acquire idempotency lock", slog.String("key", key), slog.Any("error", err))
		return false, fmt.Errorf("lock %s: %w", key, err)
	}
	return acquired, nil
}

// Get returns the record for key, nil when none exists.
func (s *RedisStore) Get(ctx context.Context, key string) (*Record, error) {
	fields, err := s.client.HGetAll(ctx, recordKey(key)).Result()
	if err != nil {
		s.log.Error("failed to fetch idempotency record", slog.String("key", key), slog.Any("error", err))
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	record := &Record{Status: fields["status"], Response: []byte(fields["response"])}
	if ms, err := strconv.ParseInt(fields["completed_at"], 10, 64); err == nil {
		record.CompletedAt = time.UnixMilli(ms)
	}
	return record, nil
}

// Set stores record under key for ttl.
func (s *RedisStore) Set(ctx context.Context, key string, record *Record, ttl time.Duration) error {
	if record == nil {
		return nil
	}

	completedAt := record.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now()
	}

	k := recordKey(key)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k,
			"status", record.Status,
			"response", string(record.Response),
			"completed_at", strconv.FormatInt(completedAt.UnixMilli(), 10),
		)
		pipe.Expire(ctx, k, ttl)
		return nil
	})
	if err != nil {
		s.log.Error("failed to store idempotency record", slog.String("key", key), slog.Any("error", err))
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// ReleaseLock deletes the lock if this store still owns it.
func (s *RedisStore) ReleaseLock(ctx context.Context, key string) error {
	if err := releaseOwned.Run(ctx, s.client, []string{lockKey(key)}, s.owner).Err(); err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}

var releaseOwned = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func recordKey(key string) string {
	return keyPrefix + key
}

func lockKey(key string) string {
	return keyPrefix + key + lockSuffix
}
