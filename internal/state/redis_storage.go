package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPattern  = "calc:session:%d"
	sessionScanPattern = "calc:session:*"
	scanBatchCount     = 100

	// DefaultSessionTTL is used when no positive TTL is configured.
	DefaultSessionTTL = 24 * time.Hour
)

// RedisStorage persists calculator sessions in Redis as JSON with a sliding TTL.
type RedisStorage struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
	log    *slog.Logger
}

var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage initializes a Redis-backed Storage implementation.
func NewRedisStorage(client *redis.Client, ttl time.Duration, log *slog.Logger) *RedisStorage {
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	return &RedisStorage{
		client: client,
		ttl:    ttl,
		now:    time.Now,
		log:    log,
	}
}

// TTL returns the expiry applied on every save.
func (s *RedisStorage) TTL() time.Duration {
	return s.ttl
}

// GetSession returns the stored session or ErrStateNotFound when absent.
func (s *RedisStorage) GetSession(ctx context.Context, userID int64) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrStateNotFound
		}

		s.log.Error("failed to get session from redis", "user_id", userID, "error", err)
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		s.log.Error("failed to decode session", "user_id", userID, "error", err)
		return nil, fmt.Errorf("decode session %d: %w", userID, err)
	}

	return &session, nil
}

// SaveSession stamps the session and stores it for the configured TTL.
func (s *RedisStorage) SaveSession(ctx context.Context, session *Session) error {
	if session == nil {
		return errors.New("session is nil")
	}

	now := s.now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	data, err := json.Marshal(session)
	if err != nil {
		s.log.Error("failed to encode session", "user_id", session.UserID, "error", err)
		return err
	}

	if err := s.client.Set(ctx, sessionKey(session.UserID), data, s.ttl).Err(); err != nil {
		s.log.Error("failed to save session in redis", "user_id", session.UserID, "error", err)
		return err
	}

	return nil
}

// DeleteSession removes the stored session for the given user.
func (s *RedisStorage) DeleteSession(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		s.log.Error("failed to delete session", "user_id", userID, "error", err)
		return err
	}

	return nil
}

// ListSessions retrieves every stored session by scanning Redis keys.
// Entries that fail to decode are skipped.
func (s *RedisStorage) ListSessions(ctx context.Context) ([]*Session, error) {
	var (
		cursor uint64
		result []*Session
	)

	for {
		keys, nextCursor, err := s.client.Scan(ctx, cursor, sessionScanPattern, scanBatchCount).Result()
		if err != nil {
			s.log.Error("failed to scan sessions", "error", err)
			return nil, err
		}

		for _, key := range keys {
			data, err := s.client.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}

				s.log.Error("failed to fetch session", "key", key, "error", err)
				return nil, err
			}

			var session Session
			if err := json.Unmarshal(data, &session); err != nil {
				s.log.Warn("skipping undecodable session", "key", key, "error", err)
				continue
			}

			result = append(result, &session)
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return result, nil
}

func sessionKey(userID int64) string {
	return fmt.Sprintf(sessionKeyPattern, userID)
}
