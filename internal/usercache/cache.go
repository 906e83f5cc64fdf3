// Package usercache caches registered users in Redis so repeated updates from
// the same user skip the database lookup.
package usercache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/Proton-105/calc-bot/internal/domain"
)

// DefaultTTL is how long a cached profile stays valid.
const DefaultTTL = time.Hour

const keyPattern = "calc:user:%d"

// Cache stores user profiles as Redis hashes, one field per column.
type Cache struct {
	client *redis.Client
}

// NewCache constructs a user cache. A nil client disables caching.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) disabled() bool {
	return c == nil || c.client == nil
}

// Get fetches a cached profile. A miss returns nil without an error.
func (c *Cache) Get(ctx context.Context, telegramID int64) (*domain.User, error) {
	if c.disabled() {
		return nil, nil
	}

	fields, err := c.client.HGetAll(ctx, key(telegramID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cached user: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	user, err := decode(fields)
	if err != nil {
		return nil, fmt.Errorf("decode cached user: %w", err)
	}
	return user, nil
}

// Set stores the profile for ttl, DefaultTTL when ttl is not positive.
func (c *Cache) Set(ctx context.Context, telegramID int64, user *domain.User, ttl time.Duration) error {
	if c.disabled() || user == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	k := key(telegramID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, k)
		pipe.HSet(ctx, k, encode(user))
		pipe.Expire(ctx, k, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("set cached user: %w", err)
	}
	return nil
}

// Touch records activity on a cached profile and extends its lifetime.
// Uncached users are left alone.
func (c *Cache) Touch(ctx context.Context, telegramID int64, at time.Time) error {
	if c.disabled() {
		return nil
	}

	k := key(telegramID)
	exists, err := c.client.Exists(ctx, k).Result()
	if err != nil {
		return fmt.Errorf("touch cached user: %w", err)
	}
	if exists == 0 {
		return nil
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, "last_active_at", formatTime(at))
		pipe.Expire(ctx, k, DefaultTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("touch cached user: %w", err)
	}
	return nil
}

// Invalidate removes the cached profile if present.
func (c *Cache) Invalidate(ctx context.Context, telegramID int64) error {
	if c.disabled() {
		return nil
	}

	if err := c.client.Del(ctx, key(telegramID)).Err(); err != nil {
		return fmt.Errorf("delete cached user: %w", err)
	}
	return nil
}

func key(telegramID int64) string {
	return fmt.Sprintf(keyPattern, telegramID)
}

func encode(u *domain.User) map[string]any {
	return map[string]any{
		"id":             strconv.FormatInt(u.ID, 10),
		"telegram_id":    strconv.FormatInt(u.TelegramID, 10),
		"first_name":     u.FirstName,
		"last_name":      u.LastName,
		"username":       u.Username,
		"language_code":  u.LanguageCode,
		"last_active_at": formatTime(u.LastActiveAt),
		"created_at":     formatTime(u.CreatedAt),
	}
}

func decode(fields map[string]string) (*domain.User, error) {
	u := &domain.User{
		FirstName:    fields["first_name"],
		LastName:     fields["last_name"],
		Username:     fields["username"],
		LanguageCode: fields["language_code"],
	}

	var err error
	if u.ID, err = strconv.ParseInt(fields["id"], 10, 64); err != nil {
		return nil, fmt.Errorf("id: %w", err)
	}
	if u.TelegramID, err = strconv.ParseInt(fields["telegram_id"], 10, 64); err != nil {
		return nil, fmt.Errorf("telegram_id: %w", err)
	}
	if u.LastActiveAt, err = parseTime(fields["last_active_at"]); err != nil {
		return nil, fmt.Errorf("last_active_at: %w", err)
	}
	if u.CreatedAt, err = parseTime(fields["created_at"]); err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}

	return u, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
