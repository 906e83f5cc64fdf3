package usercache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/calc-bot/internal/domain"
	"github.com/Proton-105/calc-bot/internal/testutil"
)

func TestCache(t *testing.T) {
	ctx := context.Background()
	client, mr := testutil.NewRedis(t)
	cache := NewCache(client)

	got, err := cache.Get(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, got)

	user := &domain.User{ID: 1, TelegramID: 7, FirstName: "Ada", LanguageCode: "es"}
	require.NoError(t, cache.Set(ctx, 7, user, 0))
	assert.Equal(t, DefaultTTL, mr.TTL("calc:user:7"))

	got, err = cache.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, user, got)

	require.NoError(t, cache.Invalidate(ctx, 7))
	got, err = cache.Get(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCache_Undecodable(t *testing.T) {
	client, mr := testutil.NewRedis(t)
	mr.HSet("calc:user:9", "id", "1", "telegram_id", "9", "created_at", "yesterday")

	_, err := NewCache(client).Get(context.Background(), 9)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode cached user")
}

func TestCache_Touch(t *testing.T) {
	ctx := context.Background()
	client, mr := testutil.NewRedis(t)
	cache := NewCache(client)
	at := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	require.NoError(t, cache.Touch(ctx, 7, at))
	assert.False(t, mr.Exists("calc:user:7"))

	require.NoError(t, cache.Set(ctx, 7, &domain.User{ID: 1, TelegramID: 7}, time.Minute))
	require.NoError(t, cache.Touch(ctx, 7, at))

	got, err := cache.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, at, got.LastActiveAt)
	assert.Equal(t, DefaultTTL, mr.TTL("calc:user:7"))
}

func TestCache_Nil(t *testing.T) {
	var cache *Cache

	got, err := cache.Get(context.Background(), 1)
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, cache.Set(context.Background(), 1, &domain.User{}, time.Minute))
	assert.NoError(t, cache.Invalidate(context.Background(), 1))
}
