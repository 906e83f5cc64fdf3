package state

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/calc-bot/internal/calculator"
)

func newTestStorage(t *testing.T, ttl time.Duration) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStorage(client, ttl, testLogger()), mr
}

func TestRedisStorage_SaveAndGet(t *testing.T) {
	storage, mr := newTestStorage(t, time.Hour)
	ctx := context.Background()

	session := NewSession(123, 456)
	session.Calculator = calculator.Snapshot{
		Current:  "2",
		Previous: "40",
		Pending:  calculator.OpAdd,
		Memory:   1.5,
		Mode:     calculator.ModeIdle,
		History:  []calculator.HistoryEntry{{Expression: "20 + 20", Result: 40, Timestamp: "09:30:00"}},
	}

	require.NoError(t, storage.SaveSession(ctx, session))
	assert.False(t, session.CreatedAt.IsZero())
	assert.Equal(t, time.Hour, mr.TTL("calc:session:123"))

	result, err := storage.GetSession(ctx, 123)
	require.NoError(t, err)
	assert.Equal(t, int64(456), result.ChatID)
	assert.Equal(t, session.Calculator, result.Calculator)
	assert.Equal(t, StateIdle, result.CurrentState())
}

func TestRedisStorage_SaveKeepsCreatedAt(t *testing.T) {
	storage, _ := newTestStorage(t, 0)
	ctx := context.Background()

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	storage.now = func() time.Time { return created }

	session := NewSession(1, 1)
	require.NoError(t, storage.SaveSession(ctx, session))

	later := created.Add(time.Minute)
	storage.now = func() time.Time { return later }
	require.NoError(t, storage.SaveSession(ctx, session))

	result, err := storage.GetSession(ctx, 1)
	require.NoError(t, err)
	assert.True(t, created.Equal(result.CreatedAt))
	assert.True(t, later.Equal(result.UpdatedAt))
	assert.Equal(t, DefaultSessionTTL, storage.TTL())
}

func TestRedisStorage_GetNotFound(t *testing.T) {
	storage, _ := newTestStorage(t, time.Hour)

	session, err := storage.GetSession(context.Background(), 999)
	assert.Nil(t, session)
	assert.ErrorIs(t, err, ErrStateNotFound)
}

func TestRedisStorage_GetUndecodable(t *testing.T) {
	storage, mr := newTestStorage(t, time.Hour)
	require.NoError(t, mr.Set("calc:session:5", "{not json"))

	_, err := storage.GetSession(context.Background(), 5)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrStateNotFound)
}

func TestRedisStorage_DeleteSession(t *testing.T) {
	storage, _ := newTestStorage(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, storage.SaveSession(ctx, NewSession(456, 1)))
	require.NoError(t, storage.DeleteSession(ctx, 456))

	session, err := storage.GetSession(ctx, 456)
	assert.Nil(t, session)
	assert.ErrorIs(t, err, ErrStateNotFound)
}

func TestRedisStorage_ListSessions(t *testing.T) {
	storage, mr := newTestStorage(t, time.Hour)
	ctx := context.Background()

	for _, id := range []int64{1, 2, 3} {
		require.NoError(t, storage.SaveSession(ctx, NewSession(id, id)))
	}
	require.NoError(t, mr.Set("calc:session:99", "garbage"))
	require.NoError(t, mr.Set("calc:lock:1", "token"))

	sessions, err := storage.ListSessions(ctx)
	require.NoError(t, err)

	ids := make([]int64, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.UserID)
	}
	assert.ElementsMatch(t, []int64{1, 2, 3}, ids)
}
