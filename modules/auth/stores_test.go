package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionStore(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()
	now := time.Now()

	live := &Session{ID: "live", UserID: 1, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	stale := &Session{ID: "stale", UserID: 2, CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	require.NoError(t, store.Store(ctx, live))
	require.NoError(t, store.Store(ctx, stale))

	got, err := store.Get(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, 1, got.UserID)

	removed, err := store.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = store.Get(ctx, "stale")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, store.Delete(ctx, "live"))
	require.NoError(t, store.Delete(ctx, "live"))
	_, err = store.Get(ctx, "live")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisSessionStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisSessionStoreWithClient(client, "test:session:")
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	require.NoError(t, store.Ping(ctx))

	session := &Session{
		ID:        "abc",
		UserID:    7,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Minute),
		UserAgent: "test-agent",
	}
	require.NoError(t, store.Store(ctx, session))
	assert.True(t, mr.Exists("test:session:abc"))

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, 7, got.UserID)
	assert.Equal(t, "test-agent", got.UserAgent)

	mr.FastForward(2 * time.Minute)
	_, err = store.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	removed, err := store.Cleanup(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestRedisSessionStore_RejectsExpired(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := NewRedisSessionStore("redis://"+mr.Addr()+"/0", "p:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	err = store.Store(context.Background(), &Session{ID: "old", ExpiresAt: time.Now().Add(-time.Second)})
	assert.ErrorIs(t, err, ErrSessionExpired)

	require.NoError(t, store.Store(context.Background(), &Session{ID: "new", ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, store.Delete(context.Background(), "new"))
	assert.False(t, mr.Exists("p:new"))
}

func TestNewRedisSessionStore_BadURL(t *testing.T) {
	_, err := NewRedisSessionStore("not a url", "p:")
	assert.Error(t, err)
}
