package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient 需要可用的Redis,通过LIBRARY_TEST_REDIS_ADDR指定(如localhost:6379)
func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("LIBRARY_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("未设置LIBRARY_TEST_REDIS_ADDR,跳过Redis测试")
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	require.NoError(t, client.Ping(context.Background()).Err())
	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	return client
}

func TestSessionStore_Blacklist(t *testing.T) {
	store := NewSessionStore(newTestClient(t))
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "jti-1", time.Minute))
	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	// 已过期的Token不写入
	require.NoError(t, store.Revoke(ctx, "jti-2", 0))
	revoked, err = store.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestSessionStore_Session(t *testing.T) {
	store := NewSessionStore(newTestClient(t))
	ctx := context.Background()

	require.NoError(t, store.SaveSession(ctx, "admin", map[string]any{"ip": "127.0.0.1"}, time.Minute))
	session, err := store.GetSession(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", session["ip"])

	require.NoError(t, store.DeleteSession(ctx, "admin"))
	_, err = store.GetSession(ctx, "admin")
	assert.Error(t, err)
}

func TestReportCache(t *testing.T) {
	cache := NewReportCache(newTestClient(t), time.Minute)
	ctx := context.Background()

	var got map[string]int
	hit, err := cache.Get(ctx, "inventory", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, "inventory", map[string]int{"total": 3}))
	hit, err = cache.Get(ctx, "inventory", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 3, got["total"])

	require.NoError(t, cache.Invalidate(ctx))
	hit, err = cache.Get(ctx, "inventory", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}
