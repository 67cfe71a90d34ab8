package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &Redis{Client: client}, mr
}

func TestRedis_JSONRoundTripAndExpiry(t *testing.T) {
	r, mr := newTestRedis(t)
	ctx := context.Background()

	type summary struct {
		Total int `json:"total"`
	}
	require.NoError(t, r.SetJSON(ctx, "dashboard:all", summary{Total: 3}, time.Minute))

	var got summary
	require.NoError(t, r.GetJSON(ctx, "dashboard:all", &got))
	assert.Equal(t, 3, got.Total)

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, r.GetJSON(ctx, "dashboard:all", &got), ErrCacheMiss)
}

func TestRedis_DeleteByPrefix(t *testing.T) {
	r, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, r.SetJSON(ctx, "dashboard:A", 1, 0))
	require.NoError(t, r.SetJSON(ctx, "dashboard:B", 2, 0))
	require.NoError(t, r.SetJSON(ctx, "other", 3, 0))

	require.NoError(t, r.DeleteByPrefix(ctx, "dashboard:"))
	assert.False(t, mr.Exists("dashboard:A"))
	assert.False(t, mr.Exists("dashboard:B"))
	assert.True(t, mr.Exists("other"))
}

func TestRedis_NilClientIsMiss(t *testing.T) {
	var r *Redis
	var dest int
	assert.ErrorIs(t, r.GetJSON(context.Background(), "k", &dest), ErrCacheMiss)
	assert.NoError(t, r.SetJSON(context.Background(), "k", 1, time.Second))
	assert.Error(t, r.Ping(context.Background()))
}
