package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_FixedWindow(t *testing.T) {
	rl := NewMemory(2, time.Minute)
	now := time.Now()
	rl.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := rl.Allow(ctx, "ip:1.2.3.4")
		require.NoError(t, err)
		require.True(t, d.Allowed, "attempt %d", i+1)
	}

	d, err := rl.Allow(ctx, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, time.Minute, d.RetryAfter)

	// other keys are independent
	d, err = rl.Allow(ctx, "ip:5.6.7.8")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	now = now.Add(time.Minute + time.Second)

	d, err = rl.Allow(ctx, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestRedis_FixedWindow(t *testing.T) {
	mr, client := newMiniRedis(t)
	rl := NewRedis(client, "login", 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := rl.Allow(ctx, "ip:1.2.3.4")
		require.NoError(t, err)
		require.True(t, d.Allowed, "attempt %d", i+1)
	}

	d, err := rl.Allow(ctx, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, d.RetryAfter, time.Minute)

	assert.True(t, mr.Exists("login:ip:1.2.3.4"))

	mr.FastForward(time.Minute + time.Second)

	d, err = rl.Allow(ctx, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRedis_UnavailableFailsOpen(t *testing.T) {
	mr, client := newMiniRedis(t)
	rl := NewRedis(client, "", 1, time.Minute)

	mr.Close()

	d, err := rl.Allow(context.Background(), "ip:1.2.3.4")
	require.Error(t, err)
	assert.True(t, d.Allowed)
}

func TestRedis_CounterWithoutExpiryIsRepaired(t *testing.T) {
	mr, client := newMiniRedis(t)
	rl := NewRedis(client, "login", 3, time.Minute)
	ctx := context.Background()

	// a counter whose EXPIRE never landed
	require.NoError(t, mr.Set("login:ip:1.2.3.4", "5"))
	require.Equal(t, time.Duration(0), mr.TTL("login:ip:1.2.3.4"))

	d, err := rl.Allow(ctx, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, time.Minute, d.RetryAfter)
	assert.Equal(t, time.Minute, mr.TTL("login:ip:1.2.3.4"))

	mr.FastForward(time.Minute + time.Second)

	d, err = rl.Allow(ctx, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}
