package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestNewRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	client, err := NewRedis(addr, "", 0)
	require.NoError(t, err)
	client.Close()

	mr.Close()
	_, err = NewRedis(addr, "", 0)
	assert.Error(t, err)
}

func TestOnce_Claim(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()
	once := NewOnce(client, "cb:", time.Minute)

	ok, err := once.Claim(ctx, "txid:abc")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = once.Claim(ctx, "txid:abc")
	require.NoError(t, err)
	assert.False(t, ok, "second claim within the TTL is rejected")

	assert.True(t, mr.Exists("cb:txid:abc"))
	assert.Equal(t, time.Minute, mr.TTL("cb:txid:abc"))

	ok, err = once.Claim(ctx, "txid:def")
	require.NoError(t, err)
	assert.True(t, ok, "claims are per key")
}

func TestOnce_ClaimAfterExpiry(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()
	once := NewOnce(client, "cb:", time.Minute)

	ok, err := once.Claim(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = once.Claim(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOnce_Release(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()
	once := NewOnce(client, "cb:", time.Minute)

	ok, err := once.Claim(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, once.Release(ctx, "k"))
	ok, err = once.Claim(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok, "released key can be claimed again")
}

func TestOnce_ConcurrentClaims(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()
	once := NewOnce(client, "cb:", time.Minute)

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := once.Claim(ctx, "txid:same")
			if assert.NoError(t, err) && ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func TestOnce_ServerDown(t *testing.T) {
	mr, client := newTestRedis(t)
	once := NewOnce(client, "cb:", time.Minute)
	mr.Close()

	ok, err := once.Claim(context.Background(), "k")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestTextCache(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()
	c := NewTextCache(client, "tr:", time.Hour)

	_, found, err := c.Get(ctx, "en:welcome")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "en:welcome", "Welcome!"))
	val, found, err := c.Get(ctx, "en:welcome")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Welcome!", val)
	assert.Equal(t, time.Hour, mr.TTL("tr:en:welcome"))

	mr.FastForward(2 * time.Hour)
	_, found, err = c.Get(ctx, "en:welcome")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestTextCache_ServerDown(t *testing.T) {
	mr, client := newTestRedis(t)
	c := NewTextCache(client, "tr:", time.Hour)
	mr.Close()

	_, found, err := c.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.False(t, found)
}
