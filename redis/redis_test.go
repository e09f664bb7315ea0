package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listing struct {
	Titles []string `json:"titles"`
}

func newCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCache(client, zerolog.Nop()), mr
}

func TestCacheGetSet(t *testing.T) {
	ctx := context.Background()
	cache, mr := newCache(t)

	var got listing
	found, err := cache.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)

	cache.Set(ctx, "k", listing{Titles: []string{"a", "b"}}, time.Minute)
	found, err = cache.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"a", "b"}, got.Titles)

	mr.FastForward(2 * time.Minute)
	found, err = cache.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCacheVersion(t *testing.T) {
	ctx := context.Background()
	cache, _ := newCache(t)

	assert.Equal(t, int64(0), cache.GetVersion(ctx, "v"))
	cache.IncrementVersion(ctx, "v")
	cache.IncrementVersion(ctx, "v")
	assert.Equal(t, int64(2), cache.GetVersion(ctx, "v"))
}

func TestDisabledCache(t *testing.T) {
	ctx := context.Background()
	var nilCache *Cache
	disabled := InitRedis(ctx, "", zerolog.Nop())

	for _, cache := range []*Cache{nilCache, disabled} {
		cache.Set(ctx, "k", listing{}, time.Minute)
		cache.IncrementVersion(ctx, "v")
		found, err := cache.Get(ctx, "k", &listing{})
		assert.NoError(t, err)
		assert.False(t, found)
		assert.Zero(t, cache.GetVersion(ctx, "v"))
		assert.NoError(t, cache.Close())
	}
}

func TestInitRedisConnects(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := InitRedis(context.Background(), mr.Addr(), zerolog.Nop())
	defer cache.Close()

	assert.True(t, cache.enabled())
}
