package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Rows  []string `json:"rows"`
	Total int      `json:"total"`
}

func newTestCache(t *testing.T, ttl time.Duration) (*SnapshotCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(rdb, ttl), mr
}

func TestStoreAndLoad(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	in := entry{Rows: []string{"a", "b"}, Total: 2}
	require.NoError(t, c.Store(ctx, "k", in))

	var out entry
	ok, err := c.Load(ctx, "k", &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in, out)
}

func TestLoadMissingKey(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	var out entry
	ok, err := c.Load(context.Background(), "nope", &out)

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEntryExpires(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Store(ctx, "k", entry{Total: 1}))
	mr.FastForward(2 * time.Minute)

	var out entry
	ok, err := c.Load(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInvalidate(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Store(ctx, "k", entry{Total: 1}))
	require.NoError(t, c.Invalidate(ctx, "k"))

	var out entry
	ok, err := c.Load(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKeyDerivation(t *testing.T) {
	base := Key(7, "secret-token", []string{"a", "b"})

	// Field order must not matter
	assert.Equal(t, base, Key(7, "secret-token", []string{"b", "a"}))

	// Board, token and field set each change the key
	assert.NotEqual(t, base, Key(8, "secret-token", []string{"a", "b"}))
	assert.NotEqual(t, base, Key(7, "other-token", []string{"a", "b"}))
	assert.NotEqual(t, base, Key(7, "secret-token", []string{"a"}))

	// The raw token never appears in the key
	assert.NotContains(t, base, "secret-token")
	assert.Contains(t, base, "orders:v1:7:")
}
