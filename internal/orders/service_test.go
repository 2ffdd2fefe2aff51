package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ignite/orders-map/internal/cache"
	"github.com/ignite/orders-map/internal/monday"
	"github.com/ignite/orders-map/internal/pkg/distlock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	items []monday.Item
	err   error
	calls int
}

func (f *fakeFetcher) ListItems(ctx context.Context, boardID int64) ([]monday.Item, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

func testItems() []monday.Item {
	return []monday.Item{
		{ID: "1", Name: "A", ColumnValues: []monday.ColumnValue{{ID: "loc", Text: "40.0,-70.0"}}},
		{ID: "2", Name: "B"},
	}
}

func newCachedService(t *testing.T, f *fakeFetcher, ttl time.Duration) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sc := cache.New(rdb, ttl)
	key := cache.Key(7, "tok", []string{"loc"})
	return NewService(f, 7, ColumnMap{Location: "loc"}, nil, sc, key), mr
}

func TestSnapshotFetchesAndCounts(t *testing.T) {
	f := &fakeFetcher{items: testItems()}
	svc := NewService(f, 7, ColumnMap{Location: "loc"}, nil, nil, "")

	snap, err := svc.Snapshot(context.Background(), false)

	require.NoError(t, err)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, 2, snap.Total)
	assert.Equal(t, 1, snap.Mappable)
	assert.False(t, snap.Stale)
}

func TestSnapshotCacheHitSkipsFetch(t *testing.T) {
	f := &fakeFetcher{items: testItems()}
	svc, _ := newCachedService(t, f, time.Minute)

	first, err := svc.Snapshot(context.Background(), false)
	require.NoError(t, err)

	second, err := svc.Snapshot(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, f.calls)
	assert.Equal(t, first.ID, second.ID)
}

func TestSnapshotCacheExpiryRefetches(t *testing.T) {
	f := &fakeFetcher{items: testItems()}
	svc, mr := newCachedService(t, f, time.Minute)

	first, err := svc.Snapshot(context.Background(), false)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	second, err := svc.Snapshot(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 2, f.calls)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestSnapshotForceBypassesCache(t *testing.T) {
	f := &fakeFetcher{items: testItems()}
	svc, _ := newCachedService(t, f, time.Minute)

	first, err := svc.Snapshot(context.Background(), false)
	require.NoError(t, err)

	forced, err := svc.Snapshot(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 2, f.calls)
	assert.NotEqual(t, first.ID, forced.ID)

	// The forced snapshot replaced the cache entry
	after, err := svc.Snapshot(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, f.calls)
	assert.Equal(t, forced.ID, after.ID)
}

func TestSnapshotStaleFallbackOnFetchFailure(t *testing.T) {
	f := &fakeFetcher{items: testItems()}
	svc := NewService(f, 7, ColumnMap{Location: "loc"}, nil, nil, "")

	good, err := svc.Snapshot(context.Background(), false)
	require.NoError(t, err)

	f.err = errors.New("upstream down")
	stale, err := svc.Snapshot(context.Background(), false)

	require.Error(t, err)
	require.NotNil(t, stale)
	assert.True(t, stale.Stale)
	assert.Equal(t, good.ID, stale.ID)
	assert.Equal(t, good.Total, stale.Total)

	// The kept snapshot itself stays unflagged for later recoveries
	assert.False(t, good.Stale)
}

func TestSnapshotNoFallbackBeforeFirstSuccess(t *testing.T) {
	f := &fakeFetcher{err: errors.New("upstream down")}
	svc := NewService(f, 7, ColumnMap{}, nil, nil, "")

	snap, err := svc.Snapshot(context.Background(), false)

	assert.Error(t, err)
	assert.Nil(t, snap)
}

func TestSnapshotFetchLockReleasedAfterCrawl(t *testing.T) {
	f := &fakeFetcher{items: testItems()}
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	key := cache.Key(7, "tok", []string{"loc"})

	svc := NewService(f, 7, ColumnMap{Location: "loc"}, nil, cache.New(rdb, time.Minute), key)
	svc.SetFetchLock(distlock.NewRedisLock(rdb, key, time.Minute))

	_, err := svc.Snapshot(context.Background(), false)

	require.NoError(t, err)
	assert.Equal(t, 1, f.calls)
	assert.False(t, mr.Exists("lock:"+key))
}

func TestSnapshotWaitsForPeerCrawl(t *testing.T) {
	f := &fakeFetcher{items: testItems()}
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sc := cache.New(rdb, time.Minute)
	key := cache.Key(7, "tok", []string{"loc"})

	svc := NewService(f, 7, ColumnMap{Location: "loc"}, nil, sc, key)
	svc.SetFetchLock(distlock.NewRedisLock(rdb, key, time.Minute))

	// A peer replica holds the lock and lands its snapshot shortly after
	peer := distlock.NewRedisLock(rdb, key, time.Minute)
	ok, err := peer.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	peerSnap := NewSnapshot(BuildTable(testItems(), ColumnMap{Location: "loc"}))
	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = sc.Store(context.Background(), key, peerSnap)
	}()

	snap, err := svc.Snapshot(context.Background(), false)

	require.NoError(t, err)
	assert.Equal(t, 0, f.calls)
	assert.Equal(t, peerSnap.ID, snap.ID)
}

func TestSnapshotCacheSurvivesRestart(t *testing.T) {
	f := &fakeFetcher{items: testItems()}
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sc := cache.New(rdb, time.Minute)
	key := cache.Key(7, "tok", []string{"loc"})

	svc := NewService(f, 7, ColumnMap{Location: "loc"}, nil, sc, key)
	first, err := svc.Snapshot(context.Background(), false)
	require.NoError(t, err)

	// A fresh service (new process) with the same key reuses the entry
	svc2 := NewService(f, 7, ColumnMap{Location: "loc"}, nil, sc, key)
	second, err := svc2.Snapshot(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, f.calls)
	assert.Equal(t, first.ID, second.ID)
}
