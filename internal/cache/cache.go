// Package cache provides a redis-backed, TTL-bounded store for fetch
// snapshots. Entries are JSON so a restarted process can reuse a live
// snapshot from a previous one.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// SnapshotCache stores JSON payloads in redis with a fixed TTL.
type SnapshotCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a snapshot cache on the given redis client.
func New(rdb *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{rdb: rdb, ttl: ttl}
}

// Key derives the cache key for one (board, credential, field set)
// combination. The credential and field set are hashed: the token must
// never appear in redis, and the key must change when the operator
// reconfigures columns.
func Key(boardID int64, token string, fieldIDs []string) string {
	tok := sha256.Sum256([]byte(token))

	sorted := append([]string{}, fieldIDs...)
	sort.Strings(sorted)
	fields := sha256.Sum256([]byte(strings.Join(sorted, "\x00")))

	return fmt.Sprintf("orders:v1:%d:%s:%s",
		boardID,
		hex.EncodeToString(tok[:])[:12],
		hex.EncodeToString(fields[:])[:12])
}

// Store writes the value under key with the cache TTL.
func (c *SnapshotCache) Store(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("storing cache entry: %w", err)
	}
	return nil
}

// Load reads the value under key into dest. A missing or expired entry
// returns (false, nil); only transport/decoding problems are errors.
func (c *SnapshotCache) Load(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("loading cache entry: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decoding cache entry: %w", err)
	}
	return true, nil
}

// Invalidate drops the entry under key, if any.
func (c *SnapshotCache) Invalidate(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("invalidating cache entry: %w", err)
	}
	return nil
}
