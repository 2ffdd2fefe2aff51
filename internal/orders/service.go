package orders

import (
	"context"
	"sync"
	"time"

	"github.com/ignite/orders-map/internal/cache"
	"github.com/ignite/orders-map/internal/monday"
	"github.com/ignite/orders-map/internal/pkg/distlock"
	"github.com/ignite/orders-map/internal/pkg/logger"
)

// Fetcher is the slice of the monday client the service needs.
type Fetcher interface {
	ListItems(ctx context.Context, boardID int64) ([]monday.Item, error)
}

// Service owns the fetch → normalize → snapshot pipeline. A mutex
// serializes fetches so a refresh triggered mid-fetch waits instead of
// starting a second paginated crawl, and the last good snapshot is
// kept in memory as a stale fallback when a refresh fails.
type Service struct {
	client   Fetcher
	boardID  int64
	colmap   ColumnMap
	warnings []string

	cache    *cache.SnapshotCache // nil disables caching
	cacheKey string
	lock     distlock.DistLock // nil disables cross-replica fetch serialization

	mu   sync.Mutex
	last *Snapshot
}

// peerWait / peerPoll bound how long a replica that lost the fetch
// lock waits for the winner's cache entry before crawling itself.
const (
	peerWait = 15 * time.Second
	peerPoll = 500 * time.Millisecond
)

// NewService wires the pipeline. cache may be nil (every call then
// fetches, still serialized by the in-flight guard).
func NewService(client Fetcher, boardID int64, colmap ColumnMap, warnings []string, sc *cache.SnapshotCache, cacheKey string) *Service {
	return &Service{
		client:   client,
		boardID:  boardID,
		colmap:   colmap,
		warnings: warnings,
		cache:    sc,
		cacheKey: cacheKey,
	}
}

// SetFetchLock installs a distributed lock so replicas sharing the
// snapshot cache do not crawl the board in parallel on a cache miss.
func (s *Service) SetFetchLock(l distlock.DistLock) { s.lock = l }

// Columns returns the resolved column map.
func (s *Service) Columns() ColumnMap { return s.colmap }

// Warnings returns the column-resolution warnings gathered at startup.
func (s *Service) Warnings() []string { return s.warnings }

// Snapshot returns the current table snapshot. Within the cache TTL
// the cached snapshot is served without touching the API; force
// bypasses the cache read (manual refresh) and overwrites the entry on
// success. When a fetch fails after a previous success, the last good
// snapshot is returned flagged Stale alongside the error so callers
// can show stale data with an indicator.
func (s *Service) Snapshot(ctx context.Context, force bool) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !force && s.cache != nil {
		var cached Snapshot
		ok, err := s.cache.Load(ctx, s.cacheKey, &cached)
		if err != nil {
			logger.Warn("snapshot cache read failed", "error", err.Error())
		}
		if ok {
			cacheHits.Inc()
			s.last = &cached
			return &cached, nil
		}
		cacheMisses.Inc()

		if s.lock != nil {
			acquired, lerr := s.lock.Acquire(ctx)
			switch {
			case lerr != nil:
				logger.Warn("fetch lock unavailable, crawling anyway", "error", lerr.Error())
			case acquired:
				defer func() {
					relCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if rerr := s.lock.Release(relCtx); rerr != nil {
						logger.Warn("fetch lock release failed", "error", rerr.Error())
					}
				}()
			default:
				// Another replica is crawling; wait for its entry.
				if snap := s.awaitPeerSnapshot(ctx); snap != nil {
					s.last = snap
					return snap, nil
				}
			}
		}
	}

	start := time.Now()
	items, err := s.client.ListItems(ctx, s.boardID)
	fetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		fetchTotal.WithLabelValues("error").Inc()
		if s.last != nil {
			stale := *s.last
			stale.Stale = true
			return &stale, err
		}
		return nil, err
	}
	fetchTotal.WithLabelValues("ok").Inc()

	snap := NewSnapshot(BuildTable(items, s.colmap))
	rowsFetched.Set(float64(snap.Total))
	logger.Info("board snapshot fetched",
		"snapshot_id", snap.ID,
		"board_id", s.boardID,
		"rows", snap.Total,
		"mappable", snap.Mappable)

	if s.cache != nil {
		if err := s.cache.Store(ctx, s.cacheKey, snap); err != nil {
			logger.Warn("snapshot cache write failed", "error", err.Error())
		}
	}

	s.last = snap
	return snap, nil
}

// awaitPeerSnapshot polls the cache while another replica holds the
// fetch lock. Returns nil on timeout or cancellation; the caller then
// crawls itself rather than failing the request.
func (s *Service) awaitPeerSnapshot(ctx context.Context) *Snapshot {
	deadline := time.Now().Add(peerWait)
	ticker := time.NewTicker(peerPoll)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		var cached Snapshot
		ok, err := s.cache.Load(ctx, s.cacheKey, &cached)
		if err != nil {
			logger.Warn("snapshot cache read failed", "error", err.Error())
			return nil
		}
		if ok {
			cacheHits.Inc()
			return &cached
		}
	}
	return nil
}
