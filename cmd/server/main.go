package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/orders-map/internal/api"
	"github.com/ignite/orders-map/internal/cache"
	"github.com/ignite/orders-map/internal/config"
	"github.com/ignite/orders-map/internal/monday"
	"github.com/ignite/orders-map/internal/orders"
	"github.com/ignite/orders-map/internal/pkg/distlock"
	"github.com/ignite/orders-map/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the configuration file")
	staticDir := flag.String("static", "web/static", "directory of the map client assets")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		logger.Error("failed to load config", "path", *configPath, "error", err.Error())
		os.Exit(1)
	}

	if cfg.Monday.APIToken == "" || cfg.Monday.BoardID == 0 {
		logger.Warn("MONDAY_API_TOKEN / MONDAY_BOARD_ID not set; the map will stay empty until they are")
	}

	client := monday.NewClient(cfg.Monday)

	// Resolve column titles/IDs once at startup. A failure here is a
	// degraded start (no mappable rows), not a fatal one.
	colmap, warnings := resolveColumns(client, cfg)
	for _, w := range warnings {
		logger.Warn("column resolution", "warning", w)
	}

	var snapshotCache *cache.SnapshotCache
	var rdb *redis.Client
	cacheKey := ""
	if cfg.Cache.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr: cfg.Cache.RedisAddr,
			DB:   cfg.Cache.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Warn("redis unreachable, running without snapshot cache",
				"addr", cfg.Cache.RedisAddr, "error", err.Error())
		} else {
			snapshotCache = cache.New(rdb, cfg.Cache.TTL())
			cacheKey = cache.Key(cfg.Monday.BoardID, cfg.Monday.APIToken, colmap.FieldIDs())
			logger.Info("snapshot cache enabled",
				"addr", cfg.Cache.RedisAddr, "ttl", cfg.Cache.TTL().String())
		}
	}

	svc := orders.NewService(client, cfg.Monday.BoardID, colmap, warnings, snapshotCache, cacheKey)
	if snapshotCache != nil {
		// One crawl per cache miss across all replicas; the TTL bounds
		// how long a crashed holder can block the rest.
		svc.SetFetchLock(distlock.NewRedisLock(rdb, cacheKey, 2*cfg.Monday.Timeout()))
	}

	popups, err := orders.NewPopupBuilder(cfg.Map.PopupTemplate, cfg.Monday.BoardID, cfg.Monday.Subdomain)
	if err != nil {
		logger.Error("invalid popup template", "error", err.Error())
		os.Exit(1)
	}

	handlers := api.NewHandlers(svc, popups, cfg.Map.ClusterMarkers)
	server := api.NewServer(cfg.Server, handlers, *staticDir)

	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
	errCh := make(chan error, 1)
	go func() {
		logger.Info("orders-map server listening", "addr", addr, "board_id", cfg.Monday.BoardID)
		errCh <- server.ListenAndServe(addr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Error("server exited", "error", err.Error())
		os.Exit(1)
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown failed", "error", err.Error())
			os.Exit(1)
		}
	}
}

// resolveColumns fetches board metadata and resolves the configured
// column titles/IDs. On a metadata fetch failure it returns an empty
// map plus a warning so the server still starts.
func resolveColumns(client *monday.Client, cfg *config.Config) (orders.ColumnMap, []string) {
	if cfg.Monday.APIToken == "" || cfg.Monday.BoardID == 0 {
		return orders.ColumnMap{}, []string{"monday credentials missing; no columns resolved"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Monday.Timeout())
	defer cancel()

	cols, err := client.GetColumns(ctx, cfg.Monday.BoardID)
	if err != nil {
		return orders.ColumnMap{}, []string{fmt.Sprintf("fetching board columns failed: %v", err)}
	}

	return orders.ResolveColumns(cols, cfg.Columns)
}
