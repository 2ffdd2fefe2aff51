package orders

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_fetch_total",
		Help: "Board fetch attempts by result (ok, error).",
	}, []string{"result"})

	fetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "orders_fetch_duration_seconds",
		Help:    "Wall time of a full paginated board fetch.",
		Buckets: prometheus.DefBuckets,
	})

	rowsFetched = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orders_rows",
		Help: "Row count of the most recent snapshot.",
	})

	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_snapshot_cache_hits_total",
		Help: "Snapshot cache hits.",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_snapshot_cache_misses_total",
		Help: "Snapshot cache misses.",
	})
)
