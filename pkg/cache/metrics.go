package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scan_cache_hits_total",
		Help: "Explorer results served from Redis, by API module",
	}, []string{"module"})

	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scan_cache_misses_total",
		Help: "Explorer cache lookups without a usable entry, by API module",
	}, []string{"module"})

	cacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scan_cache_errors_total",
		Help: "Redis failures during cache operations",
	}, []string{"operation"}) // get, set, delete
)
