// Package metrics exposes the Prometheus registry used by the explorer client.
// The metrics themselves are defined next to the code that records them
// (client, pagination, cache, ratelimit) and registered via promauto.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the explorer client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer reads back what Registry collected.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the collected metrics in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - scan_requests_total{module, action, status} (Counter): Requests by call and HTTP status
//   - scan_request_duration_seconds{module} (Histogram): Request duration by module
//   - scan_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network, api)
//
// Retry Metrics (pkg/client):
//   - scan_retries_total{error_class} (Counter): Retry attempts by error class
//   - scan_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - scan_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Pagination Metrics (pkg/pagination):
//   - scan_pages_fetched_total{full} (Counter): List pages, by whether they hit the size ceiling
//   - scan_dispatch_duration_seconds (Histogram): Partitioned fetch duration
//
// Cache Metrics (pkg/cache):
//   - scan_cache_hits_total{module} (Counter): Results served from Redis
//   - scan_cache_misses_total{module} (Counter): Lookups without a live entry
//   - scan_cache_errors_total{operation} (Counter): Cache operation errors
//
// Rate Limit Metrics (pkg/ratelimit):
//   - scan_rate_limit_waits_total (Counter): Requests that waited for the next window
//   - scan_rate_limit_fallbacks_total (Counter): Redis failures served by the local window
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate per API module
//   sum by (module) (rate(scan_cache_hits_total[5m])) /
//   (sum by (module) (rate(scan_cache_hits_total[5m])) + sum by (module) (rate(scan_cache_misses_total[5m])))
//
//   # Share of full pages (ranges that needed more than one request)
//   rate(scan_pages_fetched_total{full="true"}[5m]) / rate(scan_pages_fetched_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(scan_request_duration_seconds_bucket[5m]))
