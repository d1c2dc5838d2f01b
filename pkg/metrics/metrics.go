// Package metrics provides the centralized Prometheus metrics registry for
// the BLS pull client. All metrics are defined in their respective packages
// (client, ratelimit, fetch) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - bls_requests_total{status} (Counter): Total requests by HTTP status
//   - bls_request_duration_seconds (Histogram): Request duration
//   - bls_errors_total{class} (Counter): Errors by class (client, server, network)
//
// Retry Metrics (pkg/client):
//   - bls_retries_total{error_class} (Counter): Retry attempts by error class
//   - bls_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - bls_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Pacing Metrics (pkg/ratelimit):
//   - bls_rate_limit_waits_total (Counter): Inter-batch pacing waits
//   - bls_rate_limit_wait_seconds_total (Counter): Total time spent on the pacing gate
//
// Fetch Metrics (pkg/fetch):
//   - bls_batches_total{result} (Counter): Batched series requests by result (ok, failed)
//   - bls_points_dropped_total{reason} (Counter): Dropped data points by reason
//     (non_monthly, no_data, bad_date, bad_value)
//   - bls_observations_total (Counter): Observations kept across all batches
//
// Example Prometheus Queries:
//
//   # Batch failure rate
//   rate(bls_batches_total{result="failed"}[5m]) / rate(bls_batches_total[5m])
//
//   # Drop rate by reason
//   rate(bls_points_dropped_total[5m])
//
//   # P95 request latency
//   histogram_quantile(0.95, rate(bls_request_duration_seconds_bucket[5m]))
