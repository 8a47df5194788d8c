package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Transport metrics
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ksm_requests_total",
			Help: "Total number of server calls by endpoint path and outcome",
		},
		[]string{"path", "outcome"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ksm_request_duration_seconds",
			Help:    "Server call duration by endpoint path",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	KeyRotationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ksm_key_rotations_total",
			Help: "Total number of server public key rotation retries",
		},
	)

	// Cache metrics
	CacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ksm_cache_hits_total",
			Help: "Total number of responses served from the offline cache",
		},
	)

	// Record metrics
	RecordsDecodedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ksm_records_decoded_total",
			Help: "Total number of records decoded successfully",
		},
	)

	RecordsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ksm_records_dropped_total",
			Help: "Total number of records dropped because they failed to decode",
		},
	)
)

// Register registers all metrics with the default Prometheus registry.
// Call once at startup; calling twice panics like any double registration.
func Register() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		KeyRotationsTotal,
		CacheHitsTotal,
		RecordsDecodedTotal,
		RecordsDroppedTotal,
	)
}

// Handler returns an HTTP handler exposing the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
