/*
Package metrics exposes Prometheus collectors for the KSM client.

The transport layer observes every server call (path, outcome, duration),
key-rotation retries, and offline cache hits; the record layer counts
decoded and dropped records. Applications that want the numbers call
metrics.Register() once at startup and mount metrics.Handler() wherever
they serve /metrics. Libraries embedding the SDK that never register the
collectors pay only the cost of a no-op counter increment.

	metrics.Register()
	http.Handle("/metrics", metrics.Handler())

Outcome label values on ksm_requests_total: "ok", "error", "cache".
*/
package metrics
