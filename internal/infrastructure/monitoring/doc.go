/*
Package monitoring provides Prometheus metrics for frame navigation.

# Overview

Frames, content caches and the HTTP API report into a single Metrics value.
Every recording method accepts a nil receiver, so components built without
metrics (tests, embedded use) need no special casing.

# Metrics

  - framenav_navigations_total{intent,outcome}
  - framenav_load_duration_seconds{scheme,outcome}
  - framenav_loads_in_flight
  - framenav_cache_hits_total, framenav_cache_misses_total,
    framenav_cache_entries, framenav_cache_clears_total
  - framenav_child_frames_pruned_total
  - framenav_http_requests_total, framenav_http_request_duration_seconds
  - framenav_ws_connections, framenav_ws_messages_total

# Usage

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)
	router.Use(monitoring.Middleware(metrics))

	timer := monitoring.NewTimer(metrics, "https")
	// ... load content ...
	timer.Stop(monitoring.OutcomeLoaded)

# Metrics Endpoint

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
