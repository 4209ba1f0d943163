// Package server assembles the framenav HTTP server.
//
// Components:
//   - Manager: frame tree with its dispatcher
//   - Content loader: file://, http(s):// and built-in about: pages
//   - REST API: frame operations under /frames
//   - WebSocket: navigation event log at /stream
//   - Prometheus: /metrics
//
// Middleware stack: recovery, tracing, request log, request metrics, CORS and an
// optional per-IP rate limit.
//
// Example Usage:
//
//	srv, err := server.NewServer(cfg, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = srv.Run(ctx)
package server
