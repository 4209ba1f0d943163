// Package main is the entry point for the framenav server.
//
// The server hosts a tree of navigation frames and exposes them over HTTP:
//
//	Client → REST API → Frame manager → Content loaders (file, http, about)
//	       ← /stream  ← navigation events
//
// Configuration:
//   - Environment variables (see internal/infrastructure/config)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Serve ./site with the built-in about page as home
//	./server -port 8000 -root ./site -home about:framenav
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
//	# ENV=development also selects development logging
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
