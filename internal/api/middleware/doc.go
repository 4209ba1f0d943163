// Package middleware provides the gin middleware in front of the frame API.
//
//   - CORS: cross-origin rules for browser clients of the API and stream
//   - RateLimit: per-IP token buckets; idle clients are forgotten after
//     IdleTTL
//   - GlobalRateLimit: one bucket shared by every client
//   - Logger: zap request log
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
