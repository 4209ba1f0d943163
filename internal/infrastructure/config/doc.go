// Package config provides 12-factor configuration for the navigation server.
//
// Configuration is loaded from environment variables with defaults; CLI
// flags in cmd/server override them.
//
// Environment Variables:
//   - PORT, HOST
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - CORS_ORIGINS (comma separated)
//   - NAV_KEEP_ALIVE, NAV_HOME, NAV_CONTENT_ROOT
//   - LOADER_TIMEOUT, LOADER_RETRIES, LOADER_RPS, LOADER_USER_AGENT, LOADER_MAX_BYTES
package config
