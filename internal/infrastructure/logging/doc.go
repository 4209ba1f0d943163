// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: sampled JSON output for machine parsing
//   - Development: colored console output at debug level
//
// Development mode comes from LOG_DEV, the -dev flag or ENV=development.
// Navigation components take a *zap.Logger, fall back to OrNop when given
// nil, and tag entries with the frame ID, source address and intent:
//
//	logger, err := logging.New(logging.ForEnvironment(cfg))
//	logger.Info("Navigating", zap.String("frame", id), zap.String("source", uri))
package logging
