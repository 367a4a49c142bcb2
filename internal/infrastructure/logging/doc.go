// Package logging provides structured logging for iotmock.
//
// It wraps Go's standard log/slog package so every component logs with the
// same default fields (service, version) and honours the configured level,
// format, and output destination.
//
// Usage:
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("starting server", "port", 8080)
package logging
