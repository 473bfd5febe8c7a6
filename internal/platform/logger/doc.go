// Package logger configures the application's structured logging (log/slog)
// and provides helpers for passing request-scoped loggers through contexts.
package logger
