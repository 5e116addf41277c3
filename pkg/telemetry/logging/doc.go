// Package logging configures the process-wide slog logger. Components
// derive their own loggers with slog.Default().With("component", ...) so
// that every line carries its origin.
package logging
