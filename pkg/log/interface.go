// Package log provides structured logging for HillMC sampling runs.
//
// This package defines a minimal, slog-compatible logging interface that
// allows for flexible implementation switching while providing
// sampler-specific structured logging. The interface integrates with Go's
// standard log/slog package and can be backed by zerolog or any other
// slog handler.
//
// Key features:
//   - slog-compatible interface
//   - sampler-specific structured attributes (chain, phase, step size, divergences)
//   - context-aware logging with field chaining
//   - test-friendly with configurable output destinations
//
// Example usage:
//
//	logger := log.GetLogger().With(
//	    log.ChainKey, 0,
//	    log.VariantKey, "screening",
//	)
//	logger.Info("Warmup finished",
//	    log.StepSizeKey, 0.21,
//	    log.DivergencesKey, 0,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// The interface is implementation-agnostic, enabling switching between
// logging backends while maintaining a consistent API. It supports method
// chaining through With, for contextual loggers with pre-populated fields.
type Logger interface {
	// Debug logs a debug-level message with optional structured fields.
	// Used for per-iteration diagnostics; usually disabled outside tests.
	//
	// Example:
	//   logger.Debug("Adaptation window closed",
	//       log.IterationKey, 150,
	//       log.StepSizeKey, 0.18,
	//   )
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional structured fields.
	// Used for chain lifecycle events: warmup start, sampling start,
	// chain completion.
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional structured fields.
	// Used for non-fatal sampling conditions such as divergent
	// transitions or a failed chain.
	Warn(msg string, fields ...any)

	// Error logs an error-level message with optional structured fields.
	// If an error value is provided as a field via ErrAttr, stack trace
	// information is extracted by the handler.
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	//
	// Example:
	//   chainLogger := logger.With(log.ChainKey, 2)
	//   chainLogger.Info("Warmup started") // includes chain=2
	With(fields ...any) Logger

	// Enabled reports whether the logger emits log records at the given
	// level. Use it to avoid building expensive per-iteration attributes
	// that would be discarded.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4 // Detailed diagnostic information
	LevelInfo  Level = 0  // General operational information
	LevelWarn  Level = 4  // Warning conditions
	LevelError Level = 8  // Error conditions
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider defines an interface for creating and configuring
// loggers, allowing dependency injection and testing with different
// implementations.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger with a specific component identifier.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum log level for loggers created by this provider.
	SetLevel(level Level)
}
