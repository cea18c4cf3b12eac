package stoplight

import "log/slog"

// Logger is the minimal structured logging surface the library needs.
// *slog.Logger satisfies it directly, and any backend with leveled
// key-value logging can be adapted to it.
type Logger interface {
	// Debug logs a debug-level message with optional key-value pairs.
	Debug(msg string, args ...any)
	// Info logs an info-level message with optional key-value pairs.
	Info(msg string, args ...any)
	// Warn logs a warning-level message with optional key-value pairs.
	Warn(msg string, args ...any)
	// Error logs an error-level message with optional key-value pairs.
	Error(msg string, args ...any)
}

func defaultLogger() Logger {
	return slog.Default()
}
