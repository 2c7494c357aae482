package logging

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// Global logger instance.
var globalLogger *Logger

// InitGlobalLogger initializes the global logger instance. When buffer
// is non-nil its Hook is attached so lines at or above the buffer's own
// minimum level are also retained in memory for later inspection (e.g. by an HTTP diagnostics
// endpoint), mirroring how the teacher attaches a persistence hook at
// init time without requiring one.
func InitGlobalLogger(level LogLevel, format string, buffer *DiagnosticsBuffer) *Logger {
	var output = zerolog.ConsoleWriter{Out: os.Stdout}

	if format == "json" {
		globalLogger = NewLogger(level, os.Stdout)
	} else {
		globalLogger = NewLogger(level, &output)
	}

	if buffer != nil {
		globalLogger.logger = globalLogger.logger.Hook(buffer)
	}

	return globalLogger
}

// GetGlobalLogger returns the global logger instance, initializing a
// default one if none has been set up yet.
func GetGlobalLogger() *Logger {
	if globalLogger == nil {
		globalLogger = NewLogger(InfoLevel, os.Stdout)
	}
	return globalLogger
}

// Debug logs a debug message via the global logger.
func Debug(msg string) {
	GetGlobalLogger().logger.Debug().Msg(msg)
}

// Debugf logs a formatted debug message via the global logger.
func Debugf(format string, args ...interface{}) {
	GetGlobalLogger().logger.Debug().Msg(fmt.Sprintf(format, args...))
}

// Info logs an info message via the global logger.
func Info(msg string) {
	GetGlobalLogger().logger.Info().Msg(msg)
}

// Infof logs a formatted info message via the global logger.
func Infof(format string, args ...interface{}) {
	GetGlobalLogger().logger.Info().Msg(fmt.Sprintf(format, args...))
}

// Warn logs a warning message via the global logger.
func Warn(msg string) {
	GetGlobalLogger().logger.Warn().Msg(msg)
}

// Error logs an error message via the global logger.
func Error(msg string) {
	GetGlobalLogger().logger.Error().Msg(msg)
}

// Errorf logs a formatted error message via the global logger.
func Errorf(format string, args ...interface{}) {
	GetGlobalLogger().logger.Error().Msg(fmt.Sprintf(format, args...))
}

// Fatal logs a fatal message via the global logger and exits.
func Fatal(msg string) {
	GetGlobalLogger().logger.Fatal().Msg(msg)
}

// WithContextFields creates a logger carrying LogContext fields.
func WithContextFields(ctx LogContext) *zerolog.Logger {
	return GetGlobalLogger().WithContextFields(ctx)
}

// WithCatalogKey creates a logger with the catalog_key field set.
func WithCatalogKey(key string) *zerolog.Logger {
	logger := GetGlobalLogger().logger.With().Str("catalog_key", key).Logger()
	return &logger
}

// WithError creates a logger with the error field set.
func WithError(err error) *zerolog.Logger {
	logger := GetGlobalLogger().logger.With().Err(err).Logger()
	return &logger
}
