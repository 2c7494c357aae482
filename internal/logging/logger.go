// Package logging wraps github.com/rs/zerolog with the field set this
// engine's collaborators actually emit: walk/format/clash context
// instead of HTTP/job fields.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
	FatalLevel LogLevel = "fatal"
)

// Logger holds the zerolog logger instance.
type Logger struct {
	logger zerolog.Logger
}

// LogContext holds contextual fields specific to dataset discovery:
// which format directory/file template and coordinate a log line
// pertains to, and which clash key (if any) prompted it.
type LogContext struct {
	CatalogKey string `json:"catalog_key,omitempty"`
	FormatDir  string `json:"format_dir,omitempty"`
	FormatFile string `json:"format_file,omitempty"`
	Coordinate string `json:"coordinate,omitempty"`
	ClashKey   string `json:"clash_key,omitempty"`
	Path       string `json:"path,omitempty"`
}

// NewLogger creates a new logger instance at the specified level.
func NewLogger(logLevel LogLevel, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}

	level, err := zerolog.ParseLevel(string(logLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	return &Logger{logger: logger}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string) {
	l.logger.Debug().Msg(msg)
}

// Info logs an info message.
func (l *Logger) Info(msg string) {
	l.logger.Info().Msg(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.logger.Warn().Msg(msg)
}

// Error logs an error message.
func (l *Logger) Error(msg string) {
	l.logger.Error().Msg(msg)
}

// Fatal logs a fatal message, then calls os.Exit(1).
func (l *Logger) Fatal(msg string) {
	l.logger.Fatal().Msg(msg)
}

// WithField adds a single field to the logger.
func (l *Logger) WithField(key string, value interface{}) *zerolog.Logger {
	logger := l.logger.With().Interface(key, value).Logger()
	return &logger
}

// WithContextFields adds LogContext fields to the logger, skipping any
// that are unset.
func (l *Logger) WithContextFields(ctx LogContext) *zerolog.Logger {
	logCtx := l.logger.With()

	if ctx.CatalogKey != "" {
		logCtx = logCtx.Str("catalog_key", ctx.CatalogKey)
	}
	if ctx.FormatDir != "" {
		logCtx = logCtx.Str("format_dir", ctx.FormatDir)
	}
	if ctx.FormatFile != "" {
		logCtx = logCtx.Str("format_file", ctx.FormatFile)
	}
	if ctx.Coordinate != "" {
		logCtx = logCtx.Str("coordinate", ctx.Coordinate)
	}
	if ctx.ClashKey != "" {
		logCtx = logCtx.Str("clash_key", ctx.ClashKey)
	}
	if ctx.Path != "" {
		logCtx = logCtx.Str("path", ctx.Path)
	}

	logger := logCtx.Logger()
	return &logger
}

// LogClashResolution logs the outcome of a single clash decision.
func (l *Logger) LogClashResolution(key, winnerPath, winnerValue, loserPath, loserValue string) {
	l.logger.Info().
		Str("clash_key", key).
		Str("winner_path", winnerPath).
		Str("winner_value", winnerValue).
		Str("loser_path", loserPath).
		Str("loser_value", loserValue).
		Msg("clash resolved")
}

// LogWalkSummary logs aggregate counters for a completed tree walk.
func (l *Logger) LogWalkSummary(root string, dirsVisited, filesMatched int) {
	l.logger.Info().
		Str("path", root).
		Int("dirs_visited", dirsVisited).
		Int("files_matched", filesMatched).
		Msg("walk completed")
}
