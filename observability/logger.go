package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// Logger is the interface for structured logging
type Logger interface {
	// Info logs an informational message
	Info(msg string, fields ...Field)

	// Error logs an error message
	Error(msg string, err error, fields ...Field)

	// Debug logs a debug message
	Debug(msg string, fields ...Field)

	// Warn logs a warning message
	Warn(msg string, fields ...Field)

	// With returns a logger that adds the given fields to every entry
	With(fields ...Field) Logger

	// WithContext returns a new logger with context
	WithContext(ctx context.Context) Logger
}

// LogLevel represents the logging level
type LogLevel string

const (
	// LogLevelDebug is the debug log level
	LogLevelDebug LogLevel = "debug"

	// LogLevelInfo is the info log level
	LogLevelInfo LogLevel = "info"

	// LogLevelWarn is the warning log level
	LogLevelWarn LogLevel = "warn"

	// LogLevelError is the error log level
	LogLevelError LogLevel = "error"
)

// LogFormat represents the logging format
type LogFormat string

const (
	// LogFormatJSON is the JSON log format
	LogFormatJSON LogFormat = "json"

	// LogFormatText is the text log format
	LogFormatText LogFormat = "text"
)

// LoggerConfig contains configuration for the logger
type LoggerConfig struct {
	// Level is the minimum log level to output
	Level LogLevel `json:"level" yaml:"level" validate:"required,oneof=debug info warn error"`

	// Format is the log format (json or text)
	Format LogFormat `json:"format" yaml:"format" validate:"required,oneof=json text"`

	// Component is added to every entry when set
	Component string `json:"component" yaml:"component"`
}

// DefaultLoggerConfig returns the default logger configuration
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:  LogLevelInfo,
		Format: LogFormatJSON,
	}
}

// slogLevel maps the level onto slog; unknown levels log at info
func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// slogLogger implements Logger on top of an immutable slog.Logger
type slogLogger struct {
	logger *slog.Logger
}

// NewLogger creates a logger writing JSON at info level to stderr
func NewLogger() Logger {
	return NewLoggerWithWriter(os.Stderr, DefaultLoggerConfig())
}

// NewLoggerWithWriter creates a logger writing to w
func NewLoggerWithWriter(w io.Writer, config LoggerConfig) Logger {
	return &slogLogger{logger: slog.New(newHandler(w, config))}
}

func newHandler(w io.Writer, config LoggerConfig) slog.Handler {
	opts := &slog.HandlerOptions{Level: config.Level.slogLevel()}

	var handler slog.Handler = slog.NewJSONHandler(w, opts)
	if config.Format == LogFormatText {
		handler = slog.NewTextHandler(w, opts)
	}
	if config.Component != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("component", config.Component)})
	}
	return handler
}

func attrs(fields []Field) []slog.Attr {
	out := make([]slog.Attr, len(fields))
	for i, field := range fields {
		out[i] = slog.Any(field.Key, field.Value)
	}
	return out
}

// Info logs an informational message
func (l *slogLogger) Info(msg string, fields ...Field) {
	l.logger.LogAttrs(context.Background(), slog.LevelInfo, msg, attrs(fields)...)
}

// Error logs an error message; a nil err is left out
func (l *slogLogger) Error(msg string, err error, fields ...Field) {
	if err != nil {
		fields = append(fields, NewField("error", err))
	}
	l.logger.LogAttrs(context.Background(), slog.LevelError, msg, attrs(fields)...)
}

// Debug logs a debug message
func (l *slogLogger) Debug(msg string, fields ...Field) {
	l.logger.LogAttrs(context.Background(), slog.LevelDebug, msg, attrs(fields)...)
}

// Warn logs a warning message
func (l *slogLogger) Warn(msg string, fields ...Field) {
	l.logger.LogAttrs(context.Background(), slog.LevelWarn, msg, attrs(fields)...)
}

// With returns a logger that adds the given fields to every entry
func (l *slogLogger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	return &slogLogger{logger: slog.New(l.logger.Handler().WithAttrs(attrs(fields)))}
}

// traceIDKey is the context key carrying a caller supplied trace ID
type traceIDKey struct{}

// ContextWithTraceID returns a context carrying the trace ID picked up by WithContext
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// WithContext returns a new logger with context
func (l *slogLogger) WithContext(ctx context.Context) Logger {
	if ctx == nil {
		return l
	}

	traceID, ok := ctx.Value(traceIDKey{}).(string)
	if !ok || traceID == "" {
		return l
	}

	return l.With(NewField("trace_id", traceID))
}

// NewField creates a new log field
func NewField(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}
