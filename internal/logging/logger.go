package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Level represents the logging level.
type Level int

const (
	// LevelDebug is the most verbose level.
	LevelDebug Level = iota
	// LevelInfo is for informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ParseLevel parses a string into a Level. Unknown names map to LevelInfo.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Format represents the log output format.
type Format int

const (
	// FormatText outputs human-readable console lines.
	FormatText Format = iota
	// FormatJSON outputs one JSON object per line.
	FormatJSON
)

// ParseFormat parses a string into a Format. Unknown names map to FormatText.
func ParseFormat(s string) Format {
	if s == "json" {
		return FormatJSON
	}
	return FormatText
}

// Logger is the interface for structured logging.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs.
	Debug(msg string, keysAndValues ...interface{})
	// Info logs an info message with optional key-value pairs.
	Info(msg string, keysAndValues ...interface{})
	// Warn logs a warning message with optional key-value pairs.
	Warn(msg string, keysAndValues ...interface{})
	// Error logs an error message with optional key-value pairs.
	Error(msg string, keysAndValues ...interface{})
	// WithRequestID returns a new logger with the given request ID.
	WithRequestID(requestID string) Logger
	// WithFields returns a new logger with the given fields.
	WithFields(keysAndValues ...interface{}) Logger
}

// Config holds the logger configuration.
type Config struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	// Output is "stdout", "stderr" or a file path.
	Output string `toml:"output"`
}

// logger is the zerolog-backed Logger.
type logger struct {
	zl zerolog.Logger
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New creates a new Logger with the given configuration. When Output names a
// file, the returned closer closes it; for stdout and stderr it does nothing.
func New(cfg Config) (Logger, io.Closer, error) {
	switch cfg.Output {
	case "", "stdout":
		return NewWithWriter(cfg, os.Stdout), nopCloser{}, nil
	case "stderr":
		return NewWithWriter(cfg, os.Stderr), nopCloser{}, nil
	}
	f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log output: %w", err)
	}
	return NewWithWriter(cfg, f), f, nil
}

// NewWithWriter creates a Logger that writes to w.
func NewWithWriter(cfg Config, w io.Writer) Logger {
	if ParseFormat(cfg.Format) == FormatText {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	}
	zl := zerolog.New(w).Level(ParseLevel(cfg.Level).zerolog()).With().Timestamp().Logger()
	return &logger{zl: zl}
}

// NewDefault creates a new Logger with default settings.
func NewDefault() Logger {
	return NewWithWriter(Config{}, os.Stdout)
}

// NewNop creates a no-op logger that discards all output.
func NewNop() Logger {
	return &logger{zl: zerolog.Nop()}
}

func (l *logger) Debug(msg string, keysAndValues ...interface{}) {
	l.zl.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *logger) Info(msg string, keysAndValues ...interface{}) {
	l.zl.Info().Fields(keysAndValues).Msg(msg)
}

func (l *logger) Warn(msg string, keysAndValues ...interface{}) {
	l.zl.Warn().Fields(keysAndValues).Msg(msg)
}

func (l *logger) Error(msg string, keysAndValues ...interface{}) {
	l.zl.Error().Fields(keysAndValues).Msg(msg)
}

func (l *logger) WithRequestID(requestID string) Logger {
	return &logger{zl: l.zl.With().Str("request_id", requestID).Logger()}
}

func (l *logger) WithFields(keysAndValues ...interface{}) Logger {
	return &logger{zl: l.zl.With().Fields(keysAndValues).Logger()}
}
