// Package logger provides the structured logger used across the
// computed-attribute engine. It wraps charmbracelet/log behind a small
// interface so callers depend on a context, never a package-level global.
package logger

import (
	"context"
	"io"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

// LogLevel is the engine's own level type, kept independent of charmlog's so
// the public API never leaks the underlying logging library.
type LogLevel string

const (
	DebugLevel    LogLevel = "debug"
	InfoLevel     LogLevel = "info"
	WarnLevel     LogLevel = "warn"
	ErrorLevel    LogLevel = "error"
	DisabledLevel LogLevel = "disabled"
)

// ToCharmlogLevel converts to the underlying library's level, defaulting to
// InfoLevel for anything unrecognized.
func (l LogLevel) ToCharmlogLevel() charmlog.Level {
	switch l {
	case DebugLevel:
		return charmlog.DebugLevel
	case InfoLevel:
		return charmlog.InfoLevel
	case WarnLevel:
		return charmlog.WarnLevel
	case ErrorLevel:
		return charmlog.ErrorLevel
	case DisabledLevel:
		return charmlog.Level(1000)
	default:
		return charmlog.InfoLevel
	}
}

// Logger is the engine-wide logging interface. Every component accepts one
// through its constructor or pulls one from context; nothing logs through a
// package-level global.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
	With(keyvals ...any) Logger
}

type charmLogger struct {
	l *charmlog.Logger
}

func (c *charmLogger) Debug(msg string, keyvals ...any) { c.l.Debug(msg, keyvals...) }
func (c *charmLogger) Info(msg string, keyvals ...any)  { c.l.Info(msg, keyvals...) }
func (c *charmLogger) Warn(msg string, keyvals ...any)  { c.l.Warn(msg, keyvals...) }
func (c *charmLogger) Error(msg string, keyvals ...any) { c.l.Error(msg, keyvals...) }

func (c *charmLogger) With(keyvals ...any) Logger {
	return &charmLogger{l: c.l.With(keyvals...)}
}

// Config controls logger construction.
type Config struct {
	Level      LogLevel
	Output     io.Writer
	JSON       bool
	AddSource  bool
	TimeFormat string
}

// DefaultConfig is what the engine runs with outside of tests.
func DefaultConfig() *Config {
	return &Config{
		Level:      InfoLevel,
		Output:     os.Stdout,
		JSON:       false,
		AddSource:  false,
		TimeFormat: "15:04:05",
	}
}

// TestConfig silences logging entirely; used as the fallback when a context
// carries no logger inside `go test`.
func TestConfig() *Config {
	return &Config{
		Level:      DisabledLevel,
		Output:     io.Discard,
		JSON:       false,
		AddSource:  false,
		TimeFormat: "15:04:05",
	}
}

// NewLogger builds a Logger from cfg, falling back to DefaultConfig (or
// TestConfig, under `go test`) when cfg is nil.
func NewLogger(cfg *Config) Logger {
	if cfg == nil {
		if IsTestEnvironment() {
			cfg = TestConfig()
		} else {
			cfg = DefaultConfig()
		}
	}
	opts := charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      cfg.TimeFormat,
		ReportCaller:    cfg.AddSource,
	}
	if cfg.JSON {
		opts.Formatter = charmlog.JSONFormatter
	}
	l := charmlog.NewWithOptions(cfg.Output, opts)
	l.SetLevel(cfg.Level.ToCharmlogLevel())
	return &charmLogger{l: l}
}

// IsTestEnvironment reports whether the process is running under `go test`.
func IsTestEnvironment() bool {
	if strings.HasSuffix(os.Args[0], ".test") {
		return true
	}
	for _, arg := range os.Args {
		if strings.Contains(arg, "-test.") {
			return true
		}
	}
	return false
}

type loggerCtxKeyType struct{}

// LoggerCtxKey is the context key under which a Logger is stored.
var LoggerCtxKey = loggerCtxKeyType{}

var defaultLogger = NewLogger(nil)

// ContextWithLogger returns a copy of ctx carrying l.
func ContextWithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, LoggerCtxKey, l)
}

// FromContext extracts the Logger stored in ctx, falling back to a
// process-wide default (silenced under `go test`) when ctx carries none, a
// value of the wrong type, or a nil Logger.
func FromContext(ctx context.Context) Logger {
	if ctx == nil {
		return defaultLogger
	}
	l, ok := ctx.Value(LoggerCtxKey).(Logger)
	if !ok || l == nil {
		return defaultLogger
	}
	return l
}
