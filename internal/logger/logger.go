// Package logger provides a context-aware structured logger backed by zerolog.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/trading-sdk/internal/apperror"
)

// Level is the minimum severity a Logger emits.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a config string to a Level. Unknown values map to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
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

// LoggerInterface is the logging contract used across the SDK.
// The c-suffixed variants take an extra caller skip for helpers that wrap the logger.
type LoggerInterface interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	Debugc(ctx context.Context, caller int, msg string, args ...any)
	Infoc(ctx context.Context, caller int, msg string, args ...any)
	Warnc(ctx context.Context, caller int, msg string, args ...any)
	Errorc(ctx context.Context, caller int, msg string, args ...any)
}

// TraceIDFn extracts a trace id from a context.
type TraceIDFn func(ctx context.Context) string

// Logger implements LoggerInterface on top of zerolog.
type Logger struct {
	zl      zerolog.Logger
	traceID TraceIDFn
}

var _ LoggerInterface = (*Logger)(nil)

// New creates a Logger writing JSON lines to w.
// When traceID is nil the OpenTelemetry span in the context is used.
func New(w io.Writer, level Level, serviceName string, traceID TraceIDFn) *Logger {
	if w == nil {
		w = os.Stderr
	}
	if traceID == nil {
		traceID = otelTraceID
	}

	zl := zerolog.New(w).
		Level(level.zerolog()).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()

	return &Logger{zl: zl, traceID: traceID}
}

// NewConsole creates a Logger with human-readable output, for development.
func NewConsole(w io.Writer, level Level, serviceName string) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}, level, serviceName, nil)
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return &Logger{zl: zerolog.Nop(), traceID: otelTraceID}
}

func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.write(ctx, zerolog.DebugLevel, 1, msg, args)
}

func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.write(ctx, zerolog.InfoLevel, 1, msg, args)
}

func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.write(ctx, zerolog.WarnLevel, 1, msg, args)
}

func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.write(ctx, zerolog.ErrorLevel, 1, msg, args)
}

func (l *Logger) Debugc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, zerolog.DebugLevel, caller+1, msg, args)
}

func (l *Logger) Infoc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, zerolog.InfoLevel, caller+1, msg, args)
}

func (l *Logger) Warnc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, zerolog.WarnLevel, caller+1, msg, args)
}

func (l *Logger) Errorc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, zerolog.ErrorLevel, caller+1, msg, args)
}

func (l *Logger) write(ctx context.Context, level zerolog.Level, skip int, msg string, args []any) {
	ev := l.zl.WithLevel(level)
	if ev == nil {
		return
	}

	if _, file, line, ok := runtime.Caller(skip + 1); ok {
		ev = ev.Str("caller", fmt.Sprintf("%s:%d", trimPath(file), line))
	}

	if ctx != nil {
		if id := l.traceID(ctx); id != "" {
			ev = ev.Str("trace_id", id)
		}
	}

	ev.Fields(pairs(args)).Msg(msg)
}

// pairs converts alternating key/value args into a field map.
// A dangling key is logged under "!BADKEY". An AppError value also gets
// its code under "<key>_code".
func pairs(args []any) map[string]any {
	fields := make(map[string]any, len(args)/2+1)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		if i+1 >= len(args) {
			fields["!BADKEY"] = key
			break
		}
		switch v := args[i+1].(type) {
		case error:
			fields[key] = v.Error()
			var appErr *apperror.AppError
			if errors.As(v, &appErr) {
				fields[key+"_code"] = string(appErr.Code)
			}
		case fmt.Stringer:
			fields[key] = v.String()
		default:
			fields[key] = v
		}
	}
	return fields
}

func otelTraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

func trimPath(file string) string {
	idx := strings.LastIndexByte(file, '/')
	if idx == -1 {
		return file
	}
	idx = strings.LastIndexByte(file[:idx], '/')
	if idx == -1 {
		return file
	}
	return file[idx+1:]
}
