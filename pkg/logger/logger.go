// Package logger provides a small context-aware logging interface backed by
// zap.
package logger

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger defines the logging interface.
type Logger interface {
	Info(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	Debug(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Fatal(ctx context.Context, msg string, fields ...Field)

	Named(name string) Logger
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value interface{}
}

// Field constructors.
func String(key, val string) Field          { return Field{Key: key, Value: val} }
func Int(key string, val int) Field         { return Field{Key: key, Value: val} }
func Float64(key string, val float64) Field { return Field{Key: key, Value: val} }
func Bool(key string, val bool) Field       { return Field{Key: key, Value: val} }
func Any(key string, val interface{}) Field { return Field{Key: key, Value: val} }
func Error(err error) Field                 { return Field{Key: "error", Value: err} }

type requestIDKey struct{}

// WithRequestID returns a context whose log lines carry id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id stored by WithRequestID, if any.
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// zapLogger implements Logger on top of a zap.Logger.
type zapLogger struct {
	z *zap.Logger
}

// New wraps an existing zap logger.
func New(z *zap.Logger) Logger {
	if z == nil {
		z = zap.NewNop()
	}
	return &zapLogger{z: z}
}

// NewNop returns a logger that discards everything.
func NewNop() Logger {
	return &zapLogger{z: zap.NewNop()}
}

func (l *zapLogger) Named(name string) Logger {
	return &zapLogger{z: l.z.Named(name)}
}

func (l *zapLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.z.Info(msg, convertFields(ctx, fields)...)
}

func (l *zapLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.z.Error(msg, convertFields(ctx, fields)...)
}

func (l *zapLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.z.Debug(msg, convertFields(ctx, fields)...)
}

func (l *zapLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.z.Warn(msg, convertFields(ctx, fields)...)
}

func (l *zapLogger) Fatal(ctx context.Context, msg string, fields ...Field) {
	l.z.Fatal(msg, convertFields(ctx, fields)...)
}

func convertFields(ctx context.Context, fields []Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields)+1)
	for _, f := range fields {
		if err, ok := f.Value.(error); ok && f.Key == "error" {
			out = append(out, zap.Error(err))
			continue
		}
		out = append(out, zap.Any(f.Key, f.Value))
	}
	if id := RequestID(ctx); id != "" {
		out = append(out, zap.String("request_id", id))
	}
	return out
}

var global Logger //nolint:gochecknoglobals // process-wide logger

var base *zap.Logger //nolint:gochecknoglobals // kept for Sync

var level = zap.NewAtomicLevelAt(zapcore.InfoLevel) //nolint:gochecknoglobals // runtime-adjustable level

// Init initializes the global logger with JSON output, ISO8601 timestamps
// and caller information.
func Init() error {
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	base = z
	global = &zapLogger{z: z}
	return nil
}

// Get returns the global logger.
func Get() Logger {
	if global == nil {
		panic("logger not initialized. Call logger.Init() first")
	}
	return global
}

// Named creates a named logger.
func Named(name string) Logger {
	return Get().Named(name)
}

// Sync flushes buffered log entries.
func Sync() error {
	if base == nil {
		return nil
	}
	return base.Sync()
}

// SetLevelString parses and sets the logging level.
// Accepts: debug, info, warn/warning, error (case-insensitive).
func SetLevelString(lvl string) error {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		level.SetLevel(zapcore.DebugLevel)
	case "", "info":
		level.SetLevel(zapcore.InfoLevel)
	case "warn", "warning":
		level.SetLevel(zapcore.WarnLevel)
	case "error":
		level.SetLevel(zapcore.ErrorLevel)
	default:
		return fmt.Errorf("unknown log level: %s", lvl)
	}
	return nil
}

// Level returns the current global level name.
func Level() string {
	return level.Level().String()
}
