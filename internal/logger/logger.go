package logger

import (
	"context"

	"go.uber.org/zap"
)

type key string

const (
	// keyForLogger stores the *zap.Logger in a context.Context
	keyForLogger key = "logger"
	// keyForRequestID stores the request id in a context.Context
	keyForRequestID key = "request_id"
)

var base = zap.NewNop()

// Init builds the process-wide production logger. Call once from main.
func Init() (*zap.Logger, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	base = l
	return l, nil
}

// WithLogger places l into ctx.
func WithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, keyForLogger, l)
}

// WithRequestID stores id in ctx; FromContext tags every entry with it.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyForRequestID, id)
}

// RequestID returns the id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(keyForRequestID).(string)
	return id
}

// FromContext returns the logger stored in ctx, falling back to the process logger.
func FromContext(ctx context.Context) *zap.Logger {
	l, ok := ctx.Value(keyForLogger).(*zap.Logger)
	if !ok || l == nil {
		l = base
	}
	if id := RequestID(ctx); id != "" {
		l = l.With(zap.String(string(keyForRequestID), id))
	}
	return l
}
