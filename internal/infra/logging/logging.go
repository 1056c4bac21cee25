// File: internal/infra/logging/logging.go
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"telegram-horoscope-bot/internal/config"

	"github.com/rs/zerolog"
)

// New creates a zerolog logger configured from config.
// Supports "trace" | "debug" | "info" | "warn" | "error" levels
// and "json" | "console" formats. Sampling keeps the first 100 events then 1 in 100.
func New(cfg config.LogConfig, dev bool) *zerolog.Logger {
	return NewWriter(os.Stdout, cfg, dev)
}

// NewWriter is New with an explicit sink.
func NewWriter(w io.Writer, cfg config.LogConfig, dev bool) *zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var base zerolog.Logger
	if strings.ToLower(cfg.Format) == "console" || dev {
		out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		base = zerolog.New(out).Level(level).With().Timestamp().Logger()
	} else {
		base = zerolog.New(w).Level(level).With().Timestamp().Logger()
	}

	if cfg.Sampling && !dev {
		sampled := base.Sample(&zerolog.BasicSampler{N: 100})
		return &sampled
	}
	return &base
}

// Component returns a sub-logger tagged with the component name.
func Component(base *zerolog.Logger, name string) *zerolog.Logger {
	l := base.With().Str("component", name).Logger()
	return &l
}

type ctxKey string

const (
	ctxTraceID  ctxKey = "trace_id"
	ctxTgID     ctxKey = "tg_id"
	ctxUpdateID ctxKey = "update_id"
)

// With attaches the context fields (trace_id, tg_id, update_id) that are present.
func With(ctx context.Context, base *zerolog.Logger) *zerolog.Logger {
	l := base.With()
	if v, ok := ctx.Value(ctxTraceID).(string); ok {
		l = l.Str("trace_id", v)
	}
	if v, ok := ctx.Value(ctxTgID).(int64); ok {
		l = l.Int64("tg_id", v)
	}
	if v, ok := ctx.Value(ctxUpdateID).(int); ok {
		l = l.Int("update_id", v)
	}
	logger := l.Logger()
	return &logger
}

// TraceDuration logs start and end with elapsed duration at TRACE level.
// Usage: defer logging.TraceDuration(logger, "ConversationUC.Handle")()
func TraceDuration(logger *zerolog.Logger, name string) func() {
	start := time.Now()
	logger.Trace().Str("method", name).Msg("start")
	return func() {
		logger.Trace().Str("method", name).Dur("duration", time.Since(start)).Msg("finish")
	}
}

// Redact hides secrets and PII when not in dev; keeps a short preview.
func Redact(s string, dev bool) string {
	if dev {
		return s
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-2:]
}

func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxTraceID, id)
}

func TraceID(ctx context.Context) string {
	v, _ := ctx.Value(ctxTraceID).(string)
	return v
}

func WithTgID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, ctxTgID, id)
}

func WithUpdateID(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, ctxUpdateID, id)
}
