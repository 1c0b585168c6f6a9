// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ContextKey represents keys for context values
type ContextKey string

const (
	// Context keys for logging
	ContextKeyRequestID  ContextKey = "request_id"
	ContextKeySellerID   ContextKey = "seller_id"
	ContextKeyClientIP   ContextKey = "client_ip"
	ContextKeyUserAgent  ContextKey = "user_agent"
	ContextKeyMethod     ContextKey = "method"
	ContextKeyPath       ContextKey = "path"
	ContextKeyStatusCode ContextKey = "status_code"
	ContextKeyDuration   ContextKey = "duration_ms"
	ContextKeyTaskID     ContextKey = "task_id"
)

// LogConfig holds logger configuration
type LogConfig struct {
	Level          string
	Format         string
	Output         io.Writer
	AddSource      bool
	Environment    string
	ServiceName    string
	ServiceVersion string
}

// SetupLogger builds the process logger writing to stdout and installs it as
// the slog default.
func SetupLogger(level string, format string) *slog.Logger {
	logger := NewLogger(&LogConfig{
		Level:          level,
		Format:         format,
		Output:         os.Stdout,
		AddSource:      level == "debug",
		ServiceName:    os.Getenv("SERVICE_NAME"),
		ServiceVersion: os.Getenv("SERVICE_VERSION"),
		Environment:    os.Getenv("APP_ENV"),
	})
	slog.SetDefault(logger)

	return logger
}

// NewLogger builds the handler chain: redaction, then request context, then
// the JSON or pretty text encoder.
func NewLogger(config *LogConfig) *slog.Logger {
	if config == nil {
		config = &LogConfig{Level: "info", Format: "json"}
	}
	out := config.Output
	if out == nil {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:     ParseLevel(config.Level),
		AddSource: config.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return replaceAttr(config.Format, a)
		},
	}

	var handler slog.Handler = slog.NewJSONHandler(out, opts)
	if config.Format == "text" {
		handler = NewPrettyTextHandler(out, opts)
	}
	handler = NewSanitizationHandler(NewContextHandler(handler))

	if attrs := serviceAttrs(config); len(attrs) > 0 {
		handler = handler.WithAttrs(attrs)
	}
	return slog.New(handler)
}

func serviceAttrs(config *LogConfig) []slog.Attr {
	var attrs []slog.Attr
	for key, value := range map[string]string{
		"service_name": config.ServiceName,
		"version":      config.ServiceVersion,
		"env":          config.Environment,
	} {
		if value != "" {
			attrs = append(attrs, slog.String(key, value))
		}
	}
	return attrs
}

// ParseLevel maps a level name to a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	if strings.EqualFold(level, "warning") {
		return slog.LevelWarn
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// WithRequestID stores the request id on ctx
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFrom returns the request id stored on ctx, if any
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyRequestID).(string)
	return id
}

// WithSellerID stores the acting seller on ctx
func WithSellerID(ctx context.Context, sellerID string) context.Context {
	return context.WithValue(ctx, ContextKeySellerID, sellerID)
}

// SellerIDFrom returns the acting seller stored on ctx
func SellerIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeySellerID).(string)
	return id
}

// WithTaskID tags ctx with the asynq task being processed
func WithTaskID(ctx context.Context, taskID string) context.Context {
	return context.WithValue(ctx, ContextKeyTaskID, taskID)
}

func defaultContextKeys() []ContextKey {
	return []ContextKey{
		ContextKeyRequestID,
		ContextKeySellerID,
		ContextKeyClientIP,
		ContextKeyUserAgent,
		ContextKeyMethod,
		ContextKeyPath,
		ContextKeyStatusCode,
		ContextKeyDuration,
		ContextKeyTaskID,
	}
}

func extractContextAttrs(ctx context.Context, keys []ContextKey) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(keys))
	for _, key := range keys {
		switch v := ctx.Value(key).(type) {
		case nil:
		case string:
			if v != "" {
				attrs = append(attrs, slog.String(string(key), v))
			}
		case uuid.UUID:
			attrs = append(attrs, slog.String(string(key), v.String()))
		default:
			attrs = append(attrs, slog.Any(string(key), v))
		}
	}
	return attrs
}

// replaceAttr renders times as RFC 3339 and names the level "severity" in
// JSON output.
func replaceAttr(format string, a slog.Attr) slog.Attr {
	switch {
	case a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime:
		return slog.String(a.Key, a.Value.Time().Format(time.RFC3339Nano))
	case a.Key == slog.LevelKey && format != "text":
		a.Key = "severity"
	}
	return a
}
