// internal/pkg/logger/logger_test.go
package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/minimarket-pos/internal/pkg/logger"
)

func newJSONLogger(buf *bytes.Buffer) *slog.Logger {
	return logger.NewLogger(&logger.LogConfig{
		Level:       "debug",
		Format:      "json",
		Output:      buf,
		ServiceName: "minimarket-pos",
	})
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogger_ContextValues(t *testing.T) {
	var buf bytes.Buffer
	log := newJSONLogger(&buf)

	seller := "register-2"
	ctx := logger.WithRequestID(context.Background(), "req-123")
	ctx = logger.WithSellerID(ctx, seller)

	log.InfoContext(ctx, "sale committed", slog.Int64("ticket_number", 42))

	entry := decode(t, &buf)
	assert.Equal(t, "sale committed", entry["msg"])
	assert.Equal(t, "INFO", entry["severity"])
	assert.Equal(t, "req-123", entry["request_id"])
	assert.Equal(t, seller, entry["seller_id"])
	assert.Equal(t, "minimarket-pos", entry["service_name"])
	assert.EqualValues(t, 42, entry["ticket_number"])
}

func TestLogger_Redaction(t *testing.T) {
	tests := []struct {
		name  string
		attr  slog.Attr
		key   string
		check func(t *testing.T, value any)
	}{
		{
			name: "sensitive_key",
			attr: slog.String("db_password", "hunter2"),
			key:  "db_password",
			check: func(t *testing.T, value any) {
				assert.Equal(t, "***REDACTED***", value)
			},
		},
		{
			name: "connection_string",
			attr: slog.String("dsn", "postgresql://pos:s3cret@db:5432/pos"),
			key:  "dsn",
			check: func(t *testing.T, value any) {
				assert.Equal(t, "postgresql://pos:***REDACTED***@db:5432/pos", value)
			},
		},
		{
			name: "inline_secret",
			attr: slog.String("detail", "token=abc123 rejected"),
			key:  "detail",
			check: func(t *testing.T, value any) {
				assert.NotContains(t, value, "abc123")
			},
		},
		{
			name: "plain_value",
			attr: slog.String("lot_id", "4a5e"),
			key:  "lot_id",
			check: func(t *testing.T, value any) {
				assert.Equal(t, "4a5e", value)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := newJSONLogger(&buf)

			log.Info("event", tt.attr)

			tt.check(t, decode(t, &buf)[tt.key])
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logger.ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, logger.ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, logger.ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, logger.ParseLevel("nonsense"))
}

func TestPrettyTextHandler(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger(&logger.LogConfig{Level: "info", Format: "text", Output: &buf})

	log.Debug("hidden")
	assert.Empty(t, buf.String())

	log.With(slog.String("service", "sale")).Warn("stock low", slog.Int("remaining", 2))
	out := buf.String()
	assert.Contains(t, out, "stock low")
	assert.Contains(t, out, "service=sale")
	assert.Contains(t, out, "remaining=2")
}
