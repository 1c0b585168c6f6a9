// internal/pkg/logger/handlers.go
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"sync"
)

// ContextHandler copies request-scoped values from ctx onto every record
type ContextHandler struct {
	next slog.Handler
	keys []ContextKey
}

// NewContextHandler wraps handler with request context enrichment
func NewContextHandler(handler slog.Handler) *ContextHandler {
	return &ContextHandler{next: handler, keys: defaultContextKeys()}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, record slog.Record) error {
	attrs := extractContextAttrs(ctx, h.keys)
	if len(attrs) == 0 {
		return h.next.Handle(ctx, record)
	}
	record = record.Clone()
	record.AddAttrs(attrs...)
	return h.next.Handle(ctx, record)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs), keys: h.keys}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{next: h.next.WithGroup(name), keys: h.keys}
}

const redacted = "***REDACTED***"

// redactor masks credentials by attribute key and inside free text
type redactor struct {
	sensitiveKeys []string
	inline        []*regexp.Regexp
	replacements  []string
}

var defaultRedactor = &redactor{
	sensitiveKeys: []string{"password", "pwd", "secret", "token", "authorization", "api_key"},
	inline: []*regexp.Regexp{
		regexp.MustCompile(`(?i)(password|pwd|secret|token|api[-_]?key)\s*[:=]\s*["']?([^"'\s@]+)`),
		regexp.MustCompile(`(?i)((?:postgres(?:ql)?|redis)://[^:/\s]*):([^@\s]+)@`),
	},
	replacements: []string{"$1=" + redacted, "$1:" + redacted + "@"},
}

func (r *redactor) text(s string) string {
	for i, re := range r.inline {
		s = re.ReplaceAllString(s, r.replacements[i])
	}
	return s
}

func (r *redactor) attr(a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	for _, sensitive := range r.sensitiveKeys {
		if strings.Contains(key, sensitive) {
			return slog.String(a.Key, redacted)
		}
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, r.text(a.Value.String()))
	case slog.KindGroup:
		group := a.Value.Group()
		cleaned := make([]any, len(group))
		for i, member := range group {
			cleaned[i] = r.attr(member)
		}
		return slog.Group(a.Key, cleaned...)
	default:
		return a
	}
}

func (r *redactor) attrs(in []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, len(in))
	for i, a := range in {
		out[i] = r.attr(a)
	}
	return out
}

// SanitizationHandler masks credentials in messages and attributes,
// including nested groups.
type SanitizationHandler struct {
	next slog.Handler
	r    *redactor
}

// NewSanitizationHandler wraps handler with credential redaction
func NewSanitizationHandler(handler slog.Handler) *SanitizationHandler {
	return &SanitizationHandler{next: handler, r: defaultRedactor}
}

func (h *SanitizationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *SanitizationHandler) Handle(ctx context.Context, record slog.Record) error {
	clean := slog.NewRecord(record.Time, record.Level, h.r.text(record.Message), record.PC)
	record.Attrs(func(a slog.Attr) bool {
		clean.AddAttrs(h.r.attr(a))
		return true
	})
	return h.next.Handle(ctx, clean)
}

func (h *SanitizationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SanitizationHandler{next: h.next.WithAttrs(h.r.attrs(attrs)), r: h.r}
}

func (h *SanitizationHandler) WithGroup(name string) slog.Handler {
	return &SanitizationHandler{next: h.next.WithGroup(name), r: h.r}
}

const colorReset = "\033[0m"

var levelColors = map[slog.Level]string{
	slog.LevelDebug: "\033[37m",
	slog.LevelInfo:  "\033[34m",
	slog.LevelWarn:  "\033[33m",
	slog.LevelError: "\033[31m",
}

// PrettyTextHandler writes one colored line per record for local development.
// Groups are flattened.
type PrettyTextHandler struct {
	level slog.Leveler
	mu    *sync.Mutex
	w     io.Writer
	attrs []slog.Attr
}

// NewPrettyTextHandler creates a pretty text handler
func NewPrettyTextHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyTextHandler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &PrettyTextHandler{level: level, mu: &sync.Mutex{}, w: w}
}

func (h *PrettyTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *PrettyTextHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	color, ok := levelColors[r.Level]
	if !ok {
		color = colorReset
	}
	level := strings.ToUpper(r.Level.String())
	fmt.Fprintf(&b, "%s%s %-5s%s %s", color, r.Time.Format("15:04:05.000"), level, colorReset, r.Message)

	appendAttr := func(a slog.Attr) bool {
		fmt.Fprintf(&b, " \033[36m%s=%v%s", a.Key, a.Value, colorReset)
		return true
	}
	for _, a := range h.attrs {
		appendAttr(a)
	}
	r.Attrs(appendAttr)
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *PrettyTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &next
}

func (h *PrettyTextHandler) WithGroup(string) slog.Handler {
	return h
}
