// internal/handlers/middleware/middleware.go
package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/ammerola/minimarket-pos/internal/pkg/logger"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderSellerID  = "X-Seller-ID"
)

// Middleware wraps an http.Handler
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares so that the first one listed runs first
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// RequestID middleware adds a unique request ID to each request
func RequestID(header string) Middleware {
	if header == "" {
		header = HeaderRequestID
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// keep the id assigned by a proxy or load balancer
			requestID := r.Header.Get(header)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			ctx := logger.WithRequestID(r.Context(), requestID)
			w.Header().Set(header, requestID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SellerID copies the acting seller from the given header into the request
// context. Authentication happens upstream; the value is trusted as is.
func SellerID(header string) Middleware {
	if header == "" {
		header = HeaderSellerID
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if seller := strings.TrimSpace(r.Header.Get(header)); seller != "" {
				r = r.WithContext(logger.WithSellerID(r.Context(), seller))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// slowRequest is the duration above which a completed request logs at warn
const slowRequest = 2 * time.Second

// Logger logs every completed request with its status and duration
func Logger(l *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ctx := r.Context()
			for key, value := range map[logger.ContextKey]string{
				logger.ContextKeyClientIP:  clientIP(r),
				logger.ContextKeyUserAgent: r.UserAgent(),
				logger.ContextKeyMethod:    r.Method,
				logger.ContextKeyPath:      r.URL.Path,
			} {
				ctx = context.WithValue(ctx, key, value)
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))

			elapsed := time.Since(start)
			ctx = context.WithValue(ctx, logger.ContextKeyStatusCode, rec.status)
			ctx = context.WithValue(ctx, logger.ContextKeyDuration, elapsed.Milliseconds())

			l.Log(ctx, completionLevel(rec.status, elapsed), "request_completed",
				slog.Int("bytes", rec.bytes),
				slog.Bool("slow_request", elapsed > slowRequest),
			)
		})
	}
}

func completionLevel(status int, elapsed time.Duration) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest, elapsed > slowRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// Recovery turns a panic into a PERSISTENCE error response so the register
// never sees a dropped connection.
func Recovery(slogger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				slogger.ErrorContext(r.Context(), "panic recovered",
					slog.Any("panic", p),
					slog.String("stack", string(debug.Stack())),
				)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(struct {
					Code      string `json:"code"`
					Message   string `json:"message"`
					RequestID string `json:"request_id,omitempty"`
				}{"PERSISTENCE", "internal server error", logger.RequestIDFrom(r.Context())})
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit throttles each register to requests per the given window with an
// equal burst. Registers are told apart by seller id, falling back to the
// client IP for anonymous calls.
func RateLimit(requests int, per time.Duration) Middleware {
	set := &limiterSet{
		every: rate.Every(per / time.Duration(requests)),
		burst: requests,
	}
	go set.sweep(10 * time.Minute)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := logger.SellerIDFrom(r.Context())
			if key == "" {
				key = clientIP(r)
			}

			if !set.allow(key) {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

var corsAllowHeaders = strings.Join([]string{
	"Accept", "Content-Type", "Content-Length",
	HeaderRequestID, HeaderSellerID, "Idempotency-Key",
}, ", ")

// CORS lets the listed browser origins call the API. "*" allows any origin.
func CORS(allowedOrigins []string) Middleware {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	_, anyOrigin := allowed["*"]

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			_, listed := allowed[origin]

			if origin != "" && (anyOrigin || listed) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Max-Age", "86400")
				h.Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SecureHeaders middleware adds security headers
func SecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		if r.TLS != nil {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

// MaxBody caps the size of request bodies
func MaxBody(limit int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.status = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.WriteHeader(http.StatusOK)
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// limiterSet holds one token bucket per caller key
type limiterSet struct {
	every    rate.Limit
	burst    int
	visitors sync.Map
}

func (s *limiterSet) allow(key string) bool {
	v, ok := s.visitors.Load(key)
	if !ok {
		v, _ = s.visitors.LoadOrStore(key, &visitor{limiter: rate.NewLimiter(s.every, s.burst)})
	}
	vis := v.(*visitor)
	vis.lastSeen.Store(time.Now().UnixNano())
	return vis.limiter.Allow()
}

// sweep forgets callers idle for longer than idle
func (s *limiterSet) sweep(idle time.Duration) {
	ticker := time.NewTicker(idle)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-idle).UnixNano()
		s.visitors.Range(func(key, v interface{}) bool {
			if v.(*visitor).lastSeen.Load() < cutoff {
				s.visitors.Delete(key)
			}
			return true
		})
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
