package middleware_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ammerola/minimarket-pos/internal/handlers/middleware"
	"github.com/ammerola/minimarket-pos/internal/pkg/logger"
	"github.com/ammerola/minimarket-pos/test/helpers"
)

func TestRequestID(t *testing.T) {
	var seen string
	wrapped := middleware.RequestID("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestIDFrom(r.Context())
	}))

	t.Run("generates_uuid_when_absent", func(t *testing.T) {
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/sales", nil))

		id := w.Header().Get(middleware.HeaderRequestID)
		assert.Len(t, id, 36)
		assert.Equal(t, id, seen)
	})

	t.Run("keeps_upstream_id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", nil)
		req.Header.Set(middleware.HeaderRequestID, "lb-7f3a")
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, req)

		assert.Equal(t, "lb-7f3a", w.Header().Get(middleware.HeaderRequestID))
		assert.Equal(t, "lb-7f3a", seen)
	})
}

func TestSellerID(t *testing.T) {
	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.SellerIDFrom(r.Context())
	})
	wrapped := middleware.SellerID("X-Seller-ID")(handler)

	req := httptest.NewRequest("POST", "/api/v1/sales", nil)
	req.Header.Set("X-Seller-ID", "  register-4 ")
	wrapped.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "register-4", seen)

	seen = "unchanged"
	req = httptest.NewRequest("POST", "/api/v1/sales", nil)
	wrapped.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "", seen)
}

func TestLogger(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte("test response"))
	})

	wrapped := middleware.Logger(helpers.TestLogger())(handler)

	req := httptest.NewRequest("GET", "/test", nil)
	req = req.WithContext(logger.WithRequestID(req.Context(), "test-123"))
	w := httptest.NewRecorder()

	wrapped.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "test response", w.Body.String())
}

func TestRecovery(t *testing.T) {
	tests := []struct {
		name           string
		handler        http.HandlerFunc
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "recovers_from_panic",
			handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic("test panic")
			}),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"code":"PERSISTENCE","message":"internal server error","request_id":"test-123"}`,
		},
		{
			name: "passes_through_normal_response",
			handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("normal response"))
			}),
			expectedStatus: http.StatusOK,
			expectedBody:   "normal response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := middleware.Recovery(helpers.TestLogger())(tt.handler)

			req := httptest.NewRequest("GET", "/test", nil)
			req = req.WithContext(logger.WithRequestID(req.Context(), "test-123"))
			w := httptest.NewRecorder()

			wrapped.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
		})
	}
}

func TestRateLimit(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	send := func(h http.Handler, remote, seller string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", nil)
		req.RemoteAddr = remote
		if seller != "" {
			req = req.WithContext(logger.WithSellerID(req.Context(), seller))
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	t.Run("per_client_ip", func(t *testing.T) {
		limited := middleware.RateLimit(2, time.Second)(ok)

		assert.Equal(t, http.StatusOK, send(limited, "127.0.0.1:1234", ""))
		assert.Equal(t, http.StatusOK, send(limited, "127.0.0.1:1234", ""))
		assert.Equal(t, http.StatusTooManyRequests, send(limited, "127.0.0.1:1234", ""))
		assert.Equal(t, http.StatusOK, send(limited, "192.168.1.1:5678", ""))
	})

	t.Run("registers_behind_one_ip_limited_separately", func(t *testing.T) {
		limited := middleware.RateLimit(1, time.Second)(ok)

		assert.Equal(t, http.StatusOK, send(limited, "10.0.0.5:1000", "register-1"))
		assert.Equal(t, http.StatusTooManyRequests, send(limited, "10.0.0.5:1000", "register-1"))
		assert.Equal(t, http.StatusOK, send(limited, "10.0.0.5:1000", "register-2"))
	})
}

func TestCORS(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name           string
		allowedOrigins []string
		requestOrigin  string
		requestMethod  string
		expectedStatus int
		checkHeaders   func(*testing.T, http.Header)
	}{
		{
			name:           "allows_specific_origin",
			allowedOrigins: []string{"https://pos.example.com", "https://admin.example.com"},
			requestOrigin:  "https://pos.example.com",
			requestMethod:  "GET",
			expectedStatus: http.StatusOK,
			checkHeaders: func(t *testing.T, headers http.Header) {
				assert.Equal(t, "https://pos.example.com", headers.Get("Access-Control-Allow-Origin"))
			},
		},
		{
			name:           "handles_preflight_request",
			allowedOrigins: []string{"*"},
			requestOrigin:  "https://example.com",
			requestMethod:  "OPTIONS",
			expectedStatus: http.StatusNoContent,
			checkHeaders: func(t *testing.T, headers http.Header) {
				assert.Equal(t, "https://example.com", headers.Get("Access-Control-Allow-Origin"))
				assert.Contains(t, headers.Get("Access-Control-Allow-Headers"), "X-Seller-ID")
			},
		},
		{
			name:           "blocks_unallowed_origin",
			allowedOrigins: []string{"https://allowed.com"},
			requestOrigin:  "https://notallowed.com",
			requestMethod:  "GET",
			expectedStatus: http.StatusOK,
			checkHeaders: func(t *testing.T, headers http.Header) {
				assert.Empty(t, headers.Get("Access-Control-Allow-Origin"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := middleware.CORS(tt.allowedOrigins)(handler)

			req := httptest.NewRequest(tt.requestMethod, "/test", nil)
			req.Header.Set("Origin", tt.requestOrigin)
			w := httptest.NewRecorder()

			wrapped.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			tt.checkHeaders(t, w.Header())
		})
	}
}

func TestMaxBody(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 64)
		for {
			_, err := r.Body.Read(buf)
			if err != nil {
				if errors.Is(err, io.EOF) {
					w.WriteHeader(http.StatusOK)
					return
				}
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				return
			}
		}
	})
	wrapped := middleware.MaxBody(16)(handler)

	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, httptest.NewRequest("POST", "/", strings.NewReader("small")))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	wrapped.ServeHTTP(w, httptest.NewRequest("POST", "/", strings.NewReader(strings.Repeat("x", 100))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) middleware.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := middleware.Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mark("first"), mark("second"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, []string{"first", "second", "handler"}, order)
}

func TestSecureHeaders(t *testing.T) {
	wrapped := middleware.SecureHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}
