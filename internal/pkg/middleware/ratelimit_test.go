package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appctx "github.com/govai-bd/govai/internal/pkg/context"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 10, Burst: 3})
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("198.51.100.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("198.51.100.1") {
		t.Error("request beyond burst should be denied")
	}
	if !rl.Allow("198.51.100.2") {
		t.Error("other client should have its own bucket")
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 1, Burst: 1})
	defer rl.Stop()

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/v1/query", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/v1/query", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig())
	defer rl.Stop()

	rl.Allow("192.0.2.1")
	rl.evictIdle(time.Now().Add(time.Second))

	rl.mu.Lock()
	n := len(rl.clients)
	rl.mu.Unlock()
	if n != 0 {
		t.Errorf("clients after eviction = %d, want 0", n)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "10.0.0.1:1234", "203.0.113.5"},
		{"real ip", map[string]string{"X-Real-IP": "203.0.113.9"}, "10.0.0.1:1234", "203.0.113.9"},
		{"remote addr", nil, "192.0.2.44:5555", "192.0.2.44"},
		{"ipv6 remote", nil, "[2001:db8::1]:443", "2001:db8::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.header {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	var seenID, seenAddr string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = appctx.RequestID(r.Context())
		seenAddr = appctx.ClientAddr(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "192.0.2.10:999"
		handler.ServeHTTP(w, r)

		if seenID == "" || w.Header().Get(RequestIDHeader) != seenID {
			t.Errorf("request id = %q, header = %q", seenID, w.Header().Get(RequestIDHeader))
		}
		if seenAddr != "192.0.2.10" {
			t.Errorf("client addr = %q, want 192.0.2.10", seenAddr)
		}
	})

	t.Run("propagated", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(RequestIDHeader, "upstream-1")
		handler.ServeHTTP(w, r)

		if seenID != "upstream-1" {
			t.Errorf("request id = %q, want upstream-1", seenID)
		}
	})
}
