package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/campusconnect/server/internal/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestJoinRateLimit_BlocksAfterBurst(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{PublicPerMinute: 100, JoinPerMinute: 3})
	defer limiter.Stop()
	handler := limiter.Middleware(okHandler())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/events/e1/join", nil)
		req.RemoteAddr = "192.168.1.101:54321"
		req = req.WithContext(WithRateLimitTier(req.Context(), TierJoin))
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		if res.Code != http.StatusOK {
			t.Fatalf("request %d: expected status 200, got %d", i+1, res.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/events/e1/join", nil)
	req.RemoteAddr = "192.168.1.101:54321"
	req = req.WithContext(WithRateLimitTier(req.Context(), TierJoin))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", res.Code)
	}
	if got := res.Header().Get("Retry-After"); got != "60" {
		t.Errorf("expected Retry-After 60, got %q", got)
	}
	if got := res.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("expected JSON error body, got content type %q", got)
	}
}

func TestRateLimit_TiersAreIndependent(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{PublicPerMinute: 100, JoinPerMinute: 1})
	defer limiter.Stop()
	handler := limiter.Middleware(okHandler())

	join := httptest.NewRequest(http.MethodPost, "/api/events/e1/join", nil)
	join.RemoteAddr = "10.1.1.1:1000"
	join = join.WithContext(WithRateLimitTier(join.Context(), TierJoin))
	handler.ServeHTTP(httptest.NewRecorder(), join)

	public := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	public.RemoteAddr = "10.1.1.1:1000"
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, public)

	if res.Code != http.StatusOK {
		t.Fatalf("expected public tier to be unaffected, got %d", res.Code)
	}
}

func TestRateLimit_ZeroDisablesTier(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{})
	defer limiter.Stop()
	handler := limiter.Middleware(okHandler())

	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
		req.RemoteAddr = "10.2.2.2:1000"
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		if res.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200 with limits disabled, got %d", i+1, res.Code)
		}
	}
}

func TestRateLimit_HealthChecksExempt(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{PublicPerMinute: 1})
	defer limiter.Stop()
	handler := limiter.Middleware(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "10.3.3.3:1000"
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		if res.Code != http.StatusOK {
			t.Fatalf("request %d: expected health check to bypass limits, got %d", i+1, res.Code)
		}
	}
}

func TestClientKey_ForwardedHeadersNeedTrustedProxy(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{TrustedProxyCIDRs: []string{"10.0.0.0/8"}})
	defer limiter.Stop()

	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{name: "trusted proxy", remoteAddr: "10.0.0.5:443", forwarded: "203.0.113.9, 10.0.0.5", want: "203.0.113.9"},
		{name: "untrusted peer", remoteAddr: "198.51.100.7:443", forwarded: "203.0.113.9", want: "198.51.100.7"},
		{name: "no header", remoteAddr: "10.0.0.5:443", want: "10.0.0.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := limiter.clientKey(req); got != tt.want {
				t.Errorf("clientKey() = %q, want %q", got, tt.want)
			}
		})
	}
}
