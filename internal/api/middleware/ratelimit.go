package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/campusconnect/server/internal/api/problem"
	"github.com/campusconnect/server/internal/config"
	"golang.org/x/time/rate"
)

// RateLimitTier selects the per-client budget applied to a route.
type RateLimitTier string

const (
	TierPublic RateLimitTier = "public"
	// TierJoin guards the join endpoint, which writes on behalf of
	// unauthenticated callers.
	TierJoin RateLimitTier = "join"
)

const rateLimitTierKey contextKey = "rateLimitTier"

func WithRateLimitTier(ctx context.Context, tier RateLimitTier) context.Context {
	return context.WithValue(ctx, rateLimitTierKey, tier)
}

func WithRateLimitTierHandler(tier RateLimitTier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithRateLimitTier(r.Context(), tier)))
		})
	}
}

// RateLimiter applies per-client token buckets. A limit of zero disables a tier.
type RateLimiter struct {
	store          *limiterStore
	trustedProxies []*net.IPNet
}

// NewRateLimiter starts the idle-client cleanup loop. Call Stop on shutdown.
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	var proxies []*net.IPNet
	for _, cidr := range cfg.TrustedProxyCIDRs {
		if _, network, err := net.ParseCIDR(strings.TrimSpace(cidr)); err == nil {
			proxies = append(proxies, network)
		}
	}
	return &RateLimiter{
		store: newLimiterStore(map[RateLimitTier]int{
			TierPublic: cfg.PublicPerMinute,
			TierJoin:   cfg.JoinPerMinute,
		}),
		trustedProxies: proxies,
	}
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" || r.URL.Path == "/readyz" {
			next.ServeHTTP(w, r)
			return
		}

		tier := TierPublic
		if value, ok := r.Context().Value(rateLimitTierKey).(RateLimitTier); ok {
			tier = value
		}

		limiter := l.store.limiter(tier, l.clientKey(r))
		if limiter != nil && !limiter.Allow() {
			w.Header().Set("Retry-After", "60")
			problem.WriteBody(w, http.StatusTooManyRequests, problem.Body{Error: "Too many requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Stop ends the background cleanup of idle client entries.
func (l *RateLimiter) Stop() {
	l.store.stop()
}

type limiterStore struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	perMinute map[RateLimitTier]int
	done      chan struct{}
	stopOnce  sync.Once
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterStore(perMinute map[RateLimitTier]int) *limiterStore {
	store := &limiterStore{
		limiters:  make(map[string]*limiterEntry),
		perMinute: perMinute,
		done:      make(chan struct{}),
	}
	go store.cleanupLoop(5*time.Minute, 15*time.Minute)
	return store
}

func (s *limiterStore) limiter(tier RateLimitTier, key string) *rate.Limiter {
	limit := s.perMinute[tier]
	if limit <= 0 {
		return nil
	}
	lookup := string(tier) + ":" + key

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.limiters[lookup]; ok {
		entry.lastSeen = time.Now()
		return entry.limiter
	}

	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(limit)), limit)
	s.limiters[lookup] = &limiterEntry{limiter: limiter, lastSeen: time.Now()}
	return limiter
}

func (s *limiterStore) cleanupLoop(every, ttl time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup(ttl)
		case <-s.done:
			return
		}
	}
}

func (s *limiterStore) cleanup(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, entry := range s.limiters {
		if now.Sub(entry.lastSeen) > ttl {
			delete(s.limiters, key)
		}
	}
}

func (s *limiterStore) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// clientKey is the remote IP. X-Forwarded-For is honoured only when the
// connection comes from a trusted proxy.
func (l *RateLimiter) clientKey(r *http.Request) string {
	remoteIP := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		remoteIP = host
	}

	if l.isTrustedProxy(remoteIP) {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			return strings.TrimSpace(strings.Split(forwarded, ",")[0])
		}
		if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
			return strings.TrimSpace(realIP)
		}
	}
	return remoteIP
}

func (l *RateLimiter) isTrustedProxy(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, network := range l.trustedProxies {
		if network.Contains(parsed) {
			return true
		}
	}
	return false
}
