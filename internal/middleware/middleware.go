package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RequestSizeLimiter limits the size of incoming request bodies
func RequestSizeLimiter(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeaders adds security headers to all responses
func SecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("X-XSS-Protection", "1; mode=block")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs one line per request with zap
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// ConnectionLimiter caps concurrent requests through the wrapped handler.
// It is meant for long-lived routes such as the websocket endpoint. A
// non-positive limit disables it.
func ConnectionLimiter(limit int) func(http.Handler) http.Handler {
	slots := make(chan struct{}, max(limit, 0))
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case slots <- struct{}{}:
				defer func() { <-slots }()
				next.ServeHTTP(w, r)
			default:
				http.Error(w, "Too many connections", http.StatusServiceUnavailable)
			}
		})
	}
}

// RateLimiter implements per-IP rate limiting. Limiters for clients that
// have been idle longer than the expiry are dropped.
type RateLimiter struct {
	limiters *gocache.Cache
	rate     rate.Limit
	burst    int
	idle     time.Duration
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(rateLimit float64, burst int) *RateLimiter {
	return NewRateLimiterWithExpiry(rateLimit, burst, 10*time.Minute)
}

// NewRateLimiterWithExpiry creates a rate limiter that forgets clients after idle
func NewRateLimiterWithExpiry(rateLimit float64, burst int, idle time.Duration) *RateLimiter {
	return &RateLimiter{
		limiters: gocache.New(idle, idle),
		rate:     rate.Limit(rateLimit),
		burst:    burst,
		idle:     idle,
	}
}

// Allow reports whether a request for key may proceed now
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// Len returns the number of tracked clients
func (rl *RateLimiter) Len() int {
	return rl.limiters.ItemCount()
}

// getLimiter returns the rate limiter for the given key, refreshing its expiry
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	if v, ok := rl.limiters.Get(key); ok {
		limiter := v.(*rate.Limiter)
		rl.limiters.Set(key, limiter, gocache.DefaultExpiration)
		return limiter
	}

	limiter := rate.NewLimiter(rl.rate, rl.burst)
	if err := rl.limiters.Add(key, limiter, gocache.DefaultExpiration); err != nil {
		// Lost a race with another request for the same key
		if v, ok := rl.limiters.Get(key); ok {
			return v.(*rate.Limiter)
		}
	}
	return limiter
}

// Middleware returns the rate limiting middleware
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.Allow(ClientKey(r)) {
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientKey identifies the client for rate limiting: the first
// X-Forwarded-For entry when present, otherwise the remote host.
func ClientKey(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
