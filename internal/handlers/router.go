package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"scribbly/internal/config"
	localMiddleware "scribbly/internal/middleware"
)

// RouterOptions allows customization of router setup for tests
type RouterOptions struct {
	DisableRateLimiting  bool
	DisableRequestLogger bool
	CustomMiddleware     []func(http.Handler) http.Handler
}

// SetupRouter creates the application router with all routes and middleware
func SetupRouter(h *Handler, cfg *config.ServerConfig, opts *RouterOptions) *chi.Mux {
	if opts == nil {
		opts = &RouterOptions{}
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if !opts.DisableRequestLogger {
		r.Use(localMiddleware.RequestLogger(h.log))
	}
	r.Use(middleware.Recoverer)
	r.Use(localMiddleware.SecurityHeaders())

	for _, mw := range opts.CustomMiddleware {
		r.Use(mw)
	}

	// The websocket and SSE routes are long-lived, so they sit outside the
	// request timeout and body limit.
	r.Group(func(r chi.Router) {
		r.Use(localMiddleware.ConnectionLimiter(cfg.Server.MaxConnections))
		r.Get("/ws", h.ServeWS)
	})
	r.Get("/sse/status", h.StreamStatus)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Use(localMiddleware.RequestSizeLimiter(cfg.Server.MaxRequestSize))
		if !opts.DisableRateLimiting {
			rateLimiter := localMiddleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateLimitBurst)
			r.Use(rateLimiter.Middleware())
		}

		r.Get("/status", h.StatusPage)
		r.Get("/room/{code}/qr", h.RoomQR)
	})

	// Health check endpoints
	r.Get("/health/live", h.Live)
	r.Get("/health/ready", h.Ready)

	return r
}
