package handlers

import (
	"time"

	"go.uber.org/zap"
	"scribbly/internal/config"
	"scribbly/internal/metrics"
	"scribbly/internal/store"
)

// Handler holds dependencies for HTTP and websocket handlers
type Handler struct {
	store   *store.MemoryStore
	hub     *Hub
	config  *config.ServerConfig
	metrics *metrics.Collector
	log     *zap.Logger
	started time.Time
	version string
}

// New creates a new handler
func New(st *store.MemoryStore, hub *Hub, cfg *config.ServerConfig, m *metrics.Collector, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:   st,
		hub:     hub,
		config:  cfg,
		metrics: m,
		log:     logger.Named("handlers"),
		started: time.Now(),
	}
}

// WithVersion sets the build version shown on the status page
func (h *Handler) WithVersion(v string) *Handler {
	h.version = v
	return h
}

// Store returns the handler's store (for testing)
func (h *Handler) Store() *store.MemoryStore {
	return h.store
}

// Hub returns the handler's hub
func (h *Handler) Hub() *Hub {
	return h.hub
}
