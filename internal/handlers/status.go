package handlers

import (
	"net/http"
	"time"

	"github.com/starfederation/datastar-go/datastar"
	"go.uber.org/zap"
	"scribbly/internal/views"
)

// statusInterval is how often /sse/status pushes a fresh room table
var statusInterval = 2 * time.Second

func (h *Handler) stats() views.Stats {
	return views.Stats{
		Rooms:       h.store.Count(),
		Connections: h.hub.Count(),
		Uptime:      time.Since(h.started),
		Version:     h.version,
	}
}

// StatusPage renders the operator overview of live rooms
func (h *Handler) StatusPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.StatusPage(h.stats(), h.store.Summaries()).Render(r.Context(), w); err != nil {
		h.log.Error("failed to render status page", zap.Error(err))
	}
}

// StreamStatus keeps the status page's room table current over SSE
func (h *Handler) StreamStatus(w http.ResponseWriter, r *http.Request) {
	http.NewResponseController(w).SetWriteDeadline(time.Time{})
	sse := datastar.NewSSE(w, r)

	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		html, err := views.Render(r.Context(), views.RoomTable(h.stats(), h.store.Summaries()))
		if err != nil {
			h.log.Error("failed to render room table", zap.Error(err))
			return
		}
		if err := sse.PatchElements(html, datastar.WithSelector("#room-table")); err != nil {
			h.log.Debug("status stream closed", zap.Error(err))
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

// Live reports that the process is up
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// Ready reports whether the server can accept players
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if max := h.config.Server.MaxConnections; max > 0 && h.hub.Count() >= max {
		http.Error(w, "At capacity", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
