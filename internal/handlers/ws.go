package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"scribbly/internal/game"
	"scribbly/internal/protocol"
)

// EventSession tells a freshly connected client its connection id
const EventSession = "session"

// Session is the payload of EventSession. Clients pass ClientID back as
// ?clientId= when reconnecting to resume their place in a room.
type Session struct {
	ClientID string `json:"clientId"`
}

// ServeWS upgrades the request to a websocket and runs the connection until
// the peer goes away.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("clientId")
	if _, err := uuid.Parse(clientID); err != nil {
		clientID = uuid.NewString()
	}

	// Server-wide read/write timeouts must not apply to a long-lived socket
	rc := http.NewResponseController(w)
	rc.SetReadDeadline(time.Time{})
	rc.SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.config.Server.AllowedOrigins,
	})
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")
	conn.SetReadLimit(h.config.Server.MaxMessageSize)

	limiter := rate.NewLimiter(rate.Limit(h.config.Server.MessageRate), h.config.Server.MessageBurst)
	client := NewClient(clientID, conn, limiter)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if h.hub.Register(client) {
		h.log.Info("connection replaced", zap.String("conn", clientID))
	}
	h.metrics.ConnectionOpened()
	defer h.metrics.ConnectionClosed()

	go func() {
		client.WritePump(ctx)
		cancel()
	}()

	log := h.log.With(zap.String("conn", clientID))
	log.Debug("connection opened")
	h.hub.Emit(clientID, EventSession, Session{ClientID: clientID})

	// A reconnecting client that was attached to a room gets its state back
	if roomID, ok := h.store.Connections().RoomOf(clientID); ok {
		if room, err := h.store.GetRoom(roomID); err == nil {
			room.Welcome(clientID)
		}
	}

	h.readLoop(ctx, client, log)

	if h.hub.Unregister(client) {
		h.store.Disconnect(clientID)
		log.Debug("connection closed")
	}
}

func (h *Handler) readLoop(ctx context.Context, c *Client, log *zap.Logger) {
	for {
		typ, data, err := c.Conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == -1 && !errors.Is(err, context.Canceled) {
				log.Debug("read failed", zap.Error(err))
			}
			return
		}
		if typ != websocket.MessageText {
			h.hub.Emit(c.ID, game.EventErrorMessage, game.Notice{Message: "binary frames are not supported"})
			continue
		}
		if !c.limiter.Allow() {
			h.hub.Emit(c.ID, game.EventErrorMessage, game.Notice{Message: "too many messages, slow down"})
			continue
		}

		var env protocol.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			h.hub.Emit(c.ID, game.EventErrorMessage, game.Notice{Message: protocol.ErrMalformed.Error()})
			continue
		}
		h.dispatch(c, env)
	}
}
