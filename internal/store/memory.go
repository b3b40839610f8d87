package store

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"scribbly/internal/config"
	"scribbly/internal/game"
)

var (
	// ErrRoomNotFound is returned when no room has the given code
	ErrRoomNotFound = errors.New("room not found")
	// ErrNotAttached is returned when a connection acts on a room it has not joined
	ErrNotAttached = errors.New("connection is not attached to this room")
)

const roomCodeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// MemoryStore is the room registry. It owns every room and the connection
// attachments, and evicts stale rooms in a periodic sweep. Its lock is never
// held while calling into a room.
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string]*game.Room
	conns *ConnectionTracker

	codeLength int
	interval   time.Duration
	settings   game.Settings
	retention  game.Retention
	deps       game.Deps
	log        *zap.Logger
}

// NewMemoryStore creates a registry. deps are handed to every room it creates.
func NewMemoryStore(cfg *config.ServerConfig, conns *ConnectionTracker, deps game.Deps, logger *zap.Logger) *MemoryStore {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if conns == nil {
		conns = NewConnectionTracker()
	}
	if deps.Scheduler == nil {
		deps.Scheduler = game.SystemScheduler{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	deps.Logger = logger

	return &MemoryStore{
		rooms:      make(map[string]*game.Room),
		conns:      conns,
		codeLength: cfg.Server.RoomCodeLength,
		interval:   cfg.Server.SweepInterval,
		settings:   game.SettingsFromConfig(cfg),
		retention: game.Retention{
			MaxAge:           cfg.Server.RoomMaxAge,
			EmptyGrace:       cfg.Server.EmptyRoomGrace,
			GameEndRetention: cfg.Server.GameEndRetention,
		},
		deps: deps,
		log:  logger.Named("registry"),
	}
}

// Connections returns the tracker shared with the transport
func (s *MemoryStore) Connections() *ConnectionTracker {
	return s.conns
}

// CreateRoom creates a room hosted by connID. Once the room exists the
// connection leaves any room it was attached to; a rejected request leaves
// the connection where it was.
func (s *MemoryStore) CreateRoom(connID, username string) (*game.Room, error) {
	s.mu.Lock()
	code, err := s.uniqueCode()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	room, err := game.NewRoom(code, connID, username, s.settings, s.deps)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.rooms[code] = room
	s.mu.Unlock()

	s.leaveCurrent(connID, code)
	s.conns.Attach(connID, code)
	room.Welcome(connID)

	s.log.Info("room created", zap.String("room", code), zap.String("conn", connID))
	return room, nil
}

// JoinRoom attaches connID to the room with the given code. Joining a room
// the connection already belongs to is a reconnect. The connection only
// leaves its current room once the new room has admitted it.
func (s *MemoryStore) JoinRoom(connID, username, code string) (*game.Room, error) {
	code = NormalizeCode(code)
	room, err := s.GetRoom(code)
	if err != nil {
		return nil, err
	}
	if err := room.CanJoin(connID, username); err != nil {
		return nil, err
	}

	s.leaveCurrent(connID, code)

	previous := s.conns.Attach(connID, code)
	if err := room.Join(connID, username); err != nil {
		if previous != code {
			s.conns.DetachFrom(connID, code)
		}
		return nil, err
	}
	return room, nil
}

// Resolve returns the room a command addresses, checking that connID is
// attached to it.
func (s *MemoryStore) Resolve(connID, code string) (*game.Room, error) {
	code = NormalizeCode(code)
	room, err := s.GetRoom(code)
	if err != nil {
		return nil, err
	}
	if current, ok := s.conns.RoomOf(connID); !ok || current != code {
		return room, ErrNotAttached
	}
	return room, nil
}

// Disconnect detaches connID from its room and tells the room the player
// left. Rooms left without connected players are removed.
func (s *MemoryStore) Disconnect(connID string) {
	s.leaveCurrent(connID, "")
}

// GetRoom retrieves a room by code
func (s *MemoryStore) GetRoom(code string) (*game.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, exists := s.rooms[code]
	if !exists {
		return nil, fmt.Errorf("room %s: %w", code, ErrRoomNotFound)
	}
	return room, nil
}

// Count returns the number of live rooms
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// Summaries describes every room, oldest first
func (s *MemoryStore) Summaries() []game.RoomSummary {
	rooms := s.snapshot()

	out := make([]game.RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Code < out[j].Code
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Sweep evicts stale rooms and returns how many were removed
func (s *MemoryStore) Sweep(now time.Time) int {
	evicted := 0
	for _, r := range s.snapshot() {
		// Checked and closed atomically, so a join racing the sweep either
		// keeps the room alive or is refused with ErrRoomClosed.
		if !r.CloseIfStale(now, s.retention, "This room has expired.") {
			continue
		}
		if s.remove(r) {
			s.conns.DropRoom(r.Code)
			evicted++
		}
	}
	if evicted > 0 {
		s.log.Info("swept stale rooms", zap.Int("evicted", evicted), zap.Int("remaining", s.Count()))
	}
	return evicted
}

// Run sweeps on the configured interval until ctx is cancelled
func (s *MemoryStore) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(s.deps.Scheduler.Now())
		}
	}
}

// CloseAll shuts every room down, telling connected players why
func (s *MemoryStore) CloseAll(reason string) {
	for _, r := range s.snapshot() {
		if s.remove(r) {
			r.Close(reason)
			s.conns.DropRoom(r.Code)
		}
	}
}

// NormalizeCode canonicalizes a user-entered room code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// leaveCurrent detaches connID from the room it is in unless that room is
// keep, and disconnects it from that room.
func (s *MemoryStore) leaveCurrent(connID, keep string) {
	current, ok := s.conns.RoomOf(connID)
	if !ok || current == keep {
		return
	}
	s.conns.DetachFrom(connID, current)

	room, err := s.GetRoom(current)
	if err != nil {
		return
	}
	if room.Disconnect(connID) {
		s.remove(room)
		s.conns.DropRoom(room.Code)
		s.log.Info("room emptied", zap.String("room", room.Code))
	}
}

func (s *MemoryStore) snapshot() []*game.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]*game.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}

// remove deletes room if it is still the one registered under its code
func (s *MemoryStore) remove(room *game.Room) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rooms[room.Code] != room {
		return false
	}
	delete(s.rooms, room.Code)
	return true
}

// uniqueCode must be called with s.mu held
func (s *MemoryStore) uniqueCode() (string, error) {
	for i := 0; i < 10; i++ {
		code := generateRoomCode(s.codeLength)
		if _, exists := s.rooms[code]; !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique room code")
}

// generateRoomCode generates an alphanumeric code of length n
func generateRoomCode(n int) string {
	b := make([]byte, n)
	rand.Read(b)

	for i := range b {
		b[i] = roomCodeChars[b[i]%byte(len(roomCodeChars))]
	}
	return string(b)
}
