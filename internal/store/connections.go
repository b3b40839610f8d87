package store

import (
	"sort"
	"sync"
)

// ConnectionTracker maps connections to the room they are attached to and
// rooms to their attached connections. A connection is attached to at most
// one room.
type ConnectionTracker struct {
	mu      sync.RWMutex
	rooms   map[string]string
	members map[string]map[string]struct{}
}

// NewConnectionTracker creates an empty tracker
func NewConnectionTracker() *ConnectionTracker {
	return &ConnectionTracker{
		rooms:   make(map[string]string),
		members: make(map[string]map[string]struct{}),
	}
}

// Attach binds connID to roomID and returns the room it was previously
// attached to, if any.
func (t *ConnectionTracker) Attach(connID, roomID string) (previous string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	previous = t.detach(connID)
	t.rooms[connID] = roomID
	set, ok := t.members[roomID]
	if !ok {
		set = make(map[string]struct{})
		t.members[roomID] = set
	}
	set[connID] = struct{}{}
	return previous
}

// Detach removes connID's attachment and returns the room it was in
func (t *ConnectionTracker) Detach(connID string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.detach(connID)
}

// DetachFrom removes connID only if it is attached to roomID
func (t *ConnectionTracker) DetachFrom(connID, roomID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.rooms[connID] != roomID {
		return false
	}
	t.detach(connID)
	return true
}

// DropRoom detaches every connection from roomID and returns them
func (t *ConnectionTracker) DropRoom(roomID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	set := t.members[roomID]
	conns := make([]string, 0, len(set))
	for id := range set {
		conns = append(conns, id)
		delete(t.rooms, id)
	}
	delete(t.members, roomID)
	sort.Strings(conns)
	return conns
}

// RoomOf returns the room connID is attached to
func (t *ConnectionTracker) RoomOf(connID string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	roomID, ok := t.rooms[connID]
	return roomID, ok
}

// Members returns the connections attached to roomID
func (t *ConnectionTracker) Members(roomID string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	set := t.members[roomID]
	conns := make([]string, 0, len(set))
	for id := range set {
		conns = append(conns, id)
	}
	sort.Strings(conns)
	return conns
}

// Count returns the number of attached connections
func (t *ConnectionTracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rooms)
}

func (t *ConnectionTracker) detach(connID string) string {
	roomID, ok := t.rooms[connID]
	if !ok {
		return ""
	}
	delete(t.rooms, connID)
	if set := t.members[roomID]; set != nil {
		delete(set, connID)
		if len(set) == 0 {
			delete(t.members, roomID)
		}
	}
	return roomID
}
