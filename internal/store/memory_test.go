package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"scribbly/internal/config"
	"scribbly/internal/game"
)

// manualClock never fires timers; sweep tests pass explicit times
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

type noopTimer struct{}

func (noopTimer) Stop() bool { return true }

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(time.Duration, func()) game.Timer {
	return noopTimer{}
}

func (c *manualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type event struct {
	conn  string
	room  string
	event string
}

type captureBroadcaster struct {
	mu     sync.Mutex
	conns  *ConnectionTracker
	events []event
}

func (b *captureBroadcaster) Emit(connID, name string, _ any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event{conn: connID, event: name})
}

// EmitRoom fans out through the tracker the way the websocket hub does
func (b *captureBroadcaster) EmitRoom(roomID, name string, _ any) {
	members := b.conns.Members(roomID)
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range members {
		b.events = append(b.events, event{conn: id, room: roomID, event: name})
	}
}

func (b *captureBroadcaster) received(connID, name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e.conn == connID && e.event == name {
			n++
		}
	}
	return n
}

type storeFixture struct {
	store *MemoryStore
	clock *manualClock
	out   *captureBroadcaster
}

func newStoreFixture(t *testing.T) *storeFixture {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Server.MaxPlayersPerRoom = 3
	conns := NewConnectionTracker()
	clock := &manualClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	out := &captureBroadcaster{conns: conns}

	s := NewMemoryStore(cfg, conns, game.Deps{
		Broadcaster: out,
		Scheduler:   clock,
		Words:       game.NewWordSelector([]string{"apple", "banana", "cherry"}, nil),
	}, zaptest.NewLogger(t))
	return &storeFixture{store: s, clock: clock, out: out}
}

func TestCreateRoom(t *testing.T) {
	f := newStoreFixture(t)

	room, err := f.store.CreateRoom("c1", "Alice")
	require.NoError(t, err)

	assert.Len(t, room.Code, 6)
	for _, char := range room.Code {
		assert.Contains(t, roomCodeChars, string(char))
	}

	players := room.Players()
	require.Len(t, players, 1)
	assert.True(t, players[0].IsHost)
	assert.Equal(t, "c1", players[0].ID)

	current, ok := f.store.Connections().RoomOf("c1")
	assert.True(t, ok)
	assert.Equal(t, room.Code, current)

	assert.Equal(t, 1, f.out.received("c1", game.EventRoomUpdate))
	assert.Equal(t, 1, f.out.received("c1", game.EventGameState))

	_, err = f.store.CreateRoom("c2", "  ")
	assert.ErrorIs(t, err, game.ErrInvalidUsername)
	assert.Equal(t, 1, f.store.Count())
}

func TestCreateRoom_UniqueCodes(t *testing.T) {
	f := newStoreFixture(t)

	codes := make(map[string]bool)
	for i := 0; i < 100; i++ {
		room, err := f.store.CreateRoom(fmt.Sprintf("c%d", i), "Player")
		require.NoError(t, err)
		assert.False(t, codes[room.Code], "duplicate room code %s", room.Code)
		codes[room.Code] = true
	}
	assert.Equal(t, 100, f.store.Count())
}

func TestCreateRoom_LeavesPreviousRoom(t *testing.T) {
	f := newStoreFixture(t)

	first, err := f.store.CreateRoom("c1", "Alice")
	require.NoError(t, err)
	second, err := f.store.CreateRoom("c1", "Alice")
	require.NoError(t, err)

	assert.NotEqual(t, first.Code, second.Code)
	assert.True(t, first.Closed(), "the abandoned room had no one left")
	_, err = f.store.GetRoom(first.Code)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestCreateRoom_RejectedKeepsCurrentRoom(t *testing.T) {
	f := newStoreFixture(t)
	room, err := f.store.CreateRoom("c1", "Alice")
	require.NoError(t, err)

	_, err = f.store.CreateRoom("c1", strings.Repeat("x", 50))
	assert.ErrorIs(t, err, game.ErrUsernameTooLong)

	assert.False(t, room.Closed(), "the last member's room must survive a rejected create")
	_, err = f.store.GetRoom(room.Code)
	assert.NoError(t, err)
	assert.Equal(t, 1, f.store.Count())
	current, ok := f.store.Connections().RoomOf("c1")
	require.True(t, ok)
	assert.Equal(t, room.Code, current)
	assert.Equal(t, 1, room.ConnectedCount())
}

func TestJoinRoom(t *testing.T) {
	t.Run("joins with a case-insensitive code", func(t *testing.T) {
		f := newStoreFixture(t)
		room, err := f.store.CreateRoom("c1", "Alice")
		require.NoError(t, err)

		joined, err := f.store.JoinRoom("c2", "Bob", " "+strings.ToLower(room.Code)+" ")
		require.NoError(t, err)
		assert.Same(t, room, joined)
		assert.Equal(t, []string{"c1", "c2"}, f.store.Connections().Members(room.Code))
		assert.Len(t, room.Players(), 2)
	})

	t.Run("unknown room", func(t *testing.T) {
		f := newStoreFixture(t)
		_, err := f.store.JoinRoom("c2", "Bob", "NOPE00")
		assert.True(t, errors.Is(err, ErrRoomNotFound))
		_, ok := f.store.Connections().RoomOf("c2")
		assert.False(t, ok)
	})

	t.Run("failed join leaves the connection detached", func(t *testing.T) {
		f := newStoreFixture(t)
		room, err := f.store.CreateRoom("c1", "Alice")
		require.NoError(t, err)

		_, err = f.store.JoinRoom("c2", "alice", room.Code)
		assert.ErrorIs(t, err, game.ErrUsernameTaken)
		assert.Equal(t, []string{"c1"}, f.store.Connections().Members(room.Code))
	})

	t.Run("rejected join keeps the caller in their current game", func(t *testing.T) {
		f := newStoreFixture(t)
		a, err := f.store.CreateRoom("c1", "Alice")
		require.NoError(t, err)
		_, err = f.store.JoinRoom("c2", "Bob", a.Code)
		require.NoError(t, err)
		require.NoError(t, a.Start("c1", 3))

		b, err := f.store.CreateRoom("c3", "Carol")
		require.NoError(t, err)

		_, err = f.store.JoinRoom("c1", "carol", b.Code)
		assert.ErrorIs(t, err, game.ErrUsernameTaken)

		p, ok := a.GetPlayer("c1")
		require.True(t, ok)
		assert.True(t, p.IsConnected)
		assert.True(t, p.IsHost)
		assert.Equal(t, game.StatusSelecting, a.State().Status)
		assert.Equal(t, "c1", a.State().CurrentDrawer)
		current, _ := f.store.Connections().RoomOf("c1")
		assert.Equal(t, a.Code, current)
		assert.Equal(t, []string{"c3"}, f.store.Connections().Members(b.Code))
		assert.Len(t, b.Players(), 1)
	})

	t.Run("room cap counts connected players", func(t *testing.T) {
		f := newStoreFixture(t)
		room, err := f.store.CreateRoom("c1", "A")
		require.NoError(t, err)
		_, err = f.store.JoinRoom("c2", "B", room.Code)
		require.NoError(t, err)
		_, err = f.store.JoinRoom("c3", "C", room.Code)
		require.NoError(t, err)

		_, err = f.store.JoinRoom("c4", "D", room.Code)
		assert.ErrorIs(t, err, game.ErrRoomFull)
	})

	t.Run("switching rooms disconnects from the first", func(t *testing.T) {
		f := newStoreFixture(t)
		a, err := f.store.CreateRoom("c1", "Alice")
		require.NoError(t, err)
		_, err = f.store.JoinRoom("c2", "Bob", a.Code)
		require.NoError(t, err)
		b, err := f.store.CreateRoom("c3", "Carol")
		require.NoError(t, err)

		_, err = f.store.JoinRoom("c2", "Bob", b.Code)
		require.NoError(t, err)

		p, ok := a.GetPlayer("c2")
		require.True(t, ok)
		assert.False(t, p.IsConnected)
		assert.Equal(t, []string{"c1"}, f.store.Connections().Members(a.Code))
		assert.Equal(t, []string{"c2", "c3"}, f.store.Connections().Members(b.Code))
	})

	t.Run("rejoining the same room is a reconnect", func(t *testing.T) {
		f := newStoreFixture(t)
		room, err := f.store.CreateRoom("c1", "Alice")
		require.NoError(t, err)

		_, err = f.store.JoinRoom("c1", "Alice", room.Code)
		require.NoError(t, err)
		assert.Len(t, room.Players(), 1)
		assert.Equal(t, 1, room.ConnectedCount())
	})
}

func TestResolve(t *testing.T) {
	f := newStoreFixture(t)
	room, err := f.store.CreateRoom("c1", "Alice")
	require.NoError(t, err)

	got, err := f.store.Resolve("c1", room.Code)
	require.NoError(t, err)
	assert.Same(t, room, got)

	got, err = f.store.Resolve("c9", room.Code)
	assert.ErrorIs(t, err, ErrNotAttached)
	assert.Same(t, room, got, "the room is returned so the caller can ask for rejoin details")

	_, err = f.store.Resolve("c1", "GONE00")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestDisconnect(t *testing.T) {
	f := newStoreFixture(t)
	room, err := f.store.CreateRoom("c1", "Alice")
	require.NoError(t, err)
	_, err = f.store.JoinRoom("c2", "Bob", room.Code)
	require.NoError(t, err)

	f.store.Disconnect("c1")
	assert.Equal(t, 1, f.store.Count())
	p, _ := room.GetPlayer("c2")
	assert.True(t, p.IsHost)

	f.store.Disconnect("c2")
	assert.Zero(t, f.store.Count())
	assert.True(t, room.Closed())
	assert.Empty(t, f.store.Connections().Members(room.Code))

	f.store.Disconnect("never-attached")
}

func TestSweep(t *testing.T) {
	f := newStoreFixture(t)
	start := f.clock.Now()

	old, err := f.store.CreateRoom("c1", "Alice")
	require.NoError(t, err)

	f.clock.Set(start.Add(23 * time.Hour))
	fresh, err := f.store.CreateRoom("c2", "Bob")
	require.NoError(t, err)

	assert.Zero(t, f.store.Sweep(start.Add(time.Hour)))

	evicted := f.store.Sweep(start.Add(24*time.Hour + time.Minute))
	assert.Equal(t, 1, evicted)
	assert.True(t, old.Closed())
	assert.Equal(t, 1, f.out.received("c1", game.EventRoomClosed))
	_, ok := f.store.Connections().RoomOf("c1")
	assert.False(t, ok)

	_, err = f.store.GetRoom(fresh.Code)
	assert.NoError(t, err)
}

func TestCloseAll(t *testing.T) {
	f := newStoreFixture(t)
	for i := 0; i < 3; i++ {
		_, err := f.store.CreateRoom(fmt.Sprintf("c%d", i), "P")
		require.NoError(t, err)
	}

	f.store.CloseAll("Server is shutting down.")
	assert.Zero(t, f.store.Count())
	assert.Zero(t, f.store.Connections().Count())
	assert.Equal(t, 1, f.out.received("c0", game.EventRoomClosed))
}

func TestSummaries(t *testing.T) {
	f := newStoreFixture(t)
	start := f.clock.Now()

	first, err := f.store.CreateRoom("c1", "Alice")
	require.NoError(t, err)
	f.clock.Set(start.Add(time.Minute))
	second, err := f.store.CreateRoom("c2", "Bob")
	require.NoError(t, err)

	summaries := f.store.Summaries()
	require.Len(t, summaries, 2)
	assert.Equal(t, first.Code, summaries[0].Code)
	assert.Equal(t, second.Code, summaries[1].Code)
	assert.Equal(t, game.StatusWaiting, summaries[0].Status)
	assert.Equal(t, 1, summaries[0].Connected)
}

func TestConcurrentAccess(t *testing.T) {
	f := newStoreFixture(t)
	host, err := f.store.CreateRoom("host", "Host")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			conn := fmt.Sprintf("c%d", idx)
			if idx%2 == 0 {
				_, _ = f.store.CreateRoom(conn, "P")
			} else {
				_, _ = f.store.JoinRoom(conn, conn, host.Code)
			}
			_ = f.store.Summaries()
			f.store.Disconnect(conn)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, f.store.Count(), "only the host's room survives")
	assert.Equal(t, 1, f.store.Connections().Count())
}

func TestGenerateRoomCode(t *testing.T) {
	for _, n := range []int{3, 6, 8} {
		assert.Len(t, generateRoomCode(n), n)
	}
	assert.Equal(t, "ABC123", NormalizeCode("  abc123 "))
}
