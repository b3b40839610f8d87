package game

import (
	"math/rand/v2"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeScheduler is a manual clock. Callbacks only run inside Advance.
type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	s       *fakeScheduler
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (s *fakeScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &fakeTimer{s: s, at: s.now.Add(d), f: f}
	s.timers = append(s.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock forward by d, firing every timer that falls due
// along the way in chronological order, including timers scheduled by the
// callbacks themselves.
func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now.Add(d)
	s.mu.Unlock()

	for {
		s.mu.Lock()
		next := s.nextDue(target)
		if next == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		s.now = next.at
		next.fired = true
		s.mu.Unlock()

		next.f()
	}
}

// Pending counts timers that are neither stopped nor fired
func (s *fakeScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (s *fakeScheduler) nextDue(target time.Time) *fakeTimer {
	live := make([]*fakeTimer, 0, len(s.timers))
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			live = append(live, t)
		}
	}
	s.timers = live

	sort.SliceStable(live, func(i, j int) bool { return live[i].at.Before(live[j].at) })
	if len(live) == 0 || live[0].at.After(target) {
		return nil
	}
	return live[0]
}

// sentEvent is one recorded broadcast. Exactly one of To and Room is set.
type sentEvent struct {
	To      string
	Room    string
	Event   string
	Payload any
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []sentEvent
}

func (b *recordingBroadcaster) Emit(connID, event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, sentEvent{To: connID, Event: event, Payload: payload})
}

func (b *recordingBroadcaster) EmitRoom(roomID, event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, sentEvent{Room: roomID, Event: event, Payload: payload})
}

func (b *recordingBroadcaster) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
}

// ToConn returns the payloads of event sent directly to connID
func (b *recordingBroadcaster) ToConn(connID, event string) []any {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []any
	for _, e := range b.events {
		if e.To == connID && e.Event == event {
			out = append(out, e.Payload)
		}
	}
	return out
}

// ToRoom returns the payloads of event broadcast to the whole room
func (b *recordingBroadcaster) ToRoom(event string) []any {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []any
	for _, e := range b.events {
		if e.Room != "" && e.Event == event {
			out = append(out, e.Payload)
		}
	}
	return out
}

// Recipients lists the connections that received event directly
func (b *recordingBroadcaster) Recipients(event string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []string
	for _, e := range b.events {
		if e.To != "" && e.Event == event {
			out = append(out, e.To)
		}
	}
	return out
}

type countingRecorder struct {
	mu      sync.Mutex
	started int
	reasons []string
	correct int
	wrong   int
}

func (c *countingRecorder) GameStarted(string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started++
}

func (c *countingRecorder) RoundEnded(_, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reasons = append(c.reasons, reason)
}

func (c *countingRecorder) GuessEvaluated(_ string, correct bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if correct {
		c.correct++
	} else {
		c.wrong++
	}
}

var testWords = []string{"apple", "banana", "cherry", "dragon fruit", "eel"}

func testSettings() Settings {
	return Settings{
		DefaultRounds:     3,
		MaxRounds:         10,
		MinPlayers:        2,
		MaxPlayers:        4,
		WordChoiceCount:   3,
		SelectionSeconds:  15,
		RoundSeconds:      60,
		RoundEndDelay:     5 * time.Second,
		MaxUsernameLength: 20,
		MaxMessageLength:  200,
		Scoring:           Scoring{BaseAward: 100, TimeBonusFactor: 2.0, DrawerBonus: 25},
	}
}

type roomFixture struct {
	room  *Room
	clock *fakeScheduler
	out   *recordingBroadcaster
	rec   *countingRecorder
}

// newFixture creates room "ROOM1" hosted by "h" (Host) and joins the other
// ids with their id as username.
func newFixture(t *testing.T, words []string, others ...string) *roomFixture {
	t.Helper()
	return newFixtureWith(t, testSettings(), words, others...)
}

func newFixtureWith(t *testing.T, settings Settings, words []string, others ...string) *roomFixture {
	t.Helper()

	f := &roomFixture{
		clock: newFakeScheduler(),
		out:   &recordingBroadcaster{},
		rec:   &countingRecorder{},
	}
	room, err := NewRoom("ROOM1", "h", "Host", settings, Deps{
		Broadcaster: f.out,
		Scheduler:   f.clock,
		Words:       NewWordSelector(words, rand.NewPCG(1, 2)),
		Recorder:    f.rec,
		Logger:      zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	f.room = room

	for _, id := range others {
		require.NoError(t, room.Join(id, id))
	}
	return f
}

// startDrawing starts a game and has the host pick the first offered word.
func (f *roomFixture) startDrawing(t *testing.T, rounds int) string {
	t.Helper()
	require.NoError(t, f.room.Start("h", rounds))
	word := f.room.WordChoices()[0]
	require.NoError(t, f.room.SelectWord("h", word))
	return word
}

func (f *roomFixture) player(t *testing.T, id string) Player {
	t.Helper()
	p, ok := f.room.GetPlayer(id)
	require.True(t, ok, "player %s not found", id)
	return p
}

func hostCount(players []Player) int {
	n := 0
	for _, p := range players {
		if p.IsHost {
			n++
		}
	}
	return n
}
