package game

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"scribbly/internal/config"
)

// Settings are the game tunables a room runs with
type Settings struct {
	DefaultRounds     int
	MaxRounds         int
	MinPlayers        int
	MaxPlayers        int
	WordChoiceCount   int
	SelectionSeconds  int
	RoundSeconds      int
	RoundEndDelay     time.Duration
	MaxUsernameLength int
	MaxMessageLength  int
	Scoring           Scoring
}

// SettingsFromConfig derives room settings from the server configuration
func SettingsFromConfig(cfg *config.ServerConfig) Settings {
	g := cfg.Game
	return Settings{
		DefaultRounds:     g.DefaultRounds,
		MaxRounds:         g.MaxRounds,
		MinPlayers:        g.MinPlayers,
		MaxPlayers:        cfg.Server.MaxPlayersPerRoom,
		WordChoiceCount:   g.WordChoiceCount,
		SelectionSeconds:  g.SelectionSeconds,
		RoundSeconds:      g.RoundSeconds,
		RoundEndDelay:     g.RoundEndDelay,
		MaxUsernameLength: g.MaxUsernameLength,
		MaxMessageLength:  g.MaxMessageLength,
		Scoring: Scoring{
			BaseAward:       g.BaseAward,
			TimeBonusFactor: g.TimeBonusFactor,
			DrawerBonus:     g.DrawerBonus,
		},
	}
}

// Deps are the collaborators a room talks to
type Deps struct {
	Broadcaster Broadcaster
	Scheduler   Scheduler
	Words       *WordSelector
	Recorder    Recorder
	Logger      *zap.Logger
}

// Retention decides when the registry sweep evicts a room
type Retention struct {
	MaxAge           time.Duration
	EmptyGrace       time.Duration
	GameEndRetention time.Duration
}

// RoomSummary is a point-in-time description of a room for ops views
type RoomSummary struct {
	Code        string
	Status      Status
	Players     int
	Connected   int
	Round       int
	TotalRounds int
	CreatedAt   time.Time
}

// phaseTimer is the one scheduled task a room may have. It only acts if the
// room is still in the phase and round it was created for.
type phaseTimer struct {
	phase  Status
	round  int
	handle Timer
}

// Room is one game session. Every exported method takes the room lock, so
// actions on a room are applied one at a time in arrival order.
type Room struct {
	Code      string
	CreatedAt time.Time

	mu          sync.Mutex
	settings    Settings
	players     []*Player // join order, never pruned
	state       GameState
	wordChoices []string
	turns       TurnScheduler
	timer       *phaseTimer
	emptySince  time.Time
	closed      bool

	out     Broadcaster
	clock   Scheduler
	words   *WordSelector
	metrics Recorder
	log     *zap.Logger
}

// NewRoom creates a room in the waiting phase with the creator as its only
// player and host. Nothing is broadcast until Welcome is called.
func NewRoom(code, creatorID, username string, settings Settings, deps Deps) (*Room, error) {
	if deps.Scheduler == nil {
		deps.Scheduler = SystemScheduler{}
	}
	if deps.Recorder == nil {
		deps.Recorder = nopRecorder{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	r := &Room{
		Code:     code,
		settings: settings,
		state:    NewGameState(settings.DefaultRounds),
		out:      deps.Broadcaster,
		clock:    deps.Scheduler,
		words:    deps.Words,
		metrics:  deps.Recorder,
		log:      deps.Logger.With(zap.String("room", code)),
	}
	r.CreatedAt = r.clock.Now()

	username, err := r.validateUsername(username)
	if err != nil {
		return nil, err
	}

	host := NewPlayer(creatorID, username, r.CreatedAt)
	host.IsHost = true
	r.players = append(r.players, host)

	r.log.Info("room created", zap.String("host", username))
	return r, nil
}

// Welcome sends the roster and the current state to a freshly attached player
func (r *Room) Welcome(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p := r.player(playerID); p != nil && !r.closed {
		r.welcome(p)
	}
}

// Join adds a player or reactivates the record with the same identifier.
func (r *Room) Join(playerID, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	username, err := r.admit(playerID, username)
	if err != nil {
		return err
	}

	if p := r.player(playerID); p != nil {
		if !p.IsConnected {
			p.IsConnected = true
			r.emptySince = time.Time{}
			r.ensureHost()
			r.log.Info("player reconnected", zap.String("player", p.Username))
			r.systemChat(fmt.Sprintf("%s reconnected", p.Username))
		}
		r.welcome(p)
		return nil
	}

	p := NewPlayer(playerID, username, r.clock.Now())
	r.players = append(r.players, p)
	r.ensureHost()

	r.log.Info("player joined", zap.String("player", username), zap.Bool("host", p.IsHost))
	r.systemChat(fmt.Sprintf("%s joined the room", username))
	r.welcome(p)
	return nil
}

// CanJoin reports the error Join would return, without changing the room.
func (r *Room) CanJoin(playerID, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.admit(playerID, username)
	return err
}

// admit checks a join request and returns the cleaned username. A known
// player id is always admitted as a reconnect.
func (r *Room) admit(playerID, username string) (string, error) {
	if r.closed {
		return "", ErrRoomClosed
	}
	if r.player(playerID) != nil {
		return username, nil
	}

	username, err := r.validateUsername(username)
	if err != nil {
		return "", err
	}
	for _, p := range r.players {
		if p.IsConnected && strings.EqualFold(p.Username, username) {
			return "", ErrUsernameTaken
		}
	}
	if r.settings.MaxPlayers > 0 && r.connectedCount() >= r.settings.MaxPlayers {
		return "", ErrRoomFull
	}
	return username, nil
}

// Disconnect marks a player as gone. It reports true when the room has no
// connected players left and was closed as a result.
func (r *Room) Disconnect(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.player(playerID)
	if r.closed || p == nil || !p.IsConnected {
		return r.closed
	}
	p.IsConnected = false

	connected := r.connectedCount()
	if connected == 0 {
		r.emptySince = r.clock.Now()
		if r.state.Status != StatusGameEnd {
			r.log.Info("last player left, closing room", zap.String("player", p.Username))
			r.closeLocked("")
			return true
		}
		r.log.Info("last player left finished game, keeping room", zap.String("player", p.Username))
		return false
	}

	r.systemChat(fmt.Sprintf("%s left the room", p.Username))

	if p.IsHost {
		p.IsHost = false
		if host := r.ensureHost(); host != nil {
			r.log.Info("host reassigned", zap.String("from", p.Username), zap.String("to", host.Username))
			r.systemChat(fmt.Sprintf("%s is now the host", host.Username))
			r.notify(host.ID, "You are now the host.")
		}
	}

	status := r.state.Status
	if p.ID == r.state.CurrentDrawer && (status == StatusSelecting || status == StatusDrawing) {
		r.endRound(ReasonDrawerDisconnected)
	}

	switch {
	case connected < r.settings.MinPlayers && r.state.Status != StatusWaiting && r.state.Status != StatusGameEnd:
		r.toWaiting("Not enough players to continue. Waiting for more players.")
	case r.state.Status == StatusDrawing && r.allGuessed():
		r.endRound(ReasonAllGuessed)
	}

	r.emitRoster()
	return false
}

// Close cancels the room's timers and, when reason is set, tells connected
// players the room is gone.
func (r *Room) Close(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeLocked(reason)
}

// Stale reports whether the sweep should evict the room
func (r *Room) Stale(now time.Time, ret Retention) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.staleLocked(now, ret)
}

func (r *Room) staleLocked(now time.Time, ret Retention) bool {
	if r.closed {
		return true
	}
	if ret.MaxAge > 0 && now.Sub(r.CreatedAt) > ret.MaxAge {
		return true
	}
	if r.connectedCount() > 0 {
		return false
	}
	grace := ret.EmptyGrace
	if r.state.Status == StatusGameEnd {
		grace = ret.GameEndRetention
	}
	return now.Sub(r.emptySince) > grace
}

// CloseIfStale closes the room with reason when it is stale, checking and
// closing under one lock so a concurrent join either keeps the room alive or
// sees it closed.
func (r *Room) CloseIfStale(now time.Time, ret Retention, reason string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.staleLocked(now, ret) {
		return false
	}
	r.closeLocked(reason)
	return true
}

// Closed reports whether the room has been shut down
func (r *Room) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// State returns the current game state
func (r *Room) State() GameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Players returns a copy of the roster in join order
func (r *Room) Players() []Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.roster()
}

// GetPlayer returns a copy of one player
func (r *Room) GetPlayer(playerID string) (Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p := r.player(playerID); p != nil {
		return *p, true
	}
	return Player{}, false
}

// WordChoices returns the words currently offered to the drawer
func (r *Room) WordChoices() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.wordChoices...)
}

// LastDrawerIndex returns the roster position of the most recent drawer
func (r *Room) LastDrawerIndex() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.turns.LastDrawerIndex()
}

// ConnectedCount returns the number of connected players
func (r *Room) ConnectedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connectedCount()
}

// Summary describes the room for the status page
func (r *Room) Summary() RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	return RoomSummary{
		Code:        r.Code,
		Status:      r.state.Status,
		Players:     len(r.players),
		Connected:   r.connectedCount(),
		Round:       r.state.CurrentRound,
		TotalRounds: r.state.TotalRounds,
		CreatedAt:   r.CreatedAt,
	}
}

func (r *Room) closeLocked(reason string) {
	if r.closed {
		return
	}
	r.closed = true
	r.cancelTimer()

	if reason != "" && r.connectedCount() > 0 {
		r.out.EmitRoom(r.Code, EventRoomClosed, Notice{RoomID: r.Code, Message: reason})
	}
	r.log.Info("room closed", zap.String("reason", reason))
}

func (r *Room) validateUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", ErrInvalidUsername
	}
	if r.settings.MaxUsernameLength > 0 && len([]rune(username)) > r.settings.MaxUsernameLength {
		return "", ErrUsernameTooLong
	}
	return username, nil
}

func (r *Room) player(id string) *Player {
	for _, p := range r.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) indexOf(id string) int {
	for i, p := range r.players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (r *Room) connectedPlayer(id string) *Player {
	if p := r.player(id); p != nil && p.IsConnected {
		return p
	}
	return nil
}

func (r *Room) connectedCount() int {
	n := 0
	for _, p := range r.players {
		if p.IsConnected {
			n++
		}
	}
	return n
}

// ensureHost keeps exactly one host among connected players, preferring the
// current one and otherwise promoting the earliest connected player. It
// returns the host, or nil when nobody is connected.
func (r *Room) ensureHost() *Player {
	var host *Player
	for _, p := range r.players {
		if p.IsHost && p.IsConnected {
			host = p
			break
		}
	}
	if host == nil {
		for _, p := range r.players {
			if p.IsConnected {
				host = p
				break
			}
		}
	}
	if host == nil {
		return nil
	}
	for _, p := range r.players {
		p.IsHost = p == host
	}
	return host
}

func (r *Room) roster() []Player {
	out := make([]Player, len(r.players))
	for i, p := range r.players {
		out[i] = *p
	}
	return out
}

func (r *Room) welcome(p *Player) {
	r.emitRoster()
	r.out.Emit(p.ID, EventGameState, r.state.ForViewer(p.ID))
	if r.state.Status == StatusSelecting && p.ID == r.state.CurrentDrawer {
		r.out.Emit(p.ID, EventWordChoices, WordChoices{
			Words:     append([]string(nil), r.wordChoices...),
			TimeLimit: r.state.TimeLeft,
		})
	}
}

func (r *Room) emitRoster() {
	r.out.EmitRoom(r.Code, EventRoomUpdate, RoomUpdate{RoomID: r.Code, Players: r.roster()})
}

// emitState sends each connected player their view of the state
func (r *Room) emitState() {
	for _, p := range r.players {
		if p.IsConnected {
			r.out.Emit(p.ID, EventGameState, r.state.ForViewer(p.ID))
		}
	}
}

func (r *Room) systemChat(text string) {
	r.out.EmitRoom(r.Code, EventChatMessage, ChatMessage{Kind: ChatSystem, Text: text})
}

// notify sends a notice to a single player
func (r *Room) notify(playerID, text string) {
	r.out.Emit(playerID, EventSystemMessage, Notice{RoomID: r.Code, Message: text})
}

// reject reports an authorization or state error to the offending connection
func (r *Room) reject(playerID string, err error) error {
	r.out.Emit(playerID, EventErrorMessage, Notice{RoomID: r.Code, Message: err.Error()})
	r.log.Debug("action rejected", zap.String("player", playerID), zap.Error(err))
	return err
}
