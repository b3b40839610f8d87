package game

import "encoding/json"

// Outbound event names
const (
	EventGameState       = "game_state"
	EventRoomUpdate      = "room_update"
	EventWordChoices     = "word_choices"
	EventDrawData        = "draw_data"
	EventClearCanvas     = "clear_canvas_broadcast"
	EventChatMessage     = "new_chat_message"
	EventRoundEndDetails = "round_end_details"
	EventSystemMessage   = "system_message"
	EventErrorMessage    = "error_message"
	EventRequestRejoin   = "request_rejoin_details"
	EventRoomClosed      = "room_closed"
)

// Chat message kinds
const (
	ChatNormal       = "normal"
	ChatCorrectGuess = "correct_guess"
	ChatSystem       = "system"
)

// Round end reasons
const (
	ReasonTimeUp             = "time up"
	ReasonAllGuessed         = "all guessed"
	ReasonDrawerDisconnected = "drawer disconnected"
)

// Broadcaster delivers events to clients. Implementations must not block:
// rooms call it while holding their lock.
type Broadcaster interface {
	// Emit sends an event to a single connection
	Emit(connID, event string, payload any)
	// EmitRoom sends an event to every connection attached to the room
	EmitRoom(roomID, event string, payload any)
}

// Recorder receives game metrics. A nil Recorder is replaced by a no-op.
type Recorder interface {
	GameStarted(roomID string)
	RoundEnded(roomID, reason string)
	GuessEvaluated(roomID string, correct bool)
}

type nopRecorder struct{}

func (nopRecorder) GameStarted(string)          {}
func (nopRecorder) RoundEnded(string, string)   {}
func (nopRecorder) GuessEvaluated(string, bool) {}

// RoomUpdate carries the player roster
type RoomUpdate struct {
	RoomID  string   `json:"roomId"`
	Players []Player `json:"players"`
}

// WordChoices is sent only to the drawer
type WordChoices struct {
	Words     []string `json:"words"`
	TimeLimit int      `json:"timeLimit"`
}

// ChatMessage is a new_chat_message entry
type ChatMessage struct {
	Kind     string `json:"kind"`
	PlayerID string `json:"playerId,omitempty"`
	Username string `json:"username,omitempty"`
	Text     string `json:"text"`
}

// DrawData forwards an opaque stroke payload from the drawer
type DrawData struct {
	PlayerID string          `json:"playerId"`
	Data     json.RawMessage `json:"data"`
}

// ScoreEntry is one line of a score snapshot
type ScoreEntry struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// RoundEndDetails reveals the word and the scores after a round
type RoundEndDetails struct {
	Word   string       `json:"word"`
	Reason string       `json:"reason"`
	Round  int          `json:"round"`
	Scores []ScoreEntry `json:"scores"`
}

// Notice is the payload of system_message, error_message,
// request_rejoin_details and room_closed
type Notice struct {
	RoomID  string `json:"roomId,omitempty"`
	Message string `json:"message"`
}
