// Package protocol defines the JSON messages exchanged over the realtime
// connection. Every frame is an Envelope; inbound envelopes decode into one
// of the typed commands below.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Inbound event names
const (
	CmdCreateRoom  = "create_room"
	CmdJoinRoom    = "join_room"
	CmdStartGame   = "start_game"
	CmdSelectWord  = "select_word"
	CmdDraw        = "draw"
	CmdClearCanvas = "clear_canvas"
	CmdChatMessage = "chat_message"
	CmdGuess       = "guess"
	CmdLeaveRoom   = "leave_room"
)

// EventAck answers create_room and join_room, echoing the request id
const EventAck = "ack"

var (
	ErrUnknownEvent    = errors.New("unknown event")
	ErrMalformed       = errors.New("malformed payload")
	ErrMissingUsername = errors.New("username is required")
	ErrMissingRoomID   = errors.New("roomId is required")
	ErrMissingWord     = errors.New("word is required")
	ErrMissingData     = errors.New("draw data is required")
)

// Envelope is one frame on the wire
type Envelope struct {
	Event string          `json:"event"`
	ID    string          `json:"id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Outbound is a server-to-client frame
type Outbound struct {
	Event string `json:"event"`
	ID    string `json:"id,omitempty"`
	Data  any    `json:"data"`
}

// Ack is the synchronous answer to create_room and join_room
type Ack struct {
	Success bool   `json:"success"`
	RoomID  string `json:"roomId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Command is a decoded, validated inbound action
type Command interface {
	Name() string
	Validate() error
}

// RoomCommand is a command addressed to an existing room
type RoomCommand interface {
	Command
	Room() string
}

// CreateRoom asks for a new room hosted by the sender
type CreateRoom struct {
	Username string `json:"username"`
}

// JoinRoom asks to join, or rejoin, the room with the given code
type JoinRoom struct {
	Username string `json:"username"`
	RoomID   string `json:"roomId"`
}

// StartGame asks for a new game. TotalRounds of zero means the default.
type StartGame struct {
	RoomID      string `json:"roomId"`
	TotalRounds int    `json:"totalRounds,omitempty"`
}

// SelectWord is the drawer's pick from the offered word choices
type SelectWord struct {
	RoomID string `json:"roomId"`
	Word   string `json:"word"`
}

// Draw carries an opaque stroke payload that is forwarded verbatim
type Draw struct {
	RoomID string          `json:"roomId"`
	Data   json.RawMessage `json:"data"`
}

// ClearCanvas wipes every other player's canvas
type ClearCanvas struct {
	RoomID string `json:"roomId"`
}

// ChatMessage is free text relayed to the room in any phase
type ChatMessage struct {
	RoomID string `json:"roomId"`
	Text   string `json:"text"`
}

// Guess is a guesser's attempt at the secret word
type Guess struct {
	RoomID string `json:"roomId"`
	Text   string `json:"text"`
}

// LeaveRoom detaches the sender from the room
type LeaveRoom struct {
	RoomID string `json:"roomId"`
}

// Name returns the wire event of each command
func (CreateRoom) Name() string  { return CmdCreateRoom }
func (JoinRoom) Name() string    { return CmdJoinRoom }
func (StartGame) Name() string   { return CmdStartGame }
func (SelectWord) Name() string  { return CmdSelectWord }
func (Draw) Name() string        { return CmdDraw }
func (ClearCanvas) Name() string { return CmdClearCanvas }
func (ChatMessage) Name() string { return CmdChatMessage }
func (Guess) Name() string       { return CmdGuess }
func (LeaveRoom) Name() string   { return CmdLeaveRoom }

// Room returns the code of the room a command is addressed to
func (c StartGame) Room() string   { return c.RoomID }
func (c SelectWord) Room() string  { return c.RoomID }
func (c Draw) Room() string        { return c.RoomID }
func (c ClearCanvas) Room() string { return c.RoomID }
func (c ChatMessage) Room() string { return c.RoomID }
func (c Guess) Room() string       { return c.RoomID }
func (c LeaveRoom) Room() string   { return c.RoomID }

// Validate requires a username
func (c CreateRoom) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return ErrMissingUsername
	}
	return nil
}

// Validate requires a username and a room code
func (c JoinRoom) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return ErrMissingUsername
	}
	return requireRoom(c.RoomID)
}

// Validate rejects a negative round count
func (c StartGame) Validate() error {
	if c.TotalRounds < 0 {
		return fmt.Errorf("%w: totalRounds must not be negative", ErrMalformed)
	}
	return requireRoom(c.RoomID)
}

// Validate requires a word
func (c SelectWord) Validate() error {
	if strings.TrimSpace(c.Word) == "" {
		return ErrMissingWord
	}
	return requireRoom(c.RoomID)
}

// Validate requires a non-null stroke payload
func (c Draw) Validate() error {
	if len(c.Data) == 0 || string(c.Data) == "null" {
		return ErrMissingData
	}
	return requireRoom(c.RoomID)
}

// The remaining commands only need a room code
func (c ClearCanvas) Validate() error { return requireRoom(c.RoomID) }
func (c ChatMessage) Validate() error { return requireRoom(c.RoomID) }
func (c Guess) Validate() error       { return requireRoom(c.RoomID) }
func (c LeaveRoom) Validate() error   { return requireRoom(c.RoomID) }

func requireRoom(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrMissingRoomID
	}
	return nil
}

// Decode turns an envelope into a validated command
func Decode(env Envelope) (Command, error) {
	var cmd Command
	var err error

	switch env.Event {
	case CmdCreateRoom:
		cmd, err = decodeAs[CreateRoom](env.Data)
	case CmdJoinRoom:
		cmd, err = decodeAs[JoinRoom](env.Data)
	case CmdStartGame:
		cmd, err = decodeAs[StartGame](env.Data)
	case CmdSelectWord:
		cmd, err = decodeAs[SelectWord](env.Data)
	case CmdDraw:
		cmd, err = decodeAs[Draw](env.Data)
	case CmdClearCanvas:
		cmd, err = decodeAs[ClearCanvas](env.Data)
	case CmdChatMessage:
		cmd, err = decodeAs[ChatMessage](env.Data)
	case CmdGuess:
		cmd, err = decodeAs[Guess](env.Data)
	case CmdLeaveRoom:
		cmd, err = decodeAs[LeaveRoom](env.Data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
	if err != nil {
		return nil, err
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return cmd, nil
}

func decodeAs[T Command](data json.RawMessage) (Command, error) {
	var v T
	if len(data) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return v, nil
}
