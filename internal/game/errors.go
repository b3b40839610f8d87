package game

import "errors"

// Validation errors
var (
	ErrInvalidUsername = errors.New("username is required")
	ErrUsernameTooLong = errors.New("username is too long")
	ErrUsernameTaken   = errors.New("a player with that name is already in the room")
	ErrRoomFull        = errors.New("room is full")
	ErrEmptyMessage    = errors.New("message is empty")
	ErrMessageTooLong  = errors.New("message is too long")
	ErrRoomClosed      = errors.New("room has been closed")
)

// Authorization errors
var (
	ErrNotInRoom         = errors.New("you are not in this room")
	ErrNotHost           = errors.New("only the host can start the game")
	ErrNotDrawer         = errors.New("only the current drawer can do that")
	ErrDrawerCannotGuess = errors.New("the drawer cannot guess")
	ErrAlreadyGuessed    = errors.New("you have already guessed the word")
)

// State errors
var (
	ErrNotEnoughPlayers = errors.New("not enough players to start")
	ErrGameInProgress   = errors.New("game has already started")
	ErrWrongPhase       = errors.New("action not allowed in the current phase")
	ErrInvalidWord      = errors.New("word is not one of the offered choices")
)

// Structural faults, logged and recovered by falling back to waiting
var (
	ErrNoEligibleDrawer = errors.New("no eligible drawer")
)
