package game

import (
	"time"
)

// Player represents a player in the game. The ID is the opaque connection
// identifier supplied by the transport.
type Player struct {
	ID                  string    `json:"id"`
	Username            string    `json:"username"`
	Score               int       `json:"score"`
	IsHost              bool      `json:"isHost"`
	IsConnected         bool      `json:"isConnected"`
	HasGuessedCorrectly bool      `json:"hasGuessedCorrectly"`
	JoinedAt            time.Time `json:"-"`
}

// NewPlayer creates a new connected player
func NewPlayer(id, username string, joinedAt time.Time) *Player {
	return &Player{
		ID:          id,
		Username:    username,
		IsConnected: true,
		JoinedAt:    joinedAt,
	}
}
