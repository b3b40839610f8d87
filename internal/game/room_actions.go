package game

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Guess evaluates a guess from a non-drawer during the drawing phase.
// Correct guesses are announced without the word; wrong ones are relayed
// as ordinary chat.
func (r *Room) Guess(playerID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return r.reject(playerID, ErrRoomClosed)
	}
	text, err := r.validateMessage(text)
	if err != nil {
		return r.reject(playerID, err)
	}
	p := r.connectedPlayer(playerID)
	if p == nil {
		return r.reject(playerID, ErrNotInRoom)
	}
	if r.state.Status != StatusDrawing {
		return r.reject(playerID, ErrWrongPhase)
	}
	if p.ID == r.state.CurrentDrawer {
		return r.reject(playerID, ErrDrawerCannotGuess)
	}
	if p.HasGuessedCorrectly {
		return r.reject(playerID, ErrAlreadyGuessed)
	}

	correct := strings.EqualFold(text, r.state.Word)
	r.metrics.GuessEvaluated(r.Code, correct)

	if !correct {
		r.out.EmitRoom(r.Code, EventChatMessage, ChatMessage{
			Kind:     ChatNormal,
			PlayerID: p.ID,
			Username: p.Username,
			Text:     text,
		})
		return nil
	}

	award := r.settings.Scoring.GuesserAward(r.state.TimeLeft)
	p.Score += award
	p.HasGuessedCorrectly = true
	if drawer := r.player(r.state.CurrentDrawer); drawer != nil {
		drawer.Score += r.settings.Scoring.DrawerAward()
	}

	r.log.Debug("correct guess", zap.String("player", p.Username), zap.Int("award", award))
	r.out.EmitRoom(r.Code, EventChatMessage, ChatMessage{
		Kind:     ChatCorrectGuess,
		PlayerID: p.ID,
		Username: p.Username,
		Text:     fmt.Sprintf("%s guessed the word!", p.Username),
	})
	r.emitRoster()

	if r.allGuessed() {
		r.endRound(ReasonAllGuessed)
	}
	return nil
}

// Chat relays a chat message to the room in any phase.
func (r *Room) Chat(playerID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return r.reject(playerID, ErrRoomClosed)
	}
	text, err := r.validateMessage(text)
	if err != nil {
		return r.reject(playerID, err)
	}
	p := r.connectedPlayer(playerID)
	if p == nil {
		return r.reject(playerID, ErrNotInRoom)
	}

	r.out.EmitRoom(r.Code, EventChatMessage, ChatMessage{
		Kind:     ChatNormal,
		PlayerID: p.ID,
		Username: p.Username,
		Text:     text,
	})
	return nil
}

// Draw forwards a stroke from the drawer to every other connected player.
// Strokes that arrive after the drawing phase are dropped without telling
// the sender, since clients keep streaming until they see the phase change.
func (r *Room) Draw(playerID string, data json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.canDraw(playerID); err != nil {
		return err
	}

	payload := DrawData{PlayerID: playerID, Data: data}
	for _, p := range r.players {
		if p.IsConnected && p.ID != playerID {
			r.out.Emit(p.ID, EventDrawData, payload)
		}
	}
	return nil
}

// ClearCanvas tells every other connected player to wipe their canvas
func (r *Room) ClearCanvas(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.canDraw(playerID); err != nil {
		return err
	}

	for _, p := range r.players {
		if p.IsConnected && p.ID != playerID {
			r.out.Emit(p.ID, EventClearCanvas, struct{}{})
		}
	}
	return nil
}

func (r *Room) canDraw(playerID string) error {
	switch {
	case r.closed:
		return ErrRoomClosed
	case r.state.Status != StatusDrawing:
		return ErrWrongPhase
	case playerID != r.state.CurrentDrawer:
		return ErrNotDrawer
	}
	return nil
}

func (r *Room) validateMessage(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyMessage
	}
	if r.settings.MaxMessageLength > 0 && len([]rune(text)) > r.settings.MaxMessageLength {
		return "", ErrMessageTooLong
	}
	return text, nil
}

// allGuessed reports whether every connected non-drawer has guessed. A round
// with no guessers left is not considered guessed.
func (r *Room) allGuessed() bool {
	guessers := 0
	for _, p := range r.players {
		if !p.IsConnected || p.ID == r.state.CurrentDrawer {
			continue
		}
		if !p.HasGuessedCorrectly {
			return false
		}
		guessers++
	}
	return guessers > 0
}
