package game

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const tickInterval = time.Second

// Start begins a new game. Only the host may start it, from waiting or after
// a finished game, with at least MinPlayers connected.
func (r *Room) Start(playerID string, totalRounds int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return r.reject(playerID, ErrRoomClosed)
	}
	p := r.connectedPlayer(playerID)
	if p == nil {
		return r.reject(playerID, ErrNotInRoom)
	}
	if !p.IsHost {
		return r.reject(playerID, ErrNotHost)
	}
	if r.state.Status != StatusWaiting && r.state.Status != StatusGameEnd {
		return r.reject(playerID, ErrGameInProgress)
	}
	if r.connectedCount() < r.settings.MinPlayers {
		return r.reject(playerID, ErrNotEnoughPlayers)
	}

	rounds := r.roundsFor(totalRounds)
	for _, pl := range r.players {
		pl.Score = 0
		pl.HasGuessedCorrectly = false
	}
	r.turns.Reset(r.indexOf(p.ID))

	r.log.Info("game started", zap.Int("rounds", rounds), zap.Int("players", r.connectedCount()))
	r.metrics.GameStarted(r.Code)
	r.systemChat(fmt.Sprintf("Game started! %d rounds", rounds))

	r.enterSelecting(1, rounds, p)
	r.emitRoster()
	return nil
}

// SelectWord ends the selection phase with the drawer's choice
func (r *Room) SelectWord(playerID, word string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return r.reject(playerID, ErrRoomClosed)
	}
	if r.state.Status != StatusSelecting {
		return r.reject(playerID, ErrWrongPhase)
	}
	if playerID != r.state.CurrentDrawer {
		return r.reject(playerID, ErrNotDrawer)
	}

	word = strings.TrimSpace(word)
	for _, choice := range r.wordChoices {
		if strings.EqualFold(choice, word) {
			r.beginDrawing(choice)
			return nil
		}
	}
	return r.reject(playerID, ErrInvalidWord)
}

// EndRound concludes the current round. It reports false, and does nothing,
// when no round is running.
func (r *Room) EndRound(reason string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.endRound(reason)
}

func (r *Room) roundsFor(requested int) int {
	switch {
	case requested <= 0:
		return r.settings.DefaultRounds
	case r.settings.MaxRounds > 0 && requested > r.settings.MaxRounds:
		return r.settings.MaxRounds
	default:
		return requested
	}
}

func (r *Room) enterSelecting(round, totalRounds int, drawer *Player) {
	r.cancelTimer()
	for _, p := range r.players {
		p.HasGuessedCorrectly = false
	}

	r.wordChoices = r.words.Choices(r.settings.WordChoiceCount)
	r.state = r.state.Selecting(round, totalRounds, drawer.ID, r.settings.SelectionSeconds)

	r.log.Debug("selecting", zap.Int("round", round), zap.String("drawer", drawer.Username))
	r.emitState()
	r.out.Emit(drawer.ID, EventWordChoices, WordChoices{
		Words:     append([]string(nil), r.wordChoices...),
		TimeLimit: r.settings.SelectionSeconds,
	})
	r.systemChat(fmt.Sprintf("Round %d of %d: %s is choosing a word", round, totalRounds, drawer.Username))
	r.scheduleTick()
}

func (r *Room) beginDrawing(word string) {
	r.cancelTimer()
	r.wordChoices = nil
	r.state = r.state.Drawing(word, r.settings.RoundSeconds)

	drawer := r.player(r.state.CurrentDrawer)
	r.log.Debug("drawing", zap.Int("round", r.state.CurrentRound))
	r.emitState()
	if drawer != nil {
		r.systemChat(fmt.Sprintf("%s is drawing now!", drawer.Username))
	}
	r.scheduleTick()
}

// tick runs once per second while a countdown phase is active
func (r *Room) tick() {
	r.state = r.state.Tick()
	r.out.EmitRoom(r.Code, EventGameState, TimeUpdate{TimeLeft: r.state.TimeLeft})

	if r.state.TimeLeft > 0 {
		r.scheduleTick()
		return
	}

	switch r.state.Status {
	case StatusSelecting:
		word := r.words.Pick(r.wordChoices)
		r.log.Debug("selection timed out, picking automatically", zap.String("word", word))
		r.beginDrawing(word)
	case StatusDrawing:
		r.endRound(ReasonTimeUp)
	}
}

func (r *Room) endRound(reason string) bool {
	if r.state.Status != StatusSelecting && r.state.Status != StatusDrawing {
		return false
	}
	r.cancelTimer()

	word := r.state.Word
	round := r.state.CurrentRound
	r.state = r.state.RoundEnd()
	r.wordChoices = nil
	for _, p := range r.players {
		p.HasGuessedCorrectly = false
	}

	r.out.EmitRoom(r.Code, EventRoundEndDetails, RoundEndDetails{
		Word:   word,
		Reason: reason,
		Round:  round,
		Scores: r.scores(),
	})
	if word != "" {
		r.systemChat(fmt.Sprintf("The word was: %s", word))
	}
	r.emitState()

	r.log.Info("round ended", zap.Int("round", round), zap.String("reason", reason))
	r.metrics.RoundEnded(r.Code, reason)

	r.schedule(r.settings.RoundEndDelay, r.advance)
	return true
}

// advance moves from round_end to the next round or to game_end
func (r *Room) advance() {
	if r.state.CurrentRound >= r.state.TotalRounds {
		r.finishGame()
		return
	}
	if r.connectedCount() < r.settings.MinPlayers {
		r.toWaiting("Not enough players to continue. Waiting for more players.")
		return
	}

	idx, ok := r.turns.Next(r.players)
	if !ok {
		r.log.Error("cannot continue game", zap.Error(ErrNoEligibleDrawer))
		r.toWaiting("Something went wrong. Returning to the lobby.")
		return
	}
	r.enterSelecting(r.state.CurrentRound+1, r.state.TotalRounds, r.players[idx])
}

func (r *Room) finishGame() {
	r.cancelTimer()
	winner := r.winner()
	r.state = r.state.GameEnd(winnerID(winner))

	r.emitState()
	if winner != nil {
		r.systemChat(fmt.Sprintf("Game over! %s wins with %d points", winner.Username, winner.Score))
	} else {
		r.systemChat("Game over!")
	}
	r.emitRoster()
	r.log.Info("game finished", zap.String("winner", winnerID(winner)))
}

func (r *Room) toWaiting(message string) {
	r.cancelTimer()
	r.state = r.state.Waiting()
	r.wordChoices = nil
	for _, p := range r.players {
		p.HasGuessedCorrectly = false
	}
	r.emitState()
	r.systemChat(message)
	r.log.Info("returned to waiting")
}

// winner is the highest scorer among players still connected or holding
// points. Ties go to the earliest joiner.
func (r *Room) winner() *Player {
	var best *Player
	for _, p := range r.players {
		if !p.IsConnected && p.Score <= 0 {
			continue
		}
		if best == nil || p.Score > best.Score {
			best = p
		}
	}
	return best
}

func winnerID(p *Player) string {
	if p == nil {
		return ""
	}
	return p.ID
}

func (r *Room) scores() []ScoreEntry {
	out := make([]ScoreEntry, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, ScoreEntry{PlayerID: p.ID, Username: p.Username, Score: p.Score})
	}
	return out
}

func (r *Room) scheduleTick() {
	r.schedule(tickInterval, r.tick)
}

// schedule replaces the room's pending task. The callback is dropped if the
// room has moved to another phase or round by the time it fires.
func (r *Room) schedule(d time.Duration, fire func()) {
	r.cancelTimer()

	t := &phaseTimer{phase: r.state.Status, round: r.state.CurrentRound}
	t.handle = r.clock.AfterFunc(d, func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		if r.closed || r.timer != t || r.state.Status != t.phase || r.state.CurrentRound != t.round {
			return
		}
		r.timer = nil
		fire()
	})
	r.timer = t
}

func (r *Room) cancelTimer() {
	if r.timer != nil {
		r.timer.handle.Stop()
		r.timer = nil
	}
}
