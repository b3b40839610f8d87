package game

// Status is the phase a room's game is in
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusSelecting Status = "selecting"
	StatusDrawing   Status = "drawing"
	StatusRoundEnd  Status = "round_end"
	StatusGameEnd   Status = "game_end"
)

// GameState is an immutable snapshot of a room's game. Transition methods
// return a new value and never modify the receiver, so every observed
// GameState belongs to exactly one phase.
type GameState struct {
	Status        Status `json:"status"`
	CurrentRound  int    `json:"currentRound"`
	TotalRounds   int    `json:"totalRounds"`
	TimeLeft      int    `json:"timeLeft"`
	CurrentDrawer string `json:"currentDrawer,omitempty"`
	Word          string `json:"word,omitempty"`
	WordHint      string `json:"wordHint"`
	WinnerID      string `json:"winnerId,omitempty"`
}

// TimeUpdate is the partial game_state sent on every countdown tick
type TimeUpdate struct {
	TimeLeft int `json:"timeLeft"`
}

// NewGameState returns the initial waiting state
func NewGameState(totalRounds int) GameState {
	return GameState{Status: StatusWaiting, TotalRounds: totalRounds}
}

// Waiting clears the drawer, word and round counter.
func (gs GameState) Waiting() GameState {
	return GameState{Status: StatusWaiting, TotalRounds: gs.TotalRounds}
}

// Selecting starts a word-selection phase for drawer in the given round.
func (gs GameState) Selecting(round, totalRounds int, drawer string, seconds int) GameState {
	return GameState{
		Status:        StatusSelecting,
		CurrentRound:  round,
		TotalRounds:   totalRounds,
		TimeLeft:      seconds,
		CurrentDrawer: drawer,
	}
}

// Drawing sets the secret word and its hint mask.
func (gs GameState) Drawing(word string, seconds int) GameState {
	return GameState{
		Status:        StatusDrawing,
		CurrentRound:  gs.CurrentRound,
		TotalRounds:   gs.TotalRounds,
		TimeLeft:      seconds,
		CurrentDrawer: gs.CurrentDrawer,
		Word:          word,
		WordHint:      Hint(word),
	}
}

// RoundEnd concludes the current round. The word is revealed separately
// through round_end_details, so it is not carried here.
func (gs GameState) RoundEnd() GameState {
	return GameState{
		Status:       StatusRoundEnd,
		CurrentRound: gs.CurrentRound,
		TotalRounds:  gs.TotalRounds,
	}
}

// GameEnd freezes the final round counter and records the winner.
func (gs GameState) GameEnd(winnerID string) GameState {
	return GameState{
		Status:       StatusGameEnd,
		CurrentRound: gs.CurrentRound,
		TotalRounds:  gs.TotalRounds,
		WinnerID:     winnerID,
	}
}

// Tick decrements the countdown, never below zero.
func (gs GameState) Tick() GameState {
	if gs.TimeLeft > 0 {
		gs.TimeLeft--
	}
	return gs
}

// Counting reports whether the phase runs a per-second countdown
func (gs GameState) Counting() bool {
	return gs.Status == StatusSelecting || gs.Status == StatusDrawing
}

// ForViewer returns the state as the given player may see it: only the
// drawer receives the secret word.
func (gs GameState) ForViewer(playerID string) GameState {
	if playerID != gs.CurrentDrawer {
		gs.Word = ""
	}
	return gs
}
