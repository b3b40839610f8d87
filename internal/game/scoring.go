package game

import "math"

// Scoring holds the point constants. Awards only ever add to a score.
type Scoring struct {
	BaseAward       int
	TimeBonusFactor float64
	DrawerBonus     int
}

// GuesserAward returns base + floor(remaining * factor)
func (s Scoring) GuesserAward(remainingSeconds int) int {
	if remainingSeconds < 0 {
		remainingSeconds = 0
	}
	bonus := int(math.Floor(float64(remainingSeconds) * s.TimeBonusFactor))
	if bonus < 0 {
		bonus = 0
	}
	return max(s.BaseAward, 0) + bonus
}

// DrawerAward is the fixed bonus the drawer earns for each correct guess.
func (s Scoring) DrawerAward() int {
	return max(s.DrawerBonus, 0)
}
