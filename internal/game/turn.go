package game

// TurnScheduler rotates the drawing role through the join order. Disconnected
// players keep their position so a reconnecting player resumes their turn slot.
type TurnScheduler struct {
	lastDrawerIndex int
}

// Reset makes index the most recent drawer
func (t *TurnScheduler) Reset(index int) {
	t.lastDrawerIndex = index
}

// LastDrawerIndex returns the position of the most recent drawer
func (t *TurnScheduler) LastDrawerIndex() int {
	return t.lastDrawerIndex
}

// Next scans circularly from the slot after the last drawer and returns the
// first connected player. The scan covers one full cycle; ok is false when
// nobody is connected.
func (t *TurnScheduler) Next(players []*Player) (index int, ok bool) {
	n := len(players)
	if n == 0 {
		return -1, false
	}
	start := t.lastDrawerIndex + 1
	if start < 0 {
		start = 0
	}
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		if players[idx].IsConnected {
			t.lastDrawerIndex = idx
			return idx, true
		}
	}
	return -1, false
}
