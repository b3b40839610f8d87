package game

import "time"

// Timer is a cancellable pending callback
type Timer interface {
	Stop() bool
}

// Scheduler is the room's clock. Callbacks run on their own goroutine and
// must take the room lock themselves.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemScheduler is the wall-clock Scheduler backed by time.AfterFunc
type SystemScheduler struct{}

// Now returns the current time
func (SystemScheduler) Now() time.Time {
	return time.Now()
}

// AfterFunc schedules f after d
func (SystemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
