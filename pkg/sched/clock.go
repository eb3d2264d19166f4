package sched

import "time"

type (
	// Clock provides the current time for due-time evaluation
	Clock func() time.Time

	// Timer represents a resettable scheduler timer
	Timer interface {
		Channel() <-chan time.Time
		Reset(delay time.Duration) bool
		Stop() bool
	}

	// TimerConstructor builds a scheduler timer with the given delay
	TimerConstructor func(delay time.Duration) Timer

	systemTimer struct {
		timer *time.Timer
	}
)

// NewTimer builds the default system-backed scheduler timer
func NewTimer(delay time.Duration) Timer {
	return &systemTimer{
		timer: time.NewTimer(delay),
	}
}

func (t *systemTimer) Channel() <-chan time.Time {
	return t.timer.C
}

// Reset re-arms the timer, draining any tick already sitting in its channel
// so a stale expiry is never observed for the new deadline
func (t *systemTimer) Reset(delay time.Duration) bool {
	active := t.timer.Stop()
	if !active {
		select {
		case <-t.timer.C:
		default:
		}
	}
	t.timer.Reset(delay)
	return active
}

func (t *systemTimer) Stop() bool {
	return t.timer.Stop()
}
