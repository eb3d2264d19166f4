package helpers

import (
	"sync"
	"time"
)

// TestClock is a settable clock for driving due-time evaluation
// deterministically. Its Now method satisfies sched.Clock
type TestClock struct {
	now time.Time
	mu  sync.Mutex
}

// NewTestClock creates a clock pinned to the given time
func NewTestClock(now time.Time) *TestClock {
	return &TestClock{
		now: now,
	}
}

// Now returns the clock's current time
func (c *TestClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set pins the clock to a new time
func (c *TestClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Advance moves the clock forward and returns the new time
func (c *TestClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}
