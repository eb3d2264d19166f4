package sched

import (
	"sync"
	"time"
)

type (
	// Scheduler owns an alarm queue and a single background loop that waits
	// for the earliest pending alarm and sends it on the delivery channel
	// once due. Any number of goroutines may call Add and Remove while the
	// loop runs
	Scheduler struct {
		queue     *Queue
		out       chan Alarm
		clock     Clock
		makeTimer TimerConstructor
		size      int
		done      chan struct{}
		stop      sync.Once
	}

	// Option configures a Scheduler at construction
	Option func(*Scheduler)
)

// DefaultChannelSize is the delivery channel capacity used when no override
// is supplied
const DefaultChannelSize = 16

// New creates a scheduler, starts its delivery loop, and returns the
// consumer end of the delivery channel alongside the handle. The channel is
// closed when the loop terminates, so consumers can range over it
func New(opts ...Option) (*Scheduler, <-chan Alarm) {
	s := &Scheduler{
		queue:     NewQueue(),
		clock:     time.Now,
		makeTimer: NewTimer,
		size:      DefaultChannelSize,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.out = make(chan Alarm, s.size)
	go s.run()
	return s, s.out
}

// WithClock overrides the clock used for due-time evaluation
func WithClock(clock Clock) Option {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

// WithTimer overrides the timer constructor used by the delivery loop
func WithTimer(makeTimer TimerConstructor) Option {
	return func(s *Scheduler) {
		s.makeTimer = makeTimer
	}
}

// WithChannelSize sets the delivery channel capacity
func WithChannelSize(size int) Option {
	return func(s *Scheduler) {
		s.size = max(size, 0)
	}
}

// Add inserts an alarm into the queue. It returns once the alarm is
// inserted and never fails; alarms added after Stop accumulate in the queue
// but are no longer delivered
func (s *Scheduler) Add(a Alarm) {
	s.queue.Insert(a)
}

// Remove cancels the first still-pending alarm with the given name,
// returning it. It reports false when no alarm matches; an alarm already
// popped for delivery can no longer be removed
func (s *Scheduler) Remove(name string) (Alarm, bool) {
	return s.queue.RemoveByName(name)
}

// Pending returns the number of alarms still waiting in the queue
func (s *Scheduler) Pending() int {
	return s.queue.Len()
}

// Stop terminates the delivery loop and closes the delivery channel. It is
// idempotent and safe to call from any goroutine, including the consumer
func (s *Scheduler) Stop() {
	s.stop.Do(func() {
		close(s.done)
	})
}

// run is the delivery loop. It arms a single reusable timer for the
// earliest pending due time, re-arming whenever the queue's minimum
// changes, and pops an alarm only once it is actually due. The queue lock
// is never held across a wait or a send
func (s *Scheduler) run() {
	defer close(s.out)
	defer s.queue.Stop()

	timer := s.makeTimer(0)
	var timerCh <-chan time.Time

	resetTimer := func() {
		next, ok := s.queue.PeekMin()
		if !ok {
			timer.Stop()
			timerCh = nil
			return
		}
		timer.Reset(max(next.Sub(s.clock()), 0))
		timerCh = timer.Channel()
	}

	resetTimer()

	for {
		select {
		case <-s.done:
			timer.Stop()
			return

		case <-s.queue.Changed():
			resetTimer()

		case <-timerCh:
			if a, ok := s.queue.PopDue(s.clock()); ok {
				select {
				case s.out <- a:
				case <-s.done:
					timer.Stop()
					return
				}
			}
			resetTimer()
		}
	}
}
