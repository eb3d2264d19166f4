package sched

import (
	"slices"
	"sync"
	"time"
)

// Queue is a thread-safe container of pending alarms, kept sorted ascending
// by due time. Mutations that change the earliest due time signal a
// 1-buffered change channel so a waiting loop can re-evaluate its timer
type Queue struct {
	mu      sync.Mutex
	items   []Alarm
	notify  chan struct{}
	stopped bool
}

// NewQueue creates an empty alarm queue
func NewQueue() *Queue {
	return &Queue{
		notify: make(chan struct{}, 1),
	}
}

// Insert adds an alarm, preserving ascending due-time order. Duplicate names
// and duplicate due times are permitted; ties are broken arbitrarily
func (q *Queue) Insert(a Alarm) {
	q.mu.Lock()
	defer q.mu.Unlock()

	at, _ := slices.BinarySearchFunc(q.items, a, func(l, r Alarm) int {
		return l.Due.Compare(r.Due)
	})
	q.items = slices.Insert(q.items, at, a)
	if at == 0 {
		q.signal()
	}
}

// RemoveByName removes and returns the first alarm in due-time order whose
// name matches. It reports false when no alarm carries the name; at most one
// alarm is removed even when several share it
func (q *Queue) RemoveByName(name string) (Alarm, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, a := range q.items {
		if a.Name != name {
			continue
		}
		q.items = slices.Delete(q.items, i, i+1)
		if i == 0 {
			q.signal()
		}
		return a, true
	}
	return Alarm{}, false
}

// PopMin removes and returns the alarm with the earliest due time, or false
// when the queue is empty
func (q *Queue) PopMin() (Alarm, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popFront()
}

// PopDue removes and returns the earliest alarm only if it is due at or
// before now. A pending-but-not-yet-due minimum is left in place
func (q *Queue) PopDue(now time.Time) (Alarm, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 || q.items[0].Due.After(now) {
		return Alarm{}, false
	}
	return q.popFront()
}

// PeekMin returns the earliest due time without removing its alarm
func (q *Queue) PeekMin() (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return time.Time{}, false
	}
	return q.items[0].Due, true
}

// Len returns the number of pending alarms
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Changed returns the channel that signals changes to the earliest due time
func (q *Queue) Changed() <-chan struct{} {
	return q.notify
}

// Stop closes the change channel. The queue remains usable afterwards, so
// late inserts still land in it, but no further change signals are produced
// and nothing will consume them
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stopped {
		return
	}
	q.stopped = true
	close(q.notify)
}

func (q *Queue) popFront() (Alarm, bool) {
	if len(q.items) == 0 {
		return Alarm{}, false
	}
	a := q.items[0]
	q.items = q.items[1:]
	return a, true
}

func (q *Queue) signal() {
	if q.stopped {
		return
	}
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
