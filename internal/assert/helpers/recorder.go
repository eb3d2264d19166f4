package helpers

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/kode4food/timebox"

	"github.com/kode4food/nagme/internal/engine"
	"github.com/kode4food/nagme/pkg/api"
	"github.com/kode4food/nagme/pkg/events"
)

// AlarmRecorder consumes the event hub and records alarm firings so tests
// can wait for and inspect deliveries
type AlarmRecorder struct {
	consumer engine.EventConsumer
	fired    []api.AlarmFiredEvent
	firedCh  map[string]chan struct{}
	done     chan struct{}
	stop     sync.Once
	mu       sync.Mutex
}

// NewAlarmRecorder creates a recorder subscribed to the given hub. Create
// it before triggering the delivery being observed
func NewAlarmRecorder(hub timebox.EventHub) *AlarmRecorder {
	r := &AlarmRecorder{
		consumer: hub.NewConsumer(),
		firedCh:  map[string]chan struct{}{},
		done:     make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *AlarmRecorder) run() {
	filter := events.FilterEvents(api.EventTypeAlarmFired)
	for {
		select {
		case <-r.done:
			return
		case ev, ok := <-r.consumer.Receive():
			if !ok {
				return
			}
			if ev == nil || !filter(ev) {
				continue
			}
			var fired api.AlarmFiredEvent
			if json.Unmarshal(ev.Data, &fired) != nil {
				continue
			}
			r.record(fired)
		}
	}
}

func (r *AlarmRecorder) record(fired api.AlarmFiredEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.fired = append(r.fired, fired)
	if ch, ok := r.firedCh[fired.Name]; ok {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Fired returns the alarm firings recorded so far
func (r *AlarmRecorder) Fired() []api.AlarmFiredEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]api.AlarmFiredEvent, len(r.fired))
	copy(result, r.fired)
	return result
}

// WasFired returns whether an alarm with the given name has fired
func (r *AlarmRecorder) WasFired(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.wasFiredLocked(name)
}

// WaitForAlarm blocks until the named alarm fires or the timeout expires
func (r *AlarmRecorder) WaitForAlarm(name string, timeout time.Duration) bool {
	r.mu.Lock()
	if r.wasFiredLocked(name) {
		r.mu.Unlock()
		return true
	}
	ch, ok := r.firedCh[name]
	if !ok {
		ch = make(chan struct{}, 1)
		r.firedCh[name] = ch
	}
	r.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ch:
		return true
	case <-timer.C:
		return r.WasFired(name)
	}
}

// Close stops recording and releases the hub consumer
func (r *AlarmRecorder) Close() {
	r.stop.Do(func() {
		close(r.done)
		r.consumer.Close()
	})
}

func (r *AlarmRecorder) wasFiredLocked(name string) bool {
	for _, f := range r.fired {
		if f.Name == name {
			return true
		}
	}
	return false
}
