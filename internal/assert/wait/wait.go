package wait

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/kode4food/caravan/topic"
	"github.com/kode4food/timebox"

	"github.com/kode4food/nagme/pkg/api"
	"github.com/kode4food/nagme/pkg/events"
	"github.com/kode4food/nagme/pkg/util"
)

type (
	Wait struct {
		t        *testing.T
		consumer topic.Consumer[*timebox.Event]
		timeout  time.Duration
	}

	Predicate[T any] func(T) bool

	EventFilter Predicate[*timebox.Event]

	taskEvent struct {
		TaskID api.TaskID `json:"task_id"`
	}

	statusEvent struct {
		TaskID api.TaskID     `json:"task_id"`
		Status api.TaskStatus `json:"status"`
	}

	alarmEvent struct {
		Name string `json:"name"`
	}
)

const DefaultTimeout = time.Second * 5

var registryFilter = EventFilter(func(ev *timebox.Event) bool {
	return events.IsRegistryEvent(ev)
})

func On(t *testing.T, consumer topic.Consumer[*timebox.Event]) *Wait {
	return &Wait{
		t:        t,
		consumer: consumer,
		timeout:  DefaultTimeout,
	}
}

func (w *Wait) WithTimeout(timeout time.Duration) *Wait {
	res := *w
	res.timeout = timeout
	return &res
}

// ForEvents waits for matching events from the consumer
func (w *Wait) ForEvents(count int, filter EventFilter) {
	w.t.Helper()

	deadline := time.NewTimer(w.timeout)
	defer deadline.Stop()

	for seen := 0; seen < count; {
		select {
		case ev, ok := <-w.consumer.Receive():
			if !ok {
				w.t.Fatalf(
					"event consumer closed before receiving %d events", count,
				)
			}
			if !filter(ev) {
				continue
			}
			seen++
		case <-deadline.C:
			w.t.Fatalf("timeout waiting for %d events", count)
		}
	}
}

// ForEvent waits for a single matching event
func (w *Wait) ForEvent(filter EventFilter) {
	w.ForEvents(1, filter)
}

// And composes event filters and returns true when all match
func And(filters ...EventFilter) EventFilter {
	return func(ev *timebox.Event) bool {
		for _, filter := range filters {
			if !filter(ev) {
				return false
			}
		}
		return true
	}
}

// Type creates a filter for a single event type
func Type(eventType api.EventType) EventFilter {
	return Types(eventType)
}

// Types creates a filter for the given event types
func Types(eventTypes ...api.EventType) EventFilter {
	if len(eventTypes) == 0 {
		return func(*timebox.Event) bool { return false }
	}
	lookup := make(util.Set[timebox.EventType], len(eventTypes))
	for _, et := range eventTypes {
		lookup.Add(timebox.EventType(et))
	}
	return func(ev *timebox.Event) bool {
		return lookup.Contains(ev.Type)
	}
}

// Task matches events on the given root task's aggregate
func Task(id api.TaskID) EventFilter {
	return EventFilter(events.FilterTask(id))
}

// RegistryEvent matches registry aggregate events for the given types
func RegistryEvent(eventTypes ...api.EventType) EventFilter {
	return And(registryFilter, Types(eventTypes...))
}

// TaskCreated matches task creation events for the provided root tasks
func TaskCreated(ids ...api.TaskID) EventFilter {
	return And(Type(api.EventTypeTaskCreated), Aggregates(ids...))
}

// SubtaskAdded matches subtask attachment events for the provided nodes
func SubtaskAdded(ids ...api.TaskID) EventFilter {
	return And(Type(api.EventTypeSubtaskAdded), Aggregates(ids...))
}

// StatusChanged matches status change events for the provided nodes
func StatusChanged(ids ...api.TaskID) EventFilter {
	return And(Type(api.EventTypeStatusChanged), TaskIDs(ids...))
}

// Completed matches transitions into the completed status for the provided
// nodes
func Completed(ids ...api.TaskID) EventFilter {
	expected := util.SetOf(ids...)
	return And(
		Type(api.EventTypeStatusChanged),
		Unmarshal(func(data statusEvent) bool {
			if data.Status != api.TaskCompleted {
				return false
			}
			if expected.Contains(data.TaskID) {
				expected.Remove(data.TaskID)
				return true
			}
			return false
		}),
	)
}

// NoteAdded matches note events for the provided nodes
func NoteAdded(ids ...api.TaskID) EventFilter {
	return And(Type(api.EventTypeNoteAdded), TaskIDs(ids...))
}

// DeadlineSet matches deadline set events for the provided nodes
func DeadlineSet(ids ...api.TaskID) EventFilter {
	return And(Type(api.EventTypeDeadlineSet), TaskIDs(ids...))
}

// DeadlineCleared matches deadline cleared events for the provided nodes
func DeadlineCleared(ids ...api.TaskID) EventFilter {
	return And(Type(api.EventTypeDeadlineCleared), TaskIDs(ids...))
}

// ImportanceChanged matches importance change events for the provided nodes
func ImportanceChanged(ids ...api.TaskID) EventFilter {
	return And(Type(api.EventTypeImportanceChanged), TaskIDs(ids...))
}

// TaskArchived matches archive events for the provided tasks
func TaskArchived(ids ...api.TaskID) EventFilter {
	return And(Type(api.EventTypeTaskArchived), TaskIDs(ids...))
}

// TaskRegistered matches registry join events for the provided tasks
func TaskRegistered(ids ...api.TaskID) EventFilter {
	return And(
		registryFilter,
		Type(api.EventTypeTaskRegistered),
		TaskIDs(ids...),
	)
}

// TaskUnregistered matches registry departure events for the provided tasks
func TaskUnregistered(ids ...api.TaskID) EventFilter {
	return And(
		registryFilter,
		Type(api.EventTypeTaskUnregistered),
		TaskIDs(ids...),
	)
}

// AlarmScheduled matches alarm scheduling events for the provided names
func AlarmScheduled(names ...string) EventFilter {
	return And(
		registryFilter,
		Type(api.EventTypeAlarmScheduled),
		AlarmNames(names...),
	)
}

// AlarmCancelled matches alarm cancellation events for the provided names
func AlarmCancelled(names ...string) EventFilter {
	return And(
		registryFilter,
		Type(api.EventTypeAlarmCancelled),
		AlarmNames(names...),
	)
}

// AlarmFired matches alarm delivery events for the provided names. Task
// alarms land on the task aggregate and standalone alarms on the registry,
// so no aggregate filter is applied
func AlarmFired(names ...string) EventFilter {
	return And(Type(api.EventTypeAlarmFired), AlarmNames(names...))
}

// TaskID matches events whose payload names the provided node
func TaskID(id api.TaskID) EventFilter {
	return TaskIDs(id)
}

// TaskIDs matches events whose payloads name the provided nodes
func TaskIDs(ids ...api.TaskID) EventFilter {
	expected := util.SetOf(ids...)
	return Unmarshal(func(data taskEvent) bool {
		if expected.Contains(data.TaskID) {
			expected.Remove(data.TaskID)
			return true
		}
		return false
	})
}

// AlarmNames matches alarm events carrying the provided names
func AlarmNames(names ...string) EventFilter {
	expected := util.SetOf(names...)
	return Unmarshal(func(data alarmEvent) bool {
		if expected.Contains(data.Name) {
			expected.Remove(data.Name)
			return true
		}
		return false
	})
}

// Aggregates matches events on any of the provided root task aggregates
func Aggregates(ids ...api.TaskID) EventFilter {
	expected := util.SetOf(ids...)
	return func(ev *timebox.Event) bool {
		if !events.IsTaskEvent(ev) {
			return false
		}
		id := api.TaskID(ev.AggregateID[1])
		if expected.Contains(id) {
			expected.Remove(id)
			return true
		}
		return false
	}
}

// Unmarshal creates a filter that unmarshals event data and applies pred
func Unmarshal[T any](pred Predicate[T]) EventFilter {
	return func(ev *timebox.Event) bool {
		var data T
		if json.Unmarshal(ev.Data, &data) != nil {
			return false
		}
		return pred(data)
	}
}
