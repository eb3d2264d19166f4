package helpers

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/kode4food/timebox"
	"github.com/stretchr/testify/assert"

	"github.com/kode4food/nagme/internal/engine"
	"github.com/kode4food/nagme/pkg/api"
	"github.com/kode4food/nagme/pkg/events"
)

// EventWaiter waits for events matching a filter. Create before triggering
// the action
type EventWaiter[T any] struct {
	consumer engine.EventConsumer
	filter   events.EventFilter
	getState func() (T, error)
	desc     string // for error messages
}

// Wait blocks until a matching event arrives and returns the state
func (w *EventWaiter[T]) Wait(t *testing.T, timeout time.Duration) T {
	t.Helper()
	defer w.consumer.Close()

	deadline := time.After(timeout)
	for {
		select {
		case event := <-w.consumer.Receive():
			if event != nil && w.filter(event) {
				state, err := w.getState()
				assert.NoError(t, err)
				return state
			}
		case <-deadline:
			t.Fatalf("timeout waiting for %s", w.desc)
		}
	}
}

// SubscribeToTaskStatus creates a waiter for status changes to a node of the
// given root task
func (env *TestEngineEnv) SubscribeToTaskStatus(
	rootID, taskID api.TaskID,
) *EventWaiter[*api.TaskState] {
	return &EventWaiter[*api.TaskState]{
		consumer: env.EventHub.NewConsumer(),
		filter: filterTaskEvents(
			rootID, taskID, api.EventTypeStatusChanged,
		),
		getState: func() (*api.TaskState, error) {
			return env.Engine.GetTaskState(rootID)
		},
		desc: string(taskID),
	}
}

// SubscribeToDeadline creates a waiter for deadline changes to a node of
// the given root task
func (env *TestEngineEnv) SubscribeToDeadline(
	rootID, taskID api.TaskID,
) *EventWaiter[*api.TaskState] {
	return &EventWaiter[*api.TaskState]{
		consumer: env.EventHub.NewConsumer(),
		filter: filterTaskEvents(
			rootID, taskID,
			api.EventTypeDeadlineSet, api.EventTypeDeadlineCleared,
		),
		getState: func() (*api.TaskState, error) {
			return env.Engine.GetTaskState(rootID)
		},
		desc: string(taskID),
	}
}

// SubscribeToTaskAlarm creates a waiter for an alarm delivery recorded
// against a node of the given root task
func (env *TestEngineEnv) SubscribeToTaskAlarm(
	rootID, taskID api.TaskID,
) *EventWaiter[*api.TaskState] {
	return &EventWaiter[*api.TaskState]{
		consumer: env.EventHub.NewConsumer(),
		filter: filterTaskEvents(
			rootID, taskID, api.EventTypeAlarmFired,
		),
		getState: func() (*api.TaskState, error) {
			return env.Engine.GetTaskState(rootID)
		},
		desc: string(taskID),
	}
}

// Convenience methods that subscribe and wait in one call

func (env *TestEngineEnv) WaitForTaskStatus(
	t *testing.T, rootID, taskID api.TaskID, timeout time.Duration,
) *api.TaskState {
	t.Helper()
	return env.SubscribeToTaskStatus(rootID, taskID).Wait(t, timeout)
}

func (env *TestEngineEnv) WaitForDeadline(
	t *testing.T, rootID, taskID api.TaskID, timeout time.Duration,
) *api.TaskState {
	t.Helper()
	return env.SubscribeToDeadline(rootID, taskID).Wait(t, timeout)
}

func (env *TestEngineEnv) WaitForTaskAlarm(
	t *testing.T, rootID, taskID api.TaskID, timeout time.Duration,
) *api.TaskState {
	t.Helper()
	return env.SubscribeToTaskAlarm(rootID, taskID).Wait(t, timeout)
}

// Filter helpers

func filterTaskEvents(
	rootID, taskID api.TaskID, eventTypes ...api.EventType,
) events.EventFilter {
	return events.AndFilters(
		events.FilterTask(rootID),
		events.FilterEvents(eventTypes...),
		payloadTask(taskID),
	)
}

func payloadTask(taskID api.TaskID) events.EventFilter {
	return func(ev *timebox.Event) bool {
		var e struct {
			TaskID api.TaskID `json:"task_id"`
		}
		if json.Unmarshal(ev.Data, &e) != nil {
			return false
		}
		return e.TaskID == taskID
	}
}
