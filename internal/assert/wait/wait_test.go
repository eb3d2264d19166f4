package wait_test

import (
	"encoding/json"
	"testing"

	"github.com/kode4food/caravan"
	"github.com/kode4food/caravan/topic"
	"github.com/kode4food/timebox"
	"github.com/stretchr/testify/assert"

	"github.com/kode4food/nagme/internal/assert/wait"
	"github.com/kode4food/nagme/pkg/api"
	"github.com/kode4food/nagme/pkg/events"
)

type (
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

func newTopic() topic.Topic[*timebox.Event] {
	return caravan.NewTopic[*timebox.Event]()
}

func newEvent(
	typ api.EventType, agg timebox.AggregateID, data any,
) *timebox.Event {
	payload, _ := json.Marshal(data)
	return &timebox.Event{
		Type:        timebox.EventType(typ),
		AggregateID: agg,
		Data:        payload,
	}
}

func TestTypesFilter(t *testing.T) {
	filter := wait.Types(api.EventTypeTaskCreated, api.EventTypeNoteAdded)
	assert.True(t, filter(&timebox.Event{
		Type: timebox.EventType(api.EventTypeTaskCreated),
	}))
	assert.False(t, filter(&timebox.Event{
		Type: timebox.EventType(api.EventTypeStatusChanged),
	}))

	none := wait.Types()
	assert.False(t, none(&timebox.Event{
		Type: timebox.EventType(api.EventTypeTaskCreated),
	}))
}

func TestTaskIDsFilterConsumesEach(t *testing.T) {
	taskA := api.TaskID("task-a")
	taskB := api.TaskID("task-b")
	filter := wait.TaskIDs(taskA, taskB)

	evA := newEvent(api.EventTypeNoteAdded, events.TaskKey(taskA),
		taskEvent{TaskID: taskA})
	evB := newEvent(api.EventTypeNoteAdded, events.TaskKey(taskB),
		taskEvent{TaskID: taskB})
	assert.True(t, filter(evA))
	assert.False(t, filter(evA))
	assert.True(t, filter(evB))
	assert.False(t, filter(evB))
}

func TestAlarmNamesConsumesEach(t *testing.T) {
	filter := wait.AlarmNames("standup", "lunch")

	ev := newEvent(api.EventTypeAlarmScheduled, events.RegistryKey,
		alarmEvent{Name: "standup"})
	assert.True(t, filter(ev))
	assert.False(t, filter(ev))
}

func TestCompletedFilter(t *testing.T) {
	taskID := api.TaskID("finisher")
	filter := wait.Completed(taskID)

	paused := newEvent(
		api.EventTypeStatusChanged, events.TaskKey(taskID),
		statusEvent{TaskID: taskID, Status: api.TaskOnHold},
	)
	assert.False(t, filter(paused))

	done := newEvent(
		api.EventTypeStatusChanged, events.TaskKey(taskID),
		statusEvent{TaskID: taskID, Status: api.TaskCompleted},
	)
	assert.True(t, filter(done))
	assert.False(t, filter(done))
}

func TestAggregatesFilter(t *testing.T) {
	rootID := api.TaskID("root-a")
	filter := wait.Aggregates(rootID)

	assert.True(t, filter(newEvent(
		api.EventTypeTaskCreated, events.TaskKey(rootID), taskEvent{},
	)))
	assert.False(t, filter(newEvent(
		api.EventTypeTaskCreated, events.TaskKey("other"), taskEvent{},
	)))
	assert.False(t, filter(newEvent(
		api.EventTypeAlarmScheduled, events.RegistryKey, alarmEvent{},
	)))
}

func TestRegistryEventFilter(t *testing.T) {
	filter := wait.RegistryEvent(api.EventTypeTaskRegistered)

	assert.True(t, filter(newEvent(
		api.EventTypeTaskRegistered, events.RegistryKey,
		taskEvent{TaskID: "any"},
	)))
	assert.False(t, filter(newEvent(
		api.EventTypeTaskRegistered, events.TaskKey("any"),
		taskEvent{TaskID: "any"},
	)))
}

func TestAlarmFiredEitherAggregate(t *testing.T) {
	filter := wait.AlarmFired("task/root-a", "standup")

	assert.True(t, filter(newEvent(
		api.EventTypeAlarmFired, events.TaskKey("root-a"),
		alarmEvent{Name: "task/root-a"},
	)))
	assert.True(t, filter(newEvent(
		api.EventTypeAlarmFired, events.RegistryKey,
		alarmEvent{Name: "standup"},
	)))
}

func TestWaitForEvent(t *testing.T) {
	tpc := newTopic()
	consumer := tpc.NewConsumer()
	defer consumer.Close()
	producer := tpc.NewProducer()

	taskID := api.TaskID("task-waited")
	ev := newEvent(
		api.EventTypeStatusChanged, events.TaskKey(taskID),
		statusEvent{TaskID: taskID, Status: api.TaskCompleted},
	)
	go func() {
		producer.Send() <- ev
	}()

	wait.On(t, consumer).ForEvent(wait.Completed(taskID))
}

func TestWaitForEventCount(t *testing.T) {
	tpc := newTopic()
	consumer := tpc.NewConsumer()
	defer consumer.Close()
	producer := tpc.NewProducer()

	taskID := api.TaskID("task-counted")
	go func() {
		for range 3 {
			producer.Send() <- newEvent(
				api.EventTypeNoteAdded, events.TaskKey(taskID),
				taskEvent{TaskID: taskID},
			)
		}
	}()

	wait.On(t, consumer).ForEvents(3, wait.Type(api.EventTypeNoteAdded))
}
