package events_test

import (
	"testing"

	"github.com/kode4food/timebox"
	"github.com/stretchr/testify/assert"

	"github.com/kode4food/nagme/pkg/api"
	"github.com/kode4food/nagme/pkg/events"
)

func TestFilterEvents(t *testing.T) {
	filter := events.FilterEvents(
		api.EventTypeTaskCreated, api.EventTypeDeadlineSet,
	)

	created := &timebox.Event{
		AggregateID: events.TaskKey("t-1"),
		Type:        timebox.EventType(api.EventTypeTaskCreated),
	}
	noted := &timebox.Event{
		AggregateID: events.TaskKey("t-1"),
		Type:        timebox.EventType(api.EventTypeNoteAdded),
	}

	assert.True(t, filter(created))
	assert.False(t, filter(noted))
	assert.False(t, events.FilterEvents()(created))
}

func TestFilterTask(t *testing.T) {
	filter := events.FilterTask("t-1")

	matching := &timebox.Event{
		AggregateID: events.TaskKey("t-1"),
		Type:        timebox.EventType(api.EventTypeStatusChanged),
	}
	other := &timebox.Event{
		AggregateID: events.TaskKey("t-2"),
		Type:        timebox.EventType(api.EventTypeStatusChanged),
	}
	registry := &timebox.Event{
		AggregateID: events.RegistryKey,
		Type:        timebox.EventType(api.EventTypeAlarmScheduled),
	}

	assert.True(t, filter(matching))
	assert.False(t, filter(other))
	assert.False(t, filter(registry))
}

func TestOrFilters(t *testing.T) {
	filter := events.OrFilters(
		events.FilterEvents(api.EventTypeTaskCreated),
		events.FilterTask("t-2"),
	)

	created := &timebox.Event{
		AggregateID: events.TaskKey("t-1"),
		Type:        timebox.EventType(api.EventTypeTaskCreated),
	}
	otherTask := &timebox.Event{
		AggregateID: events.TaskKey("t-2"),
		Type:        timebox.EventType(api.EventTypeNoteAdded),
	}
	neither := &timebox.Event{
		AggregateID: events.TaskKey("t-3"),
		Type:        timebox.EventType(api.EventTypeNoteAdded),
	}

	assert.True(t, filter(created))
	assert.True(t, filter(otherTask))
	assert.False(t, filter(neither))
	assert.False(t, events.OrFilters()(created))
}

func TestAndFilters(t *testing.T) {
	filter := events.AndFilters(
		events.FilterTask("t-1"),
		events.FilterEvents(api.EventTypeDeadlineSet),
	)

	both := &timebox.Event{
		AggregateID: events.TaskKey("t-1"),
		Type:        timebox.EventType(api.EventTypeDeadlineSet),
	}
	wrongType := &timebox.Event{
		AggregateID: events.TaskKey("t-1"),
		Type:        timebox.EventType(api.EventTypeNoteAdded),
	}
	wrongTask := &timebox.Event{
		AggregateID: events.TaskKey("t-2"),
		Type:        timebox.EventType(api.EventTypeDeadlineSet),
	}

	assert.True(t, filter(both))
	assert.False(t, filter(wrongType))
	assert.False(t, filter(wrongTask))
	assert.True(t, events.AndFilters()(both))
}
