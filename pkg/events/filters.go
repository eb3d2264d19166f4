package events

import (
	"github.com/kode4food/timebox"

	"github.com/kode4food/nagme/pkg/api"
)

// EventFilter decides whether a hub event is of interest
type EventFilter func(*timebox.Event) bool

// FilterEvents matches events whose type is one of the given types
func FilterEvents(eventTypes ...api.EventType) EventFilter {
	lookup := map[timebox.EventType]bool{}
	for _, et := range eventTypes {
		lookup[timebox.EventType(et)] = true
	}
	return func(ev *timebox.Event) bool {
		return lookup[ev.Type]
	}
}

// FilterTask matches events belonging to the given root task's aggregate
func FilterTask(taskID api.TaskID) EventFilter {
	return func(ev *timebox.Event) bool {
		if !IsTaskEvent(ev) {
			return false
		}
		return ev.AggregateID[1] == timebox.ID(taskID)
	}
}

// OrFilters matches when any of the filters match. With no filters,
// nothing matches
func OrFilters(filters ...EventFilter) EventFilter {
	return func(ev *timebox.Event) bool {
		for _, filter := range filters {
			if filter(ev) {
				return true
			}
		}
		return false
	}
}

// AndFilters matches only when every filter matches. With no filters,
// everything matches
func AndFilters(filters ...EventFilter) EventFilter {
	return func(ev *timebox.Event) bool {
		for _, filter := range filters {
			if !filter(ev) {
				return false
			}
		}
		return true
	}
}
