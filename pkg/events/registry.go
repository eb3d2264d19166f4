package events

import (
	"github.com/kode4food/timebox"

	"github.com/kode4food/nagme/pkg/api"
)

const RegistryPrefix = "registry"

var (
	RegistryKey = timebox.NewAggregateID(RegistryPrefix)

	RegistryAppliers = makeRegistryAppliers()
)

// NewRegistryState creates an empty registry state with initialized maps
func NewRegistryState() *api.RegistryState {
	return &api.RegistryState{
		Tasks:  api.RegisteredTasks{},
		Alarms: api.Alarms{},
	}
}

// IsRegistryEvent returns true if the event is for the registry aggregate
func IsRegistryEvent(ev *timebox.Event) bool {
	return len(ev.AggregateID) >= 1 && ev.AggregateID[0] == RegistryPrefix
}

func makeRegistryAppliers() timebox.Appliers[*api.RegistryState] {
	return MakeAppliers(map[api.EventType]timebox.Applier[*api.RegistryState]{
		api.EventTypeTaskRegistered:   timebox.MakeApplier(taskRegistered),
		api.EventTypeTaskUnregistered: timebox.MakeApplier(taskUnregistered),
		api.EventTypeAlarmScheduled:   timebox.MakeApplier(alarmScheduled),
		api.EventTypeAlarmCancelled:   timebox.MakeApplier(alarmCancelled),
		api.EventTypeAlarmFired:       timebox.MakeApplier(alarmFired),
	})
}

func taskRegistered(
	st *api.RegistryState, ev *timebox.Event, data api.TaskRegisteredEvent,
) *api.RegistryState {
	return st.
		SetTask(data.TaskID, &api.RegistryEntry{
			RegisteredAt: ev.Timestamp,
			Name:         data.Name,
			ID:           data.TaskID,
		}).
		SetLastUpdated(ev.Timestamp)
}

func taskUnregistered(
	st *api.RegistryState, ev *timebox.Event, data api.TaskUnregisteredEvent,
) *api.RegistryState {
	return st.
		DeleteTask(data.TaskID).
		SetLastUpdated(ev.Timestamp)
}

func alarmScheduled(
	st *api.RegistryState, ev *timebox.Event, data api.AlarmScheduledEvent,
) *api.RegistryState {
	return st.
		SetAlarm(data.Name, &api.AlarmInfo{
			Due:    data.Due,
			Name:   data.Name,
			TaskID: data.TaskID,
		}).
		SetLastUpdated(ev.Timestamp)
}

func alarmCancelled(
	st *api.RegistryState, ev *timebox.Event, data api.AlarmCancelledEvent,
) *api.RegistryState {
	return st.
		DeleteAlarm(data.Name).
		SetLastUpdated(ev.Timestamp)
}

func alarmFired(
	st *api.RegistryState, ev *timebox.Event, data api.AlarmFiredEvent,
) *api.RegistryState {
	return st.
		DeleteAlarm(data.Name).
		SetLastUpdated(ev.Timestamp)
}
