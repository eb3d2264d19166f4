package task

import (
	"time"

	"github.com/kode4food/nagme/pkg/api"
	"github.com/kode4food/nagme/pkg/events"
)

// FireAlarm records a delivered deadline alarm against a task. The event
// stamps the task's last-nagged time during apply.
func FireAlarm(id api.TaskID, name string, due, firedAt time.Time) Command {
	return func(st *api.TaskState, ag *Aggregator) error {
		if _, err := findTask(st, id); err != nil {
			return err
		}
		return events.Raise(ag, api.EventTypeAlarmFired,
			api.AlarmFiredEvent{
				Due:     due,
				FiredAt: firedAt,
				Name:    name,
				TaskID:  id,
			},
		)
	}
}
