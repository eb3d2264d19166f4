package engine

import (
	"log/slog"
	"time"

	"github.com/kode4food/nagme/internal/task"
	"github.com/kode4food/nagme/pkg/api"
	"github.com/kode4food/nagme/pkg/events"
	"github.com/kode4food/nagme/pkg/log"
	"github.com/kode4food/nagme/pkg/sched"
)

// deliverLoop drains fired alarms until the scheduler closes its channel
func (e *Engine) deliverLoop() {
	defer e.wg.Done()
	for a := range e.alarms {
		e.deliverAlarm(a)
	}
}

func (e *Engine) deliverAlarm(a sched.Alarm) {
	now := e.Now()
	if rootID, taskID, ok := events.ParseTaskKey(a.Name); ok {
		e.deliverTaskAlarm(a, rootID, taskID, now)
		return
	}
	e.deliverManualAlarm(a, now)
}

// deliverTaskAlarm records a fired deadline nag against its task. The hook
// script may veto the nag; a vetoed alarm is dropped without touching the
// task's last-nagged time
func (e *Engine) deliverTaskAlarm(
	a sched.Alarm, rootID, taskID api.TaskID, now time.Time,
) {
	e.index.removeAlarm(rootID, taskID)
	if !e.hooks.Run(a.Name, a.Due, now) {
		slog.Info("Alarm suppressed by hook", log.AlarmName(a.Name))
		return
	}
	_, err := e.execTask(rootID, task.FireAlarm(taskID, a.Name, a.Due, now))
	if err != nil {
		slog.Error("Failed to record alarm delivery",
			log.AlarmName(a.Name),
			log.TaskID(taskID),
			log.Error(err),
		)
		return
	}
	slog.Info("Alarm delivered",
		log.AlarmName(a.Name),
		log.TaskID(taskID),
		log.Due(a.Due),
	)
}

// deliverManualAlarm fires a standalone alarm. The registry entry is
// retired whether or not the hook lets the alarm through, so a vetoed
// alarm does not linger as pending
func (e *Engine) deliverManualAlarm(a sched.Alarm, now time.Time) {
	delivered := e.hooks.Run(a.Name, a.Due, now)
	e.EnqueueEvent(api.EventTypeAlarmFired, api.AlarmFiredEvent{
		Due:     a.Due,
		FiredAt: now,
		Name:    a.Name,
	})
	if !delivered {
		slog.Info("Alarm suppressed by hook", log.AlarmName(a.Name))
		return
	}
	slog.Info("Alarm delivered",
		log.AlarmName(a.Name),
		log.Due(a.Due),
	)
}
