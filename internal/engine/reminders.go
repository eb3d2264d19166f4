package engine

import (
	"log/slog"
	"time"

	"github.com/kode4food/timebox"

	"github.com/kode4food/nagme/pkg/api"
	"github.com/kode4food/nagme/pkg/events"
	"github.com/kode4food/nagme/pkg/log"
	"github.com/kode4food/nagme/pkg/sched"
)

// routeEvent feeds a hub event through the engine's dispatcher so the
// scheduler and node index track every task and alarm mutation
func (e *Engine) routeEvent(ev *timebox.Event) {
	if err := e.handler(ev); err != nil {
		slog.Error("Failed to handle event",
			log.EventType(ev.Type),
			log.Error(err),
		)
	}
}

func (e *Engine) handleTaskCreated(
	ev *timebox.Event, data api.TaskCreatedEvent,
) error {
	rootID, ok := eventRoot(ev)
	if !ok || data.Task == nil {
		return nil
	}
	e.registerTree(rootID, data.Task)
	return nil
}

func (e *Engine) handleSubtaskAdded(
	ev *timebox.Event, data api.SubtaskAddedEvent,
) error {
	rootID, ok := eventRoot(ev)
	if !ok || data.Subtask == nil {
		return nil
	}
	e.registerTree(rootID, data.Subtask)
	return nil
}

func (e *Engine) handleDeadlineSet(
	ev *timebox.Event, data api.DeadlineSetEvent,
) error {
	rootID, ok := eventRoot(ev)
	if !ok {
		return nil
	}
	e.cancelDeadline(rootID, data.TaskID)
	e.scheduleDeadline(rootID, data.TaskID, data.Deadline)
	return nil
}

func (e *Engine) handleDeadlineCleared(
	ev *timebox.Event, data api.DeadlineClearedEvent,
) error {
	rootID, ok := eventRoot(ev)
	if !ok {
		return nil
	}
	e.cancelDeadline(rootID, data.TaskID)
	return nil
}

// handleStatusChanged cancels a node's deadline alarm on completion and
// resurrects it when the node is restarted with its deadline intact. Other
// transitions leave the alarm alone, so a task on hold keeps nagging
func (e *Engine) handleStatusChanged(
	ev *timebox.Event, data api.StatusChangedEvent,
) error {
	rootID, ok := eventRoot(ev)
	if !ok {
		return nil
	}
	if data.Status == api.TaskCompleted {
		e.cancelDeadline(rootID, data.TaskID)
		return nil
	}
	if data.Previous != api.TaskCompleted {
		return nil
	}
	st, err := e.GetTaskState(rootID)
	if err != nil {
		return err
	}
	node, found := st.FindTask(data.TaskID)
	if !found || !node.HasDeadline() {
		return nil
	}
	e.scheduleDeadline(rootID, data.TaskID, node.Deadline)
	return nil
}

func (e *Engine) handleAlarmScheduled(
	_ *timebox.Event, data api.AlarmScheduledEvent,
) error {
	e.scheduler.Add(sched.NewAlarm(data.Name, data.Due))
	slog.Debug("Alarm scheduled",
		log.AlarmName(data.Name),
		log.Due(data.Due),
	)
	return nil
}

func (e *Engine) handleAlarmCancelled(
	_ *timebox.Event, data api.AlarmCancelledEvent,
) error {
	if _, ok := e.scheduler.Remove(data.Name); ok {
		slog.Debug("Alarm cancelled", log.AlarmName(data.Name))
	}
	return nil
}

func (e *Engine) handleTaskUnregistered(
	_ *timebox.Event, data api.TaskUnregisteredEvent,
) error {
	orphaned := e.index.detachRoot(data.TaskID)
	for _, a := range orphaned {
		e.scheduler.Remove(a.Name)
	}
	if len(orphaned) > 0 {
		slog.Debug("Task alarms withdrawn",
			log.TaskID(data.TaskID),
			log.Count(len(orphaned)),
		)
	}
	return nil
}

// registerTree indexes every node of a task subtree and schedules deadline
// alarms for the unfinished nodes that carry one
func (e *Engine) registerTree(rootID api.TaskID, st *api.TaskState) {
	e.index.addNode(rootID, st.ID)
	if st.HasDeadline() && st.Status != api.TaskCompleted {
		e.scheduleDeadline(rootID, st.ID, st.Deadline)
	}
	for _, sub := range st.Subtasks {
		e.registerTree(rootID, sub)
	}
}

func (e *Engine) scheduleDeadline(
	rootID, taskID api.TaskID, due time.Time,
) {
	name := e.index.setAlarm(rootID, taskID, due)
	e.scheduler.Add(sched.NewAlarm(name, due))
	slog.Debug("Deadline alarm scheduled",
		log.AlarmName(name),
		log.Due(due),
	)
}

func (e *Engine) cancelDeadline(rootID, taskID api.TaskID) {
	name := e.index.removeAlarm(rootID, taskID)
	e.scheduler.Remove(name)
}

func eventRoot(ev *timebox.Event) (api.TaskID, bool) {
	if !events.IsTaskEvent(ev) {
		return "", false
	}
	return api.TaskID(ev.AggregateID[1]), true
}
