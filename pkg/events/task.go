package events

import (
	"strings"
	"time"

	"github.com/kode4food/timebox"

	"github.com/kode4food/nagme/pkg/api"
)

const TaskPrefix = "task"

// TaskAppliers contains the event applier functions for task events
var TaskAppliers = makeTaskAppliers()

// NewTaskState creates an empty task state for the executor
func NewTaskState() *api.TaskState {
	return &api.TaskState{}
}

// TaskKey returns the aggregate ID for a root task
func TaskKey[T ~string](taskID T) timebox.AggregateID {
	return timebox.NewAggregateID(TaskPrefix, timebox.ID(taskID))
}

// AlarmName returns the scheduler alarm name for a task's deadline. The
// name is the root aggregate key, with the subtask ID appended when the
// deadline belongs to a nested task, so an alarm always traces back to
// the exact node it nags about
func AlarmName(rootID, taskID api.TaskID) string {
	key := TaskKey(rootID).Join("/")
	if rootID == taskID {
		return key
	}
	return key + "/" + string(taskID)
}

// ParseTaskKey extracts the root and node task IDs from an alarm name or
// aggregate key string. ok is false for names that are not task keys
func ParseTaskKey(str string) (api.TaskID, api.TaskID, bool) {
	parts := strings.Split(str, "/")
	if len(parts) < 2 || parts[0] != TaskPrefix || parts[1] == "" {
		return "", "", false
	}
	rootID := api.TaskID(parts[1])
	taskID := rootID
	if len(parts) > 2 && parts[2] != "" {
		taskID = api.TaskID(parts[2])
	}
	return rootID, taskID, true
}

// IsTaskEvent returns true if the event belongs to a task aggregate
func IsTaskEvent(ev *timebox.Event) bool {
	return len(ev.AggregateID) >= 2 && ev.AggregateID[0] == TaskPrefix
}

func makeTaskAppliers() timebox.Appliers[*api.TaskState] {
	return MakeAppliers(map[api.EventType]timebox.Applier[*api.TaskState]{
		api.EventTypeTaskCreated:       timebox.MakeApplier(taskCreated),
		api.EventTypeSubtaskAdded:      timebox.MakeApplier(subtaskAdded),
		api.EventTypeNoteAdded:         timebox.MakeApplier(noteAdded),
		api.EventTypeNotesCleared:      timebox.MakeApplier(notesCleared),
		api.EventTypeNotesReopened:     timebox.MakeApplier(notesReopened),
		api.EventTypeStatusChanged:     timebox.MakeApplier(statusChanged),
		api.EventTypeDeadlineSet:       timebox.MakeApplier(deadlineSet),
		api.EventTypeDeadlineCleared:   timebox.MakeApplier(deadlineCleared),
		api.EventTypeImportanceChanged: timebox.MakeApplier(importanceChanged),
		api.EventTypeTaskArchived:      timebox.MakeApplier(taskArchived),
		api.EventTypeAlarmFired:        timebox.MakeApplier(taskAlarmFired),
	})
}

func taskCreated(
	_ *api.TaskState, ev *timebox.Event, data api.TaskCreatedEvent,
) *api.TaskState {
	return data.Task.WithTimestamps(ev.Timestamp)
}

func subtaskAdded(
	st *api.TaskState, ev *timebox.Event, data api.SubtaskAddedEvent,
) *api.TaskState {
	res, ok := st.MapTask(data.ParentID, func(t *api.TaskState) *api.TaskState {
		return t.AddSubtask(data.Subtask.WithTimestamps(ev.Timestamp))
	})
	if !ok {
		return st
	}
	return res.SetLastUpdated(ev.Timestamp)
}

func noteAdded(
	st *api.TaskState, ev *timebox.Event, data api.NoteAddedEvent,
) *api.TaskState {
	res, ok := st.MapTask(data.TaskID, func(t *api.TaskState) *api.TaskState {
		return t.AddNote(&api.ProgressNote{
			CreatedAt: ev.Timestamp,
			Text:      data.Text,
			Completed: data.Completed,
			Percent:   data.Percent,
		})
	})
	if !ok {
		return st
	}
	return res.SetLastUpdated(ev.Timestamp)
}

func notesCleared(
	st *api.TaskState, ev *timebox.Event, data api.NotesClearedEvent,
) *api.TaskState {
	res, ok := st.MapTask(data.TaskID, func(t *api.TaskState) *api.TaskState {
		return t.ClearNotes()
	})
	if !ok {
		return st
	}
	return res.SetLastUpdated(ev.Timestamp)
}

func notesReopened(
	st *api.TaskState, ev *timebox.Event, data api.NotesReopenedEvent,
) *api.TaskState {
	res, ok := st.MapTask(data.TaskID, func(t *api.TaskState) *api.TaskState {
		return t.ReopenNotes()
	})
	if !ok {
		return st
	}
	return res.SetLastUpdated(ev.Timestamp)
}

func statusChanged(
	st *api.TaskState, ev *timebox.Event, data api.StatusChangedEvent,
) *api.TaskState {
	res, ok := st.MapTask(data.TaskID, func(t *api.TaskState) *api.TaskState {
		updated := t.SetStatus(data.Status)
		if data.Status == api.TaskCompleted {
			return updated.SetCompletedAt(ev.Timestamp)
		}
		if data.Previous == api.TaskCompleted {
			return updated.SetCompletedAt(time.Time{})
		}
		return updated
	})
	if !ok {
		return st
	}
	return res.SetLastUpdated(ev.Timestamp)
}

func deadlineSet(
	st *api.TaskState, ev *timebox.Event, data api.DeadlineSetEvent,
) *api.TaskState {
	res, ok := st.MapTask(data.TaskID, func(t *api.TaskState) *api.TaskState {
		return t.SetDeadline(data.Deadline)
	})
	if !ok {
		return st
	}
	return res.SetLastUpdated(ev.Timestamp)
}

func deadlineCleared(
	st *api.TaskState, ev *timebox.Event, data api.DeadlineClearedEvent,
) *api.TaskState {
	res, ok := st.MapTask(data.TaskID, func(t *api.TaskState) *api.TaskState {
		return t.ClearDeadline()
	})
	if !ok {
		return st
	}
	return res.SetLastUpdated(ev.Timestamp)
}

func importanceChanged(
	st *api.TaskState, ev *timebox.Event, data api.ImportanceChangedEvent,
) *api.TaskState {
	res, ok := st.MapTask(data.TaskID, func(t *api.TaskState) *api.TaskState {
		return t.SetImportance(data.Importance)
	})
	if !ok {
		return st
	}
	return res.SetLastUpdated(ev.Timestamp)
}

func taskArchived(
	st *api.TaskState, ev *timebox.Event, _ api.TaskArchivedEvent,
) *api.TaskState {
	return st.SetLastUpdated(ev.Timestamp)
}

func taskAlarmFired(
	st *api.TaskState, ev *timebox.Event, data api.AlarmFiredEvent,
) *api.TaskState {
	res, ok := st.MapTask(data.TaskID, func(t *api.TaskState) *api.TaskState {
		return t.SetLastNagged(ev.Timestamp)
	})
	if !ok {
		res = st
	}
	return res.SetLastUpdated(ev.Timestamp)
}
