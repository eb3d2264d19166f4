package api

import (
	"maps"
	"slices"
	"time"
)

type (
	// TaskState contains the complete state of a task and its subtasks
	TaskState struct {
		CreatedAt   time.Time       `json:"created_at"`
		CompletedAt time.Time       `json:"completed_at,omitempty"`
		LastUpdated time.Time       `json:"last_updated"`
		LastNagged  time.Time       `json:"last_nagged,omitempty"`
		Deadline    time.Time       `json:"deadline,omitempty"`
		Subtasks    []*TaskState    `json:"subtasks,omitempty"`
		Notes       []*ProgressNote `json:"notes,omitempty"`
		ID          TaskID          `json:"id"`
		Name        string          `json:"name"`
		Status      TaskStatus      `json:"status"`
		Importance  TaskImportance  `json:"importance"`
	}

	// RegisteredTasks indexes registry entries by task ID
	RegisteredTasks map[TaskID]*RegistryEntry

	// Alarms indexes scheduled alarms by name
	Alarms map[string]*AlarmInfo

	// RegistryState tracks the live root tasks and manually scheduled
	// alarms known to the engine so they can be enumerated without
	// scanning the store
	RegistryState struct {
		LastUpdated time.Time       `json:"last_updated"`
		Tasks       RegisteredTasks `json:"tasks"`
		Alarms      Alarms          `json:"alarms"`
	}

	// RegistryEntry records a registered root task
	RegistryEntry struct {
		RegisteredAt time.Time `json:"registered_at"`
		Name         string    `json:"name"`
		ID           TaskID    `json:"id"`
	}

	// AlarmInfo describes a scheduled alarm
	AlarmInfo struct {
		Due    time.Time `json:"due"`
		Name   string    `json:"name"`
		TaskID TaskID    `json:"task_id,omitempty"`
	}
)

// HasDeadline returns true when the task has a deadline set
func (st *TaskState) HasDeadline() bool {
	return !st.Deadline.IsZero()
}

// FindTask returns the task with the given ID from this task's tree,
// searching depth first
func (st *TaskState) FindTask(id TaskID) (*TaskState, bool) {
	if st.ID == id {
		return st, true
	}
	for _, sub := range st.Subtasks {
		if found, ok := sub.FindTask(id); ok {
			return found, true
		}
	}
	return nil, false
}

// MapTask returns a new tree in which the task with the given ID has been
// replaced by the result of fn. Branches not on the path to the task are
// shared with the original. The bool result reports whether the ID was
// found anywhere in the tree
func (st *TaskState) MapTask(
	id TaskID, fn func(*TaskState) *TaskState,
) (*TaskState, bool) {
	if st.ID == id {
		return fn(st), true
	}
	for i, sub := range st.Subtasks {
		mapped, ok := sub.MapTask(id, fn)
		if !ok {
			continue
		}
		res := *st
		res.Subtasks = slices.Clone(st.Subtasks)
		res.Subtasks[i] = mapped
		return &res, true
	}
	return st, false
}

// WithTimestamps returns a copy of the tree in which zero creation times
// have been filled in from t and all update times set to t
func (st *TaskState) WithTimestamps(t time.Time) *TaskState {
	res := *st
	if res.CreatedAt.IsZero() {
		res.CreatedAt = t
	}
	res.LastUpdated = t
	if len(st.Subtasks) > 0 {
		res.Subtasks = make([]*TaskState, len(st.Subtasks))
		for i, sub := range st.Subtasks {
			res.Subtasks[i] = sub.WithTimestamps(t)
		}
	}
	return &res
}

// SetStatus returns a new TaskState with the updated status
func (st *TaskState) SetStatus(s TaskStatus) *TaskState {
	res := *st
	res.Status = s
	return &res
}

// SetImportance returns a new TaskState with the updated importance
func (st *TaskState) SetImportance(i TaskImportance) *TaskState {
	res := *st
	res.Importance = i
	return &res
}

// SetDeadline returns a new TaskState with the deadline set
func (st *TaskState) SetDeadline(t time.Time) *TaskState {
	res := *st
	res.Deadline = t
	return &res
}

// ClearDeadline returns a new TaskState with no deadline
func (st *TaskState) ClearDeadline() *TaskState {
	res := *st
	res.Deadline = time.Time{}
	return &res
}

// SetCompletedAt returns a new TaskState with the completion timestamp set
func (st *TaskState) SetCompletedAt(t time.Time) *TaskState {
	res := *st
	res.CompletedAt = t
	return &res
}

// SetLastUpdated returns a new TaskState with the last updated time set
func (st *TaskState) SetLastUpdated(t time.Time) *TaskState {
	res := *st
	res.LastUpdated = t
	return &res
}

// SetLastNagged returns a new TaskState with the last nagged time set
func (st *TaskState) SetLastNagged(t time.Time) *TaskState {
	res := *st
	res.LastNagged = t
	return &res
}

// AddSubtask returns a new TaskState with the subtask appended
func (st *TaskState) AddSubtask(sub *TaskState) *TaskState {
	res := *st
	res.Subtasks = append(slices.Clone(st.Subtasks), sub)
	return &res
}

// AddNote returns a new TaskState with the note appended
func (st *TaskState) AddNote(note *ProgressNote) *TaskState {
	res := *st
	res.Notes = append(slices.Clone(st.Notes), note)
	return &res
}

// ClearNotes returns a new TaskState with no notes
func (st *TaskState) ClearNotes() *TaskState {
	res := *st
	res.Notes = nil
	return &res
}

// ReopenNotes returns a new TaskState in which every note keeps its text
// but no longer claims any completion
func (st *TaskState) ReopenNotes() *TaskState {
	res := *st
	res.Notes = make([]*ProgressNote, len(st.Notes))
	for i, note := range st.Notes {
		reopened := *note
		reopened.Completed = false
		reopened.Percent = 0
		res.Notes[i] = &reopened
	}
	return &res
}

// SetTask returns a new RegistryState with the task entry registered
func (st *RegistryState) SetTask(id TaskID, e *RegistryEntry) *RegistryState {
	res := *st
	res.Tasks = maps.Clone(st.Tasks)
	res.Tasks[id] = e
	return &res
}

// DeleteTask returns a new RegistryState with the task entry removed
func (st *RegistryState) DeleteTask(id TaskID) *RegistryState {
	res := *st
	res.Tasks = maps.Clone(st.Tasks)
	delete(res.Tasks, id)
	return &res
}

// SetAlarm returns a new RegistryState with the alarm recorded
func (st *RegistryState) SetAlarm(name string, a *AlarmInfo) *RegistryState {
	res := *st
	res.Alarms = maps.Clone(st.Alarms)
	res.Alarms[name] = a
	return &res
}

// DeleteAlarm returns a new RegistryState with the alarm removed
func (st *RegistryState) DeleteAlarm(name string) *RegistryState {
	res := *st
	res.Alarms = maps.Clone(st.Alarms)
	delete(res.Alarms, name)
	return &res
}

// SetLastUpdated returns a new RegistryState with last updated time set
func (st *RegistryState) SetLastUpdated(t time.Time) *RegistryState {
	res := *st
	res.LastUpdated = t
	return &res
}
