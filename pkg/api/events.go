package api

import "time"

type (
	// TaskCreatedEvent is emitted when a new root task is created
	TaskCreatedEvent struct {
		Task *TaskState `json:"task"`
	}

	// SubtaskAddedEvent is emitted when a subtask is attached to a task
	SubtaskAddedEvent struct {
		Subtask  *TaskState `json:"subtask"`
		ParentID TaskID     `json:"parent_id"`
	}

	// NoteAddedEvent is emitted when a progress note is recorded
	NoteAddedEvent struct {
		TaskID    TaskID     `json:"task_id"`
		Text      string     `json:"text"`
		Completed bool       `json:"completed,omitempty"`
		Percent   Completion `json:"percent,omitempty"`
	}

	// StatusChangedEvent is emitted for each task whose status changes,
	// including tasks changed by a recursive pause, resume, or complete
	StatusChangedEvent struct {
		TaskID   TaskID     `json:"task_id"`
		Status   TaskStatus `json:"status"`
		Previous TaskStatus `json:"previous,omitempty"`
	}

	// DeadlineSetEvent is emitted when a task's deadline is set or moved
	DeadlineSetEvent struct {
		Deadline time.Time `json:"deadline"`
		Previous time.Time `json:"previous,omitempty"`
		TaskID   TaskID    `json:"task_id"`
	}

	// DeadlineClearedEvent is emitted when a task's deadline is removed
	DeadlineClearedEvent struct {
		Previous time.Time `json:"previous,omitempty"`
		TaskID   TaskID    `json:"task_id"`
	}

	// ImportanceChangedEvent is emitted when a task's importance changes
	ImportanceChangedEvent struct {
		TaskID     TaskID         `json:"task_id"`
		Importance TaskImportance `json:"importance"`
		Previous   TaskImportance `json:"previous"`
	}

	// NotesClearedEvent is emitted when a task reset discards its notes
	NotesClearedEvent struct {
		TaskID TaskID `json:"task_id"`
	}

	// NotesReopenedEvent is emitted when a restart clears the completion
	// claims from a task's notes while keeping their text
	NotesReopenedEvent struct {
		TaskID TaskID `json:"task_id"`
	}

	// TaskArchivedEvent is emitted when a completed task is moved to the
	// archive bucket
	TaskArchivedEvent struct {
		TaskID   TaskID `json:"task_id"`
		Location string `json:"location"`
	}

	// AlarmScheduledEvent is emitted when a standalone alarm is scheduled
	AlarmScheduledEvent struct {
		Due    time.Time `json:"due"`
		Name   string    `json:"name"`
		TaskID TaskID    `json:"task_id,omitempty"`
	}

	// AlarmCancelledEvent is emitted when a scheduled alarm is withdrawn
	// before coming due
	AlarmCancelledEvent struct {
		Name   string `json:"name"`
		TaskID TaskID `json:"task_id,omitempty"`
	}

	// AlarmFiredEvent is emitted when an alarm comes due and is delivered
	AlarmFiredEvent struct {
		Due     time.Time `json:"due"`
		FiredAt time.Time `json:"fired_at"`
		Name    string    `json:"name"`
		TaskID  TaskID    `json:"task_id,omitempty"`
	}

	// TaskRegisteredEvent is emitted when a root task joins the registry
	TaskRegisteredEvent struct {
		TaskID TaskID `json:"task_id"`
		Name   string `json:"name"`
	}

	// TaskUnregisteredEvent is emitted when a root task leaves the
	// registry, either by deletion or archiving
	TaskUnregisteredEvent struct {
		TaskID TaskID `json:"task_id"`
	}

	EventType string
)

const (
	EventTypeTaskCreated       EventType = "task_created"
	EventTypeSubtaskAdded      EventType = "subtask_added"
	EventTypeNoteAdded         EventType = "note_added"
	EventTypeNotesCleared      EventType = "notes_cleared"
	EventTypeNotesReopened     EventType = "notes_reopened"
	EventTypeStatusChanged     EventType = "status_changed"
	EventTypeDeadlineSet       EventType = "deadline_set"
	EventTypeDeadlineCleared   EventType = "deadline_cleared"
	EventTypeImportanceChanged EventType = "importance_changed"
	EventTypeTaskArchived      EventType = "task_archived"
	EventTypeAlarmScheduled    EventType = "alarm_scheduled"
	EventTypeAlarmCancelled    EventType = "alarm_cancelled"
	EventTypeAlarmFired        EventType = "alarm_fired"
	EventTypeTaskRegistered    EventType = "task_registered"
	EventTypeTaskUnregistered  EventType = "task_unregistered"
)
