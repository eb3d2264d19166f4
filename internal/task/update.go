package task

import (
	"fmt"
	"time"

	"github.com/kode4food/nagme/pkg/api"
	"github.com/kode4food/nagme/pkg/events"
)

// AddNote records a progress note against a task. A non-nil percent claims
// that much of the task as completed; nil records plain commentary.
func AddNote(id api.TaskID, req *api.AddNoteRequest) Command {
	return func(st *api.TaskState, ag *Aggregator) error {
		if _, err := findTask(st, id); err != nil {
			return err
		}
		if err := req.Validate(); err != nil {
			return err
		}
		ev := api.NoteAddedEvent{TaskID: id, Text: req.Text}
		if req.Percent != nil {
			ev.Completed = true
			ev.Percent = api.NewCompletion(*req.Percent)
		}
		return events.Raise(ag, api.EventTypeNoteAdded, ev)
	}
}

// SetDeadline sets or moves a task's deadline. Completed tasks no longer
// need reminding and reject the change.
func SetDeadline(id api.TaskID, due time.Time) Command {
	return func(st *api.TaskState, ag *Aggregator) error {
		node, err := findTask(st, id)
		if err != nil {
			return err
		}
		if node.Status == api.TaskCompleted {
			return ErrTaskCompleted
		}
		if due.IsZero() {
			return api.ErrDeadlineRequired
		}
		return events.Raise(ag, api.EventTypeDeadlineSet,
			api.DeadlineSetEvent{
				Deadline: due,
				Previous: node.Deadline,
				TaskID:   id,
			},
		)
	}
}

// ClearDeadline removes a task's deadline. Clearing a task that has no
// deadline is a no-op.
func ClearDeadline(id api.TaskID) Command {
	return func(st *api.TaskState, ag *Aggregator) error {
		node, err := findTask(st, id)
		if err != nil {
			return err
		}
		if !node.HasDeadline() {
			return nil
		}
		return events.Raise(ag, api.EventTypeDeadlineCleared,
			api.DeadlineClearedEvent{
				Previous: node.Deadline,
				TaskID:   id,
			},
		)
	}
}

// ExtendDeadline pushes an existing deadline out by the given duration
func ExtendDeadline(id api.TaskID, dur time.Duration) Command {
	return func(st *api.TaskState, ag *Aggregator) error {
		node, err := findTask(st, id)
		if err != nil {
			return err
		}
		if node.Status == api.TaskCompleted {
			return ErrTaskCompleted
		}
		if !node.HasDeadline() {
			return fmt.Errorf("%w: %s", ErrNoDeadline, id)
		}
		if dur <= 0 {
			return api.ErrDurationRequired
		}
		return events.Raise(ag, api.EventTypeDeadlineSet,
			api.DeadlineSetEvent{
				Deadline: node.Deadline.Add(dur),
				Previous: node.Deadline,
				TaskID:   id,
			},
		)
	}
}

// ChangeImportance updates a task's importance level, raising an event
// only when the level actually changes
func ChangeImportance(id api.TaskID, importance api.TaskImportance) Command {
	return func(st *api.TaskState, ag *Aggregator) error {
		node, err := findTask(st, id)
		if err != nil {
			return err
		}
		if !importance.IsValid() {
			return fmt.Errorf("%w: %s", api.ErrInvalidImportance, importance)
		}
		if node.Importance == importance {
			return nil
		}
		return events.Raise(ag, api.EventTypeImportanceChanged,
			api.ImportanceChangedEvent{
				TaskID:     id,
				Importance: importance,
				Previous:   node.Importance,
			},
		)
	}
}
