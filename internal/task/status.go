package task

import (
	"fmt"

	"github.com/kode4food/nagme/pkg/api"
)

// Pause places an in-progress task on hold. Subtasks still in progress are
// paused along with it; subtasks already on hold keep their own subtrees
// untouched so that resuming restores exactly what pausing stopped.
func Pause(id api.TaskID) Command {
	return func(st *api.TaskState, ag *Aggregator) error {
		node, err := findTask(st, id)
		if err != nil {
			return err
		}
		if !node.Status.CanPause() {
			return transitionErr(node, "pause")
		}
		return raiseAll(ag, pauseWalk(node, nil))
	}
}

// Resume puts an on-hold task back in progress, along with any subtasks
// that were on hold beneath it. Resuming a task already in progress is a
// no-op; a completed task must be restarted instead.
func Resume(id api.TaskID) Command {
	return func(st *api.TaskState, ag *Aggregator) error {
		node, err := findTask(st, id)
		if err != nil {
			return err
		}
		switch node.Status {
		case api.TaskInProgress:
			return nil
		case api.TaskCompleted:
			return ErrTaskCompleted
		}
		return raiseAll(ag, resumeWalk(node, nil))
	}
}

// Complete marks a task and all of its unfinished subtasks as completed
func Complete(id api.TaskID) Command {
	return func(st *api.TaskState, ag *Aggregator) error {
		node, err := findTask(st, id)
		if err != nil {
			return err
		}
		if !node.Status.CanComplete() {
			return ErrTaskCompleted
		}
		return raiseAll(ag, completeWalk(node, nil))
	}
}

// Restart reopens a completed task and its completed subtasks, putting
// them back in progress. Progress notes keep their text but shed their
// completed percentages so that completion figures start over.
func Restart(id api.TaskID) Command {
	return func(st *api.TaskState, ag *Aggregator) error {
		node, err := findTask(st, id)
		if err != nil {
			return err
		}
		if !node.Status.CanRestart() {
			return transitionErr(node, "restart")
		}
		return raiseAll(ag, restartWalk(node, nil))
	}
}

// Reset returns a task tree to a clean in-progress state, discarding all
// progress notes. Deadlines and importance levels are retained.
func Reset(id api.TaskID) Command {
	return func(st *api.TaskState, ag *Aggregator) error {
		node, err := findTask(st, id)
		if err != nil {
			return err
		}
		return raiseAll(ag, resetWalk(node, nil))
	}
}

func transitionErr(node *api.TaskState, action string) error {
	return fmt.Errorf("%w: task %s cannot %s from status %s",
		ErrBadTransition, node.ID, action, node.Status)
}

func statusChange(node *api.TaskState, to api.TaskStatus) pending {
	return pending{
		typ: api.EventTypeStatusChanged,
		data: api.StatusChangedEvent{
			TaskID:   node.ID,
			Status:   to,
			Previous: node.Status,
		},
	}
}

func pauseWalk(node *api.TaskState, evs []pending) []pending {
	evs = append(evs, statusChange(node, api.TaskOnHold))
	for _, sub := range node.Subtasks {
		if sub.Status == api.TaskInProgress {
			evs = pauseWalk(sub, evs)
		}
	}
	return evs
}

func resumeWalk(node *api.TaskState, evs []pending) []pending {
	evs = append(evs, statusChange(node, api.TaskInProgress))
	for _, sub := range node.Subtasks {
		if sub.Status == api.TaskOnHold {
			evs = resumeWalk(sub, evs)
		}
	}
	return evs
}

func completeWalk(node *api.TaskState, evs []pending) []pending {
	evs = append(evs, statusChange(node, api.TaskCompleted))
	for _, sub := range node.Subtasks {
		if sub.Status != api.TaskCompleted {
			evs = completeWalk(sub, evs)
		}
	}
	return evs
}

func restartWalk(node *api.TaskState, evs []pending) []pending {
	evs = append(evs, statusChange(node, api.TaskInProgress))
	if hasCompletedNotes(node) {
		evs = append(evs, pending{
			typ:  api.EventTypeNotesReopened,
			data: api.NotesReopenedEvent{TaskID: node.ID},
		})
	}
	for _, sub := range node.Subtasks {
		if sub.Status == api.TaskCompleted {
			evs = restartWalk(sub, evs)
		}
	}
	return evs
}

func resetWalk(node *api.TaskState, evs []pending) []pending {
	if node.Status != api.TaskInProgress {
		evs = append(evs, statusChange(node, api.TaskInProgress))
	}
	if len(node.Notes) > 0 {
		evs = append(evs, pending{
			typ:  api.EventTypeNotesCleared,
			data: api.NotesClearedEvent{TaskID: node.ID},
		})
	}
	for _, sub := range node.Subtasks {
		evs = resetWalk(sub, evs)
	}
	return evs
}

func hasCompletedNotes(node *api.TaskState) bool {
	for _, note := range node.Notes {
		if note.Completed {
			return true
		}
	}
	return false
}
