// Package task implements the command side of the event-sourced task
// aggregate. Each constructor returns a timebox.Command that validates the
// request against current task state and raises the events describing the
// change. Commands generate identifiers; the appliers stamp times from
// event timestamps, so replay is deterministic.
package task

import (
	"errors"
	"fmt"

	"github.com/kode4food/timebox"

	"github.com/kode4food/nagme/pkg/api"
	"github.com/kode4food/nagme/pkg/events"
)

type (
	// Command mutates a task aggregate by raising events
	Command = timebox.Command[*api.TaskState]

	// Aggregator aggregates task state from events
	Aggregator = timebox.Aggregator[*api.TaskState]

	pending struct {
		data any
		typ  api.EventType
	}
)

// DefaultTaskName is assigned to tasks created without a name
const DefaultTaskName = "new task..."

var (
	ErrTaskExists    = errors.New("task exists")
	ErrTaskNotFound  = errors.New("task not found")
	ErrTaskCompleted = errors.New("task already completed")
	ErrBadTransition = errors.New("invalid status transition")
	ErrNoDeadline    = errors.New("task has no deadline")
)

func findTask(st *api.TaskState, id api.TaskID) (*api.TaskState, error) {
	if st == nil || st.ID == "" {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	node, ok := st.FindTask(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return node, nil
}

func raiseAll(ag *Aggregator, evs []pending) error {
	for _, ev := range evs {
		if err := events.Raise(ag, ev.typ, ev.data); err != nil {
			return err
		}
	}
	return nil
}
