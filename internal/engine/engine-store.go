package engine

import (
	"fmt"

	"github.com/kode4food/timebox"

	"github.com/kode4food/nagme/internal/engine/event"
	"github.com/kode4food/nagme/internal/task"
	"github.com/kode4food/nagme/pkg/api"
	"github.com/kode4food/nagme/pkg/events"
)

// GetTaskState retrieves the replayed state of a root task tree. A task
// that never raised an event resolves to an empty state and is reported as
// not found
func (e *Engine) GetTaskState(id api.TaskID) (*api.TaskState, error) {
	st, err := e.execTask(id,
		func(st *api.TaskState, ag *TaskAggregator) error {
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	if st == nil || st.ID == "" {
		return nil, fmt.Errorf("%w: %s", task.ErrTaskNotFound, id)
	}
	return st, nil
}

// GetTaskStateSeq retrieves a task's state and its next event sequence
func (e *Engine) GetTaskStateSeq(
	id api.TaskID,
) (*api.TaskState, int64, error) {
	var seq int64
	st, err := e.execTask(id,
		func(st *api.TaskState, ag *TaskAggregator) error {
			seq = ag.NextSequence()
			return nil
		},
	)
	if err != nil {
		return nil, 0, err
	}
	if st == nil || st.ID == "" {
		return nil, 0, fmt.Errorf("%w: %s", task.ErrTaskNotFound, id)
	}
	return st, seq, nil
}

// GetRegistryState retrieves the current registry state
func (e *Engine) GetRegistryState() (*api.RegistryState, error) {
	return e.execRegistry(
		func(st *api.RegistryState, ag *RegistryAggregator) error {
			return nil
		},
	)
}

// GetRegistryStateSeq retrieves registry state and its next event sequence
func (e *Engine) GetRegistryStateSeq() (*api.RegistryState, int64, error) {
	var seq int64
	st, err := e.execRegistry(
		func(st *api.RegistryState, ag *RegistryAggregator) error {
			seq = ag.NextSequence()
			return nil
		},
	)
	return st, seq, err
}

func (e *Engine) raiseRegistryEvent(typ api.EventType, data any) error {
	return e.raiseRegistryEvents([]event.Event{{
		Type: typ,
		Data: data,
	}})
}

func (e *Engine) raiseRegistryEvents(evs []event.Event) error {
	_, err := e.execRegistry(
		func(st *api.RegistryState, ag *RegistryAggregator) error {
			for _, ev := range evs {
				if err := events.Raise(ag, ev.Type, ev.Data); err != nil {
					return err
				}
			}
			return nil
		},
	)
	return err
}

func (e *Engine) execTask(
	id api.TaskID, cmd task.Command,
) (*api.TaskState, error) {
	return e.taskExec.Exec(e.ctx, events.TaskKey(id), cmd)
}

func (e *Engine) execRegistry(
	cmd timebox.Command[*api.RegistryState],
) (*api.RegistryState, error) {
	return e.regExec.Exec(e.ctx, events.RegistryKey, cmd)
}
