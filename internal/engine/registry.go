package engine

import (
	"fmt"
	"log/slog"

	"github.com/kode4food/nagme/pkg/api"
	"github.com/kode4food/nagme/pkg/log"
)

// RemoveTask retires a root task tree from the registry, withdrawing any
// alarms scheduled beneath it. When an archive bucket is configured the
// task's final state is written there before it is unregistered; an
// archive failure is logged but does not block removal, since the task's
// event history remains in the store
func (e *Engine) RemoveTask(id api.TaskID) error {
	reg, err := e.GetRegistryState()
	if err != nil {
		return err
	}
	if _, ok := reg.Tasks[id]; !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotRegistered, id)
	}
	if e.archive != nil {
		if _, err := e.archive.ArchiveTask(id); err != nil {
			slog.Error("Failed to archive task",
				log.TaskID(id),
				log.Error(err),
			)
		}
	}
	err = e.raiseRegistryEvent(api.EventTypeTaskUnregistered,
		api.TaskUnregisteredEvent{TaskID: id},
	)
	if err != nil {
		return err
	}
	slog.Info("Task removed", log.TaskID(id))
	return nil
}
