package engine

import (
	"log/slog"

	"github.com/kode4food/nagme/pkg/log"
	"github.com/kode4food/nagme/pkg/sched"
)

// RecoverTasks rebuilds the node index and alarm schedule from the
// registry after a restart. Task state replays from the store, or restores
// from hibernation; alarms are derived fresh and never persisted. A
// past-due deadline schedules like any other and fires near-immediately
// through the normal delivery path. Per-task failures are logged and
// skipped so one damaged aggregate cannot keep the daemon down
func (e *Engine) RecoverTasks() error {
	reg, err := e.GetRegistryState()
	if err != nil {
		return err
	}
	recovered := 0
	for id := range reg.Tasks {
		st, err := e.GetTaskState(id)
		if err != nil {
			slog.Error("Failed to recover task",
				log.TaskID(id),
				log.Error(err),
			)
			continue
		}
		e.registerTree(id, st)
		recovered++
	}
	for _, a := range reg.Alarms {
		e.scheduler.Add(sched.NewAlarm(a.Name, a.Due))
	}
	slog.Info("Recovery complete",
		log.Count(recovered),
		slog.Int("alarms", e.scheduler.Pending()),
	)
	return nil
}
