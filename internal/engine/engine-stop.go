package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/kode4food/nagme/pkg/events"
	"github.com/kode4food/nagme/pkg/log"
)

const snapshotTimeout = 5 * time.Second

// Stop gracefully shuts down the engine. Queued registry events are flushed,
// the scheduler loop and delivery drain, and the registry is snapshotted
func (e *Engine) Stop() error {
	e.eventQueue.Flush()
	e.scheduler.Stop()
	e.cancel()
	defer e.consumer.Close()

	if e.archive != nil {
		e.archive.Stop()
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(e.config.ShutdownTimeout):
		return ErrShutdownTimeout
	}

	e.saveRegistrySnapshot()
	slog.Info("Engine stopped")
	return nil
}

func (e *Engine) saveRegistrySnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()

	if err := e.regExec.SaveSnapshot(ctx, events.RegistryKey); err != nil {
		slog.Error("Failed to save registry snapshot", log.Error(err))
	} else {
		slog.Info("Registry snapshot saved")
	}
}
