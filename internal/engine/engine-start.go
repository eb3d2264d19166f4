package engine

import (
	"fmt"
	"log/slog"

	"github.com/kode4food/nagme/pkg/api"
)

// Start begins processing events and delivering alarms
func (e *Engine) Start() error {
	slog.Info("Engine starting")
	e.started = e.Now()

	e.eventQueue.Start()

	e.wg.Add(1)
	go e.eventLoop()

	e.wg.Add(1)
	go e.deliverLoop()

	if err := e.RecoverTasks(); err != nil {
		e.eventQueue.Cancel()
		return fmt.Errorf("%w: %w", ErrRecoverTasks, err)
	}

	if e.archive != nil {
		e.archive.Start()
	}
	return nil
}

// EnqueueEvent schedules a registry aggregate event for sequential
// processing
func (e *Engine) EnqueueEvent(typ api.EventType, data any) {
	e.eventQueue.Enqueue(typ, data)
}

// eventLoop routes hub events to the deadline and alarm handlers until the
// engine shuts down
func (e *Engine) eventLoop() {
	defer e.wg.Done()

	for {
		select {
		case <-e.ctx.Done():
			return

		case ev, ok := <-e.consumer.Receive():
			if !ok {
				return
			}
			e.routeEvent(ev)
		}
	}
}
