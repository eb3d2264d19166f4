// Package event provides the serialized write path for registry events.
// Alarm firings and registrations from many goroutines funnel through one
// caravan topic so registry mutations apply in bounded batches, in order
package event

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kode4food/caravan"
	"github.com/kode4food/caravan/topic"

	"github.com/kode4food/nagme/pkg/api"
	"github.com/kode4food/nagme/pkg/log"
)

type (
	// Queue applies queued registry events sequentially in bounded batches
	Queue struct {
		prod        topic.Producer[Event]
		cons        topic.Consumer[Event]
		handler     Handler
		stop        chan struct{}
		batchSize   int
		wg          sync.WaitGroup
		startOnce   sync.Once
		stopOnce    sync.Once
		cleanupOnce sync.Once
	}

	// Handler applies a batch of registry events in a single execution
	Handler func([]Event) error

	// Event pairs an event type with its undecoded payload
	Event struct {
		Data any
		Type api.EventType
	}
)

var ErrHandlerPanicked = errors.New("event handler panicked")

const (
	maxRetries = 3
	retryDelay = 100 * time.Millisecond
)

// NewQueue creates a registry event queue with the provided batch size
func NewQueue(handler Handler, batchSize int) *Queue {
	queue := caravan.NewTopic[Event]()
	return &Queue{
		prod:      queue.NewProducer(),
		cons:      queue.NewConsumer(),
		handler:   handler,
		stop:      make(chan struct{}),
		batchSize: batchSize,
	}
}

// Start begins applying queued registry events
func (q *Queue) Start() {
	q.startOnce.Do(func() {
		q.wg.Go(func() {
			for {
				select {
				case <-q.stop:
					return
				case ev, ok := <-q.cons.Receive():
					if !ok {
						return
					}
					q.handleBatch(q.collectBatch(ev))
				}
			}
		})
	})
}

// Enqueue adds a registry event to the queue. It never blocks the caller;
// the alarm delivery loop must not stall on registry bookkeeping
func (q *Queue) Enqueue(typ api.EventType, data any) {
	q.prod.Send() <- Event{
		Type: typ,
		Data: data,
	}
}

// Flush applies all queued events and stops the queue
func (q *Queue) Flush() {
	q.stopOnce.Do(func() {
		close(q.stop)
	})
	q.wg.Wait()
	q.cleanupOnce.Do(q.flush)
}

// Cancel immediately stops the queue, discarding any queued events
func (q *Queue) Cancel() {
	q.stopOnce.Do(func() {
		close(q.stop)
	})
	q.wg.Wait()
	q.cleanupOnce.Do(q.close)
}

func (q *Queue) collectBatch(first Event) []Event {
	batch := []Event{first}
	for len(batch) < q.batchSize {
		select {
		case ev, ok := <-q.cons.Receive():
			if !ok {
				return batch
			}
			batch = append(batch, ev)
		default:
			return batch
		}
	}
	return batch
}

func (q *Queue) flush() {
	for {
		select {
		case ev, ok := <-q.cons.Receive():
			if !ok {
				q.close()
				return
			}
			q.handleBatch(q.collectBatch(ev))
		default:
			q.close()
			return
		}
	}
}

func (q *Queue) close() {
	q.prod.Close()
	q.cons.Close()
}

func (q *Queue) handleBatch(batch []Event) {
	for attempt := range maxRetries {
		err := q.tryHandleBatch(batch)
		if err == nil {
			return
		}
		slog.Error("Registry event batch failed",
			log.Count(len(batch)),
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", maxRetries),
			log.Error(err),
		)
		if attempt < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}
	slog.Error("Registry event batch permanently failed",
		log.Count(len(batch)),
	)
}

func (q *Queue) tryHandleBatch(batch []Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanicked, r)
		}
	}()
	return q.handler(batch)
}
