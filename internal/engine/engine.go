package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kode4food/caravan/topic"
	"github.com/kode4food/timebox"

	"github.com/kode4food/nagme/internal/config"
	"github.com/kode4food/nagme/internal/engine/event"
	"github.com/kode4food/nagme/internal/hibernate"
	"github.com/kode4food/nagme/pkg/api"
	"github.com/kode4food/nagme/pkg/events"
	"github.com/kode4food/nagme/pkg/sched"
)

type (
	// Engine is the core reminder engine. It owns the task and registry
	// aggregates, consumes the event hub to keep the alarm scheduler in
	// sync with task deadlines, and delivers fired alarms
	Engine struct {
		config     *config.Config
		taskExec   *TaskExecutor
		regExec    *RegistryExecutor
		consumer   EventConsumer
		scheduler  *sched.Scheduler
		alarms     <-chan sched.Alarm
		eventQueue *event.Queue
		hooks      *HookRunner
		archive    *ArchiveWorker
		blobStore  *hibernate.BlobStore
		index      *taskIndex
		handler    timebox.Handler
		clock      sched.Clock
		makeTimer  sched.TimerConstructor
		ctx        context.Context
		cancel     context.CancelFunc
		wg         sync.WaitGroup
		started    time.Time
	}

	// EventConsumer consumes events from the event hub
	EventConsumer = topic.Consumer[*timebox.Event]

	// TaskExecutor manages task state persistence and event sourcing
	TaskExecutor = timebox.Executor[*api.TaskState]

	// TaskAggregator aggregates task state from events
	TaskAggregator = timebox.Aggregator[*api.TaskState]

	// RegistryExecutor manages registry state persistence
	RegistryExecutor = timebox.Executor[*api.RegistryState]

	// RegistryAggregator aggregates registry state from events
	RegistryAggregator = timebox.Aggregator[*api.RegistryState]

	// Option configures an Engine at construction
	Option func(*Engine)
)

const eventBatchSize = 32

var (
	ErrShutdownTimeout   = errors.New("shutdown timeout exceeded")
	ErrRecoverTasks      = errors.New("failed to recover tasks")
	ErrTaskNotRegistered = errors.New("task not registered")
	ErrAlarmExists       = errors.New("alarm exists")
	ErrAlarmNotFound     = errors.New("alarm not found")
	ErrAlarmNameReserved = errors.New("alarm name reserved")
)

// New creates a reminder engine over the provided stores, event hub, and
// configuration. The engine is inert until Start is called
func New(
	task, registry *timebox.Store, hub timebox.EventHub, cfg *config.Config,
	opts ...Option,
) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		taskExec: timebox.NewExecutor(
			task, events.NewTaskState, events.TaskAppliers,
		),
		regExec: timebox.NewExecutor(
			registry, events.NewRegistryState, events.RegistryAppliers,
		),
		config:    cfg,
		consumer:  hub.NewConsumer(),
		index:     newTaskIndex(),
		clock:     time.Now,
		makeTimer: sched.NewTimer,
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.scheduler, e.alarms = sched.New(
		sched.WithClock(e.clock),
		sched.WithTimer(e.makeTimer),
		sched.WithChannelSize(cfg.ChannelSize),
	)
	e.eventQueue = event.NewQueue(e.raiseRegistryEvents, eventBatchSize)
	e.hooks = NewHookRunner(
		cfg.HookScript, time.Duration(cfg.HookTimeout)*time.Millisecond,
	)
	e.handler = e.createEventHandler()
	if e.blobStore != nil {
		e.archive = NewArchiveWorker(e, cfg)
	}
	return e
}

// WithClock overrides the clock used for due-time evaluation and delivery
// stamping
func WithClock(clock sched.Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithTimer overrides the timer constructor used by the scheduler loop
func WithTimer(makeTimer sched.TimerConstructor) Option {
	return func(e *Engine) {
		e.makeTimer = makeTimer
	}
}

// WithBlobStore attaches the bucket used for archiving completed tasks.
// Without one the archive worker is not started and task removal skips
// the snapshot write
func WithBlobStore(bs *hibernate.BlobStore) Option {
	return func(e *Engine) {
		e.blobStore = bs
	}
}

// Now returns the current wall time from the engine's configured clock
func (e *Engine) Now() time.Time {
	return e.clock()
}

func (e *Engine) createEventHandler() timebox.Handler {
	return events.MakeDispatcher(map[api.EventType]timebox.Handler{
		api.EventTypeTaskCreated:      timebox.MakeHandler(e.handleTaskCreated),
		api.EventTypeSubtaskAdded:     timebox.MakeHandler(e.handleSubtaskAdded),
		api.EventTypeDeadlineSet:      timebox.MakeHandler(e.handleDeadlineSet),
		api.EventTypeDeadlineCleared:  timebox.MakeHandler(e.handleDeadlineCleared),
		api.EventTypeStatusChanged:    timebox.MakeHandler(e.handleStatusChanged),
		api.EventTypeAlarmScheduled:   timebox.MakeHandler(e.handleAlarmScheduled),
		api.EventTypeAlarmCancelled:   timebox.MakeHandler(e.handleAlarmCancelled),
		api.EventTypeTaskUnregistered: timebox.MakeHandler(e.handleTaskUnregistered),
	})
}
