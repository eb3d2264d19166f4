package helpers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/kode4food/timebox"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/nagme/internal/config"
	"github.com/kode4food/nagme/internal/engine"
	"github.com/kode4food/nagme/pkg/api"
	"github.com/kode4food/nagme/pkg/events"
)

// TestEngineEnv holds all the components needed for engine testing
type TestEngineEnv struct {
	Engine        *engine.Engine
	Redis         *miniredis.Miniredis
	Config        *config.Config
	EventHub      timebox.EventHub
	Cleanup       func()
	taskStore     *timebox.Store
	registryStore *timebox.Store
}

const (
	defaultStoreTimeout = 5 * time.Second
	testCacheSize       = 100
)

// NewTestConfig creates a default configuration with debug logging enabled
// and a short shutdown timeout
func NewTestConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.LogLevel = "debug"
	cfg.ShutdownTimeout = 2 * time.Second
	return cfg
}

// NewTestEngine creates a fully configured test engine environment with an
// in-memory Redis backend
func NewTestEngine(t *testing.T, opts ...engine.Option) *TestEngineEnv {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err)

	tb, err := timebox.NewTimebox(timebox.Config{
		MaxRetries: timebox.DefaultMaxRetries,
		CacheSize:  testCacheSize,
		Workers:    true,
	})
	require.NoError(t, err)

	cfg := NewTestConfig()
	cfg.TaskStore.Addr = server.Addr()
	cfg.TaskStore.Prefix = "test-task"
	cfg.RegistryStore.Addr = server.Addr()
	cfg.RegistryStore.Prefix = "test-registry"

	taskStore, err := tb.NewStore(cfg.TaskStore)
	require.NoError(t, err)

	registryStore, err := tb.NewStore(cfg.RegistryStore)
	require.NoError(t, err)

	hub := tb.GetHub()
	eng := engine.New(taskStore, registryStore, hub, cfg, opts...)

	cleanup := func() {
		_ = eng.Stop()
		_ = tb.Close()
		server.Close()
	}

	return &TestEngineEnv{
		Engine:        eng,
		Redis:         server,
		Config:        cfg,
		EventHub:      hub,
		Cleanup:       cleanup,
		taskStore:     taskStore,
		registryStore: registryStore,
	}
}

// NewEngineInstance creates a new engine instance sharing the same stores.
// Used to simulate process restart after crash
func (e *TestEngineEnv) NewEngineInstance(
	opts ...engine.Option,
) *engine.Engine {
	return engine.New(
		e.taskStore, e.registryStore, e.EventHub, e.Config, opts...,
	)
}

// AppendTaskEvents appends task events directly to the task store
func (e *TestEngineEnv) AppendTaskEvents(
	rootID api.TaskID, evs ...*timebox.Event,
) error {
	ctx, cancel := context.WithTimeout(
		context.Background(), defaultStoreTimeout,
	)
	defer cancel()

	aggregateID := events.TaskKey(rootID)
	seq, err := e.getTaskSequence(ctx, aggregateID)
	if err != nil {
		return err
	}

	for i, ev := range evs {
		ev.AggregateID = aggregateID
		ev.Sequence = seq + int64(i)
		if ev.Timestamp.IsZero() {
			ev.Timestamp = time.Now()
		}
	}

	err = e.taskStore.AppendEvents(ctx, aggregateID, seq, evs)
	if err == nil {
		return nil
	}

	conflict := new(timebox.VersionConflictError)
	if !errors.As(err, &conflict) {
		return err
	}

	seq = conflict.ActualSequence
	for i, ev := range evs {
		ev.Sequence = seq + int64(i)
	}

	return e.taskStore.AppendEvents(ctx, aggregateID, seq, evs)
}

func (e *TestEngineEnv) getTaskSequence(
	ctx context.Context, aggregateID timebox.AggregateID,
) (int64, error) {
	eventsInStore, err := e.taskStore.GetEvents(ctx, aggregateID, 0)
	if err != nil {
		return 0, err
	}
	return int64(len(eventsInStore)), nil
}

// WithConsumer runs fn with a freshly subscribed hub consumer, closing it
// afterward. Subscribe before triggering the action being observed
func (e *TestEngineEnv) WithConsumer(fn func(engine.EventConsumer)) {
	consumer := e.EventHub.NewConsumer()
	defer consumer.Close()
	fn(consumer)
}

// WithTestEnv creates a test engine environment, executes the provided
// function with it, and ensures cleanup happens automatically
func WithTestEnv(t *testing.T, fn func(*TestEngineEnv)) {
	t.Helper()
	testEnv := NewTestEngine(t)
	defer testEnv.Cleanup()
	fn(testEnv)
}

// WithEngine creates a test engine, executes the provided function with it,
// and ensures cleanup happens automatically
func WithEngine(t *testing.T, fn func(*engine.Engine)) {
	t.Helper()
	WithTestEnv(t, func(env *TestEngineEnv) {
		fn(env.Engine)
	})
}

// WithStartedEngine creates a test engine, starts it, executes the provided
// function with the engine, and ensures cleanup happens automatically
func WithStartedEngine(t *testing.T, fn func(*engine.Engine)) {
	t.Helper()
	WithTestEnv(t, func(env *TestEngineEnv) {
		require.NoError(t, env.Engine.Start())
		fn(env.Engine)
	})
}
