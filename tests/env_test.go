package tests

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/kode4food/timebox"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/nagme/internal/config"
	"github.com/kode4food/nagme/internal/engine"
	"github.com/kode4food/nagme/internal/hibernate"

	_ "gocloud.dev/blob/memblob"
)

type (
	// testEnv is a full daemon environment over an in-memory Redis, with an
	// optional in-memory archive bucket
	testEnv struct {
		Engine        *engine.Engine
		Redis         *miniredis.Miniredis
		Blob          *hibernate.BlobStore
		Config        *config.Config
		Hub           timebox.EventHub
		Cleanup       func()
		timebox       *timebox.Timebox
		taskStore     *timebox.Store
		registryStore *timebox.Store
	}

	envOption func(*envSettings)

	envSettings struct {
		configure  func(*config.Config)
		engineOpts []engine.Option
		withBlob   bool
	}
)

// withBlobStore attaches an in-memory archive bucket wired as both the
// store hibernator and the engine's archive target
func withBlobStore() envOption {
	return func(s *envSettings) {
		s.withBlob = true
	}
}

// withConfig customizes the environment config before the engine is built
func withConfig(fn func(*config.Config)) envOption {
	return func(s *envSettings) {
		s.configure = fn
	}
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	var settings envSettings
	for _, opt := range opts {
		opt(&settings)
	}

	server, err := miniredis.Run()
	require.NoError(t, err)

	tb, err := timebox.NewTimebox(timebox.Config{
		MaxRetries: timebox.DefaultMaxRetries,
		CacheSize:  100,
		Workers:    true,
	})
	require.NoError(t, err)

	cfg := config.NewDefaultConfig()
	cfg.LogLevel = "debug"
	cfg.ShutdownTimeout = 2 * time.Second
	cfg.TaskStore.Addr = server.Addr()
	cfg.TaskStore.Prefix = "test-task"
	cfg.RegistryStore.Addr = server.Addr()
	cfg.RegistryStore.Prefix = "test-registry"

	env := &testEnv{
		Redis:   server,
		Config:  cfg,
		timebox: tb,
	}

	engineOpts := settings.engineOpts
	if settings.withBlob {
		blob, err := hibernate.Open(context.Background(), "mem://")
		require.NoError(t, err)
		cfg.TaskStore.Hibernator = blob
		env.Blob = blob
		engineOpts = append(engineOpts, engine.WithBlobStore(blob))
	}
	if settings.configure != nil {
		settings.configure(cfg)
	}

	env.taskStore, err = tb.NewStore(cfg.TaskStore)
	require.NoError(t, err)

	env.registryStore, err = tb.NewStore(cfg.RegistryStore)
	require.NoError(t, err)

	env.Hub = tb.GetHub()
	env.Engine = engine.New(
		env.taskStore, env.registryStore, env.Hub, cfg, engineOpts...,
	)

	env.Cleanup = func() {
		_ = env.Engine.Stop()
		if env.Blob != nil {
			_ = env.Blob.Close()
		}
		_ = tb.Close()
		server.Close()
	}
	return env
}

// newEngineInstance builds a second engine over the same stores, simulating
// a daemon restart
func (e *testEnv) newEngineInstance(opts ...engine.Option) *engine.Engine {
	return engine.New(e.taskStore, e.registryStore, e.Hub, e.Config, opts...)
}
