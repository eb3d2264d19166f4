package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/kode4food/timebox"

	app "github.com/kode4food/nagme"
	"github.com/kode4food/nagme/internal/config"
	"github.com/kode4food/nagme/internal/engine"
	"github.com/kode4food/nagme/internal/hibernate"
	"github.com/kode4food/nagme/internal/server"
	"github.com/kode4food/nagme/pkg/log"
	"github.com/kode4food/nagme/pkg/util/call"
)

type nagme struct {
	cfg           *config.Config
	timebox       *timebox.Timebox
	taskStore     *timebox.Store
	registryStore *timebox.Store
	blobStore     *hibernate.BlobStore
	engine        *engine.Engine
	apiServer     *server.Server
	httpServer    *http.Server
	quit          chan os.Signal
}

var (
	ErrCreateTimebox       = errors.New("failed to create timebox")
	ErrCreateTaskStore     = errors.New("failed to create task store")
	ErrCreateRegistryStore = errors.New("failed to create registry store")
	ErrOpenArchiveBucket   = errors.New("failed to open archive bucket")
)

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func main() {
	cfg := config.NewDefaultConfig()
	if err := call.Perform(cfg.LoadFromEnv, cfg.Validate); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}

	s := &nagme{
		cfg:  cfg,
		quit: make(chan os.Signal, 1),
	}
	s.setupLogging()

	if err := s.run(); err != nil {
		slog.Error("Failed to start daemon", log.Error(err))
		os.Exit(1)
	}
}

func (s *nagme) run() error {
	err := call.Perform(s.initializeStores, s.initializeEngine)
	if err != nil {
		return err
	}
	s.startServer()

	signal.Notify(s.quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(s.quit)
	<-s.quit

	s.shutdown()
	return nil
}

func (s *nagme) setupLogging() {
	level, ok := logLevels[s.cfg.LogLevel]
	if !ok {
		level = slog.LevelInfo
	}

	env := os.Getenv("ENV")
	logger := log.NewWithLevel(app.Name, env, app.Version, level)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level)

	slog.Info("NagMe daemon starting",
		slog.String("log_level", s.cfg.LogLevel))

	slog.Info("Configuration loaded",
		slog.String("task_redis_addr", s.cfg.TaskStore.Addr),
		slog.Int("task_redis_db", s.cfg.TaskStore.DB),
		slog.String("registry_redis_addr", s.cfg.RegistryStore.Addr),
		slog.Int("registry_redis_db", s.cfg.RegistryStore.DB),
		slog.String("archive_bucket", s.cfg.ArchiveBucketURL),
		slog.String("hook_script", s.cfg.HookScript),
		slog.String("api_host", s.cfg.APIHost),
		slog.Int("api_port", s.cfg.APIPort))
}

func (s *nagme) initializeStores() error {
	var err error

	s.timebox, err = timebox.NewTimebox(timebox.Config{
		MaxRetries: timebox.DefaultMaxRetries,
		CacheSize:  s.cfg.TaskCacheSize,
		Workers:    true,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreateTimebox, err)
	}

	if s.cfg.ArchiveBucketURL != "" {
		s.blobStore, err = hibernate.Open(
			context.Background(), s.cfg.ArchiveBucketURL,
		)
		if err != nil {
			_ = s.timebox.Close()
			return fmt.Errorf("%w: %w", ErrOpenArchiveBucket, err)
		}
		s.cfg.TaskStore.Hibernator = s.blobStore
	}

	s.taskStore, err = s.timebox.NewStore(s.cfg.TaskStore)
	if err != nil {
		_ = s.timebox.Close()
		return fmt.Errorf("%w: %w", ErrCreateTaskStore, err)
	}

	s.registryStore, err = s.timebox.NewStore(s.cfg.RegistryStore)
	if err != nil {
		_ = s.timebox.Close()
		return fmt.Errorf("%w: %w", ErrCreateRegistryStore, err)
	}

	return nil
}

func (s *nagme) initializeEngine() error {
	var opts []engine.Option
	if s.blobStore != nil {
		opts = append(opts, engine.WithBlobStore(s.blobStore))
	}

	s.engine = engine.New(
		s.taskStore, s.registryStore, s.timebox.GetHub(), s.cfg, opts...,
	)
	return s.engine.Start()
}

func (s *nagme) startServer() {
	s.apiServer = server.NewServer(
		s.engine, s.timebox.GetHub(), app.Name, app.Version,
	)
	router := s.apiServer.SetupRoutes()

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.cfg.APIHost, s.cfg.APIPort),
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server starting",
			slog.String("addr", s.httpServer.Addr))
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", log.Error(err))
		}
	}()
}

func (s *nagme) shutdown() {
	slog.Info("Shutting down")

	ctx, cancel := context.WithTimeout(
		context.Background(), s.cfg.ShutdownTimeout,
	)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("Shutdown failed", log.Error(err))
	}

	s.apiServer.CloseWebSockets()

	if err := s.engine.Stop(); err != nil {
		slog.Error("Engine shutdown failed", log.Error(err))
	}

	if s.blobStore != nil {
		if err := s.blobStore.Close(); err != nil {
			slog.Error("Archive bucket close failed", log.Error(err))
		}
	}

	_ = s.timebox.Close()

	slog.Info("Daemon exited")
}
