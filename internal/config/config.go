package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/kode4food/timebox"

	"github.com/kode4food/nagme/pkg/api"
	"github.com/kode4food/nagme/pkg/sched"
)

type (
	// Config holds configuration settings for the reminder daemon
	Config struct {
		// API Server
		APIHost  string
		APIPort  int
		LogLevel string

		// Stores & Archiving
		TaskStore        timebox.StoreConfig
		RegistryStore    timebox.StoreConfig
		ArchiveBucketURL string
		ArchiveRetention int64
		ArchiveInterval  int64

		// Alarm Delivery
		HookScript  string
		HookTimeout int64
		ChannelSize int

		// Engine
		TaskCacheSize   int
		ShutdownTimeout time.Duration
	}
)

const (
	DefaultHookTimeout      = 5 * api.Second
	DefaultArchiveRetention = 30 * api.Day
	DefaultArchiveInterval  = api.Hour
	DefaultShutdownTimeout  = 10 * time.Second

	DefaultAPIPort = 8080
	DefaultAPIHost = "0.0.0.0"
	MaxTCPPort     = 65535
	DefaultRedisDB = 0

	DefaultRedisEndpoint       = "localhost:6379"
	DefaultRedisPrefix         = "nagme"
	DefaultSnapshotWorkers     = 4
	DefaultSnapshotQueueSize   = 1000
	DefaultSnapshotSaveTimeout = 30 * time.Second
	DefaultCacheSize           = 4096
	DefaultChannelSize         = sched.DefaultChannelSize

	MaxTaskCacheSize    = 1_000_000
	MaxChannelSize      = 65536
	MaxHookTimeout      = 60 * api.Minute    // 1 hour in ms
	MaxArchiveRetention = 10 * 365 * api.Day // 10 years in ms
	MaxArchiveInterval  = 30 * api.Day       // 30 days in ms
	MaxShutdownTimeout  = 5 * api.Minute
)

var (
	ErrInvalidAPIPort     = errors.New("invalid API port")
	ErrInvalidHookTimeout = errors.New("hook timeout must be positive")
	ErrInvalidChannelSize = errors.New(
		"delivery channel size must be positive",
	)
	ErrInvalidCacheSize = errors.New("task cache size must be positive")
	ErrInvalidRetention = errors.New(
		"archive retention cannot be negative",
	)
	ErrInvalidInterval = errors.New("archive interval must be positive")
)

// NewDefaultConfig creates a configuration with sensible defaults for all
// daemon settings, stores, and alarm delivery behavior
func NewDefaultConfig() *Config {
	return &Config{
		APIPort: DefaultAPIPort,
		APIHost: DefaultAPIHost,
		TaskStore: timebox.StoreConfig{
			Addr:         DefaultRedisEndpoint,
			Password:     "",
			DB:           DefaultRedisDB,
			Prefix:       DefaultRedisPrefix,
			WorkerCount:  DefaultSnapshotWorkers,
			MaxQueueSize: DefaultSnapshotQueueSize,
			SaveTimeout:  DefaultSnapshotSaveTimeout,
		},
		RegistryStore: timebox.StoreConfig{
			Addr:         DefaultRedisEndpoint,
			Password:     "",
			DB:           DefaultRedisDB,
			Prefix:       DefaultRedisPrefix,
			WorkerCount:  DefaultSnapshotWorkers,
			MaxQueueSize: DefaultSnapshotQueueSize,
			SaveTimeout:  DefaultSnapshotSaveTimeout,
			TrimEvents:   true,
		},
		ArchiveRetention: DefaultArchiveRetention,
		ArchiveInterval:  DefaultArchiveInterval,
		HookTimeout:      DefaultHookTimeout,
		ChannelSize:      DefaultChannelSize,
		TaskCacheSize:    DefaultCacheSize,
		ShutdownTimeout:  DefaultShutdownTimeout,
		LogLevel:         "info",
	}
}

// LoadFromEnv populates configuration values from NAGME_* environment
// variables. Returns an error if any env var cannot be parsed.
func (c *Config) LoadFromEnv() error {
	LoadStoreConfigFromEnv(&c.TaskStore, "NAGME")
	LoadStoreConfigFromEnv(&c.RegistryStore, "NAGME")

	if apiHost := os.Getenv("NAGME_API_HOST"); apiHost != "" {
		c.APIHost = apiHost
	}
	if logLevel := os.Getenv("NAGME_LOG_LEVEL"); logLevel != "" {
		c.LogLevel = logLevel
	}
	if bucketURL := os.Getenv("NAGME_ARCHIVE_BUCKET_URL"); bucketURL != "" {
		c.ArchiveBucketURL = bucketURL
	}
	if hookScript := os.Getenv("NAGME_HOOK_SCRIPT"); hookScript != "" {
		c.HookScript = hookScript
	}

	if err := loadEnvInt(
		"NAGME_API_PORT", &c.APIPort, 0, MaxTCPPort,
	); err != nil {
		return err
	}

	if err := loadEnvInt(
		"NAGME_CHANNEL_SIZE", &c.ChannelSize, 0, MaxChannelSize,
	); err != nil {
		return err
	}
	if err := loadEnvInt(
		"NAGME_TASK_CACHE_SIZE", &c.TaskCacheSize, 0, MaxTaskCacheSize,
	); err != nil {
		return err
	}
	if err := loadEnvInt(
		"NAGME_HOOK_TIMEOUT", &c.HookTimeout, 0, MaxHookTimeout,
	); err != nil {
		return err
	}

	if err := loadEnvInt(
		"NAGME_ARCHIVE_RETENTION", &c.ArchiveRetention, -1,
		MaxArchiveRetention,
	); err != nil {
		return err
	}
	if err := loadEnvInt(
		"NAGME_ARCHIVE_INTERVAL", &c.ArchiveInterval, 0, MaxArchiveInterval,
	); err != nil {
		return err
	}

	var shutdownMs int64
	if err := loadEnvInt(
		"NAGME_SHUTDOWN_TIMEOUT", &shutdownMs, 0, MaxShutdownTimeout,
	); err != nil {
		return err
	}
	if shutdownMs > 0 {
		c.ShutdownTimeout = time.Duration(shutdownMs) * time.Millisecond
	}

	return nil
}

// WithEngineDefaults returns a copy of the config with zero-valued engine
// fields filled in from defaults
func (c *Config) WithEngineDefaults() *Config {
	res := *c
	if res.ChannelSize <= 0 {
		res.ChannelSize = DefaultChannelSize
	}
	if res.TaskCacheSize <= 0 {
		res.TaskCacheSize = DefaultCacheSize
	}
	if res.HookTimeout <= 0 {
		res.HookTimeout = DefaultHookTimeout
	}
	if res.ArchiveInterval <= 0 {
		res.ArchiveInterval = DefaultArchiveInterval
	}
	return &res
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.APIPort <= 0 || c.APIPort > MaxTCPPort {
		return fmt.Errorf("%w: %d", ErrInvalidAPIPort, c.APIPort)
	}

	if c.HookTimeout <= 0 {
		return ErrInvalidHookTimeout
	}

	if c.ChannelSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidChannelSize, c.ChannelSize)
	}

	if c.TaskCacheSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCacheSize, c.TaskCacheSize)
	}

	if c.ArchiveRetention < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRetention, c.ArchiveRetention)
	}

	if c.ArchiveInterval <= 0 {
		return ErrInvalidInterval
	}

	return nil
}

// LoadStoreConfigFromEnv loads Redis store configuration from environment
// variables with the given prefix (e.g., "NAGME")
func LoadStoreConfigFromEnv(s *timebox.StoreConfig, prefix string) {
	if addr := os.Getenv(prefix + "_REDIS_ADDR"); addr != "" {
		s.Addr = addr
	}
	if password := os.Getenv(prefix + "_REDIS_PASSWORD"); password != "" {
		s.Password = password
	}
	if dbStr := os.Getenv(prefix + "_REDIS_DB"); dbStr != "" {
		db, err := strconv.Atoi(dbStr)
		if err == nil {
			s.DB = db
		}
	}
	if envPrefix := os.Getenv(prefix + "_REDIS_PREFIX"); envPrefix != "" {
		s.Prefix = envPrefix
	}
	if envCount := os.Getenv(prefix + "_SNAPSHOT_WORKERS"); envCount != "" {
		if wc, err := strconv.Atoi(envCount); err == nil && wc >= 0 {
			s.WorkerCount = wc
		}
	}
}

// loadEnvInt reads key from the environment, parses it as an integer, and
// sets *dst if the value is in the range (min, max). Returns an error if
// the value cannot be parsed or falls outside the valid range.
func loadEnvInt[T ~int | ~int64](key string, dst *T, min, max T) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	tv := T(v)
	if tv <= min || tv > max {
		return fmt.Errorf("invalid %s: %d out of range [%d, %d]",
			key, tv, min+1, max)
	}
	*dst = tv
	return nil
}
