package engine

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kode4food/nagme/internal/config"
	"github.com/kode4food/nagme/pkg/api"
	"github.com/kode4food/nagme/pkg/events"
	"github.com/kode4food/nagme/pkg/log"
)

// ArchiveWorker moves long-completed tasks out of the event store and into
// the blob bucket, unregistering them once their snapshot is written. The
// age cutoff tightens when the task Redis runs low on memory
type ArchiveWorker struct {
	engine      *Engine
	redisClient *redis.Client
	config      *config.Config
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

const (
	// archiveMemoryPercent is the Redis used-memory percentage above which
	// the worker starts archiving ahead of the retention age
	archiveMemoryPercent = 80.0

	archivedSetSuffix = ":archived"
)

// NewArchiveWorker creates a worker that watches the task Redis for memory
// pressure and archives completed tasks accordingly
func NewArchiveWorker(e *Engine, cfg *config.Config) *ArchiveWorker {
	ctx, cancel := context.WithCancel(context.Background())

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.TaskStore.Addr,
		Password: cfg.TaskStore.Password,
		DB:       cfg.TaskStore.DB,
	})

	return &ArchiveWorker{
		engine:      e,
		redisClient: client,
		config:      cfg,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start begins the archive monitoring loop
func (w *ArchiveWorker) Start() {
	w.wg.Add(1)
	go w.run()
}

// Stop gracefully shuts down the archive worker
func (w *ArchiveWorker) Stop() {
	w.cancel()
	w.wg.Wait()
	_ = w.redisClient.Close()
}

// ArchiveTask snapshots a task's final state to the blob bucket, stamps
// the archive location onto its event history, and returns the location
func (w *ArchiveWorker) ArchiveTask(id api.TaskID) (string, error) {
	st, err := w.engine.GetTaskState(id)
	if err != nil {
		return "", err
	}
	loc, err := w.engine.blobStore.ArchiveTask(w.ctx, st)
	if err != nil {
		return "", err
	}
	cmd := func(_ *api.TaskState, ag *TaskAggregator) error {
		return events.Raise(ag, api.EventTypeTaskArchived,
			api.TaskArchivedEvent{
				TaskID:   id,
				Location: loc,
			},
		)
	}
	if _, err := w.engine.execTask(id, cmd); err != nil {
		return "", err
	}
	err = w.redisClient.SAdd(w.ctx, w.archivedSetKey(), string(id)).Err()
	if err != nil {
		slog.Warn("Failed to record archived task",
			log.TaskID(id),
			log.Error(err),
		)
	}
	return loc, nil
}

func (w *ArchiveWorker) run() {
	defer w.wg.Done()

	interval := time.Duration(w.config.ArchiveInterval) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.checkAndArchive()
		}
	}
}

func (w *ArchiveWorker) checkAndArchive() {
	pressureRatio := w.checkMemoryPressure()
	now := w.engine.Now()

	maxAge := w.adjustMaxAge(pressureRatio)
	for _, id := range w.selectTasks(now, maxAge) {
		w.retire(id)
	}
}

// retire archives one completed task and retires its registry entry
func (w *ArchiveWorker) retire(id api.TaskID) {
	loc, err := w.ArchiveTask(id)
	if err != nil {
		slog.Warn("Failed to archive task",
			log.TaskID(id),
			log.Error(err),
		)
		return
	}
	w.engine.EnqueueEvent(api.EventTypeTaskUnregistered,
		api.TaskUnregisteredEvent{TaskID: id},
	)
	slog.Info("Task archived",
		log.TaskID(id),
		slog.String("location", loc),
	)
}

func (w *ArchiveWorker) checkMemoryPressure() float64 {
	info, err := w.redisClient.Info(w.ctx, "memory").Result()
	if err != nil {
		slog.Warn("Failed to get Redis memory info", log.Error(err))
		return 0
	}

	usedMemory, maxMemory := parseMemoryInfo(info)
	if maxMemory == 0 {
		return 0
	}

	usedPercent := (float64(usedMemory) / float64(maxMemory)) * 100
	if usedPercent < archiveMemoryPercent {
		return 0
	}
	return usedPercent / 100
}

// adjustMaxAge scales the retention age down as memory pressure rises, to
// a floor of one minute
func (w *ArchiveWorker) adjustMaxAge(pressureRatio float64) time.Duration {
	maxAge := time.Duration(w.config.ArchiveRetention) * time.Millisecond
	if pressureRatio <= 0 {
		return maxAge
	}

	scaled := time.Duration(float64(maxAge) * math.Pow(1-pressureRatio, 2))
	if scaled < time.Minute {
		scaled = time.Minute
	}
	return scaled
}

// selectTasks picks the registered roots whose trees completed longer than
// maxAge ago
func (w *ArchiveWorker) selectTasks(
	now time.Time, maxAge time.Duration,
) []api.TaskID {
	reg, err := w.engine.GetRegistryState()
	if err != nil {
		slog.Warn("Failed to read registry for archiving", log.Error(err))
		return nil
	}

	var res []api.TaskID
	for id := range reg.Tasks {
		st, err := w.engine.GetTaskState(id)
		if err != nil {
			slog.Warn("Failed to load task for archiving",
				log.TaskID(id),
				log.Error(err),
			)
			continue
		}
		if st.Status != api.TaskCompleted {
			continue
		}
		if now.Sub(st.CompletedAt) > maxAge {
			res = append(res, id)
		}
	}
	return res
}

func (w *ArchiveWorker) archivedSetKey() string {
	return w.config.TaskStore.Prefix + archivedSetSuffix
}

func parseMemoryInfo(info string) (used, max int64) {
	lines := strings.SplitSeq(info, "\n")
	for line := range lines {
		line = strings.TrimSpace(line)
		if after, ok := strings.CutPrefix(line, "used_memory:"); ok {
			used, _ = strconv.ParseInt(after, 10, 64)
		} else if after, ok := strings.CutPrefix(line, "maxmemory:"); ok {
			max, _ = strconv.ParseInt(after, 10, 64)
		}
	}
	return
}
