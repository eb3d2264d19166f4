package assert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/nagme/internal/config"
	"github.com/kode4food/nagme/pkg/api"
)

type (
	Getter interface {
		GetTask(id api.TaskID) (*api.TaskState, error)
	}

	// Wrapper wraps testify assertions with task-specific helpers
	Wrapper struct {
		*testing.T
		*assert.Assertions
		Require *assert.Assertions
	}
)

// DefaultRetryInterval is the default polling interval for Eventually checks
const DefaultRetryInterval = 100 * time.Millisecond

// New creates a new test assertion wrapper with both assert and require from
// testify plus task-specific helpers
func New(t *testing.T) *Wrapper {
	return &Wrapper{
		T:          t,
		Assertions: assert.New(t),
		Require:    assert.New(t),
	}
}

// RequestValid asserts that a task creation request is valid
func (w *Wrapper) RequestValid(r *api.CreateTaskRequest) {
	w.Helper()
	w.NoError(r.Validate())
	if r.Status != "" {
		w.True(r.Status.IsValid())
	}
	if r.Importance != "" {
		w.True(r.Importance.IsValid())
	}
}

// RequestInvalid asserts that a task creation request is invalid and returns
// the validation error
func (w *Wrapper) RequestInvalid(
	r *api.CreateTaskRequest, expectedErrorContains string,
) error {
	w.Helper()
	err := r.Validate()
	w.Error(err)
	if err != nil && expectedErrorContains != "" {
		w.Contains(err.Error(), expectedErrorContains)
	}
	return err
}

// TaskStatus asserts the status of a task
func (w *Wrapper) TaskStatus(task *api.TaskState, expected api.TaskStatus) {
	w.Helper()
	w.Equal(expected, task.Status)
}

// TaskHasSubtasks asserts that a task tree contains specific subtask IDs
func (w *Wrapper) TaskHasSubtasks(
	get Getter, rootID api.TaskID, ids ...api.TaskID,
) {
	w.Helper()
	root, err := get.GetTask(rootID)
	w.NoError(err, "failed to get task: %s", rootID)
	if root == nil {
		return
	}
	for _, id := range ids {
		_, ok := root.FindTask(id)
		w.True(ok, "task tree should contain subtask: %s", id)
	}
}

// TaskDeadline asserts that a task carries the expected deadline
func (w *Wrapper) TaskDeadline(
	get Getter, id api.TaskID, expected time.Time,
) {
	w.Helper()
	task, err := get.GetTask(id)
	w.NoError(err, "failed to get task: %s", id)
	if task == nil {
		return
	}
	w.True(task.HasDeadline(), "task should have a deadline: %s", id)
	w.True(task.Deadline.Equal(expected),
		"deadline mismatch: want %s, got %s", expected, task.Deadline)
}

// ConfigValid asserts that a configuration is valid
func (w *Wrapper) ConfigValid(cfg *config.Config) {
	w.Helper()
	w.NoError(cfg.Validate())
	w.True(cfg.APIPort > 0 && cfg.APIPort <= 65535)
	w.True(cfg.ChannelSize > 0)
}

// ConfigInvalid asserts that a configuration is invalid
func (w *Wrapper) ConfigInvalid(cfg *config.Config, contains string) {
	w.Helper()
	err := cfg.Validate()
	w.Error(err)
	if contains != "" {
		w.Contains(err.Error(), contains)
	}
}

// Eventually runs a condition repeatedly until it passes or times out
func (w *Wrapper) Eventually(
	condition func() bool, timeout time.Duration, msg string, args ...any,
) {
	w.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(DefaultRetryInterval)
	}
	w.Fail(msg, args...)
}

// EventuallyWithError runs a condition that returns an error until it succeeds
// or times out
func (w *Wrapper) EventuallyWithError(
	condition func() error, timeout time.Duration, msg string, args ...any,
) {
	w.Helper()
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		err := condition()
		if err == nil {
			return
		}
		lastErr = err
		time.Sleep(DefaultRetryInterval)
	}
	if lastErr != nil {
		w.Fail(msg+": last error: "+lastErr.Error(), args...)
		return
	}
	w.Fail(msg, args...)
}
