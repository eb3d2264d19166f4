package engine

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/kode4food/nagme/internal/task"
	"github.com/kode4food/nagme/pkg/api"
	"github.com/kode4food/nagme/pkg/log"
)

// CreateTask establishes a new root task tree and registers it for
// enumeration. The returned ID addresses the root of the new tree
func (e *Engine) CreateTask(req *api.CreateTaskRequest) (api.TaskID, error) {
	req.Sanitize()
	if err := req.Validate(); err != nil {
		return "", err
	}
	id, cmd := task.Create(req)
	st, err := e.execTask(id, cmd)
	if err != nil {
		return "", err
	}
	e.EnqueueEvent(api.EventTypeTaskRegistered, api.TaskRegisteredEvent{
		TaskID: id,
		Name:   st.Name,
	})
	slog.Info("Task created", log.TaskID(id))
	return id, nil
}

// AddSubtask attaches a new subtask tree beneath any task node, returning
// the new subtask's ID
func (e *Engine) AddSubtask(
	parentID api.TaskID, req *api.CreateTaskRequest,
) (api.TaskID, error) {
	req.Sanitize()
	if err := req.Validate(); err != nil {
		return "", err
	}
	rootID, err := e.resolveRootID(parentID)
	if err != nil {
		return "", err
	}
	id, cmd := task.AddSubtask(parentID, req)
	if _, err := e.execTask(rootID, cmd); err != nil {
		return "", err
	}
	slog.Info("Subtask added", log.TaskID(id))
	return id, nil
}

// GetTask returns the state of a task node, including its subtask tree.
// Any node in a registered tree can be addressed, not just roots
func (e *Engine) GetTask(id api.TaskID) (*api.TaskState, error) {
	rootID, err := e.resolveRootID(id)
	if err != nil {
		return nil, err
	}
	st, err := e.GetTaskState(rootID)
	if err != nil {
		return nil, err
	}
	node, ok := st.FindTask(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", task.ErrTaskNotFound, id)
	}
	return node, nil
}

// ListTasks returns a digest of every registered root task, most important
// first and nearest deadline first within equal importance. Tasks whose
// state cannot be loaded are skipped
func (e *Engine) ListTasks() ([]*api.TaskDigest, error) {
	reg, err := e.GetRegistryState()
	if err != nil {
		return nil, err
	}
	res := make([]*api.TaskDigest, 0, len(reg.Tasks))
	for id := range reg.Tasks {
		st, err := e.GetTaskState(id)
		if err != nil {
			slog.Error("Failed to load registered task",
				log.TaskID(id),
				log.Error(err),
			)
			continue
		}
		res = append(res, st.Digest())
	}
	slices.SortFunc(res, compareDigests)
	return res, nil
}

// TaskCompletion reports how far along a task is, with the contribution of
// its notes and each subtask broken out
func (e *Engine) TaskCompletion(
	id api.TaskID,
) (*api.CompletionResponse, error) {
	node, err := e.GetTask(id)
	if err != nil {
		return nil, err
	}
	return &api.CompletionResponse{
		Breakdown: node.CompletionBreakdown(),
		TaskID:    id,
		Percent:   node.CompletionPercent(),
	}, nil
}

// AddNote records a progress note against a task
func (e *Engine) AddNote(id api.TaskID, req *api.AddNoteRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return e.execTaskNode(id, task.AddNote(id, req))
}

// PauseTask puts an in-progress task on hold, along with any in-progress
// subtasks beneath it
func (e *Engine) PauseTask(id api.TaskID) error {
	return e.execTaskNode(id, task.Pause(id))
}

// ResumeTask returns an on-hold task to progress, along with any on-hold
// subtasks beneath it
func (e *Engine) ResumeTask(id api.TaskID) error {
	return e.execTaskNode(id, task.Resume(id))
}

// CompleteTask marks a task and all of its unfinished subtasks completed
func (e *Engine) CompleteTask(id api.TaskID) error {
	return e.execTaskNode(id, task.Complete(id))
}

// RestartTask reopens a completed task tree for more work
func (e *Engine) RestartTask(id api.TaskID) error {
	return e.execTaskNode(id, task.Restart(id))
}

// ResetTask returns a task tree to a clean in-progress state, discarding
// its progress notes
func (e *Engine) ResetTask(id api.TaskID) error {
	return e.execTaskNode(id, task.Reset(id))
}

// SetDeadline sets or moves a task's deadline
func (e *Engine) SetDeadline(
	id api.TaskID, req *api.SetDeadlineRequest,
) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return e.execTaskNode(id, task.SetDeadline(id, req.Deadline))
}

// ClearDeadline removes a task's deadline and withdraws its alarm
func (e *Engine) ClearDeadline(id api.TaskID) error {
	return e.execTaskNode(id, task.ClearDeadline(id))
}

// ExtendDeadline pushes a task's existing deadline back by the requested
// duration
func (e *Engine) ExtendDeadline(
	id api.TaskID, req *api.ExtendDeadlineRequest,
) error {
	if err := req.Validate(); err != nil {
		return err
	}
	dur := time.Duration(req.Duration) * time.Millisecond
	return e.execTaskNode(id, task.ExtendDeadline(id, dur))
}

// ChangeImportance updates a task's importance level
func (e *Engine) ChangeImportance(
	id api.TaskID, req *api.ChangeImportanceRequest,
) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return e.execTaskNode(id, task.ChangeImportance(id, req.Importance))
}

// resolveRootID maps any task node ID to the root aggregate that owns it.
// IDs not in the node index are tried directly as roots, so fresh tasks
// resolve before their creation event has been consumed
func (e *Engine) resolveRootID(id api.TaskID) (api.TaskID, error) {
	if rootID, ok := e.index.resolveRoot(id); ok {
		return rootID, nil
	}
	if _, err := e.GetTaskState(id); err == nil {
		return id, nil
	}
	return "", fmt.Errorf("%w: %s", ErrTaskNotRegistered, id)
}

func (e *Engine) execTaskNode(id api.TaskID, cmd task.Command) error {
	rootID, err := e.resolveRootID(id)
	if err != nil {
		return err
	}
	_, err = e.execTask(rootID, cmd)
	return err
}

func compareDigests(l, r *api.TaskDigest) int {
	if c := r.Importance.Rank() - l.Importance.Rank(); c != 0 {
		return c
	}
	if c := compareDeadlines(l.Deadline, r.Deadline); c != 0 {
		return c
	}
	if c := l.CreatedAt.Compare(r.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(l.ID, r.ID)
}

// compareDeadlines orders earlier deadlines first, with deadline-free
// tasks sorting last
func compareDeadlines(l, r time.Time) int {
	switch {
	case l.IsZero() && r.IsZero():
		return 0
	case l.IsZero():
		return 1
	case r.IsZero():
		return -1
	default:
		return l.Compare(r)
	}
}
