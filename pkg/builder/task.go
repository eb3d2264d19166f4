package builder

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/kode4food/nagme/internal/client"
	"github.com/kode4food/nagme/pkg/api"
)

type (
	// Task is a builder for describing a task tree before it exists. All
	// setters return a modified copy, so partial builders can be shared
	// and extended independently
	Task struct {
		name       string
		deadline   time.Time
		importance api.TaskImportance
		onHold     bool
		subtasks   []*Task
		notes      []*api.AddNoteRequest
	}
)

// ErrTreeMismatch is raised when a created tree doesn't line up with the
// builder that produced it, which would leave notes with no home
var ErrTreeMismatch = errors.New("created tree does not match builder")

// NewTask creates a builder for a task with the given name
func NewTask(name string) *Task {
	return &Task{name: name}
}

// WithImportance sets the task's importance level
func (t *Task) WithImportance(i api.TaskImportance) *Task {
	res := *t
	res.importance = i
	return &res
}

// WithDeadline sets an absolute deadline for the task
func (t *Task) WithDeadline(deadline time.Time) *Task {
	res := *t
	res.deadline = deadline
	return &res
}

// DueIn sets the task's deadline relative to the current time
func (t *Task) DueIn(d time.Duration) *Task {
	return t.WithDeadline(time.Now().Add(d))
}

// OnHold marks the task as paused from the moment it is created
func (t *Task) OnHold() *Task {
	res := *t
	res.onHold = true
	return &res
}

// WithNote records a progress note to be added once the task exists
func (t *Task) WithNote(text string) *Task {
	res := *t
	res.notes = append(slices.Clone(t.notes), &api.AddNoteRequest{
		Text: text,
	})
	return &res
}

// WithProgress records a note claiming some percentage of the task as
// completed once the task exists
func (t *Task) WithProgress(text string, percent int) *Task {
	res := *t
	res.notes = append(slices.Clone(t.notes), &api.AddNoteRequest{
		Text:    text,
		Percent: &percent,
	})
	return &res
}

// WithSubtask appends a subtask builder beneath this task
func (t *Task) WithSubtask(sub *Task) *Task {
	res := *t
	res.subtasks = append(slices.Clone(t.subtasks), sub)
	return &res
}

// Build produces the creation request for the described tree. Notes are not
// part of the request; Submit records them after creation
func (t *Task) Build() *api.CreateTaskRequest {
	res := &api.CreateTaskRequest{
		Name:       t.name,
		Deadline:   t.deadline,
		Importance: t.importance,
	}
	if t.onHold {
		res.Status = api.TaskOnHold
	}
	if len(t.subtasks) > 0 {
		res.Subtasks = make([]*api.CreateTaskRequest, len(t.subtasks))
		for i, sub := range t.subtasks {
			res.Subtasks[i] = sub.Build()
		}
	}
	return res
}

// Submit creates the described tree through the client and then records any
// notes against the created tasks, returning the root task's ID
func (t *Task) Submit(
	ctx context.Context, cl *client.Client,
) (api.TaskID, error) {
	id, err := cl.CreateTask(ctx, t.Build())
	if err != nil {
		return "", err
	}
	if !t.hasNotes() {
		return id, nil
	}
	st, err := cl.GetTask(ctx, id)
	if err != nil {
		return "", err
	}
	if err := t.submitNotes(ctx, cl, st); err != nil {
		return "", err
	}
	return id, nil
}

// submitNotes walks the builder and the created tree in parallel. Creation
// preserves subtask order, so the trees line up node for node
func (t *Task) submitNotes(
	ctx context.Context, cl *client.Client, st *api.TaskState,
) error {
	for _, note := range t.notes {
		if err := cl.AddNote(ctx, st.ID, note); err != nil {
			return err
		}
	}
	if len(t.subtasks) != len(st.Subtasks) {
		return ErrTreeMismatch
	}
	for i, sub := range t.subtasks {
		if err := sub.submitNotes(ctx, cl, st.Subtasks[i]); err != nil {
			return err
		}
	}
	return nil
}

func (t *Task) hasNotes() bool {
	if len(t.notes) > 0 {
		return true
	}
	for _, sub := range t.subtasks {
		if sub.hasNotes() {
			return true
		}
	}
	return false
}
