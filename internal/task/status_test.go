package task

import (
	"testing"

	"github.com/kode4food/timebox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/nagme/pkg/api"
)

func node(
	name string, status api.TaskStatus, subs ...*api.TaskState,
) *api.TaskState {
	return &api.TaskState{
		ID:       api.NewTaskID(),
		Name:     name,
		Status:   status,
		Subtasks: subs,
	}
}

func runCommand(
	t *testing.T, st *api.TaskState, cmd Command,
) *timebox.Aggregator[*api.TaskState] {
	t.Helper()
	ag := &timebox.Aggregator[*api.TaskState]{}
	require.NoError(t, cmd(st, ag))
	return ag
}

func TestPauseRecursion(t *testing.T) {
	held := node("held", api.TaskOnHold,
		node("still going", api.TaskInProgress),
	)
	root := node("root", api.TaskInProgress,
		node("active", api.TaskInProgress),
		held,
		node("done", api.TaskCompleted),
	)

	evs := pauseWalk(root, nil)
	require.Len(t, evs, 2)

	first := evs[0].data.(api.StatusChangedEvent)
	assert.Equal(t, root.ID, first.TaskID)
	assert.Equal(t, api.TaskOnHold, first.Status)
	assert.Equal(t, api.TaskInProgress, first.Previous)

	second := evs[1].data.(api.StatusChangedEvent)
	assert.Equal(t, root.Subtasks[0].ID, second.TaskID)

	ag := runCommand(t, root, Pause(root.ID))
	assert.Len(t, ag.Enqueued(), 2)
}

func TestPauseErrors(t *testing.T) {
	root := node("root", api.TaskOnHold)

	err := Pause(root.ID)(root, &timebox.Aggregator[*api.TaskState]{})
	assert.ErrorIs(t, err, ErrBadTransition)

	err = Pause("missing")(root, &timebox.Aggregator[*api.TaskState]{})
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestResumeRecursion(t *testing.T) {
	running := node("running", api.TaskInProgress,
		node("individually held", api.TaskOnHold),
	)
	root := node("root", api.TaskOnHold,
		node("held", api.TaskOnHold),
		running,
		node("done", api.TaskCompleted),
	)

	evs := resumeWalk(root, nil)
	require.Len(t, evs, 2)
	assert.Equal(t, root.ID, evs[0].data.(api.StatusChangedEvent).TaskID)
	assert.Equal(t,
		root.Subtasks[0].ID, evs[1].data.(api.StatusChangedEvent).TaskID,
	)

	ag := runCommand(t, root, Resume(root.ID))
	assert.Len(t, ag.Enqueued(), 2)
}

func TestResumeNoop(t *testing.T) {
	root := node("root", api.TaskInProgress,
		node("held", api.TaskOnHold),
	)

	ag := runCommand(t, root, Resume(root.ID))
	assert.Empty(t, ag.Enqueued())
}

func TestResumeCompleted(t *testing.T) {
	root := node("root", api.TaskCompleted)

	err := Resume(root.ID)(root, &timebox.Aggregator[*api.TaskState]{})
	assert.ErrorIs(t, err, ErrTaskCompleted)
}

func TestCompleteRecursion(t *testing.T) {
	root := node("root", api.TaskInProgress,
		node("held", api.TaskOnHold,
			node("active", api.TaskInProgress),
		),
		node("done", api.TaskCompleted),
	)

	evs := completeWalk(root, nil)
	require.Len(t, evs, 3)
	for _, ev := range evs {
		assert.Equal(t, api.TaskCompleted,
			ev.data.(api.StatusChangedEvent).Status,
		)
	}

	ag := runCommand(t, root, Complete(root.ID))
	assert.Len(t, ag.Enqueued(), 3)
}

func TestCompleteCompleted(t *testing.T) {
	root := node("root", api.TaskCompleted)

	err := Complete(root.ID)(root, &timebox.Aggregator[*api.TaskState]{})
	assert.ErrorIs(t, err, ErrTaskCompleted)
}

func TestRestartRecursion(t *testing.T) {
	root := node("root", api.TaskCompleted,
		node("sub", api.TaskCompleted),
	)
	root.Notes = []*api.ProgressNote{
		{Text: "halfway", Completed: true, Percent: 50},
	}

	evs := restartWalk(root, nil)
	require.Len(t, evs, 3)
	assert.Equal(t, api.EventTypeStatusChanged, evs[0].typ)
	assert.Equal(t, api.EventTypeNotesReopened, evs[1].typ)
	assert.Equal(t, api.EventTypeStatusChanged, evs[2].typ)

	reopened := evs[1].data.(api.NotesReopenedEvent)
	assert.Equal(t, root.ID, reopened.TaskID)

	ag := runCommand(t, root, Restart(root.ID))
	assert.Len(t, ag.Enqueued(), 3)
}

func TestRestartKeepsPlainNotes(t *testing.T) {
	root := node("root", api.TaskCompleted)
	root.Notes = []*api.ProgressNote{{Text: "just commentary"}}

	evs := restartWalk(root, nil)
	require.Len(t, evs, 1)
	assert.Equal(t, api.EventTypeStatusChanged, evs[0].typ)
}

func TestRestartNotCompleted(t *testing.T) {
	root := node("root", api.TaskInProgress)

	err := Restart(root.ID)(root, &timebox.Aggregator[*api.TaskState]{})
	assert.ErrorIs(t, err, ErrBadTransition)
}

func TestResetRecursion(t *testing.T) {
	noted := node("noted", api.TaskInProgress)
	noted.Notes = []*api.ProgressNote{{Text: "progress", Completed: true}}
	root := node("root", api.TaskOnHold,
		noted,
		node("done", api.TaskCompleted),
	)
	root.Notes = []*api.ProgressNote{{Text: "stale"}}

	evs := resetWalk(root, nil)
	require.Len(t, evs, 4)
	assert.Equal(t, api.EventTypeStatusChanged, evs[0].typ)
	assert.Equal(t, api.EventTypeNotesCleared, evs[1].typ)
	assert.Equal(t, api.EventTypeNotesCleared, evs[2].typ)
	assert.Equal(t, api.EventTypeStatusChanged, evs[3].typ)

	ag := runCommand(t, root, Reset(root.ID))
	assert.Len(t, ag.Enqueued(), 4)
}

func TestResetMissing(t *testing.T) {
	root := node("root", api.TaskInProgress)

	err := Reset("missing")(root, &timebox.Aggregator[*api.TaskState]{})
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestResetSubtree(t *testing.T) {
	sub := node("sub", api.TaskCompleted)
	root := node("root", api.TaskInProgress, sub)

	ag := runCommand(t, root, Reset(sub.ID))
	assert.Len(t, ag.Enqueued(), 1)
}
