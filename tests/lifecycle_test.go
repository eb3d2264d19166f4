package tests

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/nagme/internal/assert/helpers"
	"github.com/kode4food/nagme/internal/assert/wait"
	"github.com/kode4food/nagme/pkg/api"
)

func TestTaskTreeLifecycle(t *testing.T) {
	env := newTestEnv(t)
	defer env.Cleanup()
	require.NoError(t, env.Engine.Start())

	rootID, err := env.Engine.CreateTask(
		helpers.NewTaskTree("spring cleaning", "garage", "attic"),
	)
	require.NoError(t, err)

	root, err := env.Engine.GetTask(rootID)
	require.NoError(t, err)
	require.Len(t, root.Subtasks, 2)
	garage := root.Subtasks[0]

	// completing a subtask leaves its siblings alone
	consumer := env.Hub.NewConsumer()
	require.NoError(t, env.Engine.CompleteTask(garage.ID))
	wait.On(t, consumer).ForEvent(wait.Completed(garage.ID))
	consumer.Close()

	root, err = env.Engine.GetTask(rootID)
	require.NoError(t, err)
	assert.Equal(t, api.TaskCompleted, root.Subtasks[0].Status)
	assert.Equal(t, api.TaskInProgress, root.Subtasks[1].Status)
	assert.Equal(t, api.TaskInProgress, root.Status)

	// completing the root finishes everything beneath it
	require.NoError(t, env.Engine.CompleteTask(rootID))
	root, err = env.Engine.GetTask(rootID)
	require.NoError(t, err)
	assert.Equal(t, api.TaskCompleted, root.Status)
	assert.Equal(t, api.TaskCompleted, root.Subtasks[1].Status)
	assert.False(t, root.CompletedAt.IsZero())
	assert.Equal(t, api.FullCompletion, root.CompletionPercent())

	// restarting reopens the whole tree
	require.NoError(t, env.Engine.RestartTask(rootID))
	root, err = env.Engine.GetTask(rootID)
	require.NoError(t, err)
	assert.Equal(t, api.TaskInProgress, root.Status)
	assert.Equal(t, api.TaskInProgress, root.Subtasks[0].Status)
}

func TestPauseCascadesToInProgressSubtasks(t *testing.T) {
	env := newTestEnv(t)
	defer env.Cleanup()
	require.NoError(t, env.Engine.Start())

	rootID, err := env.Engine.CreateTask(&api.CreateTaskRequest{
		Name: "renovation",
		Subtasks: []*api.CreateTaskRequest{
			{Name: "kitchen"},
			{Name: "bathroom", Status: api.TaskOnHold},
		},
	})
	require.NoError(t, err)

	require.NoError(t, env.Engine.PauseTask(rootID))
	root, err := env.Engine.GetTask(rootID)
	require.NoError(t, err)
	assert.Equal(t, api.TaskOnHold, root.Status)
	assert.Equal(t, api.TaskOnHold, root.Subtasks[0].Status)
	assert.Equal(t, api.TaskOnHold, root.Subtasks[1].Status)

	// pausing again is a conflict
	err = env.Engine.PauseTask(rootID)
	assert.Error(t, err)

	require.NoError(t, env.Engine.ResumeTask(rootID))
	root, err = env.Engine.GetTask(rootID)
	require.NoError(t, err)
	assert.Equal(t, api.TaskInProgress, root.Status)
	assert.Equal(t, api.TaskInProgress, root.Subtasks[0].Status)
}

func TestNotesDriveCompletion(t *testing.T) {
	env := newTestEnv(t)
	defer env.Cleanup()
	require.NoError(t, env.Engine.Start())

	id, err := env.Engine.CreateTask(helpers.NewNamedTaskRequest("thesis"))
	require.NoError(t, err)

	require.NoError(t, env.Engine.AddNote(
		id, helpers.NewCompletionNoteRequest("outline done", 25),
	))
	require.NoError(t, env.Engine.AddNote(
		id, helpers.NewCompletionNoteRequest("first draft", 50),
	))
	require.NoError(t, env.Engine.AddNote(
		id, helpers.NewNoteRequest("advisor meeting went fine"),
	))

	res, err := env.Engine.TaskCompletion(id)
	require.NoError(t, err)
	assert.Equal(t, api.Completion(75), res.Percent)

	// reset discards the notes and their completion claims
	require.NoError(t, env.Engine.ResetTask(id))
	st, err := env.Engine.GetTask(id)
	require.NoError(t, err)
	assert.Empty(t, st.Notes)
	assert.Equal(t, api.Completion(0), st.CompletionPercent())
}

func TestListTasksOrdering(t *testing.T) {
	env := newTestEnv(t)
	defer env.Cleanup()
	require.NoError(t, env.Engine.Start())

	soon := time.Now().Add(time.Hour)
	later := time.Now().Add(48 * time.Hour)

	chores, err := env.Engine.CreateTask(&api.CreateTaskRequest{
		Name:       "chores",
		Importance: api.ImportanceCasual,
		Deadline:   soon,
	})
	require.NoError(t, err)

	taxes, err := env.Engine.CreateTask(&api.CreateTaskRequest{
		Name:       "taxes",
		Importance: api.ImportanceCritical,
		Deadline:   later,
	})
	require.NoError(t, err)

	errands, err := env.Engine.CreateTask(&api.CreateTaskRequest{
		Name:       "errands",
		Importance: api.ImportanceCritical,
		Deadline:   soon,
	})
	require.NoError(t, err)

	// registration lands off the event queue
	var digests []*api.TaskDigest
	assert.Eventually(t, func() bool {
		var err error
		digests, err = env.Engine.ListTasks()
		return err == nil && len(digests) == 3
	}, 5*time.Second, 50*time.Millisecond)

	// critical before casual; nearer deadline first within a level
	assert.Equal(t, errands, digests[0].ID)
	assert.Equal(t, taxes, digests[1].ID)
	assert.Equal(t, chores, digests[2].ID)
}

func TestSubtaskAddressing(t *testing.T) {
	env := newTestEnv(t)
	defer env.Cleanup()
	require.NoError(t, env.Engine.Start())

	rootID, err := env.Engine.CreateTask(
		helpers.NewNamedTaskRequest("project"),
	)
	require.NoError(t, err)

	subID, err := env.Engine.AddSubtask(
		rootID, helpers.NewNamedTaskRequest("research"),
	)
	require.NoError(t, err)

	// node resolution catches up as the hub event is consumed
	assert.Eventually(t, func() bool {
		_, err := env.Engine.GetTask(subID)
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)

	require.NoError(t, env.Engine.AddNote(
		subID, helpers.NewNoteRequest("found three papers"),
	))

	node, err := env.Engine.GetTask(subID)
	require.NoError(t, err)
	assert.Equal(t, "research", node.Name)
	require.Len(t, node.Notes, 1)
	assert.Equal(t, "found three papers", node.Notes[0].Text)
}
