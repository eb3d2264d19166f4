package api_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/nagme/pkg/api"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		status      api.TaskStatus
		canPause    bool
		canResume   bool
		canComplete bool
		canRestart  bool
	}{
		{api.TaskInProgress, true, false, true, false},
		{api.TaskOnHold, false, true, true, false},
		{api.TaskCompleted, false, false, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.True(t, tt.status.IsValid())
			assert.Equal(t, tt.canPause, tt.status.CanPause())
			assert.Equal(t, tt.canResume, tt.status.CanResume())
			assert.Equal(t, tt.canComplete, tt.status.CanComplete())
			assert.Equal(t, tt.canRestart, tt.status.CanRestart())
		})
	}

	assert.False(t, api.TaskStatus("parked").IsValid())
}

func TestImportanceOrdering(t *testing.T) {
	assert.True(t, api.ImportanceCritical.AtLeast(api.ImportanceImportant))
	assert.True(t, api.ImportanceNormal.AtLeast(api.ImportanceNormal))
	assert.False(t, api.ImportanceCasual.AtLeast(api.ImportanceNormal))
	assert.Greater(t,
		api.ImportanceCritical.Rank(), api.ImportanceCasual.Rank(),
	)
	assert.False(t, api.TaskImportance("dire").IsValid())
}

func TestCompletionClamping(t *testing.T) {
	assert.Equal(t, api.Completion(0), api.NewCompletion(-5))
	assert.Equal(t, api.Completion(40), api.NewCompletion(40))
	assert.Equal(t, api.FullCompletion, api.NewCompletion(150))

	assert.Equal(t, api.Completion(70), api.Completion(30).Add(40))
	assert.Equal(t, api.FullCompletion, api.Completion(80).Add(80))

	assert.True(t, api.FullCompletion.IsComplete())
	assert.False(t, api.Completion(99).IsComplete())
	assert.Equal(t, "40%", api.Completion(40).String())
}

func TestCompletionFromNotes(t *testing.T) {
	task := &api.TaskState{
		ID:     api.NewTaskID(),
		Status: api.TaskInProgress,
		Notes: []*api.ProgressNote{
			{Text: "first pass", Completed: true, Percent: 40},
			{Text: "just a remark"},
		},
	}
	assert.Equal(t, api.Completion(40), task.CompletionPercent())

	task = task.AddNote(
		&api.ProgressNote{Text: "more done", Completed: true, Percent: 75},
	)
	assert.Equal(t, api.FullCompletion, task.NoteCompletion())
}

func TestCompletionAveragesSubtasks(t *testing.T) {
	task := &api.TaskState{
		ID:     api.NewTaskID(),
		Status: api.TaskInProgress,
		Notes: []*api.ProgressNote{
			{Text: "halfway", Completed: true, Percent: 50},
		},
		Subtasks: []*api.TaskState{
			{ID: api.NewTaskID(), Name: "done", Status: api.TaskCompleted},
			{ID: api.NewTaskID(), Name: "untouched", Status: api.TaskInProgress},
		},
	}

	// (50 + 100 + 0) / 3
	assert.Equal(t, api.Completion(50), task.CompletionPercent())
}

func TestCompletedTaskIsFull(t *testing.T) {
	task := &api.TaskState{
		ID:     api.NewTaskID(),
		Status: api.TaskCompleted,
		Subtasks: []*api.TaskState{
			{ID: api.NewTaskID(), Status: api.TaskInProgress},
		},
	}
	assert.Equal(t, api.FullCompletion, task.CompletionPercent())
}

func TestCompletionBreakdown(t *testing.T) {
	task := &api.TaskState{
		ID:     api.NewTaskID(),
		Status: api.TaskInProgress,
		Notes: []*api.ProgressNote{
			{Text: "started", Completed: true, Percent: 25},
		},
		Subtasks: []*api.TaskState{
			{ID: api.NewTaskID(), Name: "shopping", Status: api.TaskCompleted},
		},
	}

	breakdown := task.CompletionBreakdown()
	assert.Len(t, breakdown, 2)
	assert.Equal(t, "notes", breakdown[0].Name)
	assert.Equal(t, api.Completion(25), breakdown[0].Percent)
	assert.Equal(t, "shopping", breakdown[1].Name)
	assert.Equal(t, api.FullCompletion, breakdown[1].Percent)
}
