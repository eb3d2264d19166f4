package helpers_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/nagme/internal/assert/helpers"
	"github.com/kode4food/nagme/internal/engine"
	"github.com/kode4food/nagme/pkg/api"
)

func TestTestClock(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	clk := helpers.NewTestClock(start)
	assert.True(t, clk.Now().Equal(start))

	later := clk.Advance(time.Hour)
	assert.True(t, later.Equal(start.Add(time.Hour)))
	assert.True(t, clk.Now().Equal(later))

	clk.Set(start)
	assert.True(t, clk.Now().Equal(start))
}

func TestTaskRequestHelpers(t *testing.T) {
	first := helpers.NewTaskRequest()
	second := helpers.NewTaskRequest()
	assert.NotEqual(t, first.Name, second.Name)
	assert.NoError(t, first.Validate())

	due := time.Now().Add(time.Hour)
	withDue := helpers.NewTaskRequestWithDeadline(due)
	assert.True(t, withDue.Deadline.Equal(due))

	critical := helpers.NewTaskRequestWithImportance(api.ImportanceCritical)
	assert.Equal(t, api.ImportanceCritical, critical.Importance)

	tree := helpers.NewTaskTree("root", "left", "right")
	require.Len(t, tree.Subtasks, 2)
	assert.Equal(t, "left", tree.Subtasks[0].Name)
	assert.NoError(t, tree.Validate())

	note := helpers.NewCompletionNoteRequest("halfway", 50)
	require.NotNil(t, note.Percent)
	assert.Equal(t, 50, *note.Percent)
	assert.NoError(t, note.Validate())
}

func TestNewTestEngine(t *testing.T) {
	env := helpers.NewTestEngine(t)
	defer env.Cleanup()

	assert.NotNil(t, env.Engine)
	assert.NotNil(t, env.Redis)
	assert.NotNil(t, env.Config)
	assert.NotNil(t, env.EventHub)

	id, err := env.Engine.CreateTask(helpers.NewNamedTaskRequest("wired"))
	require.NoError(t, err)

	st, err := env.Engine.GetTask(id)
	require.NoError(t, err)
	assert.Equal(t, "wired", st.Name)
	assert.Equal(t, api.TaskInProgress, st.Status)
}

func TestWithStartedEngine(t *testing.T) {
	helpers.WithStartedEngine(t, func(eng *engine.Engine) {
		assert.Equal(t, 0, eng.PendingAlarms())
		assert.Equal(t, api.HealthHealthy, eng.Health().Status)
	})
}

func TestAlarmRecorder(t *testing.T) {
	helpers.WithTestEnv(t, func(env *helpers.TestEngineEnv) {
		require.NoError(t, env.Engine.Start())

		recorder := helpers.NewAlarmRecorder(env.EventHub)
		defer recorder.Close()

		err := env.Engine.AddAlarm(helpers.NewAlarmRequest(
			"imminent", time.Now().Add(50*time.Millisecond),
		))
		require.NoError(t, err)

		assert.True(t, recorder.WaitForAlarm("imminent", 5*time.Second))
		assert.True(t, recorder.WasFired("imminent"))
		assert.False(t, recorder.WasFired("never"))

		fired := recorder.Fired()
		require.NotEmpty(t, fired)
		assert.Equal(t, "imminent", fired[0].Name)
	})
}
