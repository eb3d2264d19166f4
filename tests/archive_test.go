package tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/nagme/internal/assert/helpers"
	"github.com/kode4food/nagme/internal/config"
	"github.com/kode4food/nagme/internal/engine"
	"github.com/kode4food/nagme/internal/hibernate"
	"github.com/kode4food/nagme/pkg/api"
)

func TestRemoveTaskArchivesSnapshot(t *testing.T) {
	env := newTestEnv(t, withBlobStore())
	defer env.Cleanup()
	require.NoError(t, env.Engine.Start())

	id, err := env.Engine.CreateTask(
		helpers.NewNamedTaskRequest("old project"),
	)
	require.NoError(t, err)
	require.NoError(t, env.Engine.CompleteTask(id))

	// removal requires the registration to have landed
	assert.Eventually(t, func() bool {
		reg, err := env.Engine.GetRegistryState()
		if err != nil {
			return false
		}
		_, ok := reg.Tasks[id]
		return ok
	}, 5*time.Second, 50*time.Millisecond)

	require.NoError(t, env.Engine.RemoveTask(id))

	st, err := env.Blob.ReadArchivedTask(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, st.ID)
	assert.Equal(t, api.TaskCompleted, st.Status)

	assert.Eventually(t, func() bool {
		reg, err := env.Engine.GetRegistryState()
		if err != nil {
			return false
		}
		_, ok := reg.Tasks[id]
		return !ok
	}, 5*time.Second, 50*time.Millisecond)
}

func TestRemoveTaskRequiresRegistration(t *testing.T) {
	env := newTestEnv(t)
	defer env.Cleanup()
	require.NoError(t, env.Engine.Start())

	err := env.Engine.RemoveTask(api.NewTaskID())
	assert.ErrorIs(t, err, engine.ErrTaskNotRegistered)
}

func TestArchiveWorkerRetiresOldCompleted(t *testing.T) {
	env := newTestEnv(t, withBlobStore(), withConfig(
		func(cfg *config.Config) {
			cfg.ArchiveRetention = 1
			cfg.ArchiveInterval = 50
		},
	))
	defer env.Cleanup()
	require.NoError(t, env.Engine.Start())

	id, err := env.Engine.CreateTask(
		helpers.NewNamedTaskRequest("done yesterday"),
	)
	require.NoError(t, err)
	require.NoError(t, env.Engine.CompleteTask(id))

	// the worker snapshots the tree once the retention age passes
	assert.Eventually(t, func() bool {
		_, err := env.Blob.ReadArchivedTask(context.Background(), id)
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)

	st, err := env.Blob.ReadArchivedTask(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, api.TaskCompleted, st.Status)
	assert.False(t, st.CompletedAt.IsZero())

	assert.Eventually(t, func() bool {
		reg, err := env.Engine.GetRegistryState()
		if err != nil {
			return false
		}
		_, ok := reg.Tasks[id]
		return !ok
	}, 5*time.Second, 50*time.Millisecond)
}

func TestArchiveWorkerLeavesOpenTasks(t *testing.T) {
	env := newTestEnv(t, withBlobStore(), withConfig(
		func(cfg *config.Config) {
			cfg.ArchiveRetention = 1
			cfg.ArchiveInterval = 50
		},
	))
	defer env.Cleanup()
	require.NoError(t, env.Engine.Start())

	id, err := env.Engine.CreateTask(
		helpers.NewNamedTaskRequest("still going"),
	)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		reg, err := env.Engine.GetRegistryState()
		if err != nil {
			return false
		}
		_, ok := reg.Tasks[id]
		return ok
	}, 5*time.Second, 50*time.Millisecond)

	// give the worker a few passes over the open task
	time.Sleep(300 * time.Millisecond)

	_, err = env.Blob.ReadArchivedTask(context.Background(), id)
	assert.ErrorIs(t, err, hibernate.ErrTaskNotArchived)

	reg, err := env.Engine.GetRegistryState()
	require.NoError(t, err)
	assert.Contains(t, reg.Tasks, id)
}
