package tests

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/nagme/internal/assert/helpers"
	"github.com/kode4food/nagme/internal/config"
	"github.com/kode4food/nagme/pkg/events"
)

func writeHookScript(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func withHookScript(t *testing.T, name, src string) envOption {
	path := writeHookScript(t, name, src)
	return withConfig(func(cfg *config.Config) {
		cfg.HookScript = path
	})
}

func TestLuaHookFiltersDeliveries(t *testing.T) {
	env := newTestEnv(t, withHookScript(t, "hook.lua",
		`return name == "bell"`,
	))
	defer env.Cleanup()
	require.NoError(t, env.Engine.Start())

	recorder := helpers.NewAlarmRecorder(env.Hub)
	defer recorder.Close()

	id, err := env.Engine.CreateTask(helpers.NewTaskRequestWithDeadline(
		time.Now().Add(shortDeadline),
	))
	require.NoError(t, err)
	require.NoError(t, env.Engine.AddAlarm(helpers.NewAlarmRequest(
		"bell", time.Now().Add(shortDeadline),
	)))

	assert.True(t, recorder.WaitForAlarm("bell", alarmWaitTimeout))

	// both alarms have come due once the queue drains
	assert.Eventually(t, func() bool {
		return env.Engine.PendingAlarms() == 0
	}, alarmWaitTimeout, 50*time.Millisecond)

	// the hook vetoed the deadline nag, so it was never recorded
	st, err := env.Engine.GetTask(id)
	require.NoError(t, err)
	assert.True(t, st.LastNagged.IsZero())
	assert.False(t, recorder.WasFired(events.AlarmName(id, id)))
}

func TestAleHookFiltersDeliveries(t *testing.T) {
	env := newTestEnv(t, withHookScript(t, "hook.ale",
		`(eq name "chime")`,
	))
	defer env.Cleanup()
	require.NoError(t, env.Engine.Start())

	recorder := helpers.NewAlarmRecorder(env.Hub)
	defer recorder.Close()

	id, err := env.Engine.CreateTask(helpers.NewTaskRequestWithDeadline(
		time.Now().Add(shortDeadline),
	))
	require.NoError(t, err)
	require.NoError(t, env.Engine.AddAlarm(helpers.NewAlarmRequest(
		"chime", time.Now().Add(shortDeadline),
	)))

	assert.True(t, recorder.WaitForAlarm("chime", alarmWaitTimeout))

	assert.Eventually(t, func() bool {
		return env.Engine.PendingAlarms() == 0
	}, alarmWaitTimeout, 50*time.Millisecond)

	st, err := env.Engine.GetTask(id)
	require.NoError(t, err)
	assert.True(t, st.LastNagged.IsZero())
}

func TestBrokenHookStillDelivers(t *testing.T) {
	env := newTestEnv(t, withHookScript(t, "hook.lua",
		`error("boom")`,
	))
	defer env.Cleanup()
	require.NoError(t, env.Engine.Start())

	recorder := helpers.NewAlarmRecorder(env.Hub)
	defer recorder.Close()

	id, err := env.Engine.CreateTask(helpers.NewTaskRequestWithDeadline(
		time.Now().Add(shortDeadline),
	))
	require.NoError(t, err)

	// a failing script never suppresses delivery
	assert.True(t, recorder.WaitForAlarm(
		events.AlarmName(id, id), alarmWaitTimeout,
	))

	st, err := env.Engine.GetTask(id)
	require.NoError(t, err)
	assert.False(t, st.LastNagged.IsZero())
}

func TestVetoedStandaloneAlarmStillRetires(t *testing.T) {
	env := newTestEnv(t, withHookScript(t, "hook.lua",
		`return false`,
	))
	defer env.Cleanup()
	require.NoError(t, env.Engine.Start())

	recorder := helpers.NewAlarmRecorder(env.Hub)
	defer recorder.Close()

	require.NoError(t, env.Engine.AddAlarm(helpers.NewAlarmRequest(
		"quiet", time.Now().Add(shortDeadline),
	)))

	// the registry entry is retired even though the hook dropped it, so a
	// vetoed alarm cannot linger as pending
	assert.True(t, recorder.WaitForAlarm("quiet", alarmWaitTimeout))
	assert.Eventually(t, func() bool {
		reg, err := env.Engine.GetRegistryState()
		if err != nil {
			return false
		}
		_, ok := reg.Alarms["quiet"]
		return !ok && env.Engine.PendingAlarms() == 0
	}, alarmWaitTimeout, 50*time.Millisecond)
}
