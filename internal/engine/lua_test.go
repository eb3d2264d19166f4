package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/nagme/internal/engine"
)

var hookArgs = []string{"name", "due", "overdue"}

func TestLuaCompile(t *testing.T) {
	env := engine.NewLuaEnv()
	c, err := env.Compile(`return name == "bell"`, hookArgs)
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestLuaCompileError(t *testing.T) {
	env := engine.NewLuaEnv()
	_, err := env.Compile(`return (`, hookArgs)
	assert.Error(t, err)
}

func TestLuaEvaluatePredicate(t *testing.T) {
	env := engine.NewLuaEnv()
	c, err := env.Compile(`return overdue > 30`, hookArgs)
	require.NoError(t, err)

	deliver, err := env.EvaluatePredicate(c, engine.Args{
		"name":    "late",
		"due":     "2026-01-01T00:00:00Z",
		"overdue": 45.0,
	})
	require.NoError(t, err)
	assert.True(t, deliver)

	deliver, err = env.EvaluatePredicate(c, engine.Args{
		"name":    "fresh",
		"due":     "2026-01-01T00:00:00Z",
		"overdue": 5.0,
	})
	require.NoError(t, err)
	assert.False(t, deliver)
}

func TestLuaMissingArgIsNil(t *testing.T) {
	env := engine.NewLuaEnv()
	c, err := env.Compile(`return due == nil`, hookArgs)
	require.NoError(t, err)

	deliver, err := env.EvaluatePredicate(c, engine.Args{"name": "x"})
	require.NoError(t, err)
	assert.True(t, deliver)
}

func TestLuaRuntimeError(t *testing.T) {
	env := engine.NewLuaEnv()
	c, err := env.Compile(`error("boom")`, hookArgs)
	require.NoError(t, err)

	_, err = env.EvaluatePredicate(c, engine.Args{})
	assert.ErrorIs(t, err, engine.ErrLuaExecution)
}

func TestLuaBadCompiledType(t *testing.T) {
	env := engine.NewLuaEnv()
	_, err := env.EvaluatePredicate("not compiled", engine.Args{})
	assert.ErrorIs(t, err, engine.ErrLuaBadCompiledType)
}

func TestLuaSandboxExcludesOS(t *testing.T) {
	env := engine.NewLuaEnv()
	c, err := env.Compile(`return os == nil`, hookArgs)
	require.NoError(t, err)

	deliver, err := env.EvaluatePredicate(c, engine.Args{})
	require.NoError(t, err)
	assert.True(t, deliver)
}
