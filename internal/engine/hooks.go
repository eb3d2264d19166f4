package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kode4food/nagme/pkg/log"
)

type (
	// HookRunner evaluates the configured hook script against each fired
	// alarm to decide whether it should be delivered
	HookRunner struct {
		env     HookEnv
		path    string
		timeout time.Duration
	}

	// HookEnv is a script environment able to compile delivery predicates
	// and evaluate them against a fired alarm
	HookEnv interface {
		Compile(script string, argNames []string) (Compiled, error)
		EvaluatePredicate(c Compiled, inputs Args) (bool, error)
	}

	// Compiled represents a compiled hook script for any supported
	// language. Concrete types: *CompiledAle (Ale), *CompiledLua (Lua)
	Compiled any

	// Args are the named values passed to a hook script
	Args map[string]any

	hookResult struct {
		err     error
		deliver bool
	}
)

// hookArgNames are the arguments every hook script receives: the alarm
// name, its due time in RFC 3339 form, and how many seconds overdue it is
var hookArgNames = []string{"name", "due", "overdue"}

const (
	hookExtLua = ".lua"
	hookExtAle = ".ale"

	hookCacheSize = 16
)

var (
	ErrUnsupportedHookType = errors.New("unsupported hook script type")
	ErrHookTimeout         = errors.New("hook script timed out")
)

// NewHookRunner creates a runner for the hook script at path, choosing the
// script environment by file extension. An empty path, or one with an
// unrecognized extension, yields a runner that lets every alarm through
func NewHookRunner(path string, timeout time.Duration) *HookRunner {
	res := &HookRunner{
		path:    path,
		timeout: timeout,
	}
	if path == "" {
		return res
	}
	env, err := hookEnvFor(path)
	if err != nil {
		slog.Warn("Hook script disabled",
			slog.String("path", path),
			log.Error(err),
		)
		return res
	}
	res.env = env
	return res
}

// Run asks the hook script whether an alarm should be delivered. The
// script file is re-read on every fire, so edits take effect without a
// restart; a read, compile, evaluation, or timeout failure is logged and
// the alarm is delivered anyway
func (r *HookRunner) Run(name string, due, now time.Time) bool {
	if r.env == nil {
		return true
	}
	src, err := os.ReadFile(r.path)
	if err != nil {
		slog.Error("Failed to read hook script",
			slog.String("path", r.path),
			log.Error(err),
		)
		return true
	}
	c, err := r.env.Compile(string(src), hookArgNames)
	if err != nil {
		slog.Error("Failed to compile hook script",
			slog.String("path", r.path),
			log.Error(err),
		)
		return true
	}
	deliver, err := r.evaluate(c, Args{
		"name":    name,
		"due":     due.Format(time.RFC3339),
		"overdue": now.Sub(due).Seconds(),
	})
	if err != nil {
		slog.Error("Hook script failed",
			log.AlarmName(name),
			log.Error(err),
		)
		return true
	}
	return deliver
}

// evaluate runs the predicate on its own goroutine so a runaway script
// cannot stall alarm delivery past the configured timeout
func (r *HookRunner) evaluate(c Compiled, inputs Args) (bool, error) {
	ch := make(chan hookResult, 1)
	go func() {
		deliver, err := r.env.EvaluatePredicate(c, inputs)
		ch <- hookResult{deliver: deliver, err: err}
	}()
	select {
	case res := <-ch:
		return res.deliver, res.err
	case <-time.After(r.timeout):
		return false, ErrHookTimeout
	}
}

func hookEnvFor(path string) (HookEnv, error) {
	switch filepath.Ext(path) {
	case hookExtLua:
		return NewLuaEnv(), nil
	case hookExtAle:
		return NewAleEnv(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedHookType, path)
	}
}

func scriptCacheKey(script string) string {
	hash := sha256.Sum256([]byte(script))
	return hex.EncodeToString(hash[:8])
}
