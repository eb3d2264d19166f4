package engine

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/Shopify/go-lua"

	"github.com/kode4food/nagme/internal/util"
)

type (
	// LuaEnv provides a Lua hook execution environment with state pooling
	LuaEnv struct {
		statePool chan *lua.State
		scripts   *util.LRUCache[*CompiledLua]
	}

	// CompiledLua represents a compiled Lua hook script
	CompiledLua struct {
		bytecode []byte
		argNames []string
	}
)

const (
	luaStatePoolSize    = 10
	luaGlobalTableIndex = -2
	luaArrayTableIndex  = -3
	luaMapTableIndex    = -3
	luaArgLocalTemplate = "local %s = select(%d, ...)"
	luaScriptSeparator  = "\n"
	luaGlobalTableName  = "_G"
)

var (
	ErrLuaBadCompiledType = errors.New("expected *CompiledLua")
	ErrLuaLoad            = errors.New("lua load error")
	ErrLuaExecution       = errors.New("lua execution error")
)

var luaExclude = [...]string{
	"io", "os", "debug", "package", "require", "dofile", "loadfile", "load",
}

// NewLuaEnv creates a Lua hook environment with a state pool for efficient
// script reuse
func NewLuaEnv() *LuaEnv {
	return &LuaEnv{
		statePool: make(chan *lua.State, luaStatePoolSize),
		scripts:   util.NewLRUCache[*CompiledLua](hookCacheSize),
	}
}

// Compile compiles a hook script with the given argument names, reusing
// the cached form when the source has not changed
func (e *LuaEnv) Compile(script string, argNames []string) (Compiled, error) {
	c, err := e.scripts.Get(scriptCacheKey(script),
		func() (*CompiledLua, error) {
			return e.compile(script, argNames)
		},
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// EvaluatePredicate executes a compiled hook with the provided inputs and
// returns its result as the delivery decision
func (e *LuaEnv) EvaluatePredicate(c Compiled, inputs Args) (bool, error) {
	script, ok := c.(*CompiledLua)
	if !ok {
		return false, fmt.Errorf("%w, got %T", ErrLuaBadCompiledType, c)
	}

	L := e.getState()
	defer e.returnState(L)

	e.setupSandbox(L)
	err := L.Load(bytes.NewReader(script.bytecode), "chunk", "b")
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrLuaLoad, err)
	}

	for _, name := range script.argNames {
		pushLuaArg(L, inputs, name)
	}

	if err := L.ProtectedCall(len(script.argNames), 1, 0); err != nil {
		return false, fmt.Errorf("%w: %w", ErrLuaExecution, err)
	}

	result := L.ToBoolean(-1)
	L.Pop(1)

	return result, nil
}

func (e *LuaEnv) compile(
	script string, argNames []string,
) (*CompiledLua, error) {
	argLocals := make([]string, len(argNames))
	for i, name := range argNames {
		argLocals[i] = fmt.Sprintf(luaArgLocalTemplate, name, i+1)
	}

	src := strings.Join([]string{
		strings.Join(argLocals, luaScriptSeparator), script,
	}, luaScriptSeparator)

	L := lua.NewState()

	e.setupSandbox(L)

	if err := lua.LoadString(L, src); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := L.Dump(&buf); err != nil {
		return nil, err
	}

	return &CompiledLua{
		bytecode: buf.Bytes(),
		argNames: argNames,
	}, nil
}

func (e *LuaEnv) setupSandbox(L *lua.State) {
	lua.OpenLibraries(L)
	L.Global(luaGlobalTableName)
	for _, name := range luaExclude {
		L.PushNil()
		L.SetField(luaGlobalTableIndex, name)
	}
	L.Pop(1)
}

func (e *LuaEnv) getState() *lua.State {
	select {
	case L := <-e.statePool:
		return L
	default:
		return lua.NewState()
	}
}

func (e *LuaEnv) returnState(L *lua.State) {
	L.SetTop(0)

	select {
	case e.statePool <- L:
	default:
	}
}

func pushLuaArg(L *lua.State, inputs Args, argName string) {
	if value, ok := inputs[argName]; ok {
		goToLua(L, value)
		return
	}
	L.PushNil()
}

func goToLua(L *lua.State, value any) {
	switch v := value.(type) {
	case string:
		L.PushString(v)
	case bool:
		L.PushBoolean(v)
	case int:
		L.PushInteger(v)
	case int64:
		L.PushInteger(int(v))
	case float64:
		L.PushNumber(v)
	case []any:
		pushLuaArray(L, v)
	case map[string]any:
		pushLuaMap(L, v)
	case nil:
		L.PushNil()
	default:
		L.PushString(fmt.Sprintf("%v", v))
	}
}

func pushLuaArray(L *lua.State, arr []any) {
	L.CreateTable(len(arr), 0)
	for i, item := range arr {
		L.PushInteger(i + 1)
		goToLua(L, item)
		L.SetTable(luaArrayTableIndex)
	}
}

func pushLuaMap(L *lua.State, m map[string]any) {
	L.CreateTable(0, len(m))
	for k, val := range m {
		L.PushString(k)
		goToLua(L, val)
		L.SetTable(luaMapTableIndex)
	}
}
