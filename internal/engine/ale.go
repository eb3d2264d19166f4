package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kode4food/ale"
	"github.com/kode4food/ale/core/bootstrap"
	"github.com/kode4food/ale/data"
	"github.com/kode4food/ale/env"
	"github.com/kode4food/ale/eval"

	"github.com/kode4food/nagme/internal/util"
)

type (
	// AleEnv provides an Ale hook execution environment
	AleEnv struct {
		env     *env.Environment
		scripts *util.LRUCache[*CompiledAle]
	}

	// CompiledAle represents a compiled Ale hook script
	CompiledAle struct {
		proc     data.Procedure
		argNames []string
	}
)

const aleLambdaTemplate = "(lambda (%s) %s)"

var (
	ErrAleBadCompiledType = errors.New("expected *CompiledAle")
	ErrAleNotProcedure    = errors.New("not a procedure")
	ErrAleCompile         = errors.New("script compile error")
	ErrAleCall            = errors.New("error calling procedure")
)

// NewAleEnv creates an Ale hook environment with a bootstrapped namespace
func NewAleEnv() *AleEnv {
	e := env.NewEnvironment()
	bootstrap.Into(e)
	return &AleEnv{
		env:     e,
		scripts: util.NewLRUCache[*CompiledAle](hookCacheSize),
	}
}

// Compile compiles a hook script with the given argument names, reusing
// the cached form when the source has not changed
func (e *AleEnv) Compile(script string, argNames []string) (Compiled, error) {
	c, err := e.scripts.Get(scriptCacheKey(script),
		func() (*CompiledAle, error) {
			proc, err := e.compile(script, argNames)
			if err != nil {
				return nil, err
			}
			return &CompiledAle{
				proc:     proc,
				argNames: argNames,
			}, nil
		},
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// EvaluatePredicate calls a compiled hook with the provided inputs and
// returns its result as the delivery decision
func (e *AleEnv) EvaluatePredicate(c Compiled, inputs Args) (bool, error) {
	script, ok := c.(*CompiledAle)
	if !ok {
		return false, fmt.Errorf("%w, got %T", ErrAleBadCompiledType, c)
	}
	res, err := callProcedure(script, inputs)
	if err != nil {
		return false, err
	}
	return res != data.False, nil
}

func (e *AleEnv) compile(
	script string, argNames []string,
) (data.Procedure, error) {
	src := fmt.Sprintf(
		aleLambdaTemplate, strings.Join(argNames, " "), script,
	)

	return catchPanic(ErrAleCompile,
		func() (data.Procedure, error) {
			ns := e.env.GetAnonymous()
			res, err := eval.String(ns, data.String(src))
			if err != nil {
				return nil, err
			}

			proc, ok := res.(data.Procedure)
			if !ok {
				return nil, fmt.Errorf("%w, got: %T", ErrAleNotProcedure, res)
			}
			return proc, nil
		},
	)
}

func callProcedure(c *CompiledAle, inputs Args) (ale.Value, error) {
	args := make(data.Vector, 0, len(c.argNames))
	for _, name := range c.argNames {
		args = append(args, getArgValue(inputs, name))
	}

	return catchPanic(ErrAleCall,
		func() (ale.Value, error) {
			return c.proc.Call(args...), nil
		},
	)
}

func getArgValue(inputs Args, argName string) ale.Value {
	value, ok := inputs[argName]
	if !ok {
		return data.Null
	}
	return goToAle(value)
}

func goToAle(value any) ale.Value {
	switch v := value.(type) {
	case string:
		return data.String(v)
	case bool:
		return data.Bool(v)
	case int:
		return data.Integer(v)
	case int64:
		return data.Integer(v)
	case float64:
		return data.Float(v)
	case []any:
		return goArrayToAle(v)
	case map[string]any:
		return goMapToAle(v)
	case nil:
		return data.Null
	default:
		return data.String(fmt.Sprintf("%v", v))
	}
}

func goArrayToAle(arr []any) data.Vector {
	vec := make(data.Vector, len(arr))
	for i, item := range arr {
		vec[i] = goToAle(item)
	}
	return vec
}

func goMapToAle(m map[string]any) *data.Object {
	obj := data.NewObject()
	for k, val := range m {
		pair := data.NewCons(data.Keyword(k), goToAle(val))
		obj = obj.Put(pair).(*data.Object)
	}
	return obj
}

func catchPanic[T any](baseErr error, fn func() (T, error)) (res T, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		e, ok := r.(error)
		if ok {
			err = e
			return
		}
		err = fmt.Errorf("%w: %v", baseErr, r)
	}()
	return fn()
}
