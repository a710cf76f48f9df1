package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// ScriptTimeout bounds the evaluation of a Starlark config file.
var ScriptTimeout = 5 * time.Second

// scriptConfigGlobal is the global a config script must assign.
const scriptConfigGlobal = "config"

// evalScript executes a Starlark config script and returns the value of its
// "config" global as plain Go values.
//
// Scripts can read the environment through env(name, default=""), and
// struct(...) is available for building nested records.
func evalScript(filename string, src []byte) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(context.Background(), ScriptTimeout)
	defer cancel()

	thread := &starlark.Thread{
		Name:  "apollo-config",
		Print: func(_ *starlark.Thread, _ string) {},
	}
	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(fmt.Sprintf("evaluation exceeded %v", ScriptTimeout))
	})
	defer stop()

	predeclared := starlark.StringDict{
		"struct": starlark.NewBuiltin("struct", starlarkstruct.Make),
		"env":    starlark.NewBuiltin("env", builtinEnv),
	}

	globals, err := starlark.ExecFile(thread, filename, src, predeclared)
	if err != nil {
		if evalErr, ok := err.(*starlark.EvalError); ok {
			return nil, fmt.Errorf("%w: %s", ErrScript, evalErr.Backtrace())
		}
		return nil, fmt.Errorf("%w: %v", ErrScript, err)
	}

	value, ok := globals[scriptConfigGlobal]
	if !ok {
		return nil, fmt.Errorf("%w: %s does not define a %q global", ErrScript, filename, scriptConfigGlobal)
	}

	converted, err := fromStarlarkValue(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrScript, scriptConfigGlobal, err)
	}
	raw, ok := converted.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %q must be a dict, got %s", ErrScript, scriptConfigGlobal, value.Type())
	}
	return raw, nil
}

// builtinEnv implements env(name, default="").
func builtinEnv(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name, def string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "name", &name, "default?", &def); err != nil {
		return nil, err
	}
	if v, ok := os.LookupEnv(name); ok {
		return starlark.String(v), nil
	}
	return starlark.String(def), nil
}

// fromStarlarkValue converts a Starlark value to a Go value.
func fromStarlarkValue(v starlark.Value) (any, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(val), nil
	case starlark.Int:
		i, ok := val.Int64()
		if !ok {
			return nil, fmt.Errorf("integer too large")
		}
		return i, nil
	case starlark.Float:
		return float64(val), nil
	case starlark.String:
		return string(val), nil
	case *starlark.List:
		list := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			item, err := fromStarlarkValue(val.Index(i))
			if err != nil {
				return nil, err
			}
			list[i] = item
		}
		return list, nil
	case starlark.Tuple:
		list := make([]any, len(val))
		for i, elem := range val {
			item, err := fromStarlarkValue(elem)
			if err != nil {
				return nil, err
			}
			list[i] = item
		}
		return list, nil
	case *starlark.Dict:
		dict := make(map[string]any, val.Len())
		for _, item := range val.Items() {
			key, ok := item[0].(starlark.String)
			if !ok {
				return nil, fmt.Errorf("dict key must be a string, got %s", item[0].Type())
			}
			value, err := fromStarlarkValue(item[1])
			if err != nil {
				return nil, err
			}
			dict[string(key)] = value
		}
		return dict, nil
	case *starlarkstruct.Struct:
		dict := make(map[string]any)
		for _, name := range val.AttrNames() {
			attr, err := val.Attr(name)
			if err != nil {
				return nil, err
			}
			value, err := fromStarlarkValue(attr)
			if err != nil {
				return nil, err
			}
			dict[name] = value
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("unsupported starlark type: %s", v.Type())
	}
}
