package pymodule

import (
	"fmt"

	"go.starlark.net/starlark"

	"github.com/embedpy/pye/pyvm"
)

// newStarlarkModule is the interop surface named in SPEC_FULL.md's DOMAIN
// STACK table: `starlark.eval(src)` runs a Starlark expression/file body
// through go.starlark.net and converts its bindings back into this engine's
// own value model, giving config-language embedding without reimplementing
// an expression evaluator. This is deliberately a separate language runtime
// reached through one module, not a second front end for this engine.
func newStarlarkModule() *pyvm.Module {
	m := pyvm.NewModule("starlark")
	m.Set("eval", &pyvm.NativeFunc{Name: "eval", Fn: starlarkEval})
	return m
}

func starlarkEval(args []any) (any, *pyvm.Exception) {
	if len(args) != 1 {
		return nil, pyvm.NewException(pyvm.TypeError, "eval() takes exactly one argument (%d given)", len(args))
	}
	src, ok := args[0].(string)
	if !ok {
		return nil, pyvm.NewException(pyvm.TypeError, "eval() argument must be a string")
	}
	thread := &starlark.Thread{Name: "pye.starlark"}
	globals, err := starlark.ExecFile(thread, "<starlark>", src, nil)
	if err != nil {
		return nil, pyvm.NewException(pyvm.ValueError, "starlark error: %s", err)
	}
	out := pyvm.NewDict()
	for name, v := range globals {
		conv, cerr := fromStarlark(v)
		if cerr != nil {
			return nil, pyvm.NewException(pyvm.ValueError, "%s", cerr)
		}
		out.Set(name, conv)
	}
	return out, nil
}

func fromStarlark(v starlark.Value) (any, error) {
	switch x := v.(type) {
	case starlark.NoneType:
		return pyvm.None{}, nil
	case starlark.Bool:
		return bool(x), nil
	case starlark.Int:
		i, ok := x.Int64()
		if !ok {
			return nil, fmt.Errorf("starlark integer out of range")
		}
		return i, nil
	case starlark.Float:
		return float64(x), nil
	case starlark.String:
		return string(x), nil
	case *starlark.List:
		elems := make([]any, 0, x.Len())
		for i := 0; i < x.Len(); i++ {
			conv, err := fromStarlark(x.Index(i))
			if err != nil {
				return nil, err
			}
			elems = append(elems, conv)
		}
		return pyvm.NewList(elems), nil
	case starlark.Tuple:
		elems := make([]any, 0, x.Len())
		for i := 0; i < x.Len(); i++ {
			conv, err := fromStarlark(x.Index(i))
			if err != nil {
				return nil, err
			}
			elems = append(elems, conv)
		}
		return pyvm.NewTuple(elems), nil
	case *starlark.Dict:
		out := pyvm.NewDict()
		for _, item := range x.Items() {
			k, err := fromStarlark(item[0])
			if err != nil {
				return nil, err
			}
			if !pyvm.ValidDictKey(k) {
				continue
			}
			val, err := fromStarlark(item[1])
			if err != nil {
				return nil, err
			}
			out.Set(k, val)
		}
		return out, nil
	default:
		return v.String(), nil
	}
}
