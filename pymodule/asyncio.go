package pymodule

import "github.com/embedpy/pye/pyvm"

// newAsyncioModule supplements original_source/src/builtins/asyncio.rs:
// `asyncio.sleep(seconds)` returns the AsyncSleep marker value pyvm's Await
// instruction recognizes, rather than blocking inside the builtin itself —
// matching the reference implementation's split between "construct the
// marker" (here) and "honor it" (pyvm.doAwait).
func newAsyncioModule() *pyvm.Module {
	m := pyvm.NewModule("asyncio")
	m.Set("sleep", &pyvm.NativeFunc{Name: "sleep", Fn: asyncioSleep})
	return m
}

func asyncioSleep(args []any) (any, *pyvm.Exception) {
	if len(args) != 1 {
		return nil, pyvm.NewException(pyvm.TypeError, "sleep() requires exactly 1 argument (%d given)", len(args))
	}
	switch v := args[0].(type) {
	case int64:
		if v < 0 {
			return nil, pyvm.NewException(pyvm.ValueError, "sleep() argument must be non-negative")
		}
		return &pyvm.AsyncSleep{Seconds: float64(v)}, nil
	case float64:
		if v < 0 {
			return nil, pyvm.NewException(pyvm.ValueError, "sleep() argument must be non-negative")
		}
		return &pyvm.AsyncSleep{Seconds: v}, nil
	default:
		return nil, pyvm.NewException(pyvm.TypeError, "sleep() argument must be a number")
	}
}
