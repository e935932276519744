package pyvm

import (
	"fmt"
	"strconv"
	"strings"
)

// installDefaultGlobals injects the numerics/control-flow builtins named in
// §4.M ("the numerics and control-flow built-ins available by default at the
// top level") into a fresh VM's globals.
func installDefaultGlobals(vm *VM) {
	intFn := &NativeFunc{Name: "int", Fn: builtinInt}
	floatFn := &NativeFunc{Name: "float", Fn: builtinFloat}
	strFn := &NativeFunc{Name: "str", Fn: builtinStr}

	typeTags := map[*NativeFunc]*TypeValue{
		intFn:   TypeInt,
		floatFn: TypeFloat,
		strFn:   TypeString,
	}

	vm.Globals["len"] = &NativeFunc{Name: "len", Fn: func(args []any) (any, *Exception) {
		if len(args) != 1 {
			return nil, NewException(TypeError, "len() takes exactly one argument (%d given)", len(args))
		}
		return lengthOf(args[0])
	}}
	vm.Globals["range"] = &NativeFunc{Name: "range", Fn: builtinRange}
	vm.Globals["int"] = intFn
	vm.Globals["float"] = floatFn
	vm.Globals["str"] = strFn
	vm.Globals["print"] = &NativeFunc{Name: "print", Fn: func(args []any) (any, *Exception) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = Str(a)
		}
		fmt.Fprintln(vm.stdout(), strings.Join(parts, " "))
		return None{}, nil
	}}
	vm.Globals["isinstance"] = &NativeFunc{Name: "isinstance", Fn: func(args []any) (any, *Exception) {
		if len(args) != 2 {
			return nil, NewException(TypeError, "isinstance() takes exactly 2 arguments (%d given)", len(args))
		}
		nf, ok := args[1].(*NativeFunc)
		if !ok {
			return false, nil
		}
		tag, ok := typeTags[nf]
		if !ok {
			return false, nil
		}
		return TypeOf(args[0]) == tag, nil
	}}
	vm.Globals["next"] = &NativeFunc{Name: "next", Fn: func(args []any) (any, *Exception) {
		if len(args) != 1 {
			return nil, NewException(TypeError, "next() takes exactly one argument (%d given)", len(args))
		}
		it, ok := args[0].(Iterator)
		if !ok {
			return nil, NewException(TypeError, "'%s' object is not an iterator", TypeOf(args[0]).Name)
		}
		v, more, exc := it.Next()
		if exc != nil {
			return nil, exc
		}
		if !more {
			return nil, NewException(RuntimeError, "StopIteration")
		}
		return v, nil
	}}
}

func builtinInt(args []any) (any, *Exception) {
	if len(args) != 1 {
		return nil, NewException(TypeError, "int() takes exactly one argument (%d given)", len(args))
	}
	switch x := args[0].(type) {
	case int64:
		return x, nil
	case float64:
		return int64(x), nil
	case bool:
		if x {
			return int64(1), nil
		}
		return int64(0), nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return nil, NewException(ValueError, "invalid literal for int() with base 10: %s", strconv.Quote(x))
		}
		return i, nil
	default:
		return nil, NewException(TypeError, "int() argument must be a string, a number, or a bool, not %s", TypeOf(args[0]).Name)
	}
}

func builtinFloat(args []any) (any, *Exception) {
	if len(args) != 1 {
		return nil, NewException(TypeError, "float() takes exactly one argument (%d given)", len(args))
	}
	switch x := args[0].(type) {
	case int64:
		return float64(x), nil
	case float64:
		return x, nil
	case bool:
		if x {
			return float64(1), nil
		}
		return float64(0), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil, NewException(ValueError, "could not convert string to float: %s", strconv.Quote(x))
		}
		return f, nil
	default:
		return nil, NewException(TypeError, "float() argument must be a string, a number, or a bool, not %s", TypeOf(args[0]).Name)
	}
}

func builtinStr(args []any) (any, *Exception) {
	if len(args) != 1 {
		return nil, NewException(TypeError, "str() takes exactly one argument (%d given)", len(args))
	}
	return Str(args[0]), nil
}

func builtinRange(args []any) (any, *Exception) {
	var start, stop, step int64 = 0, 0, 1
	switch len(args) {
	case 1:
		n, ok := args[0].(int64)
		if !ok {
			return nil, NewException(TypeError, "range() argument must be an integer")
		}
		stop = n
	case 2:
		a, ok1 := args[0].(int64)
		b, ok2 := args[1].(int64)
		if !ok1 || !ok2 {
			return nil, NewException(TypeError, "range() arguments must be integers")
		}
		start, stop = a, b
	case 3:
		a, ok1 := args[0].(int64)
		b, ok2 := args[1].(int64)
		c, ok3 := args[2].(int64)
		if !ok1 || !ok2 || !ok3 {
			return nil, NewException(TypeError, "range() arguments must be integers")
		}
		start, stop, step = a, b, c
	default:
		return nil, NewException(TypeError, "range() takes 1 to 3 arguments (%d given)", len(args))
	}
	return NewRange(start, stop, step)
}
