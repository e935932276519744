package pyvm

import "strings"

// callMethod is the container method registry (§4.VM "Method registry"):
// handlers are listed exhaustively by (receiver kind, name); anything else
// faults as an attribute error. List mutators bump the list's version.
func (vm *VM) callMethod(receiver any, name string, args []any) (any, *Exception) {
	switch r := receiver.(type) {
	case *List:
		return listMethod(r, name, args)
	case *Dict:
		return dictMethod(r, name, args)
	case string:
		return stringMethod(r, name, args)
	case *Module:
		v, ok := r.Get(name)
		if !ok {
			return nil, NewException(AttributeError, "module '%s' has no attribute '%s'", r.Name, name)
		}
		callee := v
		return vm.callValue(callee, args)
	default:
		return nil, NewException(AttributeError, "'%s' object has no attribute '%s'", TypeOf(receiver).Name, name)
	}
}

// callValue invokes a plain callable value with args and runs it to
// completion in its own isolated execState when it is a compiled Function —
// used for module-attribute calls reached via CallMethod (e.g. an
// extension-registered native function stored as a module attribute).
func (vm *VM) callValue(callee any, args []any) (any, *Exception) {
	switch c := callee.(type) {
	case *NativeFunc:
		return c.Fn(args)
	case *Function:
		if len(args) != len(c.ParamNames) {
			return nil, NewException(TypeError, "%s() takes %d arguments but %d were given", c.Name, len(c.ParamNames), len(args))
		}
		st := &execState{frames: []*Frame{NewFrame(c, args, 0)}}
		res, _, exc := vm.run(st)
		return res, exc
	default:
		return nil, NewException(TypeError, "'%s' object is not callable", TypeOf(callee).Name)
	}
}

func listMethod(l *List, name string, args []any) (any, *Exception) {
	switch name {
	case "append":
		if len(args) != 1 {
			return nil, NewException(TypeError, "append() takes exactly one argument (%d given)", len(args))
		}
		l.Append(args[0])
		return None{}, nil
	case "pop":
		if len(args) != 0 {
			return nil, NewException(TypeError, "pop() takes no arguments (%d given)", len(args))
		}
		return l.Pop()
	default:
		return nil, NewException(AttributeError, "'list' object has no attribute '%s'", name)
	}
}

func dictMethod(d *Dict, name string, args []any) (any, *Exception) {
	switch name {
	case "keys":
		if len(args) != 0 {
			return nil, NewException(TypeError, "keys() takes no arguments (%d given)", len(args))
		}
		return NewList(d.Keys()), nil
	case "get":
		if len(args) < 1 || len(args) > 2 {
			return nil, NewException(TypeError, "get() takes 1 or 2 arguments (%d given)", len(args))
		}
		if !ValidDictKey(args[0]) {
			return nil, NewException(TypeError, "unhashable type used as dict key: %s", TypeOf(args[0]).Name)
		}
		if v, ok := d.Get(args[0]); ok {
			return v, nil
		}
		if len(args) == 2 {
			return args[1], nil
		}
		return None{}, nil
	default:
		return nil, NewException(AttributeError, "'dict' object has no attribute '%s'", name)
	}
}

func stringMethod(s string, name string, args []any) (any, *Exception) {
	switch name {
	case "split":
		sep := " "
		useFields := true
		if len(args) == 1 {
			sepArg, ok := args[0].(string)
			if !ok {
				return nil, NewException(TypeError, "split() argument must be a string")
			}
			sep = sepArg
			useFields = false
		} else if len(args) > 1 {
			return nil, NewException(TypeError, "split() takes at most 1 argument (%d given)", len(args))
		}
		var parts []string
		if useFields {
			parts = strings.Fields(s)
		} else {
			parts = strings.Split(s, sep)
		}
		out := make([]any, len(parts))
		for i, p := range parts {
			out[i] = p
		}
		return NewList(out), nil
	case "strip":
		if len(args) != 0 {
			return nil, NewException(TypeError, "strip() takes no arguments (%d given)", len(args))
		}
		return strings.TrimSpace(s), nil
	case "startswith":
		p, e := singleStringArg("startswith", args)
		if e != nil {
			return nil, e
		}
		return strings.HasPrefix(s, p), nil
	case "endswith":
		p, e := singleStringArg("endswith", args)
		if e != nil {
			return nil, e
		}
		return strings.HasSuffix(s, p), nil
	case "lower":
		if len(args) != 0 {
			return nil, NewException(TypeError, "lower() takes no arguments (%d given)", len(args))
		}
		return strings.ToLower(s), nil
	case "upper":
		if len(args) != 0 {
			return nil, NewException(TypeError, "upper() takes no arguments (%d given)", len(args))
		}
		return strings.ToUpper(s), nil
	case "replace":
		if len(args) != 2 {
			return nil, NewException(TypeError, "replace() takes exactly 2 arguments (%d given)", len(args))
		}
		oldS, ok1 := args[0].(string)
		newS, ok2 := args[1].(string)
		if !ok1 || !ok2 {
			return nil, NewException(TypeError, "replace() arguments must be strings")
		}
		return strings.ReplaceAll(s, oldS, newS), nil
	case "join":
		if len(args) != 1 {
			return nil, NewException(TypeError, "join() takes exactly one argument (%d given)", len(args))
		}
		elems, e := sequenceElems(args[0])
		if e != nil {
			return nil, e
		}
		parts := make([]string, len(elems))
		for i, el := range elems {
			str, ok := el.(string)
			if !ok {
				return nil, NewException(TypeError, "sequence item %d: expected str instance, %s found", i, TypeOf(el).Name)
			}
			parts[i] = str
		}
		return strings.Join(parts, s), nil
	default:
		return nil, NewException(AttributeError, "'str' object has no attribute '%s'", name)
	}
}

func singleStringArg(method string, args []any) (string, *Exception) {
	if len(args) != 1 {
		return "", NewException(TypeError, "%s() takes exactly one argument (%d given)", method, len(args))
	}
	s, ok := args[0].(string)
	if !ok {
		return "", NewException(TypeError, "%s() argument must be a string", method)
	}
	return s, nil
}
