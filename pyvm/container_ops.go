package pyvm

// getItem implements GetItem for list/dict/tuple/string indexing.
func getItem(obj, idx any) (any, *Exception) {
	switch x := obj.(type) {
	case *List:
		i, e := asIndex(idx)
		if e != nil {
			return nil, e
		}
		return x.Get(i)
	case *Tuple:
		i, e := asIndex(idx)
		if e != nil {
			return nil, e
		}
		n, ok := normalizeIndex(i, len(x.Elems))
		if !ok {
			return nil, NewException(IndexError, "tuple index out of range")
		}
		return x.Elems[n], nil
	case string:
		i, e := asIndex(idx)
		if e != nil {
			return nil, e
		}
		runes := []rune(x)
		n, ok := normalizeIndex(i, len(runes))
		if !ok {
			return nil, NewException(IndexError, "string index out of range")
		}
		return string(runes[n]), nil
	case *Dict:
		if !ValidDictKey(idx) {
			return nil, NewException(TypeError, "unhashable type used as dict key: %s", TypeOf(idx).Name)
		}
		v, ok := x.Get(idx)
		if !ok {
			return nil, NewException(KeyError, "%s", Repr(idx))
		}
		return v, nil
	default:
		return nil, NewException(TypeError, "'%s' object is not subscriptable", TypeOf(obj).Name)
	}
}

func setItem(obj, idx, val any) *Exception {
	switch x := obj.(type) {
	case *List:
		i, e := asIndex(idx)
		if e != nil {
			return e
		}
		return x.Set(i, val)
	case *Dict:
		if !ValidDictKey(idx) {
			return NewException(TypeError, "unhashable type used as dict key: %s", TypeOf(idx).Name)
		}
		x.Set(idx, val)
		return nil
	default:
		return NewException(TypeError, "'%s' object does not support item assignment", TypeOf(obj).Name)
	}
}

func asIndex(v any) (int, *Exception) {
	i, ok := v.(int64)
	if !ok {
		return 0, NewException(TypeError, "indices must be integers, not %s", TypeOf(v).Name)
	}
	return int(i), nil
}

func sliceBounds(s *Slice, length int) (start, stop, step int) {
	step = 1
	if s.Step != nil {
		step = int(*s.Step)
	}
	if step > 0 {
		start, stop = 0, length
	} else {
		start, stop = length-1, -1
	}
	if s.Start != nil {
		start = int(*s.Start)
		if start < 0 {
			start += length
		}
	}
	if s.Stop != nil {
		stop = int(*s.Stop)
		if stop < 0 {
			stop += length
		}
	}
	return
}

func getItemSlice(obj any, sliceVal any) (any, *Exception) {
	s, ok := sliceVal.(*Slice)
	if !ok {
		return nil, NewException(TypeError, "slice indices must be slices")
	}
	step := 1
	if s.Step != nil {
		step = int(*s.Step)
	}
	if step == 0 {
		return nil, NewException(ValueError, "slice step cannot be zero")
	}
	switch x := obj.(type) {
	case *List:
		start, stop, _ := sliceBounds(s, len(x.Elems))
		var out []any
		if step > 0 {
			for i := start; i < stop && i < len(x.Elems); i += step {
				if i >= 0 {
					out = append(out, x.Elems[i])
				}
			}
		} else {
			for i := start; i > stop && i >= 0; i += step {
				if i < len(x.Elems) {
					out = append(out, x.Elems[i])
				}
			}
		}
		return NewList(out), nil
	case string:
		runes := []rune(x)
		start, stop, _ := sliceBounds(s, len(runes))
		var out []rune
		if step > 0 {
			for i := start; i < stop && i < len(runes); i += step {
				if i >= 0 {
					out = append(out, runes[i])
				}
			}
		} else {
			for i := start; i > stop && i >= 0; i += step {
				if i < len(runes) {
					out = append(out, runes[i])
				}
			}
		}
		return string(out), nil
	default:
		return nil, NewException(TypeError, "'%s' object is not sliceable", TypeOf(obj).Name)
	}
}

func setItemSlice(obj, sliceVal, val any) *Exception {
	l, ok := obj.(*List)
	if !ok {
		return NewException(TypeError, "'%s' object does not support slice assignment", TypeOf(obj).Name)
	}
	s, ok := sliceVal.(*Slice)
	if !ok {
		return NewException(TypeError, "slice indices must be slices")
	}
	repl, ok := val.(*List)
	if !ok {
		return NewException(TypeError, "can only assign a list to a list slice")
	}
	start, stop, step := sliceBounds(s, len(l.Elems))
	if step != 1 {
		return NewException(ValueError, "extended slice assignment is not supported")
	}
	if start < 0 {
		start = 0
	}
	if stop > len(l.Elems) {
		stop = len(l.Elems)
	}
	if stop < start {
		stop = start
	}
	out := make([]any, 0, len(l.Elems)-(stop-start)+len(repl.Elems))
	out = append(out, l.Elems[:start]...)
	out = append(out, repl.Elems...)
	out = append(out, l.Elems[stop:]...)
	l.Elems = out
	l.bump()
	return nil
}

func containsCheck(container, item any) (bool, *Exception) {
	switch x := container.(type) {
	case *List:
		for _, e := range x.Elems {
			if Eq(e, item) {
				return true, nil
			}
		}
		return false, nil
	case *Tuple:
		for _, e := range x.Elems {
			if Eq(e, item) {
				return true, nil
			}
		}
		return false, nil
	case *Dict:
		if !ValidDictKey(item) {
			return false, nil
		}
		_, ok := x.Get(item)
		return ok, nil
	case string:
		sub, ok := item.(string)
		if !ok {
			return false, NewException(TypeError, "'in <string>' requires string as left operand, not %s", TypeOf(item).Name)
		}
		return containsSubstring(x, sub), nil
	default:
		return false, NewException(TypeError, "argument of type '%s' is not iterable", TypeOf(container).Name)
	}
}

func containsSubstring(s, sub string) bool {
	if sub == "" {
		return true
	}
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

func lengthOf(v any) (int64, *Exception) {
	switch x := v.(type) {
	case *List:
		return int64(len(x.Elems)), nil
	case *Tuple:
		return int64(len(x.Elems)), nil
	case *Dict:
		return int64(x.Len()), nil
	case string:
		return int64(len([]rune(x))), nil
	default:
		return 0, NewException(TypeError, "object of type '%s' has no len()", TypeOf(v).Name)
	}
}

// sequenceElems extracts the underlying elements for UnpackSequence.
func sequenceElems(v any) ([]any, *Exception) {
	switch x := v.(type) {
	case *List:
		return x.Elems, nil
	case *Tuple:
		return x.Elems, nil
	case string:
		runes := []rune(x)
		out := make([]any, len(runes))
		for i, r := range runes {
			out[i] = string(r)
		}
		return out, nil
	default:
		return nil, NewException(TypeError, "cannot unpack non-sequence %s", TypeOf(v).Name)
	}
}
