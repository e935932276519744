package pyvm

// Iterator is the uniform protocol ForIter drives: Next returns the next
// value, or ok=false when exhausted, or a fault (e.g. list version
// mismatch).
type Iterator interface {
	Next() (value any, ok bool, err *Exception)
}

// ListIterator captures the list's version at GetIter time and compares it
// on every step; a mismatch is a fatal iteration-violation fault (§4.I,
// §8 "List version gating").
type ListIterator struct {
	List    *List
	Index   int
	Version uint32
}

func NewListIterator(l *List) *ListIterator {
	return &ListIterator{List: l, Version: l.Version}
}

func (it *ListIterator) Next() (any, bool, *Exception) {
	if it.List.Version != it.Version {
		return nil, false, NewException(IterationViolationError, "list modified during iteration")
	}
	if it.Index >= len(it.List.Elems) {
		return nil, false, nil
	}
	v := it.List.Elems[it.Index]
	it.Index++
	return v, true, nil
}

// DictIterator iterates a snapshot of keys taken at GetIter time; mutations
// during iteration are not reported (dict iteration is not version-gated,
// per the spec's Open Question and DESIGN.md's decision).
type DictIterator struct {
	Keys  []any
	Index int
}

func NewDictIterator(d *Dict) *DictIterator {
	return &DictIterator{Keys: d.Keys()}
}

func (it *DictIterator) Next() (any, bool, *Exception) {
	if it.Index >= len(it.Keys) {
		return nil, false, nil
	}
	v := it.Keys[it.Index]
	it.Index++
	return v, true, nil
}

// TupleIterator iterates a tuple's fixed elements.
type TupleIterator struct {
	Tuple *Tuple
	Index int
}

func NewTupleIterator(t *Tuple) *TupleIterator {
	return &TupleIterator{Tuple: t}
}

func (it *TupleIterator) Next() (any, bool, *Exception) {
	if it.Index >= len(it.Tuple.Elems) {
		return nil, false, nil
	}
	v := it.Tuple.Elems[it.Index]
	it.Index++
	return v, true, nil
}

// StringIterator yields one-character strings, advancing by Unicode rune.
type StringIterator struct {
	Runes []rune
	Index int
}

func NewStringIterator(s string) *StringIterator {
	return &StringIterator{Runes: []rune(s)}
}

func (it *StringIterator) Next() (any, bool, *Exception) {
	if it.Index >= len(it.Runes) {
		return nil, false, nil
	}
	v := string(it.Runes[it.Index])
	it.Index++
	return v, true, nil
}

// RangeIterator walks {current, stop, step}.
type RangeIterator struct {
	Current, Stop, Step int64
}

func NewRangeIterator(r *Range) *RangeIterator {
	return &RangeIterator{Current: r.Start, Stop: r.Stop, Step: r.Step}
}

func (it *RangeIterator) Next() (any, bool, *Exception) {
	if it.Step > 0 && it.Current >= it.Stop {
		return nil, false, nil
	}
	if it.Step < 0 && it.Current <= it.Stop {
		return nil, false, nil
	}
	v := it.Current
	it.Current += it.Step
	return v, true, nil
}

// GetIter dispatches by value kind, returning the Iterator implementation
// itself, which the GetIter instruction pushes onto the stack.
func GetIter(v any) (any, *Exception) {
	switch x := v.(type) {
	case *List:
		return NewListIterator(x), nil
	case *Dict:
		return NewDictIterator(x), nil
	case *Tuple:
		return NewTupleIterator(x), nil
	case string:
		return NewStringIterator(x), nil
	case *Range:
		return NewRangeIterator(x), nil
	case *Generator:
		// Generators are their own iterators.
		return x, nil
	case Iterator:
		return x, nil
	default:
		return nil, NewException(TypeError, "%q is not iterable", TypeOf(v).Name)
	}
}
