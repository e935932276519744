package pyvm

// List is a shared, interior-mutable sequence. Every mutator bumps Version so
// iterators created by GetIter can detect concurrent modification (§4.I);
// wraparound of the counter is ignored, per the design notes.
type List struct {
	Elems   []any
	Version uint32
}

func NewList(elems []any) *List {
	if elems == nil {
		elems = []any{}
	}
	return &List{Elems: elems}
}

func (l *List) bump() { l.Version++ }

func (l *List) Append(v any) {
	l.Elems = append(l.Elems, v)
	l.bump()
}

// Pop removes and returns the last element; fails with an IndexError on an
// empty list.
func (l *List) Pop() (any, *Exception) {
	if len(l.Elems) == 0 {
		return nil, NewException(IndexError, "pop from empty list")
	}
	v := l.Elems[len(l.Elems)-1]
	l.Elems = l.Elems[:len(l.Elems)-1]
	l.bump()
	return v, nil
}

func (l *List) Get(i int) (any, *Exception) {
	idx, ok := normalizeIndex(i, len(l.Elems))
	if !ok {
		return nil, NewException(IndexError, "list index out of range")
	}
	return l.Elems[idx], nil
}

func (l *List) Set(i int, v any) *Exception {
	idx, ok := normalizeIndex(i, len(l.Elems))
	if !ok {
		return NewException(IndexError, "list assignment index out of range")
	}
	l.Elems[idx] = v
	l.bump()
	return nil
}

// normalizeIndex resolves a possibly-negative Python-style index against a
// length, returning ok=false when out of range.
func normalizeIndex(i, length int) (int, bool) {
	if i < 0 {
		i += length
	}
	if i < 0 || i >= length {
		return 0, false
	}
	return i, true
}

// Tuple is a shared, immutable sequence — the system never exposes a mutator
// for it.
type Tuple struct {
	Elems []any
}

func NewTuple(elems []any) *Tuple {
	if elems == nil {
		elems = []any{}
	}
	return &Tuple{Elems: elems}
}
