package pyvm

import "testing"

func TestListIteratorVersionGating(t *testing.T) {
	l := NewList([]any{int64(1), int64(2), int64(3)})
	it := NewListIterator(l)

	v, ok, exc := it.Next()
	if exc != nil || !ok || v != int64(1) {
		t.Fatalf("got %v %v %v", v, ok, exc)
	}

	l.Elems = append(l.Elems, int64(4))
	l.Version++

	_, _, exc = it.Next()
	if exc == nil || exc.Kind != IterationViolationError {
		t.Fatalf("expected IterationViolationError, got %v", exc)
	}
}

func TestListIteratorExhausts(t *testing.T) {
	l := NewList([]any{int64(1), int64(2)})
	it := NewListIterator(l)
	var got []any
	for {
		v, ok, exc := it.Next()
		if exc != nil {
			t.Fatal(exc)
		}
		if !ok {
			break
		}
		got = append(got, v)
	}
	if len(got) != 2 || got[0] != int64(1) || got[1] != int64(2) {
		t.Fatalf("got %v", got)
	}
}

func TestDictIteratorNotVersionGated(t *testing.T) {
	d := NewDict()
	d.Set("a", int64(1))
	d.Set("b", int64(2))
	it := NewDictIterator(d)

	d.Set("c", int64(3))

	var got []any
	for {
		v, ok, exc := it.Next()
		if exc != nil {
			t.Fatal(exc)
		}
		if !ok {
			break
		}
		got = append(got, v)
	}
	if len(got) != 2 {
		t.Fatalf("expected the pre-mutation snapshot (2 keys), got %v", got)
	}
}
