package pyvm

import "testing"

func TestExceptionBaseMatchesEveryKind(t *testing.T) {
	kinds := []ExceptionKind{RuntimeError, IndexError, KeyError, ValueError, TypeError, ZeroDivisionError, IterationViolationError, OSError, AttributeError, ImportError, IOError}
	for _, k := range kinds {
		if !k.Matches(ExceptionBase) {
			t.Errorf("expected %s to match the pseudo-top Exception kind", k)
		}
	}
}

func TestExceptionKindMatchesExactlyItself(t *testing.T) {
	if !ValueError.Matches(ValueError) {
		t.Fatal("expected ValueError to match itself")
	}
	if ValueError.Matches(TypeError) {
		t.Fatal("expected ValueError to not match TypeError")
	}
	if TypeError.Matches(ValueError) {
		t.Fatal("expected TypeError to not match ValueError")
	}
}

func TestExceptionStringAndError(t *testing.T) {
	exc := NewException(ValueError, "bad value: %d", 42)
	if exc.Kind.String() != "ValueError" {
		t.Fatalf("got %s", exc.Kind.String())
	}
	if exc.Error() != "ValueError: bad value: 42" {
		t.Fatalf("got %s", exc.Error())
	}
}

func TestExceptionEqual(t *testing.T) {
	a := NewException(KeyError, "missing %q", "x")
	b := NewException(KeyError, "missing %q", "x")
	c := NewException(KeyError, "missing %q", "y")
	if !a.Equal(b) {
		t.Fatal("expected same kind+message to be Equal")
	}
	if a.Equal(c) {
		t.Fatal("expected different messages to not be Equal")
	}
}

func TestEqDelegatesToExceptionEqual(t *testing.T) {
	a := NewException(TypeError, "boom")
	b := NewException(TypeError, "boom")
	if !Eq(a, b) {
		t.Fatal("expected Eq on *Exception to use Exception.Equal")
	}
}
