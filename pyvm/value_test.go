package pyvm

import "testing"

func TestTruthy(t *testing.T) {
	cases := []struct {
		v    any
		want bool
	}{
		{None{}, false},
		{false, false},
		{true, true},
		{int64(0), false},
		{int64(1), true},
		{float64(0), false},
		{float64(1.5), true},
		{"", false},
		{"x", true},
		{NewList(nil), false},
		{NewList([]any{int64(1)}), true},
		{NewDict(), false},
		{NewTuple(nil), false},
		{NewTuple([]any{int64(1)}), true},
	}
	for _, c := range cases {
		if got := Truthy(c.v); got != c.want {
			t.Errorf("Truthy(%v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestEqPromotesIntFloat(t *testing.T) {
	if !Eq(int64(2), float64(2)) {
		t.Fatal("expected int64(2) == float64(2)")
	}
	if Eq(int64(2), float64(2.5)) {
		t.Fatal("expected int64(2) != float64(2.5)")
	}
	if Eq(int64(1), "1") {
		t.Fatal("expected dissimilar variants to be unequal, not a fault")
	}
}

func TestEqContainersRecurse(t *testing.T) {
	a := NewList([]any{int64(1), NewList([]any{int64(2), int64(3)})})
	b := NewList([]any{int64(1), NewList([]any{int64(2), int64(3)})})
	if !Eq(a, b) {
		t.Fatal("expected structurally-equal nested lists to be Eq")
	}
	c := NewList([]any{int64(1), NewList([]any{int64(2), int64(4)})})
	if Eq(a, c) {
		t.Fatal("expected structurally-different nested lists to not be Eq")
	}
}

// Identity vs. equality for aliasable values: two distinct lists with the
// same contents are Eq but not Identity.
func TestIdentityVsEqualityForAliasableValues(t *testing.T) {
	a := NewList([]any{int64(1)})
	b := NewList([]any{int64(1)})
	if !Eq(a, b) {
		t.Fatal("expected equal contents")
	}
	if Identity(a, b) {
		t.Fatal("expected distinct allocations to not be Identity")
	}
	if !Identity(a, a) {
		t.Fatal("expected a list to be Identity with itself")
	}
}

func TestNoneIdentity(t *testing.T) {
	if !Identity(None{}, None{}) {
		t.Fatal("expected none to always be identical to none")
	}
}

func TestCompareNumericPromotion(t *testing.T) {
	c, exc := Compare(int64(1), float64(2))
	if exc != nil {
		t.Fatal(exc)
	}
	if c >= 0 {
		t.Fatalf("expected 1 < 2, got cmp=%d", c)
	}
}

func TestCompareStrings(t *testing.T) {
	c, exc := Compare("abc", "abd")
	if exc != nil {
		t.Fatal(exc)
	}
	if c >= 0 {
		t.Fatalf("expected abc < abd, got cmp=%d", c)
	}
}

func TestCompareUnorderableFaults(t *testing.T) {
	_, exc := Compare("abc", int64(1))
	if exc == nil || exc.Kind != TypeError {
		t.Fatalf("expected a TypeError fault, got %v", exc)
	}
}

func TestAddStringAndListConcatenation(t *testing.T) {
	s, exc := Add("foo", "bar")
	if exc != nil || s != "foobar" {
		t.Fatalf("got %v %v", s, exc)
	}

	l, exc := Add(NewList([]any{int64(1)}), NewList([]any{int64(2)}))
	if exc != nil {
		t.Fatal(exc)
	}
	if got := Repr(l); got != "[1, 2]" {
		t.Fatalf("got %s", got)
	}
}

func TestAddMismatchedTypesFaults(t *testing.T) {
	if _, exc := Add("foo", int64(1)); exc == nil || exc.Kind != TypeError {
		t.Fatalf("expected TypeError, got %v", exc)
	}
}

func TestDivAlwaysFloat(t *testing.T) {
	v, exc := Div(int64(4), int64(2))
	if exc != nil {
		t.Fatal(exc)
	}
	if _, ok := v.(float64); !ok {
		t.Fatalf("expected Div to always yield a float, got %T", v)
	}
	if v != float64(2) {
		t.Fatalf("got %v", v)
	}
}

func TestDivByZeroFaults(t *testing.T) {
	if _, exc := Div(int64(1), int64(0)); exc == nil || exc.Kind != ZeroDivisionError {
		t.Fatalf("expected ZeroDivisionError, got %v", exc)
	}
}

func TestFloorDivAndModNegativeOperands(t *testing.T) {
	v, exc := FloorDiv(int64(-7), int64(2))
	if exc != nil || v != int64(-4) {
		t.Fatalf("got %v %v", v, exc)
	}
	m, exc := Mod(int64(-7), int64(2))
	if exc != nil || m != int64(1) {
		t.Fatalf("expected python-style modulo sign from divisor, got %v %v", m, exc)
	}
}

func TestModAndFloorDivByZeroFault(t *testing.T) {
	if _, exc := FloorDiv(int64(1), int64(0)); exc == nil || exc.Kind != ZeroDivisionError {
		t.Fatalf("got %v", exc)
	}
	if _, exc := Mod(int64(1), int64(0)); exc == nil || exc.Kind != ZeroDivisionError {
		t.Fatalf("got %v", exc)
	}
}

func TestNegate(t *testing.T) {
	v, exc := Negate(int64(5))
	if exc != nil || v != int64(-5) {
		t.Fatalf("got %v %v", v, exc)
	}
	if _, exc := Negate("x"); exc == nil || exc.Kind != TypeError {
		t.Fatalf("expected TypeError negating a string, got %v", exc)
	}
}

func TestStrVsRepr(t *testing.T) {
	if Str("hello") != "hello" {
		t.Fatalf("Str should not quote strings, got %q", Str("hello"))
	}
	if Repr("hello") != `"hello"` {
		t.Fatalf("Repr should quote strings, got %q", Repr("hello"))
	}
	if Str(None{}) != "none" || Str(true) != "true" || Str(false) != "false" {
		t.Fatalf("got %q %q %q", Str(None{}), Str(true), Str(false))
	}
}

func TestReprFloatFormatting(t *testing.T) {
	if Repr(float64(2)) != "2.0" {
		t.Fatalf("expected integral float to render with trailing .0, got %s", Repr(float64(2)))
	}
	if Repr(float64(2.5)) != "2.5" {
		t.Fatalf("got %s", Repr(float64(2.5)))
	}
}

func TestReprDictOrdersByInsertion(t *testing.T) {
	d := NewDict()
	d.Set("b", int64(2))
	d.Set("a", int64(1))
	if got := Repr(d); got != `{"b": 2, "a": 1}` {
		t.Fatalf("got %s", got)
	}
}
