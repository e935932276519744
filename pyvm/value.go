package pyvm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// None is the unit/absent scalar. Its identity is always true (a bare struct
// value compares equal to itself trivially) and it is always falsy.
type None struct{}

// Truthy implements the truthiness rule of §4.V: false, None, zero, and
// empty containers are falsy; everything else is truthy.
func Truthy(v any) bool {
	switch x := v.(type) {
	case None:
		return false
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x != ""
	case *List:
		return len(x.Elems) > 0
	case *Dict:
		return x.Len() > 0
	case *Tuple:
		return len(x.Elems) > 0
	default:
		return true
	}
}

// Eq implements structural equality: same-variant comparisons compare
// content, int/float promote, containers recurse, dissimilar variants are
// simply unequal (never a fault).
func Eq(a, b any) bool {
	switch x := a.(type) {
	case None:
		_, ok := b.(None)
		return ok
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case int64:
		switch y := b.(type) {
		case int64:
			return x == y
		case float64:
			return float64(x) == y
		}
		return false
	case float64:
		switch y := b.(type) {
		case int64:
			return x == float64(y)
		case float64:
			return x == y
		}
		return false
	case string:
		y, ok := b.(string)
		return ok && x == y
	case *List:
		y, ok := b.(*List)
		if !ok || len(x.Elems) != len(y.Elems) {
			return false
		}
		for i := range x.Elems {
			if !Eq(x.Elems[i], y.Elems[i]) {
				return false
			}
		}
		return true
	case *Tuple:
		y, ok := b.(*Tuple)
		if !ok || len(x.Elems) != len(y.Elems) {
			return false
		}
		for i := range x.Elems {
			if !Eq(x.Elems[i], y.Elems[i]) {
				return false
			}
		}
		return true
	case *Dict:
		y, ok := b.(*Dict)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for _, k := range x.Keys() {
			xv, _ := x.Get(k)
			yv, ok := y.Get(k)
			if !ok || !Eq(xv, yv) {
				return false
			}
		}
		return true
	case *Exception:
		y, ok := b.(*Exception)
		return ok && x.Equal(y)
	default:
		return a == b
	}
}

// Identity implements `is`/`is not` per §4.V: shared variants compare by
// allocation identity, None is always identical to itself, booleans and
// integers and floats compare by value (no small-int cache), strings compare
// by value (interning permitted but not required — see DESIGN.md's Open
// Question decisions), and dissimilar variants are never identical.
func Identity(a, b any) bool {
	switch x := a.(type) {
	case None:
		_, ok := b.(None)
		return ok
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case int64:
		y, ok := b.(int64)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case *List:
		y, ok := b.(*List)
		return ok && x == y
	case *Dict:
		y, ok := b.(*Dict)
		return ok && x == y
	case *Tuple:
		y, ok := b.(*Tuple)
		return ok && x == y
	case *Module:
		y, ok := b.(*Module)
		return ok && x == y
	case *NativeFunc:
		y, ok := b.(*NativeFunc)
		return ok && x == y
	case *Function:
		y, ok := b.(*Function)
		return ok && x == y
	default:
		// float64 by value; iterators, generators, coroutines, ranges and
		// exceptions by pointer.
		return a == b
	}
}

// Compare implements ordering for same-kind numbers (with promotion) and
// string-to-string lexicographic comparison. Returns (cmp, nil) where cmp is
// negative/zero/positive, or a *Exception fault for any other combination.
func Compare(a, b any) (int, *Exception) {
	af, aIsNum := asFloat(a)
	bf, bIsNum := asFloat(b)
	if aIsNum && bIsNum {
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	}
	as, aIsStr := a.(string)
	bs, bIsStr := b.(string)
	if aIsStr && bIsStr {
		return strings.Compare(as, bs), nil
	}
	return 0, NewException(TypeError, "unorderable types: %s and %s", TypeOf(a).Name, TypeOf(b).Name)
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// Add implements `+`: numeric (with promotion), string concatenation, list
// concatenation producing a new list; all other combinations fault.
func Add(a, b any) (any, *Exception) {
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return as + bs, nil
		}
		return nil, typeFault("+", a, b)
	}
	if al, ok := a.(*List); ok {
		if bl, ok := b.(*List); ok {
			out := make([]any, 0, len(al.Elems)+len(bl.Elems))
			out = append(out, al.Elems...)
			out = append(out, bl.Elems...)
			return NewList(out), nil
		}
		return nil, typeFault("+", a, b)
	}
	return numericOp("+", a, b, func(x, y int64) (int64, bool) { return x + y, true }, func(x, y float64) float64 { return x + y })
}

func Sub(a, b any) (any, *Exception) {
	return numericOp("-", a, b, func(x, y int64) (int64, bool) { return x - y, true }, func(x, y float64) float64 { return x - y })
}

func Mul(a, b any) (any, *Exception) {
	return numericOp("*", a, b, func(x, y int64) (int64, bool) { return x * y, true }, func(x, y float64) float64 { return x * y })
}

// Div always yields a float: true division, per the host-Python convention
// named in §4.V.
func Div(a, b any) (any, *Exception) {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		return nil, typeFault("/", a, b)
	}
	if bf == 0 {
		return nil, NewException(ZeroDivisionError, "division by zero")
	}
	return af / bf, nil
}

// FloorDiv implements Python's `//`.
func FloorDiv(a, b any) (any, *Exception) {
	ai, aIsInt := a.(int64)
	bi, bIsInt := b.(int64)
	if aIsInt && bIsInt {
		if bi == 0 {
			return nil, NewException(ZeroDivisionError, "integer division or modulo by zero")
		}
		return int64(math.Floor(float64(ai) / float64(bi))), nil
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		return nil, typeFault("//", a, b)
	}
	if bf == 0 {
		return nil, NewException(ZeroDivisionError, "float floor division by zero")
	}
	return math.Floor(af / bf), nil
}

func Mod(a, b any) (any, *Exception) {
	ai, aIsInt := a.(int64)
	bi, bIsInt := b.(int64)
	if aIsInt && bIsInt {
		if bi == 0 {
			return nil, NewException(ZeroDivisionError, "integer division or modulo by zero")
		}
		m := ai % bi
		if m != 0 && (m < 0) != (bi < 0) {
			m += bi
		}
		return m, nil
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		return nil, typeFault("%", a, b)
	}
	if bf == 0 {
		return nil, NewException(ZeroDivisionError, "float modulo by zero")
	}
	m := math.Mod(af, bf)
	if m != 0 && (m < 0) != (bf < 0) {
		m += bf
	}
	return m, nil
}

func Negate(a any) (any, *Exception) {
	switch x := a.(type) {
	case int64:
		return -x, nil
	case float64:
		return -x, nil
	default:
		return nil, NewException(TypeError, "bad operand type for unary -: %s", TypeOf(a).Name)
	}
}

func numericOp(op string, a, b any, intOp func(x, y int64) (int64, bool), floatOp func(x, y float64) float64) (any, *Exception) {
	ai, aIsInt := a.(int64)
	bi, bIsInt := b.(int64)
	if aIsInt && bIsInt {
		if r, ok := intOp(ai, bi); ok {
			return r, nil
		}
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		return nil, typeFault(op, a, b)
	}
	return floatOp(af, bf), nil
}

func typeFault(op string, a, b any) *Exception {
	return NewException(TypeError, "unsupported operand type(s) for %s: %q and %q", op, TypeOf(a).Name, TypeOf(b).Name)
}

// Str renders v the way print()/str() do: scalars render plainly, strings
// render as themselves (not quoted).
func Str(v any) string {
	return render(v, false)
}

// Repr renders v the way it appears nested inside a list/dict/tuple: strings
// are quoted.
func Repr(v any) string {
	return render(v, true)
}

func render(v any, quoteStrings bool) string {
	switch x := v.(type) {
	case None:
		return "none"
	case bool:
		if x {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return formatFloat(x)
	case string:
		if quoteStrings {
			return strconv.Quote(x)
		}
		return x
	case *List:
		parts := make([]string, len(x.Elems))
		for i, e := range x.Elems {
			parts[i] = Repr(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *Tuple:
		parts := make([]string, len(x.Elems))
		for i, e := range x.Elems {
			parts[i] = Repr(e)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *Dict:
		parts := make([]string, 0, x.Len())
		for _, k := range x.Keys() {
			val, _ := x.Get(k)
			parts = append(parts, Repr(k)+": "+Repr(val))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *Function:
		return fmt.Sprintf("<function %s>", x.Name)
	case *NativeFunc:
		return fmt.Sprintf("<function %s>", x.Name)
	case *Module:
		return fmt.Sprintf("<module %s>", x.Name)
	case *Exception:
		return x.Error()
	default:
		return fmt.Sprintf("%v", x)
	}
}

func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
