package pycompile

import (
	"testing"

	"github.com/embedpy/pye/pyvm"
)

func run(t *testing.T, src string) (*pyvm.VM, any) {
	t.Helper()
	fn, err := CompileSource(src)
	if err != nil {
		t.Fatalf("compile %q: %v", src, err)
	}
	vm := pyvm.NewVM()
	v, err := vm.Execute(fn)
	if err != nil {
		t.Fatalf("execute %q: %v", src, err)
	}
	return vm, v
}

func global(t *testing.T, vm *pyvm.VM, name string) any {
	t.Helper()
	v, ok := vm.Globals[name]
	if !ok {
		t.Fatalf("global %s not set", name)
	}
	return v
}

func TestCompileWhileBreakContinue(t *testing.T) {
	vm, _ := run(t, `
i = 0
total = 0
while i < 10:
    i = i + 1
    if i % 2 == 0:
        continue
    if i > 7:
        break
    total = total + i
`)
	if global(t, vm, "total") != int64(1+3+5+7) {
		t.Fatalf("got %v", global(t, vm, "total"))
	}
}

func TestCompileBreakRunsEnclosingFinally(t *testing.T) {
	vm, _ := run(t, `
log = []
i = 0
while i < 5:
    i = i + 1
    try:
        if i == 2:
            break
        log.append(i)
    finally:
        log.append("fin" + str(i))
`)
	if got := pyvm.Repr(global(t, vm, "log")); got != `[1, "fin1", "fin2"]` {
		t.Fatalf("got %s", got)
	}
}

func TestCompileContinueRunsEnclosingFinallyEachIteration(t *testing.T) {
	vm, _ := run(t, `
log = []
i = 0
while i < 3:
    i = i + 1
    try:
        if i == 2:
            continue
        log.append(i)
    finally:
        log.append("fin" + str(i))
`)
	if got := pyvm.Repr(global(t, vm, "log")); got != `[1, "fin1", "fin2", 3, "fin3"]` {
		t.Fatalf("got %s", got)
	}

	// A continuing loop must not leak unpopped blocks onto the frame's block
	// stack across iterations.
	fn, err := CompileSource(`
i = 0
while i < 10000:
    i = i + 1
    try:
        continue
    finally:
        pass
`)
	if err != nil {
		t.Fatal(err)
	}
	vm2 := pyvm.NewVM()
	if _, err := vm2.Execute(fn); err != nil {
		t.Fatalf("expected no unbounded block growth, got %v", err)
	}
}

func TestCompileBreakOutOfNestedTryExcept(t *testing.T) {
	vm, _ := run(t, `
log = []
for i in range(5):
    try:
        if i == 2:
            break
        raise ValueError("x")
    except ValueError:
        log.append(i)
`)
	if got := pyvm.Repr(global(t, vm, "log")); got != "[0, 1]" {
		t.Fatalf("got %s", got)
	}
}

func TestCompileAugmentedAssignOnIndex(t *testing.T) {
	vm, _ := run(t, `
xs = [1, 2, 3]
xs[1] += 10
`)
	xs := global(t, vm, "xs").(*pyvm.List)
	if xs.Elems[1] != int64(12) {
		t.Fatalf("got %v", xs.Elems)
	}
}

func TestCompileUnpackingArityMismatchFaults(t *testing.T) {
	fn, err := CompileSource(`
a, b = [1, 2, 3]
`)
	if err != nil {
		t.Fatal(err)
	}
	vm := pyvm.NewVM()
	if _, err := vm.Execute(fn); err == nil {
		t.Fatal("expected a value-error fault")
	}
}

func TestCompileSlicing(t *testing.T) {
	vm, _ := run(t, `
xs = [1, 2, 3, 4, 5]
a = xs[1:3]
b = xs[:2]
c = xs[3:]
`)
	if got := pyvm.Repr(global(t, vm, "a")); got != "[2, 3]" {
		t.Fatalf("a = %s", got)
	}
	if got := pyvm.Repr(global(t, vm, "b")); got != "[1, 2]" {
		t.Fatalf("b = %s", got)
	}
	if got := pyvm.Repr(global(t, vm, "c")); got != "[4, 5]" {
		t.Fatalf("c = %s", got)
	}
}

func TestCompileShortCircuitAndOr(t *testing.T) {
	vm, _ := run(t, `
calls = []
def record(v):
    calls.append(v)
    return v

r1 = false and record(1)
r2 = true or record(2)
`)
	calls := global(t, vm, "calls").(*pyvm.List)
	if len(calls.Elems) != 0 {
		t.Fatalf("short-circuit failed, calls=%v", calls.Elems)
	}
	if global(t, vm, "r1") != false {
		t.Fatalf("r1=%v", global(t, vm, "r1"))
	}
	if global(t, vm, "r2") != true {
		t.Fatalf("r2=%v", global(t, vm, "r2"))
	}
}

func TestCompileListComprehensionWithFilter(t *testing.T) {
	vm, _ := run(t, `evens = [x for x in range(10) if x % 2 == 0]`)
	if got := pyvm.Repr(global(t, vm, "evens")); got != "[0, 2, 4, 6, 8]" {
		t.Fatalf("got %s", got)
	}
}

func TestCompileFunctionsAreGlobalOnly(t *testing.T) {
	// No closures over enclosing locals: an inner def can only see globals,
	// not the outer function's locals.
	fn, err := CompileSource(`
def outer():
    x = 1
    def inner():
        return x
    return inner()
outer()
`)
	if err != nil {
		t.Fatal(err)
	}
	vm := pyvm.NewVM()
	if _, err := vm.Execute(fn); err == nil {
		t.Fatal("expected inner()'s reference to x to fault (no enclosing-local capture)")
	}
}

func TestCompileRaiseAndBareReRaise(t *testing.T) {
	vm, _ := run(t, `
seen = none
try:
    try:
        raise ValueError("inner")
    except TypeError:
        pass
except ValueError as e:
    seen = "outer"
`)
	if global(t, vm, "seen") != "outer" {
		t.Fatalf("got %v", global(t, vm, "seen"))
	}
}
