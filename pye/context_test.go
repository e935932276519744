package pye

import (
	"bytes"
	"strings"
	"testing"

	"github.com/embedpy/pye/pyvm"
)

// evalCapturingStdout runs src against a fresh Context whose VM prints to
// buf instead of os.Stdout, returning the Eval result alongside anything
// printed.
func evalCapturingStdout(t *testing.T, src string) (any, string) {
	t.Helper()
	c := New()
	var buf bytes.Buffer
	c.vm.Stdout = &buf
	v, err := c.Eval(src)
	if err != nil {
		t.Fatalf("eval %q: %v", src, err)
	}
	return v, buf.String()
}

func TestRecursiveFibonacci(t *testing.T) {
	_, out := evalCapturingStdout(t, `
def fib(n):
    if n <= 1: return n
    return fib(n-1) + fib(n-2)
print(fib(10))
`)
	if strings.TrimSpace(out) != "55" {
		t.Fatalf("got %q", out)
	}
}

func TestMutationDuringIteration(t *testing.T) {
	c := New()
	_, err := c.Eval(`
xs = [1,2,3]
caught = false
try:
    for x in xs:
        xs.append(x)
except Exception:
    caught = true
`)
	if err != nil {
		t.Fatal(err)
	}
	caught, ok := c.Get("caught")
	if !ok || caught != true {
		t.Fatalf("caught = %v, ok=%v", caught, ok)
	}
}

func TestTryFinallyOrdering(t *testing.T) {
	c := New()
	_, err := c.Eval(`
log = []
try:
    log.append("a")
    raise ValueError("x")
except ValueError:
    log.append("b")
finally:
    log.append("c")
`)
	if err != nil {
		t.Fatal(err)
	}
	log, ok := c.Get("log")
	if !ok {
		t.Fatal("log not set")
	}
	got := pyvm.Repr(log)
	if got != `["a", "b", "c"]` {
		t.Fatalf("got %s", got)
	}
}

func TestDictComprehensionKeyCollision(t *testing.T) {
	c := New()
	_, err := c.Eval(`d = {x % 3: x for x in range(10)}`)
	if err != nil {
		t.Fatal(err)
	}
	d, ok := c.Get("d")
	if !ok {
		t.Fatal("d not set")
	}
	got := pyvm.Repr(d)
	if got != "{0: 9, 1: 7, 2: 8}" {
		t.Fatalf("got %s", got)
	}
}

func TestFStringMethodChain(t *testing.T) {
	_, out := evalCapturingStdout(t, `
name = "  World  "
print(f"Hello, {name.strip().upper()}!")
`)
	if strings.TrimSpace(out) != "Hello, WORLD!" {
		t.Fatalf("got %q", out)
	}
}

func TestModuleExceptionAcrossFrames(t *testing.T) {
	c := New()
	_, err := c.Eval(`
import json
try:
    json.loads("not-json")
except Exception as e:
    msg = "bad"
`)
	if err != nil {
		t.Fatal(err)
	}
	msg, ok := c.Get("msg")
	if !ok || msg != "bad" {
		t.Fatalf("msg = %v, ok=%v", msg, ok)
	}
}

func TestEvalReturnsLastExpressionValue(t *testing.T) {
	c := New()
	v, err := c.Eval(`
x = 1
y = 2
x + y
`)
	if err != nil {
		t.Fatal(err)
	}
	if v != int64(3) {
		t.Fatalf("got %v (%T)", v, v)
	}
}

func TestEvalPreservesGlobalsAcrossCalls(t *testing.T) {
	c := New()
	if _, err := c.Eval(`x = 1`); err != nil {
		t.Fatal(err)
	}
	v, err := c.Eval(`x + 1`)
	if err != nil {
		t.Fatal(err)
	}
	if v != int64(2) {
		t.Fatalf("got %v", v)
	}
}

func TestRoundTripCompileAndEvalBytecode(t *testing.T) {
	c := New()
	image, err := c.Compile(`1 + 2`)
	if err != nil {
		t.Fatal(err)
	}
	v, err := c.EvalBytecode(image)
	if err != nil {
		t.Fatal(err)
	}
	if v != int64(3) {
		t.Fatalf("got %v", v)
	}
}

func TestSetAndGet(t *testing.T) {
	c := New()
	c.Set("x", int64(42))
	v, err := c.Eval(`x + 1`)
	if err != nil {
		t.Fatal(err)
	}
	if v != int64(43) {
		t.Fatalf("got %v", v)
	}
}

func TestEvalErrorCarriesCallPath(t *testing.T) {
	c := New()
	_, err := c.Eval(`
def inner():
    return 1 / 0
def outer():
    return inner()
outer()
`)
	if err == nil {
		t.Fatal("expected a fault")
	}
	if !strings.Contains(err.Error(), "call path:") {
		t.Fatalf("expected wrapped call path, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "inner") || !strings.Contains(err.Error(), "outer") {
		t.Fatalf("expected inner/outer in call path, got %q", err.Error())
	}
}

func TestRecursionLimitExceeded(t *testing.T) {
	c := NewWithMaxCallDepth(50)
	_, err := c.Eval(`
def loop(n):
    return loop(n + 1)
loop(0)
`)
	if err == nil {
		t.Fatal("expected an error")
	}
}
