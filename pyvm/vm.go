package pyvm

import (
	"fmt"
	"io"
	"os"
)

// ModuleFactory builds a module value on first import (§4.M).
type ModuleFactory func() *Module

// VM is a single execution context: one dispatch loop, one set of globals,
// one module registry. All heap objects are private to the VM that created
// them — there is no shared state across VMs by design (§5).
type VM struct {
	Globals    map[string]any
	Loaded     map[string]*Module
	Builtins   map[string]ModuleFactory
	Extensions map[string]ModuleFactory
	Stdout     io.Writer

	// MaxCallDepth bounds st.frames; doCall raises RuntimeError once it
	// would be exceeded, rather than letting runaway recursion grow the
	// frame stack without limit. Zero means "use defaultMaxCallDepth".
	MaxCallDepth int

	program *Function
}

const defaultMaxCallDepth = 1000

func (vm *VM) maxCallDepth() int {
	if vm.MaxCallDepth > 0 {
		return vm.MaxCallDepth
	}
	return defaultMaxCallDepth
}

func (vm *VM) stdout() io.Writer {
	if vm.Stdout != nil {
		return vm.Stdout
	}
	return os.Stdout
}

// execState is one independent (frame stack, value stack) pair. The main
// program runs against one execState; each Generator owns its own isolated
// execState so a suspended generator's stack segment never interleaves with
// the driving program's stack (the "per-generator stack segments" approach
// the design notes recommend as simpler than saving/restoring stack slices).
type execState struct {
	frames []*Frame
	stack  []any
}

func (st *execState) push(v any) { st.stack = append(st.stack, v) }

func (st *execState) pop() any {
	v := st.stack[len(st.stack)-1]
	st.stack = st.stack[:len(st.stack)-1]
	return v
}

func (st *execState) popN(n int) []any {
	out := make([]any, n)
	copy(out, st.stack[len(st.stack)-n:])
	st.stack = st.stack[:len(st.stack)-n]
	return out
}

func (st *execState) peek() any { return st.stack[len(st.stack)-1] }

func (st *execState) top() *Frame { return st.frames[len(st.frames)-1] }

// frameNames snapshots the active call stack (outermost first) as plain
// function names, for stamping onto a faulting Exception's CallPath before
// unwind() starts popping frames in search of a handler — unwind is
// destructive, so this must run first.
func (st *execState) frameNames() []string {
	names := make([]string, len(st.frames))
	for i, f := range st.frames {
		names[i] = f.Fn.Name
	}
	return names
}

func NewVM() *VM {
	vm := &VM{
		Globals:    make(map[string]any),
		Loaded:     make(map[string]*Module),
		Builtins:   make(map[string]ModuleFactory),
		Extensions: make(map[string]ModuleFactory),
	}
	installDefaultGlobals(vm)
	return vm
}

// Load installs the top-level compiled program that Run (and the range-over-
// func Run iterator, mirroring the teacher's `for _, err := range vm.Run`
// driving idiom) will execute.
func (vm *VM) Load(program *Function) {
	vm.program = program
}

// Execute runs a compiled program to completion against this VM's globals,
// returning its final value (the top of the value stack, or None if empty,
// per §4.VM's core loop invariant).
func (vm *VM) Execute(program *Function) (any, error) {
	st := &execState{frames: []*Frame{NewFrame(program, nil, 0)}}
	value, outcome, exc := vm.run(st)
	if exc != nil {
		return nil, exc
	}
	if outcome == outcomeYield {
		return nil, fmt.Errorf("pyvm: top-level yield outside a generator")
	}
	return value, nil
}

// Run drives vm.program to completion, yielding once with the final result
// or error. Kept as a range-over-func iterator (rather than a plain method)
// to match the teacher's `for _, err := range vm.Run { ... }` embedding
// idiom; this engine has exactly one suspension-worthy checkpoint (program
// completion), so a single yield is sufficient.
func (vm *VM) Run(yield func(*Interrupt, error) bool) {
	if vm.program == nil {
		yield(nil, fmt.Errorf("pyvm: no program loaded"))
		return
	}
	result, err := vm.Execute(vm.program)
	if err != nil {
		yield(nil, err)
		return
	}
	yield(&Interrupt{Done: true, Result: result}, nil)
}
