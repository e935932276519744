// Package pye is the embedding façade: construct a Context, Eval source or
// precompiled bytecode against it, and read/write its globals — the surface
// grounded directly on original_source/src/context.rs's Context API shape
// (new/eval/eval_bytecode/register_extension_module/get/set).
package pye

import (
	"github.com/embedpy/pye/pycompile"
	"github.com/embedpy/pye/pylog"
	"github.com/embedpy/pye/pyserialize"
	"github.com/embedpy/pye/pyvm"
)

// Context owns one VM and its globals; every Eval call runs against the
// same global namespace, so definitions and assignments from one Eval are
// visible to the next (§6).
type Context struct {
	vm *pyvm.VM
}

func New() *Context {
	c := &Context{vm: pyvm.NewVM()}
	registerBuiltins(c.vm)
	return c
}

// NewWithMaxCallDepth builds a Context whose call stack is bounded at depth
// rather than the engine default (pyconfig.EngineSettings.MaxRecursionDepth
// feeds this from a host config root).
func NewWithMaxCallDepth(depth int) *Context {
	c := New()
	c.vm.MaxCallDepth = depth
	return c
}

// Eval compiles and runs source text, returning the value of its last
// top-level expression (or None). A returned error carries the faulting
// script's own call-stack path (pylog.WrapCallPath), not just the
// originating span (pylog.WrapSpan) a caller may separately wrap in.
func (c *Context) Eval(source string) (any, error) {
	fn, err := pycompile.CompileSource(source)
	if err != nil {
		return nil, err
	}
	v, err := c.vm.Execute(fn)
	return v, pylog.WrapCallPath(err)
}

// EvalBytecode runs a previously-serialized .pyq image.
func (c *Context) EvalBytecode(data []byte) (any, error) {
	fn, err := pyserialize.Deserialize(data)
	if err != nil {
		return nil, err
	}
	v, err := c.vm.Execute(fn)
	return v, pylog.WrapCallPath(err)
}

// Compile produces a .pyq image from source without running it, the
// counterpart `pye compile` (cmd/pye) drives.
func (c *Context) Compile(source string) ([]byte, error) {
	fn, err := pycompile.CompileSource(source)
	if err != nil {
		return nil, err
	}
	return pyserialize.Serialize(fn)
}

// RegisterExtensionModule installs a host-supplied module factory, resolved
// on the script's next `import name` (§6 embedding API).
func (c *Context) RegisterExtensionModule(name string, factory func() *pyvm.Module) {
	c.vm.RegisterExtensionModule(name, factory)
}

// Get reads a global binding.
func (c *Context) Get(name string) (any, bool) {
	v, ok := c.vm.Globals[name]
	return v, ok
}

// Set installs or overwrites a global binding, visible to subsequent Eval
// calls on this Context.
func (c *Context) Set(name string, value any) {
	c.vm.Globals[name] = value
}
