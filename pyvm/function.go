package pyvm

// Function is a compiled function record: name, parameter names, its own
// instruction vector and constants, and the async/generator flags the
// compiler sets from `async def` / the presence of `yield`. Cheap to clone:
// the instruction vector and constants are shared by reference, matching the
// "Function: cheap to clone (instruction block shared)" invariant in §3.
type Function struct {
	Name        string
	ParamNames  []string
	Code        []OpCode
	Constants   []any
	NumLocals   int
	IsAsync     bool
	IsGenerator bool
}

// NativeFunc is a host-supplied callable: args -> (result, *Exception).
// Grounded on the reference implementation's `fn(Vec<Value>) -> Result<Value,
// Value>` native function signature (§6).
type NativeFunc struct {
	Name string
	Fn   func(args []any) (any, *Exception)
}

// Module is a shared, interior-mutable name-to-value table plus its own name.
type Module struct {
	Name  string
	Attrs map[string]any
}

func NewModule(name string) *Module {
	return &Module{Name: name, Attrs: make(map[string]any)}
}

func (m *Module) Get(name string) (any, bool) {
	v, ok := m.Attrs[name]
	return v, ok
}

func (m *Module) Set(name string, v any) {
	m.Attrs[name] = v
}

// BoundMethod is produced by attribute lookup on a container and consumed on
// the next Call: {receiver, method-name}.
type BoundMethod struct {
	Receiver any
	Method   string
}

// Slice is {start?, stop?, step?} of integers/absent, built by BuildSlice and
// consumed by GetItemSlice/SetItemSlice.
type Slice struct {
	Start, Stop, Step *int64
}

// Coroutine is produced by calling an async function without awaiting:
// {function, captured args}.
type Coroutine struct {
	Fn   *Function
	Args []any
}

// AsyncSleep is the marker value asyncio.sleep(seconds) returns; honored
// specifically by the Await instruction (§4.VM, supplemented from
// original_source/src/builtins/asyncio.rs — see SPEC_FULL.md).
type AsyncSleep struct {
	Seconds float64
}

// TypeValue is a first-class representative of a value kind, used only by
// isinstance().
type TypeValue struct {
	Name string
}

var (
	TypeInt      = &TypeValue{"int"}
	TypeFloat    = &TypeValue{"float"}
	TypeBool     = &TypeValue{"bool"}
	TypeString   = &TypeValue{"str"}
	TypeList     = &TypeValue{"list"}
	TypeDict     = &TypeValue{"dict"}
	TypeTuple    = &TypeValue{"tuple"}
	TypeNone     = &TypeValue{"NoneType"}
	TypeFunction = &TypeValue{"function"}
	TypeModule   = &TypeValue{"module"}
)

// TypeOf returns the first-class type representative of v.
func TypeOf(v any) *TypeValue {
	switch v.(type) {
	case int64:
		return TypeInt
	case float64:
		return TypeFloat
	case bool:
		return TypeBool
	case string:
		return TypeString
	case *List:
		return TypeList
	case *Dict:
		return TypeDict
	case *Tuple:
		return TypeTuple
	case None:
		return TypeNone
	case *Function, *NativeFunc:
		return TypeFunction
	case *Module:
		return TypeModule
	default:
		return &TypeValue{"object"}
	}
}
