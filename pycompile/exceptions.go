package pycompile

import "github.com/embedpy/pye/pyvm"

// exceptionKinds maps the class names this subset's raise/except clauses
// name to the engine's closed ExceptionKind taxonomy (§4.C, supplemented
// from original_source/'s ExceptionType names).
var exceptionKinds = map[string]pyvm.ExceptionKind{
	"Exception":               pyvm.ExceptionBase,
	"RuntimeError":            pyvm.RuntimeError,
	"IndexError":              pyvm.IndexError,
	"KeyError":                pyvm.KeyError,
	"ValueError":              pyvm.ValueError,
	"TypeError":               pyvm.TypeError,
	"ZeroDivisionError":       pyvm.ZeroDivisionError,
	"IterationViolationError": pyvm.IterationViolationError,
	"OSError":                 pyvm.OSError,
	"AttributeError":          pyvm.AttributeError,
	"ImportError":             pyvm.ImportError,
	"IOError":                 pyvm.IOError,
}
