package pyvm

import "fmt"

// ExceptionKind is the closed taxonomy of engine-produced exception kinds,
// supplemented from the reference implementation's ExceptionType enum
// (including its pseudo-top Exception/matches hierarchy).
type ExceptionKind int

const (
	ExceptionBase ExceptionKind = iota // pseudo-top: matches every kind
	RuntimeError
	IndexError
	KeyError
	ValueError
	TypeError
	ZeroDivisionError
	IterationViolationError
	OSError
	AttributeError
	ImportError
	IOError
)

var exceptionKindNames = map[ExceptionKind]string{
	ExceptionBase:           "Exception",
	RuntimeError:            "RuntimeError",
	IndexError:              "IndexError",
	KeyError:                "KeyError",
	ValueError:              "ValueError",
	TypeError:               "TypeError",
	ZeroDivisionError:       "ZeroDivisionError",
	IterationViolationError: "IterationViolationError",
	OSError:                 "OSError",
	AttributeError:          "AttributeError",
	ImportError:             "ImportError",
	IOError:                 "IOError",
}

func (k ExceptionKind) String() string {
	if name, ok := exceptionKindNames[k]; ok {
		return name
	}
	return "Exception"
}

// Matches reports whether k satisfies an `except expected` clause: the
// pseudo-top kind matches everything, otherwise kinds must be identical.
func (k ExceptionKind) Matches(expected ExceptionKind) bool {
	if expected == ExceptionBase {
		return true
	}
	return k == expected
}

// Exception is the value carried on both the error lane (a failing
// instruction's Go-level return) and the value lane (pushed by the unwinder
// for a handler to inspect) — never confused, per the data model invariant.
type Exception struct {
	Kind    ExceptionKind
	Message string

	// CallPath is the function-name call stack (outermost first) active when
	// this exception faulted, snapshotted before unwind() starts popping
	// frames looking for a handler. It is diagnostic only — never compared by
	// Equal, since two exceptions raised from different call sites are still
	// the same exception for matching/equality purposes.
	CallPath []string
}

func NewException(kind ExceptionKind, format string, args ...any) *Exception {
	return &Exception{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Error satisfies the Go error interface so an *Exception can also travel as
// a plain Go error where host-level plumbing expects one (e.g. Context.Eval's
// return), printed in the "Kind: message" form spec §7 requires.
func (e *Exception) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Exception) Equal(o *Exception) bool {
	return e.Kind == o.Kind && e.Message == o.Message
}
