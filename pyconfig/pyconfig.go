// Package pyconfig is the host-side configuration loader: a thin CUE
// wrapper that reads one or more config roots and validates them against an
// optional schema. Adapted from reusee-tai/configs/loader.go, minus its
// dscope-based Configurable wiring (see DESIGN.md) — construction here is a
// plain NewLoader call rather than an injected Module method. Unlike the
// teacher's loader, which only ever decodes into a caller-supplied Go type,
// this package also speaks pyvm's own value model directly: ToPyValue (and
// Loader.LookupPyValue) convert a resolved CUE value into
// None/bool/int64/float64/string/*pyvm.List/*pyvm.Dict, which is what lets
// pymodule's "config" builtin hand a whole config root to a running script
// as an ordinary value instead of requiring a matching Go struct per root.
package pyconfig

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/embedpy/pye/pyvm"
)

// ErrValueNotFound is returned by AssignFirst (and surfaced through First)
// when none of a Loader's roots define the requested path.
var ErrValueNotFound = errors.New("pyconfig: value not found")

// Loader reads a set of CUE files lazily (on first use) and memoizes the
// parsed+validated roots for the lifetime of the Loader value.
type Loader struct {
	getRoots func() ([]rootInfo, error)
}

type rootInfo struct {
	value cue.Value
	path  string
}

// NewLoader builds a Loader over filePaths, validating every root against
// schemaSrc (a CUE struct body, e.g. "maxRecursionDepth?: int"). An empty
// schemaSrc skips validation.
func NewLoader(filePaths []string, schemaSrc string) Loader {
	return Loader{
		getRoots: sync.OnceValues(func() (ret []rootInfo, err error) {
			var schema cue.Value
			if schemaSrc != "" {
				ctx := cuecontext.New()
				schema = ctx.CompileString("close({" + schemaSrc + "})")
				if err := schema.Err(); err != nil {
					return nil, err
				}
			}

			for _, filePath := range filePaths {
				content, err := os.ReadFile(filePath)
				if err != nil {
					return nil, err
				}

				ctx := cuecontext.New()
				value := ctx.CompileBytes(content, cue.Filename(filePath))
				if err := value.Err(); err != nil {
					return nil, err
				}

				if schema.Exists() {
					if err := schema.Unify(value).Validate(); err != nil {
						return nil, err
					}
				}

				ret = append(ret, rootInfo{value: value, path: filePath})
			}

			return
		}),
	}
}

// IterCueValues yields the value at path from every root that defines it,
// in root order — use this to merge a setting (e.g. module search paths)
// across several config files instead of taking only the first match.
func (l Loader) IterCueValues(path string) iter.Seq2[*cue.Value, error] {
	return func(yield func(*cue.Value, error) bool) {
		roots, err := l.getRoots()
		if err != nil {
			yield(nil, err)
			return
		}

		cuePath := cue.ParsePath(path)
		for _, info := range roots {
			value := info.value.LookupPath(cuePath)
			if err := value.Err(); err == nil {
				if !yield(&value, nil) {
					break
				}
			}
		}
	}
}

// AssignFirst decodes the first root that defines path into target,
// returning ErrValueNotFound if no root does.
func (l Loader) AssignFirst(path string, target any) error {
	roots, err := l.getRoots()
	if err != nil {
		return err
	}

	cuePath := cue.ParsePath(path)
	for _, info := range roots {
		value := info.value.LookupPath(cuePath)
		if err := value.Err(); err == nil {
			if err := value.Decode(target); err != nil {
				return err
			}
			return nil
		}
	}

	return ErrValueNotFound
}

// ToPyValue converts a resolved CUE value into this engine's own value
// model (pyvm.None{}/bool/int64/float64/string/*pyvm.List/*pyvm.Dict),
// recursing into lists and structs, instead of decoding into a host-side Go
// type the way AssignFirst/First/All do. pymodule's "config" builtin is what
// actually hands a host config root to a running script this way, so a
// script can read `config.load("settings.cue")` as an ordinary dict rather
// than needing a matching Go struct baked into cmd/pye.
func ToPyValue(v cue.Value) (any, error) {
	switch v.Kind() {
	case cue.NullKind:
		return pyvm.None{}, nil
	case cue.BoolKind:
		return v.Bool()
	case cue.IntKind:
		return v.Int64()
	case cue.FloatKind, cue.NumberKind:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		return v.Float64()
	case cue.StringKind:
		return v.String()
	case cue.ListKind:
		it, err := v.List()
		if err != nil {
			return nil, err
		}
		var elems []any
		for it.Next() {
			elem, err := ToPyValue(it.Value())
			if err != nil {
				return nil, err
			}
			elems = append(elems, elem)
		}
		return pyvm.NewList(elems), nil
	case cue.StructKind:
		it, err := v.Fields()
		if err != nil {
			return nil, err
		}
		d := pyvm.NewDict()
		for it.Next() {
			val, err := ToPyValue(it.Value())
			if err != nil {
				return nil, err
			}
			d.Set(it.Selector().String(), val)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("pyconfig: unsupported CUE kind %v for script value conversion", v.Kind())
	}
}

// LookupPyValue resolves path against the first root that defines it (like
// AssignFirst) and converts the result with ToPyValue, so callers that want
// to hand a config value straight to a pyvm script never need a matching Go
// struct for it.
func (l Loader) LookupPyValue(path string) (any, error) {
	roots, err := l.getRoots()
	if err != nil {
		return nil, err
	}

	cuePath := cue.ParsePath(path)
	for _, info := range roots {
		value := info.value.LookupPath(cuePath)
		if err := value.Err(); err == nil {
			return ToPyValue(value)
		}
	}

	return nil, ErrValueNotFound
}

// First decodes the first root defining path, or returns the zero value of
// T if no root does.
func First[T any](loader Loader, path string) T {
	var value T
	if err := loader.AssignFirst(path, &value); err != nil {
		if errors.Is(err, ErrValueNotFound) {
			return value
		}
		panic(err)
	}
	return value
}

// All decodes path from every root that defines it, in root order.
func All[T any](loader Loader, path string) iter.Seq[T] {
	return func(yield func(T) bool) {
		for value, err := range loader.IterCueValues(path) {
			if err != nil {
				panic(err)
			}
			var v T
			if err := value.Decode(&v); err != nil {
				panic(err)
			}
			if !yield(v) {
				break
			}
		}
	}
}

// EngineSettings is the schema cmd/pye loads its config roots against: the
// host-side knobs that shape a pye.Context without changing script
// semantics (the recursion ceiling pyvm's call op enforces, default log
// level). ModuleSearchPaths is loaded and validated but cmd/pye does not
// apply it; imports resolve only through the VM's module registry.
type EngineSettings struct {
	ModuleSearchPaths []string `json:"modulePaths"`
	MaxRecursionDepth int      `json:"maxRecursionDepth"`
	LogLevel          string   `json:"logLevel"`
}

const engineSchema = `
modulePaths?: [...string]
maxRecursionDepth?: int
logLevel?: string
`

// LoadEngineSettings reads and validates EngineSettings from filePaths,
// defaulting MaxRecursionDepth when no root sets it.
func LoadEngineSettings(filePaths []string) (EngineSettings, error) {
	loader := NewLoader(filePaths, engineSchema)
	var s EngineSettings
	if err := loader.AssignFirst("", &s); err != nil && !errors.Is(err, ErrValueNotFound) {
		return s, err
	}
	if s.MaxRecursionDepth == 0 {
		s.MaxRecursionDepth = 1000
	}
	return s, nil
}
