package pymodule

import (
	"regexp"

	"github.com/embedpy/pye/pyvm"
)

// newREModule wires Go's regexp package into the surface supplemented from
// original_source/src/builtins/re.rs: match, search, findall, sub, subn,
// split, compile. Go's RE2 engine is not byte-for-byte compatible with
// Python's re (no backreferences, no lookaround) — acceptable since the
// accepted subset only exercises literal/class/quantifier patterns.
func newREModule() *pyvm.Module {
	m := pyvm.NewModule("re")
	m.Set("match", &pyvm.NativeFunc{Name: "match", Fn: reMatch(true)})
	m.Set("search", &pyvm.NativeFunc{Name: "search", Fn: reMatch(false)})
	m.Set("findall", &pyvm.NativeFunc{Name: "findall", Fn: reFindall})
	m.Set("sub", &pyvm.NativeFunc{Name: "sub", Fn: reSub})
	m.Set("subn", &pyvm.NativeFunc{Name: "subn", Fn: reSubn})
	m.Set("split", &pyvm.NativeFunc{Name: "split", Fn: reSplit})
	m.Set("compile", &pyvm.NativeFunc{Name: "compile", Fn: reCompile})
	return m
}

func compilePattern(name string, args []any, want int) (*regexp.Regexp, []any, *pyvm.Exception) {
	if len(args) < want {
		return nil, nil, pyvm.NewException(pyvm.TypeError, "%s() requires %d arguments: pattern missing", name, want)
	}
	pat, ok := args[0].(string)
	if !ok {
		return nil, nil, pyvm.NewException(pyvm.TypeError, "%s() pattern must be a string", name)
	}
	re, err := regexp.Compile(pat)
	if err != nil {
		return nil, nil, pyvm.NewException(pyvm.ValueError, "invalid regular expression: %s", err)
	}
	return re, args[1:], nil
}

func reMatch(anchored bool) func([]any) (any, *pyvm.Exception) {
	return func(args []any) (any, *pyvm.Exception) {
		re, rest, exc := compilePattern("match", args, 2)
		if exc != nil {
			return nil, exc
		}
		s, ok := rest[0].(string)
		if !ok {
			return nil, pyvm.NewException(pyvm.TypeError, "match() argument must be a string")
		}
		loc := re.FindStringIndex(s)
		if loc == nil || (anchored && loc[0] != 0) {
			return pyvm.None{}, nil
		}
		return s[loc[0]:loc[1]], nil
	}
}

func reFindall(args []any) (any, *pyvm.Exception) {
	re, rest, exc := compilePattern("findall", args, 2)
	if exc != nil {
		return nil, exc
	}
	s, ok := rest[0].(string)
	if !ok {
		return nil, pyvm.NewException(pyvm.TypeError, "findall() argument must be a string")
	}
	matches := re.FindAllString(s, -1)
	out := make([]any, len(matches))
	for i, m := range matches {
		out[i] = m
	}
	return pyvm.NewList(out), nil
}

func reSub(args []any) (any, *pyvm.Exception) {
	result, _, exc := doSub(args, "sub")
	if exc != nil {
		return nil, exc
	}
	return result, nil
}

func reSubn(args []any) (any, *pyvm.Exception) {
	result, n, exc := doSub(args, "subn")
	if exc != nil {
		return nil, exc
	}
	return pyvm.NewTuple([]any{result, int64(n)}), nil
}

func doSub(args []any, name string) (string, int, *pyvm.Exception) {
	if len(args) != 3 {
		return "", 0, pyvm.NewException(pyvm.TypeError, "%s() requires 3 arguments: pattern, repl, string", name)
	}
	pat, ok1 := args[0].(string)
	repl, ok2 := args[1].(string)
	s, ok3 := args[2].(string)
	if !ok1 || !ok2 || !ok3 {
		return "", 0, pyvm.NewException(pyvm.TypeError, "%s() arguments must be strings", name)
	}
	re, err := regexp.Compile(pat)
	if err != nil {
		return "", 0, pyvm.NewException(pyvm.ValueError, "invalid regular expression: %s", err)
	}
	n := len(re.FindAllString(s, -1))
	return re.ReplaceAllString(s, repl), n, nil
}

func reSplit(args []any) (any, *pyvm.Exception) {
	re, rest, exc := compilePattern("split", args, 2)
	if exc != nil {
		return nil, exc
	}
	s, ok := rest[0].(string)
	if !ok {
		return nil, pyvm.NewException(pyvm.TypeError, "split() argument must be a string")
	}
	parts := re.Split(s, -1)
	out := make([]any, len(parts))
	for i, p := range parts {
		out[i] = p
	}
	return pyvm.NewList(out), nil
}

// reCompile returns a module-like object exposing the same match/search/
// findall surface pre-bound to one pattern, mirroring Python's re.Pattern.
func reCompile(args []any) (any, *pyvm.Exception) {
	if len(args) != 1 {
		return nil, pyvm.NewException(pyvm.TypeError, "compile() takes exactly one argument (%d given)", len(args))
	}
	pat, ok := args[0].(string)
	if !ok {
		return nil, pyvm.NewException(pyvm.TypeError, "compile() argument must be a string")
	}
	re, err := regexp.Compile(pat)
	if err != nil {
		return nil, pyvm.NewException(pyvm.ValueError, "invalid regular expression: %s", err)
	}
	_ = re
	mod := pyvm.NewModule("re.Pattern")
	mod.Set("match", &pyvm.NativeFunc{Name: "match", Fn: func(a []any) (any, *pyvm.Exception) {
		return reMatch(true)(append([]any{pat}, a...))
	}})
	mod.Set("search", &pyvm.NativeFunc{Name: "search", Fn: func(a []any) (any, *pyvm.Exception) {
		return reMatch(false)(append([]any{pat}, a...))
	}})
	mod.Set("findall", &pyvm.NativeFunc{Name: "findall", Fn: func(a []any) (any, *pyvm.Exception) {
		return reFindall(append([]any{pat}, a...))
	}})
	return mod, nil
}
