package pymodule

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/embedpy/pye/pyvm"
)

// newOSModule wires os/path-filepath into the surface supplemented from
// original_source/src/builtins/os.rs: listdir, mkdir, makedirs, remove,
// rmdir, rename, getcwd, chdir, getenv, an `environ` dict, a `name` string,
// and an `os.path` submodule.
func newOSModule() *pyvm.Module {
	m := pyvm.NewModule("os")
	m.Set("listdir", &pyvm.NativeFunc{Name: "listdir", Fn: osListdir})
	m.Set("mkdir", &pyvm.NativeFunc{Name: "mkdir", Fn: wrapPathOp("mkdir", func(p string) error { return os.Mkdir(p, 0o755) })})
	m.Set("makedirs", &pyvm.NativeFunc{Name: "makedirs", Fn: wrapPathOp("makedirs", func(p string) error { return os.MkdirAll(p, 0o755) })})
	m.Set("remove", &pyvm.NativeFunc{Name: "remove", Fn: wrapPathOp("remove", os.Remove)})
	m.Set("rmdir", &pyvm.NativeFunc{Name: "rmdir", Fn: wrapPathOp("rmdir", os.Remove)})
	m.Set("rename", &pyvm.NativeFunc{Name: "rename", Fn: osRename})
	m.Set("getcwd", &pyvm.NativeFunc{Name: "getcwd", Fn: func(args []any) (any, *pyvm.Exception) {
		if len(args) != 0 {
			return nil, pyvm.NewException(pyvm.TypeError, "getcwd() takes no arguments")
		}
		wd, err := os.Getwd()
		if err != nil {
			return nil, pyvm.NewException(pyvm.OSError, "%s", err)
		}
		return wd, nil
	}})
	m.Set("chdir", &pyvm.NativeFunc{Name: "chdir", Fn: wrapPathOp("chdir", os.Chdir)})
	m.Set("getenv", &pyvm.NativeFunc{Name: "getenv", Fn: osGetenv})

	environ := pyvm.NewDict()
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			environ.Set(parts[0], parts[1])
		}
	}
	m.Set("environ", environ)
	if os.PathSeparator == '\\' {
		m.Set("name", "nt")
	} else {
		m.Set("name", "posix")
	}
	m.Set("path", newOSPathModule())
	return m
}

func wrapPathOp(name string, op func(string) error) func([]any) (any, *pyvm.Exception) {
	return func(args []any) (any, *pyvm.Exception) {
		if len(args) != 1 {
			return nil, pyvm.NewException(pyvm.TypeError, "%s() takes exactly one argument (%d given)", name, len(args))
		}
		p, ok := args[0].(string)
		if !ok {
			return nil, pyvm.NewException(pyvm.TypeError, "%s() argument must be a string", name)
		}
		if err := op(p); err != nil {
			return nil, pyvm.NewException(pyvm.OSError, "%s", err)
		}
		return pyvm.None{}, nil
	}
}

func osListdir(args []any) (any, *pyvm.Exception) {
	dir := "."
	if len(args) == 1 {
		p, ok := args[0].(string)
		if !ok {
			return nil, pyvm.NewException(pyvm.TypeError, "listdir() argument must be a string")
		}
		dir = p
	} else if len(args) > 1 {
		return nil, pyvm.NewException(pyvm.TypeError, "listdir() takes 0 or 1 arguments (%d given)", len(args))
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, pyvm.NewException(pyvm.OSError, "%s", err)
	}
	out := make([]any, len(entries))
	for i, e := range entries {
		out[i] = e.Name()
	}
	return pyvm.NewList(out), nil
}

func osRename(args []any) (any, *pyvm.Exception) {
	if len(args) != 2 {
		return nil, pyvm.NewException(pyvm.TypeError, "rename() requires 2 arguments (%d given)", len(args))
	}
	src, ok1 := args[0].(string)
	dst, ok2 := args[1].(string)
	if !ok1 || !ok2 {
		return nil, pyvm.NewException(pyvm.TypeError, "rename() arguments must be strings")
	}
	if err := os.Rename(src, dst); err != nil {
		return nil, pyvm.NewException(pyvm.OSError, "%s", err)
	}
	return pyvm.None{}, nil
}

func osGetenv(args []any) (any, *pyvm.Exception) {
	if len(args) < 1 || len(args) > 2 {
		return nil, pyvm.NewException(pyvm.TypeError, "getenv() takes 1 or 2 arguments (%d given)", len(args))
	}
	name, ok := args[0].(string)
	if !ok {
		return nil, pyvm.NewException(pyvm.TypeError, "getenv() argument must be a string")
	}
	if v, ok := os.LookupEnv(name); ok {
		return v, nil
	}
	if len(args) == 2 {
		return args[1], nil
	}
	return pyvm.None{}, nil
}

func newOSPathModule() *pyvm.Module {
	m := pyvm.NewModule("os.path")
	m.Set("exists", &pyvm.NativeFunc{Name: "exists", Fn: pathPredicate(func(p string) bool {
		_, err := os.Stat(p)
		return err == nil
	})})
	m.Set("isfile", &pyvm.NativeFunc{Name: "isfile", Fn: pathPredicate(func(p string) bool {
		info, err := os.Stat(p)
		return err == nil && !info.IsDir()
	})})
	m.Set("isdir", &pyvm.NativeFunc{Name: "isdir", Fn: pathPredicate(func(p string) bool {
		info, err := os.Stat(p)
		return err == nil && info.IsDir()
	})})
	m.Set("join", &pyvm.NativeFunc{Name: "join", Fn: func(args []any) (any, *pyvm.Exception) {
		parts := make([]string, len(args))
		for i, a := range args {
			s, ok := a.(string)
			if !ok {
				return nil, pyvm.NewException(pyvm.TypeError, "join() arguments must be strings")
			}
			parts[i] = s
		}
		return filepath.Join(parts...), nil
	}})
	m.Set("basename", &pyvm.NativeFunc{Name: "basename", Fn: pathTransform(filepath.Base)})
	m.Set("dirname", &pyvm.NativeFunc{Name: "dirname", Fn: pathTransform(filepath.Dir)})
	m.Set("abspath", &pyvm.NativeFunc{Name: "abspath", Fn: func(args []any) (any, *pyvm.Exception) {
		p, e := singlePathArg("abspath", args)
		if e != nil {
			return nil, e
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, pyvm.NewException(pyvm.OSError, "%s", err)
		}
		return abs, nil
	}})
	return m
}

func singlePathArg(name string, args []any) (string, *pyvm.Exception) {
	if len(args) != 1 {
		return "", pyvm.NewException(pyvm.TypeError, "%s() takes exactly one argument (%d given)", name, len(args))
	}
	p, ok := args[0].(string)
	if !ok {
		return "", pyvm.NewException(pyvm.TypeError, "%s() argument must be a string", name)
	}
	return p, nil
}

func pathPredicate(pred func(string) bool) func([]any) (any, *pyvm.Exception) {
	return func(args []any) (any, *pyvm.Exception) {
		p, e := singlePathArg("path predicate", args)
		if e != nil {
			return nil, e
		}
		return pred(p), nil
	}
}

func pathTransform(f func(string) string) func([]any) (any, *pyvm.Exception) {
	return func(args []any) (any, *pyvm.Exception) {
		p, e := singlePathArg("path transform", args)
		if e != nil {
			return nil, e
		}
		return f(p), nil
	}
}
