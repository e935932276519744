package pymodule

import (
	"github.com/embedpy/pye/pyconfig"
	"github.com/embedpy/pye/pyvm"
)

// newConfigModule exposes pyconfig's CUE loader to scripts: `config.load`
// reads a CUE file and hands it back as an ordinary pyvm value (dict, list,
// or scalar), the script-facing counterpart to the Go-struct decoding
// cmd/pye uses for its own host-side settings.
func newConfigModule() *pyvm.Module {
	m := pyvm.NewModule("config")
	m.Set("load", &pyvm.NativeFunc{Name: "load", Fn: configLoad})
	return m
}

func configLoad(args []any) (any, *pyvm.Exception) {
	if len(args) != 1 {
		return nil, pyvm.NewException(pyvm.TypeError, "load() takes exactly one argument")
	}
	path, ok := args[0].(string)
	if !ok {
		return nil, pyvm.NewException(pyvm.TypeError, "load() expects a string path")
	}

	loader := pyconfig.NewLoader([]string{path}, "")
	v, err := loader.LookupPyValue("")
	if err != nil {
		return nil, pyvm.NewException(pyvm.ValueError, "config.load: %s", err)
	}
	return v, nil
}
