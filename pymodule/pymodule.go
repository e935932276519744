// Package pymodule supplies the concrete builtin module factories — json,
// os, re, starlark, asyncio, config — that pyvm's registry mechanism
// (pyvm.RegisterBuiltinModule) resolves on `import`. The registry itself
// lives in pyvm; this package only supplies what gets registered into it,
// grounded on original_source/src/builtins/{os,re,json,asyncio}.rs's module
// surface (asyncio's single `sleep` function only builds the AsyncSleep
// marker; honoring it is left to the VM's Await instruction). `config` has no original_source
// counterpart — it is this repo's own host-configuration surface
// (pyconfig), exposed to scripts rather than only to cmd/pye.
package pymodule

import "github.com/embedpy/pye/pyvm"

// Register installs every builtin module this engine ships with onto vm.
func Register(vm *pyvm.VM) {
	vm.RegisterBuiltinModule("json", newJSONModule)
	vm.RegisterBuiltinModule("os", newOSModule)
	vm.RegisterBuiltinModule("re", newREModule)
	vm.RegisterBuiltinModule("starlark", newStarlarkModule)
	vm.RegisterBuiltinModule("asyncio", newAsyncioModule)
	vm.RegisterBuiltinModule("config", newConfigModule)
}
