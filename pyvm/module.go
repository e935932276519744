package pyvm

// resolveImport implements §4.M's resolution order: loaded cache, then
// builtins, then extensions, otherwise an import error. A resolved module is
// cached in Loaded so re-importing a name always returns the same value
// (§8 "Import caching": two `import M` yield the same module, `is`).
func (vm *VM) resolveImport(name string) (*Module, *Exception) {
	if mod, ok := vm.Loaded[name]; ok {
		return mod, nil
	}
	if factory, ok := vm.Builtins[name]; ok {
		mod := factory()
		vm.Loaded[name] = mod
		return mod, nil
	}
	if factory, ok := vm.Extensions[name]; ok {
		mod := factory()
		vm.Loaded[name] = mod
		return mod, nil
	}
	return nil, NewException(ImportError, "no module named '%s'", name)
}

// RegisterExtensionModule installs a factory called on first `import name`
// (§6 embedding API).
func (vm *VM) RegisterExtensionModule(name string, factory ModuleFactory) {
	vm.Extensions[name] = factory
}

// RegisterBuiltinModule installs a module that resolves ahead of any
// extension of the same name (used by pymodule to wire json/os/re/starlark).
func (vm *VM) RegisterBuiltinModule(name string, factory ModuleFactory) {
	vm.Builtins[name] = factory
}
