package pye

import (
	"github.com/embedpy/pye/pymodule"
	"github.com/embedpy/pye/pyvm"
)

func registerBuiltins(vm *pyvm.VM) {
	pymodule.Register(vm)
}
