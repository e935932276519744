package pyvm

import (
	"fmt"
	"strings"
	"time"
)

type runOutcome int

const (
	outcomeReturn runOutcome = iota
	outcomeYield
)

// run is the single dispatch loop (§4.VM "Core loop invariant"): at each
// step the innermost frame's code at its instruction pointer is dispatched.
// A successful instruction advances the pointer (by 1, unless it jumped or
// pushed/popped a frame); a failing instruction raises on the error lane and
// the unwinder (§4.X) walks the block stack, possibly popping frames. The
// loop is never re-entered recursively for Call — a new frame is pushed onto
// the same st.frames slice — so cross-frame exception unwinding stays in one
// place, per the design notes' warning against recursive Call.
func (vm *VM) run(st *execState) (value any, outcome runOutcome, exc *Exception) {
	for {
		if len(st.frames) == 0 {
			if len(st.stack) > 0 {
				return st.pop(), outcomeReturn, nil
			}
			return None{}, outcomeReturn, nil
		}
		f := st.top()
		if f.IP >= len(f.Fn.Code) {
			vm.performReturn(st, None{})
			continue
		}
		inst := f.Fn.Code[f.IP]
		f.IP++

		var fault *Exception

		switch inst.Op() {
		case OpLoadConst:
			st.push(f.Fn.Constants[inst.Arg()])
		case OpLoadNone:
			st.push(None{})
		case OpLoadTrue:
			st.push(true)
		case OpLoadFalse:
			st.push(false)
		case OpPop:
			st.pop()
		case OpDup:
			st.push(st.peek())

		case OpGetLocal:
			st.push(f.Locals[inst.Arg()])
		case OpSetLocal:
			f.Locals[inst.Arg()] = st.pop()
		case OpGetGlobal:
			name := f.Fn.Constants[inst.Arg()].(string)
			v, ok := vm.Globals[name]
			if !ok {
				fault = NewException(RuntimeError, "name '%s' is not defined", name)
				break
			}
			st.push(v)
		case OpSetGlobal:
			name := f.Fn.Constants[inst.Arg()].(string)
			vm.Globals[name] = st.pop()

		case OpAdd:
			b, a := st.pop(), st.pop()
			var r any
			r, fault = Add(a, b)
			if fault == nil {
				st.push(r)
			}
		case OpSub:
			b, a := st.pop(), st.pop()
			var r any
			r, fault = Sub(a, b)
			if fault == nil {
				st.push(r)
			}
		case OpMul:
			b, a := st.pop(), st.pop()
			var r any
			r, fault = Mul(a, b)
			if fault == nil {
				st.push(r)
			}
		case OpDiv:
			b, a := st.pop(), st.pop()
			var r any
			r, fault = Div(a, b)
			if fault == nil {
				st.push(r)
			}
		case OpFloorDiv:
			b, a := st.pop(), st.pop()
			var r any
			r, fault = FloorDiv(a, b)
			if fault == nil {
				st.push(r)
			}
		case OpMod:
			b, a := st.pop(), st.pop()
			var r any
			r, fault = Mod(a, b)
			if fault == nil {
				st.push(r)
			}
		case OpNegate:
			a := st.pop()
			var r any
			r, fault = Negate(a)
			if fault == nil {
				st.push(r)
			}
		case OpNot:
			a := st.pop()
			st.push(!Truthy(a))

		case OpEq:
			b, a := st.pop(), st.pop()
			st.push(Eq(a, b))
		case OpNe:
			b, a := st.pop(), st.pop()
			st.push(!Eq(a, b))
		case OpLt:
			b, a := st.pop(), st.pop()
			var c int
			c, fault = Compare(a, b)
			if fault == nil {
				st.push(c < 0)
			}
		case OpLe:
			b, a := st.pop(), st.pop()
			var c int
			c, fault = Compare(a, b)
			if fault == nil {
				st.push(c <= 0)
			}
		case OpGt:
			b, a := st.pop(), st.pop()
			var c int
			c, fault = Compare(a, b)
			if fault == nil {
				st.push(c > 0)
			}
		case OpGe:
			b, a := st.pop(), st.pop()
			var c int
			c, fault = Compare(a, b)
			if fault == nil {
				st.push(c >= 0)
			}
		case OpIs:
			b, a := st.pop(), st.pop()
			st.push(Identity(a, b))
		case OpIsNot:
			b, a := st.pop(), st.pop()
			st.push(!Identity(a, b))

		case OpJump:
			f.IP = inst.Arg()
		case OpJumpIfFalse:
			v := st.pop()
			if !Truthy(v) {
				f.IP = inst.Arg()
			}
		case OpJumpIfFalseOrPop:
			if !Truthy(st.peek()) {
				f.IP = inst.Arg()
			} else {
				st.pop()
			}
		case OpJumpIfTrueOrPop:
			if Truthy(st.peek()) {
				f.IP = inst.Arg()
			} else {
				st.pop()
			}

		case OpBuildList:
			n := inst.Arg()
			st.push(NewList(st.popN(n)))
		case OpBuildTuple:
			n := inst.Arg()
			st.push(NewTuple(st.popN(n)))
		case OpBuildDict:
			n := inst.Arg()
			kv := st.popN(n * 2)
			d := NewDict()
			for i := 0; i < n; i++ {
				key, val := kv[i*2], kv[i*2+1]
				if !ValidDictKey(key) {
					fault = NewException(TypeError, "unhashable type used as dict key: %s", TypeOf(key).Name)
					break
				}
				d.Set(key, val)
			}
			if fault == nil {
				st.push(d)
			}
		case OpBuildSlice:
			step, stop, start := st.pop(), st.pop(), st.pop()
			st.push(&Slice{Start: toIntPtr(start), Stop: toIntPtr(stop), Step: toIntPtr(step)})
		case OpGetItem:
			idx, obj := st.pop(), st.pop()
			var r any
			r, fault = getItem(obj, idx)
			if fault == nil {
				st.push(r)
			}
		case OpSetItem:
			val, idx, obj := st.pop(), st.pop(), st.pop()
			fault = setItem(obj, idx, val)
		case OpGetItemSlice:
			sliceVal, obj := st.pop(), st.pop()
			var r any
			r, fault = getItemSlice(obj, sliceVal)
			if fault == nil {
				st.push(r)
			}
		case OpSetItemSlice:
			val, sliceVal, obj := st.pop(), st.pop(), st.pop()
			fault = setItemSlice(obj, sliceVal, val)
		case OpContains:
			item, container := st.pop(), st.pop()
			var r bool
			r, fault = containsCheck(container, item)
			if fault == nil {
				st.push(r)
			}
		case OpNotContains:
			item, container := st.pop(), st.pop()
			var r bool
			r, fault = containsCheck(container, item)
			if fault == nil {
				st.push(!r)
			}
		case OpLen:
			v := st.pop()
			var n int64
			n, fault = lengthOf(v)
			if fault == nil {
				st.push(n)
			}

		case OpGetIter:
			v := st.pop()
			var it any
			it, fault = GetIter(v)
			if fault == nil {
				st.push(it)
			}
		case OpForIter:
			it, ok := st.peek().(Iterator)
			if !ok {
				fault = NewException(TypeError, "'%s' object is not an iterator", TypeOf(st.peek()).Name)
				break
			}
			var val any
			var more bool
			val, more, fault = it.Next()
			if fault != nil {
				break
			}
			if !more {
				st.pop()
				f.IP = inst.Arg()
			} else {
				st.push(val)
			}
		case OpUnpackSequence:
			n := inst.Arg()
			v := st.pop()
			var elems []any
			elems, fault = sequenceElems(v)
			if fault != nil {
				break
			}
			if len(elems) != n {
				fault = NewException(ValueError, "expected %d values to unpack, got %d", n, len(elems))
				break
			}
			for i := n - 1; i >= 0; i-- {
				st.push(elems[i])
			}

		case OpMakeFunction:
			st.push(f.Fn.Constants[inst.Arg()])
		case OpCall:
			argc := inst.Arg()
			args := st.popN(argc)
			callee := st.pop()
			fault = vm.doCall(st, callee, args)
		case OpCallMethod:
			nameIdx, argc := inst.Arg2()
			name := f.Fn.Constants[nameIdx].(string)
			args := st.popN(argc)
			receiver := st.pop()
			var r any
			r, fault = vm.callMethod(receiver, name, args)
			if fault == nil {
				st.push(r)
			}
		case OpReturn:
			v := st.pop()
			vm.performReturn(st, v)
		case OpGetAttr:
			name := f.Fn.Constants[inst.Arg()].(string)
			obj := st.pop()
			var r any
			r, fault = getAttr(obj, name)
			if fault == nil {
				st.push(r)
			}
		case OpAwait:
			v := st.pop()
			var r any
			r, fault = vm.doAwait(v)
			if fault == nil {
				st.push(r)
			}
		case OpYield:
			return st.pop(), outcomeYield, nil

		case OpSetupTry:
			f.pushBlock(Block{Kind: BlockTry, HandlerIP: inst.Arg(), StackDepth: len(st.stack)})
		case OpPopTry, OpPopFinally:
			f.popBlock()
		case OpSetupFinally:
			f.pushBlock(Block{Kind: BlockFinally, HandlerIP: inst.Arg(), StackDepth: len(st.stack)})
		case OpEndFinally:
			top := st.pop()
			if excVal, ok := top.(*Exception); ok {
				fault = excVal
			}
		case OpRaise:
			v := st.pop()
			excVal, ok := v.(*Exception)
			if !ok {
				fault = NewException(TypeError, "exceptions must derive from Exception")
			} else {
				fault = excVal
			}
		case OpMakeException:
			kind := ExceptionKind(inst.Arg())
			msg := st.pop()
			st.push(NewException(kind, "%s", Str(msg)))
		case OpGetExceptionType:
			excVal, ok := st.peek().(*Exception)
			if !ok {
				fault = NewException(RuntimeError, "no active exception")
				break
			}
			st.push(int64(excVal.Kind))
		case OpMatchException:
			expected := ExceptionKind(inst.Arg())
			kindVal := st.pop().(int64)
			st.push(ExceptionKind(kindVal).Matches(expected))

		case OpImport:
			name := f.Fn.Constants[inst.Arg()].(string)
			var mod *Module
			mod, fault = vm.resolveImport(name)
			if fault == nil {
				st.push(mod)
			}
		case OpImportFrom:
			moduleIdx, namesIdx := inst.Arg2()
			modName := f.Fn.Constants[moduleIdx].(string)
			names := f.Fn.Constants[namesIdx].([]string)
			var mod *Module
			mod, fault = vm.resolveImport(modName)
			if fault != nil {
				break
			}
			for _, n := range names {
				v, ok := mod.Get(n)
				if !ok {
					fault = NewException(AttributeError, "module '%s' has no attribute '%s'", modName, n)
					break
				}
				st.push(v)
			}

		case OpPrint:
			argc := inst.Arg()
			args := st.popN(argc)
			parts := make([]string, argc)
			for i, a := range args {
				parts[i] = Str(a)
			}
			fmt.Fprintln(vm.stdout(), strings.Join(parts, " "))
		case OpFormatString:
			argc := inst.Arg()
			args := st.popN(argc)
			var sb strings.Builder
			for _, a := range args {
				sb.WriteString(Str(a))
			}
			st.push(sb.String())

		default:
			fault = NewException(RuntimeError, "unknown opcode %d", inst.Op())
		}

		if fault != nil {
			if fault.CallPath == nil {
				fault.CallPath = st.frameNames()
			}
			if !vm.unwind(st, fault) {
				return nil, outcomeReturn, fault
			}
		}
	}
}

func toIntPtr(v any) *int64 {
	if _, ok := v.(None); ok {
		return nil
	}
	i := v.(int64)
	return &i
}

// performReturn pops the current frame and leaves its value on the shared
// value stack for the caller (or as the final result, if no frames remain).
func (vm *VM) performReturn(st *execState, value any) {
	st.frames = st.frames[:len(st.frames)-1]
	st.push(value)
}

// doCall implements Call(argc) per §4.VM's dispatch notes.
func (vm *VM) doCall(st *execState, callee any, args []any) *Exception {
	switch c := callee.(type) {
	case *Function:
		if c.IsAsync {
			st.push(&Coroutine{Fn: c, Args: args})
			return nil
		}
		if c.IsGenerator {
			st.push(NewGenerator(vm, c, args))
			return nil
		}
		if len(args) != len(c.ParamNames) {
			return NewException(TypeError, "%s() takes %d arguments but %d were given", c.Name, len(c.ParamNames), len(args))
		}
		if len(st.frames) >= vm.maxCallDepth() {
			return NewException(RuntimeError, "maximum recursion depth exceeded")
		}
		st.frames = append(st.frames, NewFrame(c, args, len(st.stack)))
		return nil
	case *NativeFunc:
		res, exc := c.Fn(args)
		if exc != nil {
			return exc
		}
		st.push(res)
		return nil
	case *BoundMethod:
		res, exc := vm.callMethod(c.Receiver, c.Method, args)
		if exc != nil {
			return exc
		}
		st.push(res)
		return nil
	default:
		return NewException(TypeError, "'%s' object is not callable", TypeOf(callee).Name)
	}
}

// doAwait implements Await per §4.VM: a coroutine runs synchronously to
// completion in its own isolated execState; an async-sleep marker blocks the
// host thread for the given duration (§5's deliberate simplification).
func (vm *VM) doAwait(v any) (any, *Exception) {
	switch x := v.(type) {
	case *Coroutine:
		if len(x.Args) != len(x.Fn.ParamNames) {
			return nil, NewException(TypeError, "%s() takes %d arguments but %d were given", x.Fn.Name, len(x.Fn.ParamNames), len(x.Args))
		}
		sub := &execState{frames: []*Frame{NewFrame(x.Fn, x.Args, 0)}}
		res, _, exc := vm.run(sub)
		if exc != nil {
			return nil, exc
		}
		return res, nil
	case *AsyncSleep:
		if x.Seconds > 0 {
			time.Sleep(time.Duration(x.Seconds * float64(time.Second)))
		}
		return None{}, nil
	default:
		return nil, NewException(TypeError, "object %s can't be awaited", TypeOf(v).Name)
	}
}

func getAttr(obj any, name string) (any, *Exception) {
	switch x := obj.(type) {
	case *Module:
		v, ok := x.Get(name)
		if !ok {
			return nil, NewException(AttributeError, "module '%s' has no attribute '%s'", x.Name, name)
		}
		return v, nil
	case *List, *Dict, *Tuple, string:
		return &BoundMethod{Receiver: obj, Method: name}, nil
	default:
		return nil, NewException(AttributeError, "'%s' object has no attribute '%s'", TypeOf(obj).Name, name)
	}
}
