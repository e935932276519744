// Package pycompile lowers a pysyntax AST into a pyvm.Function: the single
// compile pass described in §4.C — scope resolution (local-vs-global per
// function, no enclosing-local capture), desugaring of augmented assignment,
// short-circuit boolean operators, comprehensions, f-strings, and slicing,
// and jump-patching for all control flow.
package pycompile

import (
	"fmt"

	"github.com/embedpy/pye/pysyntax"
	"github.com/embedpy/pye/pyvm"
)

// loopCtx tracks the patch points for one enclosing loop's break/continue.
type loopCtx struct {
	continueTarget int
	breakPatches   []int
	blockDepth     int // len(fs.openBlocks) when this loop was entered
}

// openBlock mirrors one entry of pyvm's runtime block stack at compile time,
// so break/continue can discharge exactly the Try/Finally blocks they jump
// out of — the same bookkeeping compileTry/compileTryExcept perform on their
// own normal exit paths — instead of leaving them dangling on Frame.Blocks.
type openBlock struct {
	kind    pyvm.BlockKind
	finally []pysyntax.Stmt // non-nil only for BlockFinally
}

// fnScope is the compiler state for one function body (or the top-level
// module, which is compiled as an ordinary function with isModule set).
type fnScope struct {
	name       string
	isModule   bool
	code       []pyvm.OpCode
	consts     []any
	constIdx   map[any]int
	locals     map[string]int
	numLocals  int
	loops      []loopCtx
	excTemps   []int // current-exception temp slot per enclosing except handler
	openBlocks []openBlock
}

func newFnScope(name string, isModule bool) *fnScope {
	return &fnScope{
		name:     name,
		isModule: isModule,
		constIdx: make(map[any]int),
		locals:   make(map[string]int),
	}
}

func (fs *fnScope) emit(op pyvm.OpCode) int {
	fs.code = append(fs.code, op)
	return len(fs.code) - 1
}

// patch overwrites a previously emitted placeholder with its real jump
// target, preserving the opcode tag.
func (fs *fnScope) patch(idx int, target int) {
	fs.code[idx] = fs.code[idx].Op().With(target)
}

func (fs *fnScope) patch2(idx int, a, b int) {
	fs.code[idx] = fs.code[idx].Op().With2(a, b)
}

// addConst interns comparable constants (numbers, strings, bools) so
// repeated literals/names share one slot; non-comparable constants (nested
// *pyvm.Function values, []string name lists) are always appended fresh.
func (fs *fnScope) addConst(v any) int {
	switch v.(type) {
	case int64, float64, string, bool:
		if i, ok := fs.constIdx[v]; ok {
			return i
		}
		fs.consts = append(fs.consts, v)
		i := len(fs.consts) - 1
		fs.constIdx[v] = i
		return i
	default:
		fs.consts = append(fs.consts, v)
		return len(fs.consts) - 1
	}
}

func (fs *fnScope) localSlot(name string) int {
	if slot, ok := fs.locals[name]; ok {
		return slot
	}
	slot := fs.numLocals
	fs.numLocals++
	fs.locals[name] = slot
	return slot
}

// newTemp allocates a compiler-internal local slot not tied to any source
// name — used to hold intermediate values (assignment RHS, loop
// accumulators, the in-flight exception) without colliding with user names.
func (fs *fnScope) newTemp() int {
	slot := fs.numLocals
	fs.numLocals++
	return slot
}

func (fs *fnScope) storeName(name string) {
	if fs.isModule {
		fs.emit(pyvm.OpSetGlobal.With(fs.addConst(name)))
		return
	}
	fs.emit(pyvm.OpSetLocal.With(fs.localSlot(name)))
}

func (fs *fnScope) loadName(name string) {
	if !fs.isModule {
		if slot, ok := fs.locals[name]; ok {
			fs.emit(pyvm.OpGetLocal.With(slot))
			return
		}
	}
	fs.emit(pyvm.OpGetGlobal.With(fs.addConst(name)))
}

func (fs *fnScope) toFunction(params []string, isAsync, isGenerator bool) *pyvm.Function {
	return &pyvm.Function{
		Name:        fs.name,
		ParamNames:  params,
		Code:        fs.code,
		Constants:   fs.consts,
		NumLocals:   fs.numLocals,
		IsAsync:     isAsync,
		IsGenerator: isGenerator,
	}
}

// Compile lowers a full module's statement list into its top-level
// *pyvm.Function, the form VM.Load/Execute run directly. Mirroring
// original_source/src/compiler.rs's Compiler::compile, the final statement
// is special-cased: if it is a bare expression its value is left on the
// stack (no trailing Pop) and becomes the program's result, rather than
// every module always evaluating to None.
func Compile(stmts []pysyntax.Stmt) (*pyvm.Function, error) {
	fs := newFnScope("<module>", true)

	body, last := stmts, pysyntax.Stmt(nil)
	if n := len(stmts); n > 0 {
		body, last = stmts[:n-1], stmts[n-1]
	}
	if err := compileStmts(body, fs); err != nil {
		return nil, err
	}

	if exprStmt, ok := last.(*pysyntax.ExprStmt); ok {
		if err := compileExpr(exprStmt.X, fs); err != nil {
			return nil, err
		}
	} else {
		if last != nil {
			if err := compileStmt(last, fs); err != nil {
				return nil, err
			}
		}
		fs.emit(pyvm.OpLoadNone)
	}
	fs.emit(pyvm.OpReturn)
	return fs.toFunction(nil, false, false), nil
}

// CompileSource is the token-to-bytecode convenience entry point used by
// pye.Context.Eval.
func CompileSource(src string) (*pyvm.Function, error) {
	stmts, err := pysyntax.Parse(src)
	if err != nil {
		return nil, err
	}
	return Compile(stmts)
}

func compileStmts(stmts []pysyntax.Stmt, fs *fnScope) error {
	for _, st := range stmts {
		if err := compileStmt(st, fs); err != nil {
			return err
		}
	}
	return nil
}

func compileStmt(st pysyntax.Stmt, fs *fnScope) error {
	switch s := st.(type) {
	case *pysyntax.ExprStmt:
		if err := compileExpr(s.X, fs); err != nil {
			return err
		}
		fs.emit(pyvm.OpPop)
		return nil

	case *pysyntax.AssignStmt:
		return compileAssign(s, fs)

	case *pysyntax.AugAssignStmt:
		return compileAugAssign(s, fs)

	case *pysyntax.IfStmt:
		return compileIf(s, fs)

	case *pysyntax.WhileStmt:
		return compileWhile(s, fs)

	case *pysyntax.ForStmt:
		return compileFor(s, fs)

	case *pysyntax.BreakStmt:
		if len(fs.loops) == 0 {
			return fmt.Errorf("'break' outside loop")
		}
		top := len(fs.loops) - 1
		if err := emitBlockUnwind(fs, fs.loops[top].blockDepth); err != nil {
			return err
		}
		idx := fs.emit(pyvm.OpJump.With(0))
		fs.loops[top].breakPatches = append(fs.loops[top].breakPatches, idx)
		return nil

	case *pysyntax.ContinueStmt:
		if len(fs.loops) == 0 {
			return fmt.Errorf("'continue' outside loop")
		}
		top := len(fs.loops) - 1
		if err := emitBlockUnwind(fs, fs.loops[top].blockDepth); err != nil {
			return err
		}
		fs.emit(pyvm.OpJump.With(fs.loops[top].continueTarget))
		return nil

	case *pysyntax.PassStmt:
		return nil

	case *pysyntax.FuncDef:
		return compileFuncDef(s, fs)

	case *pysyntax.ReturnStmt:
		if s.Value != nil {
			if err := compileExpr(s.Value, fs); err != nil {
				return err
			}
		} else {
			fs.emit(pyvm.OpLoadNone)
		}
		fs.emit(pyvm.OpReturn)
		return nil

	case *pysyntax.YieldStmt:
		if err := compileExpr(s.Value, fs); err != nil {
			return err
		}
		fs.emit(pyvm.OpYield)
		return nil

	case *pysyntax.RaiseStmt:
		return compileRaise(s, fs)

	case *pysyntax.TryStmt:
		return compileTry(s, fs)

	case *pysyntax.ImportStmt:
		name := s.Alias
		if name == "" {
			name = s.Module
		}
		fs.emit(pyvm.OpImport.With(fs.addConst(s.Module)))
		fs.storeName(name)
		return nil

	case *pysyntax.ImportFromStmt:
		modIdx := fs.addConst(s.Module)
		namesIdx := fs.addConst(append([]string{}, s.Names...))
		fs.emit(pyvm.OpImportFrom.With2(modIdx, namesIdx))
		for i := len(s.Names) - 1; i >= 0; i-- {
			name := s.Aliases[i]
			if name == "" {
				name = s.Names[i]
			}
			fs.storeName(name)
		}
		return nil

	default:
		return fmt.Errorf("pycompile: unsupported statement %T", st)
	}
}

// assignTo consumes exactly one value off the top of the stack and stores it
// into target, recursing for tuple-unpacking targets.
func assignTo(target pysyntax.Expr, fs *fnScope) error {
	switch t := target.(type) {
	case *pysyntax.NameExpr:
		fs.storeName(t.Name)
		return nil
	case *pysyntax.TupleExpr:
		fs.emit(pyvm.OpUnpackSequence.With(len(t.Elems)))
		for _, el := range t.Elems {
			if err := assignTo(el, fs); err != nil {
				return err
			}
		}
		return nil
	case *pysyntax.IndexExpr:
		valTmp := fs.newTemp()
		fs.emit(pyvm.OpSetLocal.With(valTmp))
		if err := compileExpr(t.X, fs); err != nil {
			return err
		}
		if err := compileExpr(t.Index, fs); err != nil {
			return err
		}
		fs.emit(pyvm.OpGetLocal.With(valTmp))
		fs.emit(pyvm.OpSetItem)
		return nil
	default:
		return fmt.Errorf("pycompile: invalid assignment target %T", target)
	}
}

func compileAssign(s *pysyntax.AssignStmt, fs *fnScope) error {
	if err := compileExpr(s.Value, fs); err != nil {
		return err
	}
	for i, t := range s.Targets {
		if i < len(s.Targets)-1 {
			fs.emit(pyvm.OpDup)
		}
		if err := assignTo(t, fs); err != nil {
			return err
		}
	}
	return nil
}

func augOp(op pysyntax.TokenKind) pyvm.OpCode {
	switch op {
	case pysyntax.PLUS_ASSIGN:
		return pyvm.OpAdd
	case pysyntax.MINUS_ASSIGN:
		return pyvm.OpSub
	case pysyntax.STAR_ASSIGN:
		return pyvm.OpMul
	case pysyntax.SLASH_ASSIGN:
		return pyvm.OpDiv
	case pysyntax.PERCENT_ASSIGN:
		return pyvm.OpMod
	}
	return pyvm.OpAdd
}

func compileAugAssign(s *pysyntax.AugAssignStmt, fs *fnScope) error {
	op := augOp(s.Op)
	switch t := s.Target.(type) {
	case *pysyntax.NameExpr:
		fs.loadName(t.Name)
		if err := compileExpr(s.Value, fs); err != nil {
			return err
		}
		fs.emit(op)
		fs.storeName(t.Name)
		return nil
	case *pysyntax.IndexExpr:
		objTmp, idxTmp := fs.newTemp(), fs.newTemp()
		if err := compileExpr(t.X, fs); err != nil {
			return err
		}
		fs.emit(pyvm.OpSetLocal.With(objTmp))
		if err := compileExpr(t.Index, fs); err != nil {
			return err
		}
		fs.emit(pyvm.OpSetLocal.With(idxTmp))
		fs.emit(pyvm.OpGetLocal.With(objTmp))
		fs.emit(pyvm.OpGetLocal.With(idxTmp))
		fs.emit(pyvm.OpGetItem)
		if err := compileExpr(s.Value, fs); err != nil {
			return err
		}
		fs.emit(op)
		valTmp := fs.newTemp()
		fs.emit(pyvm.OpSetLocal.With(valTmp))
		fs.emit(pyvm.OpGetLocal.With(objTmp))
		fs.emit(pyvm.OpGetLocal.With(idxTmp))
		fs.emit(pyvm.OpGetLocal.With(valTmp))
		fs.emit(pyvm.OpSetItem)
		return nil
	default:
		return fmt.Errorf("pycompile: invalid augmented-assignment target %T", s.Target)
	}
}

func compileIf(s *pysyntax.IfStmt, fs *fnScope) error {
	if err := compileExpr(s.Cond, fs); err != nil {
		return err
	}
	elseIdx := fs.emit(pyvm.OpJumpIfFalse.With(0))
	if err := compileStmts(s.Body, fs); err != nil {
		return err
	}
	endIdx := fs.emit(pyvm.OpJump.With(0))
	fs.patch(elseIdx, len(fs.code))
	if err := compileStmts(s.Orelse, fs); err != nil {
		return err
	}
	fs.patch(endIdx, len(fs.code))
	return nil
}

func compileWhile(s *pysyntax.WhileStmt, fs *fnScope) error {
	start := len(fs.code)
	if err := compileExpr(s.Cond, fs); err != nil {
		return err
	}
	exitIdx := fs.emit(pyvm.OpJumpIfFalse.With(0))
	fs.loops = append(fs.loops, loopCtx{continueTarget: start, blockDepth: len(fs.openBlocks)})
	if err := compileStmts(s.Body, fs); err != nil {
		return err
	}
	fs.emit(pyvm.OpJump.With(start))
	fs.patch(exitIdx, len(fs.code))
	lp := fs.loops[len(fs.loops)-1]
	fs.loops = fs.loops[:len(fs.loops)-1]
	for _, p := range lp.breakPatches {
		fs.patch(p, len(fs.code))
	}
	return nil
}

func compileFor(s *pysyntax.ForStmt, fs *fnScope) error {
	if err := compileExpr(s.Iter, fs); err != nil {
		return err
	}
	fs.emit(pyvm.OpGetIter)
	start := len(fs.code)
	forIdx := fs.emit(pyvm.OpForIter.With(0))
	if len(s.Targets) == 1 {
		if err := assignTo(s.Targets[0], fs); err != nil {
			return err
		}
	} else {
		fs.emit(pyvm.OpUnpackSequence.With(len(s.Targets)))
		for _, t := range s.Targets {
			if err := assignTo(t, fs); err != nil {
				return err
			}
		}
	}
	fs.loops = append(fs.loops, loopCtx{continueTarget: start, blockDepth: len(fs.openBlocks)})
	if err := compileStmts(s.Body, fs); err != nil {
		return err
	}
	fs.emit(pyvm.OpJump.With(start))
	fs.patch(forIdx, len(fs.code))
	lp := fs.loops[len(fs.loops)-1]
	fs.loops = fs.loops[:len(fs.loops)-1]
	for _, p := range lp.breakPatches {
		fs.patch(p, len(fs.code))
	}
	return nil
}

// containsYield reports whether body (not descending into nested function
// defs, which have their own scope) contains a yield — the generator-ness
// test, since this subset has no explicit `def` vs `yield def` marker.
func containsYield(body []pysyntax.Stmt) bool {
	for _, st := range body {
		switch s := st.(type) {
		case *pysyntax.YieldStmt:
			return true
		case *pysyntax.IfStmt:
			if containsYield(s.Body) || containsYield(s.Orelse) {
				return true
			}
		case *pysyntax.WhileStmt:
			if containsYield(s.Body) {
				return true
			}
		case *pysyntax.ForStmt:
			if containsYield(s.Body) {
				return true
			}
		case *pysyntax.TryStmt:
			if containsYield(s.Body) || containsYield(s.Finally) {
				return true
			}
			for _, h := range s.Handlers {
				if containsYield(h.Body) {
					return true
				}
			}
		}
	}
	return false
}

func compileFuncDef(s *pysyntax.FuncDef, fs *fnScope) error {
	child := newFnScope(s.Name, false)
	for _, p := range s.Params {
		child.localSlot(p)
	}
	if err := compileStmts(s.Body, child); err != nil {
		return err
	}
	child.emit(pyvm.OpLoadNone)
	child.emit(pyvm.OpReturn)
	fn := child.toFunction(s.Params, s.IsAsync, containsYield(s.Body))
	idx := fs.addConst(fn)
	fs.emit(pyvm.OpMakeFunction.With(idx))
	fs.storeName(s.Name)
	return nil
}

func compileRaise(s *pysyntax.RaiseStmt, fs *fnScope) error {
	if s.Exc == nil {
		if len(fs.excTemps) == 0 {
			return fmt.Errorf("bare 'raise' outside an except block")
		}
		fs.emit(pyvm.OpGetLocal.With(fs.excTemps[len(fs.excTemps)-1]))
		fs.emit(pyvm.OpRaise)
		return nil
	}
	call, ok := s.Exc.(*pysyntax.CallExpr)
	if !ok {
		return fmt.Errorf("pycompile: raise target must be an exception constructor call")
	}
	name, ok := call.Fn.(*pysyntax.NameExpr)
	if !ok {
		return fmt.Errorf("pycompile: raise target must name an exception class")
	}
	kind, ok := exceptionKinds[name.Name]
	if !ok {
		return fmt.Errorf("pycompile: unknown exception class %q", name.Name)
	}
	if len(call.Args) == 1 {
		if err := compileExpr(call.Args[0], fs); err != nil {
			return err
		}
	} else {
		fs.emit(pyvm.OpLoadConst.With(fs.addConst("")))
	}
	fs.emit(pyvm.OpMakeException.With(int(kind)))
	fs.emit(pyvm.OpRaise)
	return nil
}

// compileTry implements §4.X's block-stack unwinding: SetupTry/SetupFinally
// register a handler IP the VM's unwinder jumps to with the exception
// already pushed; a try/finally without except relies on the normal path
// falling through to the very same "run the finally body" code the unwinder
// jumps to, so both paths share one copy of the finally body (break and
// continue get their own copies from emitBlockUnwind).
func compileTry(s *pysyntax.TryStmt, fs *fnScope) error {
	var finIdx int
	hasFinally := len(s.Finally) > 0
	if hasFinally {
		finIdx = fs.emit(pyvm.OpSetupFinally.With(0))
		fs.openBlocks = append(fs.openBlocks, openBlock{kind: pyvm.BlockFinally, finally: s.Finally})
	}
	if len(s.Handlers) > 0 {
		if err := compileTryExcept(s.Body, s.Handlers, fs); err != nil {
			return err
		}
	} else {
		if err := compileStmts(s.Body, fs); err != nil {
			return err
		}
	}
	if hasFinally {
		fs.emit(pyvm.OpPopFinally)
		fs.openBlocks = fs.openBlocks[:len(fs.openBlocks)-1]
		fs.emit(pyvm.OpLoadNone)
		fs.patch(finIdx, len(fs.code))
		if err := compileStmts(s.Finally, fs); err != nil {
			return err
		}
		fs.emit(pyvm.OpEndFinally)
	}
	return nil
}

// emitBlockUnwind discharges every Try/Finally block opened since
// targetDepth (innermost first, matching the runtime block stack's LIFO pop
// order), for a break/continue jumping out of them without an exception:
// Finally blocks also get their body re-emitted here, since break/continue
// never reach the single inline copy compileTry emits on its own normal
// exit path.
func emitBlockUnwind(fs *fnScope, targetDepth int) error {
	for i := len(fs.openBlocks) - 1; i >= targetDepth; i-- {
		switch b := fs.openBlocks[i]; b.kind {
		case pyvm.BlockTry:
			fs.emit(pyvm.OpPopTry)
		case pyvm.BlockFinally:
			fs.emit(pyvm.OpPopFinally)
			if err := compileStmts(b.finally, fs); err != nil {
				return err
			}
		}
	}
	return nil
}

func compileTryExcept(body []pysyntax.Stmt, handlers []pysyntax.ExceptClause, fs *fnScope) error {
	tryIdx := fs.emit(pyvm.OpSetupTry.With(0))
	fs.openBlocks = append(fs.openBlocks, openBlock{kind: pyvm.BlockTry})
	if err := compileStmts(body, fs); err != nil {
		return err
	}
	fs.emit(pyvm.OpPopTry)
	fs.openBlocks = fs.openBlocks[:len(fs.openBlocks)-1]
	var endJumps []int
	endJumps = append(endJumps, fs.emit(pyvm.OpJump.With(0)))
	fs.patch(tryIdx, len(fs.code))

	for _, h := range handlers {
		var nextIdx int
		hasNext := h.Kind != nil
		if hasNext {
			name, ok := h.Kind.(*pysyntax.NameExpr)
			if !ok {
				return fmt.Errorf("pycompile: except clause must name an exception class")
			}
			kind, ok := exceptionKinds[name.Name]
			if !ok {
				return fmt.Errorf("pycompile: unknown exception class %q", name.Name)
			}
			fs.emit(pyvm.OpGetExceptionType)
			fs.emit(pyvm.OpMatchException.With(int(kind)))
			nextIdx = fs.emit(pyvm.OpJumpIfFalse.With(0))
		}
		excTmp := fs.newTemp()
		fs.emit(pyvm.OpSetLocal.With(excTmp))
		if h.As != "" {
			fs.emit(pyvm.OpGetLocal.With(excTmp))
			fs.storeName(h.As)
		}
		fs.excTemps = append(fs.excTemps, excTmp)
		if err := compileStmts(h.Body, fs); err != nil {
			return err
		}
		fs.excTemps = fs.excTemps[:len(fs.excTemps)-1]
		endJumps = append(endJumps, fs.emit(pyvm.OpJump.With(0)))
		if hasNext {
			fs.patch(nextIdx, len(fs.code))
		}
	}
	// No handler matched: re-raise the exception the unwinder pushed, still
	// on top since GetExceptionType only peeks at it.
	fs.emit(pyvm.OpRaise)
	for _, j := range endJumps {
		fs.patch(j, len(fs.code))
	}
	return nil
}
