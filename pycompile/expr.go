package pycompile

import (
	"fmt"

	"github.com/embedpy/pye/pysyntax"
	"github.com/embedpy/pye/pyvm"
)

func compileExpr(e pysyntax.Expr, fs *fnScope) error {
	switch x := e.(type) {
	case *pysyntax.NameExpr:
		fs.loadName(x.Name)
		return nil
	case *pysyntax.IntLit:
		fs.emit(pyvm.OpLoadConst.With(fs.addConst(x.Value)))
		return nil
	case *pysyntax.FloatLit:
		fs.emit(pyvm.OpLoadConst.With(fs.addConst(x.Value)))
		return nil
	case *pysyntax.StringLit:
		fs.emit(pyvm.OpLoadConst.With(fs.addConst(x.Value)))
		return nil
	case *pysyntax.BoolLit:
		if x.Value {
			fs.emit(pyvm.OpLoadTrue)
		} else {
			fs.emit(pyvm.OpLoadFalse)
		}
		return nil
	case *pysyntax.NoneLit:
		fs.emit(pyvm.OpLoadNone)
		return nil

	case *pysyntax.FStringExpr:
		n := 0
		for i, part := range x.Parts {
			fs.emit(pyvm.OpLoadConst.With(fs.addConst(part)))
			n++
			if i < len(x.Exprs) {
				if err := compileExpr(x.Exprs[i], fs); err != nil {
					return err
				}
				n++
			}
		}
		fs.emit(pyvm.OpFormatString.With(n))
		return nil

	case *pysyntax.ListExpr:
		for _, el := range x.Elems {
			if err := compileExpr(el, fs); err != nil {
				return err
			}
		}
		fs.emit(pyvm.OpBuildList.With(len(x.Elems)))
		return nil

	case *pysyntax.TupleExpr:
		for _, el := range x.Elems {
			if err := compileExpr(el, fs); err != nil {
				return err
			}
		}
		fs.emit(pyvm.OpBuildTuple.With(len(x.Elems)))
		return nil

	case *pysyntax.DictExpr:
		for _, ent := range x.Entries {
			if err := compileExpr(ent.Key, fs); err != nil {
				return err
			}
			if err := compileExpr(ent.Value, fs); err != nil {
				return err
			}
		}
		fs.emit(pyvm.OpBuildDict.With(len(x.Entries)))
		return nil

	case *pysyntax.ListComp:
		return compileListComp(x, fs)
	case *pysyntax.DictComp:
		return compileDictComp(x, fs)

	case *pysyntax.UnaryExpr:
		switch x.Op {
		case pysyntax.NOT:
			if err := compileExpr(x.X, fs); err != nil {
				return err
			}
			fs.emit(pyvm.OpNot)
			return nil
		case pysyntax.MINUS:
			if err := compileExpr(x.X, fs); err != nil {
				return err
			}
			fs.emit(pyvm.OpNegate)
			return nil
		case pysyntax.PLUS:
			return compileExpr(x.X, fs)
		}
		return fmt.Errorf("pycompile: unsupported unary operator")

	case *pysyntax.BoolOpExpr:
		if err := compileExpr(x.X, fs); err != nil {
			return err
		}
		var idx int
		if x.Op == pysyntax.AND {
			idx = fs.emit(pyvm.OpJumpIfFalseOrPop.With(0))
		} else {
			idx = fs.emit(pyvm.OpJumpIfTrueOrPop.With(0))
		}
		if err := compileExpr(x.Y, fs); err != nil {
			return err
		}
		fs.patch(idx, len(fs.code))
		return nil

	case *pysyntax.BinaryExpr:
		if err := compileExpr(x.X, fs); err != nil {
			return err
		}
		if err := compileExpr(x.Y, fs); err != nil {
			return err
		}
		fs.emit(binaryOp(x.Op))
		return nil

	case *pysyntax.CompareExpr:
		if err := compileExpr(x.X, fs); err != nil {
			return err
		}
		if err := compileExpr(x.Y, fs); err != nil {
			return err
		}
		fs.emit(compareOp(x.Op))
		return nil

	case *pysyntax.IndexExpr:
		if err := compileExpr(x.X, fs); err != nil {
			return err
		}
		if err := compileExpr(x.Index, fs); err != nil {
			return err
		}
		fs.emit(pyvm.OpGetItem)
		return nil

	case *pysyntax.SliceExpr:
		if err := compileExpr(x.X, fs); err != nil {
			return err
		}
		if err := compileSliceBound(x.Start, fs); err != nil {
			return err
		}
		if err := compileSliceBound(x.Stop, fs); err != nil {
			return err
		}
		if err := compileSliceBound(x.Step, fs); err != nil {
			return err
		}
		fs.emit(pyvm.OpBuildSlice)
		fs.emit(pyvm.OpGetItemSlice)
		return nil

	case *pysyntax.AttrExpr:
		if err := compileExpr(x.X, fs); err != nil {
			return err
		}
		fs.emit(pyvm.OpGetAttr.With(fs.addConst(x.Name)))
		return nil

	case *pysyntax.CallExpr:
		if err := compileExpr(x.Fn, fs); err != nil {
			return err
		}
		for _, a := range x.Args {
			if err := compileExpr(a, fs); err != nil {
				return err
			}
		}
		fs.emit(pyvm.OpCall.With(len(x.Args)))
		return nil

	case *pysyntax.MethodCallExpr:
		if err := compileExpr(x.Recv, fs); err != nil {
			return err
		}
		for _, a := range x.Args {
			if err := compileExpr(a, fs); err != nil {
				return err
			}
		}
		fs.emit(pyvm.OpCallMethod.With2(fs.addConst(x.Method), len(x.Args)))
		return nil

	case *pysyntax.AwaitExpr:
		if err := compileExpr(x.X, fs); err != nil {
			return err
		}
		fs.emit(pyvm.OpAwait)
		return nil

	default:
		return fmt.Errorf("pycompile: unsupported expression %T", e)
	}
}

// compileSliceBound pushes an int64 bound or None when absent (`a[::2]`'s
// missing start/stop), matching BuildSlice's toIntPtr-or-None contract.
func compileSliceBound(e pysyntax.Expr, fs *fnScope) error {
	if e == nil {
		fs.emit(pyvm.OpLoadNone)
		return nil
	}
	return compileExpr(e, fs)
}

func binaryOp(op pysyntax.TokenKind) pyvm.OpCode {
	switch op {
	case pysyntax.PLUS:
		return pyvm.OpAdd
	case pysyntax.MINUS:
		return pyvm.OpSub
	case pysyntax.STAR:
		return pyvm.OpMul
	case pysyntax.SLASH:
		return pyvm.OpDiv
	case pysyntax.DSLASH:
		return pyvm.OpFloorDiv
	case pysyntax.PERCENT:
		return pyvm.OpMod
	}
	return pyvm.OpAdd
}

func compareOp(op pysyntax.TokenKind) pyvm.OpCode {
	switch op {
	case pysyntax.LT:
		return pyvm.OpLt
	case pysyntax.LE:
		return pyvm.OpLe
	case pysyntax.GT:
		return pyvm.OpGt
	case pysyntax.GE:
		return pyvm.OpGe
	case pysyntax.EQ:
		return pyvm.OpEq
	case pysyntax.NE:
		return pyvm.OpNe
	case pysyntax.IS:
		return pyvm.OpIs
	case pysyntax.IS_NOT:
		return pyvm.OpIsNot
	case pysyntax.IN:
		return pyvm.OpContains
	case pysyntax.NOT_IN:
		return pyvm.OpNotContains
	}
	return pyvm.OpEq
}

// compileListComp lowers `[elem for x in iter if cond]` into an accumulator
// loop: build an empty list in a temp local, GetIter/ForIter over Iter,
// filter with Cond, append Elem each surviving pass (§4.C comprehension
// desugaring).
func compileListComp(c *pysyntax.ListComp, fs *fnScope) error {
	listTmp := fs.newTemp()
	fs.emit(pyvm.OpBuildList.With(0))
	fs.emit(pyvm.OpSetLocal.With(listTmp))

	if err := compileExpr(c.Iter, fs); err != nil {
		return err
	}
	fs.emit(pyvm.OpGetIter)
	start := len(fs.code)
	forIdx := fs.emit(pyvm.OpForIter.With(0))
	fs.storeName(c.For)
	if c.If != nil {
		if err := compileExpr(c.If, fs); err != nil {
			return err
		}
		skipIdx := fs.emit(pyvm.OpJumpIfFalse.With(0))
		fs.emit(pyvm.OpGetLocal.With(listTmp))
		if err := compileExpr(c.Elem, fs); err != nil {
			return err
		}
		fs.emit(pyvm.OpCallMethod.With2(fs.addConst("append"), 1))
		fs.emit(pyvm.OpPop)
		fs.patch(skipIdx, len(fs.code))
	} else {
		fs.emit(pyvm.OpGetLocal.With(listTmp))
		if err := compileExpr(c.Elem, fs); err != nil {
			return err
		}
		fs.emit(pyvm.OpCallMethod.With2(fs.addConst("append"), 1))
		fs.emit(pyvm.OpPop)
	}
	fs.emit(pyvm.OpJump.With(start))
	fs.patch(forIdx, len(fs.code))
	fs.emit(pyvm.OpGetLocal.With(listTmp))
	return nil
}

// compileDictComp mirrors compileListComp but writes Key/Value pairs via
// SetItem into an accumulator dict instead of List.append.
func compileDictComp(c *pysyntax.DictComp, fs *fnScope) error {
	dictTmp := fs.newTemp()
	fs.emit(pyvm.OpBuildDict.With(0))
	fs.emit(pyvm.OpSetLocal.With(dictTmp))

	if err := compileExpr(c.Iter, fs); err != nil {
		return err
	}
	fs.emit(pyvm.OpGetIter)
	start := len(fs.code)
	forIdx := fs.emit(pyvm.OpForIter.With(0))
	fs.storeName(c.For)
	body := func() error {
		fs.emit(pyvm.OpGetLocal.With(dictTmp))
		if err := compileExpr(c.Key, fs); err != nil {
			return err
		}
		if err := compileExpr(c.Value, fs); err != nil {
			return err
		}
		fs.emit(pyvm.OpSetItem)
		return nil
	}
	if c.If != nil {
		if err := compileExpr(c.If, fs); err != nil {
			return err
		}
		skipIdx := fs.emit(pyvm.OpJumpIfFalse.With(0))
		if err := body(); err != nil {
			return err
		}
		fs.patch(skipIdx, len(fs.code))
	} else {
		if err := body(); err != nil {
			return err
		}
	}
	fs.emit(pyvm.OpJump.With(start))
	fs.patch(forIdx, len(fs.code))
	fs.emit(pyvm.OpGetLocal.With(dictTmp))
	return nil
}
