package pysyntax

import "testing"

func TestParseAssignAndExpr(t *testing.T) {
	stmts, err := Parse("x = 1 + 2 * 3\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(stmts) != 1 {
		t.Fatalf("got %d stmts", len(stmts))
	}
	assign, ok := stmts[0].(*AssignStmt)
	if !ok {
		t.Fatalf("got %T", stmts[0])
	}
	bin, ok := assign.Value.(*BinaryExpr)
	if !ok {
		t.Fatalf("value is %T", assign.Value)
	}
	if bin.Op != PLUS {
		t.Fatalf("got op %v", bin.Op)
	}
	rhs, ok := bin.Y.(*BinaryExpr)
	if !ok || rhs.Op != STAR {
		t.Fatalf("precedence not respected: %#v", bin.Y)
	}
}

func TestParseIfWhileFor(t *testing.T) {
	src := `
if x <= 1:
    return x
while x:
    x = x - 1
for y in xs:
    break
`
	stmts, err := Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	if len(stmts) != 3 {
		t.Fatalf("got %d stmts", len(stmts))
	}
	if _, ok := stmts[0].(*IfStmt); !ok {
		t.Fatalf("got %T", stmts[0])
	}
	if _, ok := stmts[1].(*WhileStmt); !ok {
		t.Fatalf("got %T", stmts[1])
	}
	if _, ok := stmts[2].(*ForStmt); !ok {
		t.Fatalf("got %T", stmts[2])
	}
}

func TestParseFuncDef(t *testing.T) {
	stmts, err := Parse("def fib(n):\n    return n\n")
	if err != nil {
		t.Fatal(err)
	}
	fn, ok := stmts[0].(*FuncDef)
	if !ok {
		t.Fatalf("got %T", stmts[0])
	}
	if fn.Name != "fib" || len(fn.Params) != 1 || fn.Params[0] != "n" {
		t.Fatalf("got %+v", fn)
	}
}

func TestParseTryExceptFinally(t *testing.T) {
	src := `
try:
    raise ValueError("x")
except ValueError as e:
    pass
finally:
    pass
`
	stmts, err := Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	tryStmt, ok := stmts[0].(*TryStmt)
	if !ok {
		t.Fatalf("got %T", stmts[0])
	}
	if len(tryStmt.Handlers) != 1 {
		t.Fatalf("got %d handlers", len(tryStmt.Handlers))
	}
	kind, ok := tryStmt.Handlers[0].Kind.(*NameExpr)
	if !ok || kind.Name != "ValueError" || tryStmt.Handlers[0].As != "e" {
		t.Fatalf("got %+v", tryStmt.Handlers[0])
	}
	if tryStmt.Finally == nil {
		t.Fatal("expected finally body")
	}
}

func TestParseComprehensions(t *testing.T) {
	stmts, err := Parse("d = {x % 3: x for x in range(10)}\n")
	if err != nil {
		t.Fatal(err)
	}
	assign := stmts[0].(*AssignStmt)
	if _, ok := assign.Value.(*DictComp); !ok {
		t.Fatalf("got %T", assign.Value)
	}
}

func TestParseFString(t *testing.T) {
	stmts, err := Parse(`s = f"Hello, {name.strip().upper()}!"` + "\n")
	if err != nil {
		t.Fatal(err)
	}
	assign := stmts[0].(*AssignStmt)
	fstr, ok := assign.Value.(*FStringExpr)
	if !ok {
		t.Fatalf("got %T", assign.Value)
	}
	if len(fstr.Exprs) != 1 {
		t.Fatalf("got %d embedded exprs", len(fstr.Exprs))
	}
}

func TestParseImportForms(t *testing.T) {
	stmts, err := Parse("import json\nfrom os import path as p\n")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := stmts[0].(*ImportStmt); !ok {
		t.Fatalf("got %T", stmts[0])
	}
	from, ok := stmts[1].(*ImportFromStmt)
	if !ok {
		t.Fatalf("got %T", stmts[1])
	}
	if from.Module != "os" || from.Names[0] != "path" || from.Aliases[0] != "p" {
		t.Fatalf("got %+v", from)
	}
}

func TestParseUnpackingTarget(t *testing.T) {
	stmts, err := Parse("a, b = 1, 2\n")
	if err != nil {
		t.Fatal(err)
	}
	assign, ok := stmts[0].(*AssignStmt)
	if !ok {
		t.Fatalf("got %T", stmts[0])
	}
	if len(assign.Targets) != 1 {
		t.Fatalf("got %#v", assign.Targets)
	}
	tuple, ok := assign.Targets[0].(*TupleExpr)
	if !ok || len(tuple.Elems) != 2 {
		t.Fatalf("got %#v", assign.Targets[0])
	}
}

func TestParseErrorOnBadSyntax(t *testing.T) {
	if _, err := Parse("def (:\n"); err == nil {
		t.Fatal("expected a parse error")
	}
}
