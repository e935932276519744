// Package pysyntax is a hand-rolled lexer, parser, and AST for the
// Python-syntax subset this engine accepts. Its Stmt/Expr split and node
// naming follow go.starlark.net/syntax, but it is original code: Starlark's
// own Stmt/Expr interfaces are sealed (unexported stmt()/expr() marker
// methods) and cannot be extended from outside that package, and Starlark's
// grammar has no try/except/raise/async/await/yield/f-strings — all required
// here. See SPEC_FULL.md's DOMAIN STACK section for where go.starlark.net is
// instead put to honest use (the `starlark` interop builtin module).
package pysyntax

// Position is a 1-based line/column location in the source; parse errors
// report its line number.
type Position struct {
	Line, Col int
}

type TokenKind int

const (
	EOF TokenKind = iota
	NEWLINE
	INDENT
	DEDENT

	IDENT
	INT
	FLOAT
	STRING
	FSTRING

	// Keywords
	AND
	OR
	NOT
	IS
	IN
	IF
	ELIF
	ELSE
	WHILE
	FOR
	BREAK
	CONTINUE
	PASS
	DEF
	ASYNC
	AWAIT
	RETURN
	YIELD
	RAISE
	TRY
	EXCEPT
	FINALLY
	IMPORT
	FROM
	AS
	TRUE
	FALSE
	NONE

	// Operators / punctuation
	PLUS
	MINUS
	STAR
	SLASH
	DSLASH
	PERCENT
	ASSIGN
	PLUS_ASSIGN
	MINUS_ASSIGN
	STAR_ASSIGN
	SLASH_ASSIGN
	PERCENT_ASSIGN
	EQ
	NE
	LT
	LE
	GT
	GE
	LPAREN
	RPAREN
	LBRACK
	RBRACK
	LBRACE
	RBRACE
	COMMA
	COLON
	DOT
	SEMI
)

var keywords = map[string]TokenKind{
	"and": AND, "or": OR, "not": NOT, "is": IS, "in": IN,
	"if": IF, "elif": ELIF, "else": ELSE,
	"while": WHILE, "for": FOR, "break": BREAK, "continue": CONTINUE, "pass": PASS,
	"def": DEF, "async": ASYNC, "await": AWAIT, "return": RETURN, "yield": YIELD,
	"raise": RAISE, "try": TRY, "except": EXCEPT, "finally": FINALLY,
	"import": IMPORT, "from": FROM, "as": AS,
	"true": TRUE, "false": FALSE, "none": NONE,
}

type Token struct {
	Kind TokenKind
	Lit  string
	Pos  Position
}
