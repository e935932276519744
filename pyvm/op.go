package pyvm

// OpCode is one bytecode instruction: the op in the low byte, its operand(s)
// packed into the remaining bits. This mirrors the teacher's inline-operand
// encoding (no separate operand table) but widens the word to 64 bits and
// adds a two-field packing for instructions that need a pair of small
// operands (CallMethod's name index + argc).
type OpCode uint64

const opMask = 0xff

// With packs a single signed operand into bits [8:40), enough for jump
// offsets and constant indices well beyond any compiled program's size.
func (op OpCode) With(arg int) OpCode {
	return op | OpCode(uint64(uint32(arg)))<<8
}

// With2 packs two unsigned operands, each 20 bits wide, into bits [8:48).
// Used by CallMethod (name constant index, argument count) and ImportFrom
// (module-name and name-list constant indices); none of these operands ever
// needs more than 1M of range.
func (op OpCode) With2(a, b int) OpCode {
	return op | (OpCode(uint64(a)&0xfffff))<<8 | (OpCode(uint64(b)&0xfffff))<<28
}

// Op returns the bare opcode with operands stripped.
func (op OpCode) Op() OpCode { return op & opMask }

// Arg decodes a single signed operand packed by With.
func (op OpCode) Arg() int {
	return int(int32(uint32(op >> 8)))
}

// Arg2 decodes the two operands packed by With2.
func (op OpCode) Arg2() (a, b int) {
	return int((op >> 8) & 0xfffff), int((op >> 28) & 0xfffff)
}

const (
	// Stack
	OpLoadConst OpCode = iota
	OpLoadNone
	OpLoadTrue
	OpLoadFalse
	OpPop
	OpDup

	// Variables
	OpGetLocal
	OpSetLocal
	OpGetGlobal
	OpSetGlobal

	// Arithmetic / compare
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpFloorDiv
	OpMod
	OpNegate
	OpNot
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpIs
	OpIsNot

	// Control flow
	OpJump
	OpJumpIfFalse
	OpJumpIfFalseOrPop
	OpJumpIfTrueOrPop

	// Containers
	OpBuildList
	OpBuildDict
	OpBuildTuple
	OpBuildSlice
	OpGetItem
	OpSetItem
	OpGetItemSlice
	OpSetItemSlice
	OpContains
	OpNotContains
	OpLen

	// Iteration
	OpGetIter
	OpForIter
	OpUnpackSequence

	// Functions / calls
	OpMakeFunction
	OpCall
	OpCallMethod
	OpReturn
	OpGetAttr
	OpAwait
	OpYield

	// Exceptions / blocks
	OpSetupTry
	OpPopTry
	OpSetupFinally
	OpPopFinally
	OpEndFinally
	OpRaise
	OpMakeException
	OpGetExceptionType
	OpMatchException

	// Imports
	OpImport
	OpImportFrom

	// I/O and formatting
	OpPrint
	OpFormatString
)

var opNames = map[OpCode]string{
	OpLoadConst: "LoadConst", OpLoadNone: "LoadNone", OpLoadTrue: "LoadTrue",
	OpLoadFalse: "LoadFalse", OpPop: "Pop", OpDup: "Dup",
	OpGetLocal: "GetLocal", OpSetLocal: "SetLocal",
	OpGetGlobal: "GetGlobal", OpSetGlobal: "SetGlobal",
	OpAdd: "Add", OpSub: "Sub", OpMul: "Mul", OpDiv: "Div", OpFloorDiv: "FloorDiv",
	OpMod: "Mod", OpNegate: "Negate", OpNot: "Not",
	OpEq: "Eq", OpNe: "Ne", OpLt: "Lt", OpLe: "Le", OpGt: "Gt", OpGe: "Ge",
	OpIs: "Is", OpIsNot: "IsNot",
	OpJump: "Jump", OpJumpIfFalse: "JumpIfFalse",
	OpJumpIfFalseOrPop: "JumpIfFalseOrPop", OpJumpIfTrueOrPop: "JumpIfTrueOrPop",
	OpBuildList: "BuildList", OpBuildDict: "BuildDict", OpBuildTuple: "BuildTuple",
	OpBuildSlice: "BuildSlice", OpGetItem: "GetItem", OpSetItem: "SetItem",
	OpGetItemSlice: "GetItemSlice", OpSetItemSlice: "SetItemSlice",
	OpContains: "Contains", OpNotContains: "NotContains", OpLen: "Len",
	OpGetIter: "GetIter", OpForIter: "ForIter", OpUnpackSequence: "UnpackSequence",
	OpMakeFunction: "MakeFunction", OpCall: "Call", OpCallMethod: "CallMethod",
	OpReturn: "Return", OpGetAttr: "GetAttr", OpAwait: "Await", OpYield: "Yield",
	OpSetupTry: "SetupTry", OpPopTry: "PopTry", OpSetupFinally: "SetupFinally",
	OpPopFinally: "PopFinally", OpEndFinally: "EndFinally", OpRaise: "Raise",
	OpMakeException: "MakeException", OpGetExceptionType: "GetExceptionType",
	OpMatchException: "MatchException",
	OpImport:          "Import", OpImportFrom: "ImportFrom",
	OpPrint: "Print", OpFormatString: "FormatString",
}

func (op OpCode) String() string {
	if name, ok := opNames[op.Op()]; ok {
		return name
	}
	return "Unknown"
}
