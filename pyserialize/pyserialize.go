// Package pyserialize implements the `.pyq` precompiled-bytecode wire
// format: a 4-byte magic and a little-endian u32 version, then the top-level
// function record (name, parameter names, local count, async/generator
// flags, tagged constants, u32 instruction count, then a tagged instruction
// stream; strings are u32-length-prefixed) — built on the shape of
// original_source/src/serializer.rs's serialize_bytecode/deserialize_bytecode,
// extended from that reference's five-instruction stub to the complete
// opcode set pyvm implements (version bumped to 2 to mark the wider tag
// space, kept little-endian and magic-compatible with the original layout).
package pyserialize

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/embedpy/pye/pyvm"
)

var magic = [4]byte{'Q', 'P', 'Y', 0}

const version uint32 = 2

const (
	constInt byte = iota
	constFloat
	constString
	constBool
	constNone
	constFunction
	constStringList
)

// Serialize writes fn (and, recursively, any nested *pyvm.Function constants
// produced by MakeFunction) to the .pyq wire format.
func Serialize(fn *pyvm.Function) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(magic[:])
	writeU32(&buf, version)
	if err := writeFunction(&buf, fn); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Deserialize reads a .pyq image back into a *pyvm.Function.
func Deserialize(data []byte) (*pyvm.Function, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("pyserialize: input too short")
	}
	if !bytes.Equal(data[:4], magic[:]) {
		return nil, fmt.Errorf("pyserialize: bad magic")
	}
	r := bytes.NewReader(data[4:])
	v, err := readU32(r)
	if err != nil {
		return nil, err
	}
	if v != version {
		return nil, fmt.Errorf("pyserialize: unsupported version %d", v)
	}
	return readFunction(r)
}

func writeFunction(buf *bytes.Buffer, fn *pyvm.Function) error {
	writeString(buf, fn.Name)
	writeU32(buf, uint32(len(fn.ParamNames)))
	for _, p := range fn.ParamNames {
		writeString(buf, p)
	}
	writeU32(buf, uint32(fn.NumLocals))
	writeBool(buf, fn.IsAsync)
	writeBool(buf, fn.IsGenerator)

	writeU32(buf, uint32(len(fn.Constants)))
	for _, c := range fn.Constants {
		if err := writeConst(buf, c); err != nil {
			return err
		}
	}

	writeU32(buf, uint32(len(fn.Code)))
	for _, inst := range fn.Code {
		buf.WriteByte(byte(inst.Op()))
		switch arity(inst.Op()) {
		case 0:
		case 1:
			writeI32(buf, int32(inst.Arg()))
		case 2:
			a, b := inst.Arg2()
			writeU32(buf, uint32(a))
			writeU32(buf, uint32(b))
		}
	}
	return nil
}

func readFunction(r *bytes.Reader) (*pyvm.Function, error) {
	name, err := readString(r)
	if err != nil {
		return nil, err
	}
	nparams, err := readU32(r)
	if err != nil {
		return nil, err
	}
	params := make([]string, nparams)
	for i := range params {
		if params[i], err = readString(r); err != nil {
			return nil, err
		}
	}
	numLocals, err := readU32(r)
	if err != nil {
		return nil, err
	}
	isAsync, err := readBool(r)
	if err != nil {
		return nil, err
	}
	isGenerator, err := readBool(r)
	if err != nil {
		return nil, err
	}

	nconsts, err := readU32(r)
	if err != nil {
		return nil, err
	}
	consts := make([]any, nconsts)
	for i := range consts {
		if consts[i], err = readConst(r); err != nil {
			return nil, err
		}
	}

	ninst, err := readU32(r)
	if err != nil {
		return nil, err
	}
	code := make([]pyvm.OpCode, ninst)
	for i := range code {
		tag, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		op := pyvm.OpCode(tag)
		switch arity(op) {
		case 0:
			code[i] = op
		case 1:
			a, err := readI32(r)
			if err != nil {
				return nil, err
			}
			code[i] = op.With(int(a))
		case 2:
			a, err := readU32(r)
			if err != nil {
				return nil, err
			}
			b, err := readU32(r)
			if err != nil {
				return nil, err
			}
			code[i] = op.With2(int(a), int(b))
		}
	}

	return &pyvm.Function{
		Name:        name,
		ParamNames:  params,
		Code:        code,
		Constants:   consts,
		NumLocals:   int(numLocals),
		IsAsync:     isAsync,
		IsGenerator: isGenerator,
	}, nil
}

func writeConst(buf *bytes.Buffer, c any) error {
	switch v := c.(type) {
	case int64:
		buf.WriteByte(constInt)
		writeI64(buf, v)
	case float64:
		buf.WriteByte(constFloat)
		writeF64(buf, v)
	case string:
		buf.WriteByte(constString)
		writeString(buf, v)
	case bool:
		buf.WriteByte(constBool)
		writeBool(buf, v)
	case pyvm.None:
		buf.WriteByte(constNone)
	case *pyvm.Function:
		buf.WriteByte(constFunction)
		return writeFunction(buf, v)
	case []string:
		buf.WriteByte(constStringList)
		writeU32(buf, uint32(len(v)))
		for _, s := range v {
			writeString(buf, s)
		}
	default:
		return fmt.Errorf("pyserialize: unsupported constant type %T", c)
	}
	return nil
}

func readConst(r *bytes.Reader) (any, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case constInt:
		return readI64(r)
	case constFloat:
		return readF64(r)
	case constString:
		return readString(r)
	case constBool:
		return readBool(r)
	case constNone:
		return pyvm.None{}, nil
	case constFunction:
		return readFunction(r)
	case constStringList:
		n, err := readU32(r)
		if err != nil {
			return nil, err
		}
		out := make([]string, n)
		for i := range out {
			if out[i], err = readString(r); err != nil {
				return nil, err
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("pyserialize: unknown constant tag %d", tag)
	}
}

// arity reports how many operand words a bare opcode carries, so the
// (de)serializer doesn't need a byte-for-byte mirror of pyvm's dispatch
// switch — just its operand shape.
func arity(op pyvm.OpCode) int {
	switch op.Op() {
	case pyvm.OpCallMethod, pyvm.OpImportFrom:
		return 2
	case pyvm.OpLoadNone, pyvm.OpLoadTrue, pyvm.OpLoadFalse, pyvm.OpPop, pyvm.OpDup,
		pyvm.OpAdd, pyvm.OpSub, pyvm.OpMul, pyvm.OpDiv, pyvm.OpFloorDiv, pyvm.OpMod,
		pyvm.OpNegate, pyvm.OpNot, pyvm.OpEq, pyvm.OpNe, pyvm.OpLt, pyvm.OpLe, pyvm.OpGt, pyvm.OpGe,
		pyvm.OpIs, pyvm.OpIsNot, pyvm.OpBuildSlice, pyvm.OpGetItem, pyvm.OpSetItem,
		pyvm.OpGetItemSlice, pyvm.OpSetItemSlice, pyvm.OpContains, pyvm.OpNotContains, pyvm.OpLen,
		pyvm.OpGetIter, pyvm.OpReturn, pyvm.OpAwait, pyvm.OpYield,
		pyvm.OpPopTry, pyvm.OpPopFinally, pyvm.OpEndFinally, pyvm.OpRaise, pyvm.OpGetExceptionType:
		return 0
	default:
		return 1
	}
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeI32(buf *bytes.Buffer, v int32) { writeU32(buf, uint32(v)) }

func writeI64(buf *bytes.Buffer, v int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	buf.Write(b[:])
}

func writeF64(buf *bytes.Buffer, v float64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	buf.Write(b[:])
}

func writeBool(buf *bytes.Buffer, v bool) {
	if v {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

func writeString(buf *bytes.Buffer, s string) {
	writeU32(buf, uint32(len(s)))
	buf.WriteString(s)
}

func readU32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := r.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readI32(r *bytes.Reader) (int32, error) {
	v, err := readU32(r)
	return int32(v), err
}

func readI64(r *bytes.Reader) (int64, error) {
	var b [8]byte
	if _, err := r.Read(b[:]); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

func readF64(r *bytes.Reader) (float64, error) {
	var b [8]byte
	if _, err := r.Read(b[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b[:])), nil
}

func readBool(r *bytes.Reader) (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

func readString(r *bytes.Reader) (string, error) {
	n, err := readU32(r)
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := r.Read(b); err != nil {
		return "", err
	}
	return string(b), nil
}
