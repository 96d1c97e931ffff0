package classfile

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrTruncatedBytecode is returned when an instruction's operands run past
// the end of the code array.
var ErrTruncatedBytecode = errors.New("truncated bytecode")

type Opcode uint8

// OperandKind groups opcodes by the shape of their operands.
type OperandKind uint8

const (
	KindNone OperandKind = iota
	// KindLocal takes a local variable slot (u1, or u2 after wide).
	KindLocal
	// KindImplicitLocal encodes slots 0-3 in the opcode itself.
	KindImplicitLocal
	// KindConstantByte takes a u1 constant pool index (ldc).
	KindConstantByte
	// KindConstant takes a u2 constant pool index.
	KindConstant
	KindByte
	KindShort
	// KindBranch takes a signed 16-bit branch delta.
	KindBranch
	// KindBranchWide takes a signed 32-bit branch delta.
	KindBranchWide
	KindIinc
	KindNewArray
	KindInvokeInterface
	KindInvokeDynamic
	KindMultiANewArray
	KindTableSwitch
	KindLookupSwitch
	KindWide
)

type opcodeInfo struct {
	name string
	kind OperandKind
}

func (op Opcode) info() (opcodeInfo, bool) {
	if int(op) >= len(opcodeTable) {
		return opcodeInfo{}, false
	}
	return opcodeTable[op], true
}

// String returns the mnemonic, e.g. "invokespecial".
func (op Opcode) String() string {
	if info, ok := op.info(); ok {
		return info.name
	}
	return fmt.Sprintf("0x%02x", uint8(op))
}

func (op Opcode) Kind() OperandKind {
	info, _ := op.info()
	return info.kind
}

// Instruction is one decoded instruction at a byte offset of a method's code.
type Instruction struct {
	Offset int
	Opcode Opcode
	// Wide is set when the instruction was prefixed by the wide opcode.
	Wide bool
	// Index is the local variable slot or the constant pool index.
	Index uint16
	// Value holds the immediate operand: the bipush/sipush literal, the iinc
	// increment, the newarray element type, the invokeinterface count or the
	// multianewarray dimensions.
	Value int32
	// Branch is the signed branch delta, relative to Offset.
	Branch int32
	Switch *Switch
}

// Target returns the absolute offset a branch instruction jumps to.
func (ins Instruction) Target() int {
	return ins.Offset + int(ins.Branch)
}

// Switch holds the jump table of tableswitch and lookupswitch. Offsets are
// relative to the switch instruction.
type Switch struct {
	Default int32
	Low     int32
	High    int32
	Keys    []int32
	Offsets []int32
}

// Len returns the number of non-default cases.
func (s *Switch) Len() int { return len(s.Offsets) }

// DecodeInstructions splits a method's code array into instructions.
func DecodeInstructions(code []byte) ([]Instruction, error) {
	d := &decoder{code: code}
	var instructions []Instruction
	for d.pos < len(code) {
		ins, err := d.next()
		if err != nil {
			return nil, fmt.Errorf("at offset %d: %w", d.start, err)
		}
		instructions = append(instructions, ins)
	}
	return instructions, nil
}

type decoder struct {
	code  []byte
	pos   int
	start int
	err   error
}

func (d *decoder) u1() uint8 {
	if d.err != nil {
		return 0
	}
	if d.pos+1 > len(d.code) {
		d.err = ErrTruncatedBytecode
		return 0
	}
	v := d.code[d.pos]
	d.pos++
	return v
}

func (d *decoder) u2() uint16 {
	if d.err != nil {
		return 0
	}
	if d.pos+2 > len(d.code) {
		d.err = ErrTruncatedBytecode
		return 0
	}
	v := binary.BigEndian.Uint16(d.code[d.pos:])
	d.pos += 2
	return v
}

func (d *decoder) s4() int32 {
	if d.err != nil {
		return 0
	}
	if d.pos+4 > len(d.code) {
		d.err = ErrTruncatedBytecode
		return 0
	}
	v := int32(binary.BigEndian.Uint32(d.code[d.pos:]))
	d.pos += 4
	return v
}

func (d *decoder) next() (Instruction, error) {
	d.start = d.pos
	op := Opcode(d.u1())
	info, ok := op.info()
	if !ok {
		return Instruction{}, fmt.Errorf("unknown opcode 0x%02x", uint8(op))
	}

	ins := Instruction{Offset: d.start, Opcode: op}
	switch info.kind {
	case KindNone:
	case KindLocal:
		ins.Index = uint16(d.u1())
	case KindImplicitLocal:
		ins.Index = implicitSlot(info.name)
	case KindConstantByte:
		ins.Index = uint16(d.u1())
	case KindConstant:
		ins.Index = d.u2()
	case KindByte:
		ins.Value = int32(int8(d.u1()))
	case KindShort:
		ins.Value = int32(int16(d.u2()))
	case KindBranch:
		ins.Branch = int32(int16(d.u2()))
	case KindBranchWide:
		ins.Branch = d.s4()
	case KindIinc:
		ins.Index = uint16(d.u1())
		ins.Value = int32(int8(d.u1()))
	case KindNewArray:
		ins.Value = int32(d.u1())
	case KindInvokeInterface:
		ins.Index = d.u2()
		ins.Value = int32(d.u1())
		d.u1()
	case KindInvokeDynamic:
		ins.Index = d.u2()
		d.u2()
	case KindMultiANewArray:
		ins.Index = d.u2()
		ins.Value = int32(d.u1())
	case KindTableSwitch, KindLookupSwitch:
		ins.Switch = d.switchTable(info.kind)
	case KindWide:
		return d.wide()
	}
	return ins, d.err
}

func (d *decoder) wide() (Instruction, error) {
	op := Opcode(d.u1())
	if d.err != nil {
		return Instruction{}, d.err
	}
	ins := Instruction{Offset: d.start, Opcode: op, Wide: true}
	switch op.Kind() {
	case KindLocal:
		ins.Index = d.u2()
	case KindIinc:
		ins.Index = d.u2()
		ins.Value = int32(int16(d.u2()))
	default:
		return Instruction{}, fmt.Errorf("wide cannot modify %s", op)
	}
	return ins, d.err
}

func (d *decoder) switchTable(kind OperandKind) *Switch {
	// operands start on the next 4-byte boundary of the code array
	for d.pos%4 != 0 && d.err == nil {
		d.u1()
	}
	s := &Switch{Default: d.s4()}
	if kind == KindTableSwitch {
		s.Low = d.s4()
		s.High = d.s4()
		if d.err == nil && s.High < s.Low {
			d.err = fmt.Errorf("tableswitch high %d below low %d", s.High, s.Low)
			return s
		}
		for key := int64(s.Low); key <= int64(s.High) && d.err == nil; key++ {
			s.Keys = append(s.Keys, int32(key))
			s.Offsets = append(s.Offsets, d.s4())
		}
		return s
	}
	pairs := d.s4()
	if d.err == nil && pairs < 0 {
		d.err = fmt.Errorf("lookupswitch with %d pairs", pairs)
		return s
	}
	for i := int32(0); i < pairs && d.err == nil; i++ {
		s.Keys = append(s.Keys, d.s4())
		s.Offsets = append(s.Offsets, d.s4())
	}
	return s
}

// implicitSlot extracts the slot from mnemonics such as aload_0.
func implicitSlot(name string) uint16 {
	return uint16(name[len(name)-1] - '0')
}
