package classfile

import "fmt"

type AttributeInfo struct {
	NameIndex uint16
	Info      []byte
	Parsed    interface{}
}

type CodeAttribute struct {
	MaxStack       uint16
	MaxLocals      uint16
	Code           []byte
	Instructions   []Instruction
	ExceptionTable []ExceptionTableEntry
	Attributes     []AttributeInfo
}

// ExceptionTableEntry covers [StartPC, EndPC). A CatchType of 0 catches any
// throwable.
type ExceptionTableEntry struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16
}

type LineNumberTableAttribute struct {
	LineNumberTable []LineNumberEntry
}

type LineNumberEntry struct {
	StartPC    uint16
	LineNumber uint16
}

type SourceFileAttribute struct {
	SourceFileIndex uint16
}

func (a *AttributeInfo) AsCode() *CodeAttribute {
	if code, ok := a.Parsed.(*CodeAttribute); ok {
		return code
	}
	return nil
}

func (a *AttributeInfo) AsLineNumberTable() *LineNumberTableAttribute {
	if lnt, ok := a.Parsed.(*LineNumberTableAttribute); ok {
		return lnt
	}
	return nil
}

func (a *AttributeInfo) AsSourceFile() *SourceFileAttribute {
	if sf, ok := a.Parsed.(*SourceFileAttribute); ok {
		return sf
	}
	return nil
}

// LineNumbers returns the entries of every LineNumberTable attached to the
// code, in attribute order.
func (c *CodeAttribute) LineNumbers() []LineNumberEntry {
	var entries []LineNumberEntry
	for i := range c.Attributes {
		if lnt := c.Attributes[i].AsLineNumberTable(); lnt != nil {
			entries = append(entries, lnt.LineNumberTable...)
		}
	}
	return entries
}

func parseCodeAttribute(info []byte, cp ConstantPool) (*CodeAttribute, error) {
	r := newByteReader(info)

	code := &CodeAttribute{
		MaxStack:  r.readU2(),
		MaxLocals: r.readU2(),
	}
	code.Code = r.readBytes(r.readU4())
	if r.err != nil {
		return nil, fmt.Errorf("reading bytecode: %w", r.err)
	}

	instructions, err := DecodeInstructions(code.Code)
	if err != nil {
		return nil, fmt.Errorf("decoding bytecode: %w", err)
	}
	code.Instructions = instructions

	code.ExceptionTable = make([]ExceptionTableEntry, r.readU2())
	for i := range code.ExceptionTable {
		code.ExceptionTable[i] = ExceptionTableEntry{
			StartPC:   r.readU2(),
			EndPC:     r.readU2(),
			HandlerPC: r.readU2(),
			CatchType: r.readU2(),
		}
	}
	if r.err != nil {
		return nil, fmt.Errorf("reading exception table: %w", r.err)
	}

	// LineNumberTable and friends use the same layout as class attributes
	if code.Attributes, err = readAttributes(r, cp); err != nil {
		return nil, err
	}
	return code, nil
}

func parseLineNumberTableAttribute(info []byte) (*LineNumberTableAttribute, error) {
	r := newByteReader(info)
	lnt := &LineNumberTableAttribute{
		LineNumberTable: make([]LineNumberEntry, r.readU2()),
	}
	for i := range lnt.LineNumberTable {
		lnt.LineNumberTable[i] = LineNumberEntry{
			StartPC:    r.readU2(),
			LineNumber: r.readU2(),
		}
	}
	if r.err != nil {
		return nil, fmt.Errorf("LineNumberTable attribute: %w", r.err)
	}
	return lnt, nil
}

func parseSourceFileAttribute(info []byte) (*SourceFileAttribute, error) {
	r := newByteReader(info)
	sf := &SourceFileAttribute{SourceFileIndex: r.readU2()}
	if r.err != nil {
		return nil, fmt.Errorf("SourceFile attribute: %w", r.err)
	}
	return sf, nil
}
