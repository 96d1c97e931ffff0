package classfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"strings"
	"testing"
)

// classBuilder writes big-endian class file structures.
type classBuilder struct {
	buf bytes.Buffer
}

func (b *classBuilder) u1(v uint8) *classBuilder {
	b.buf.WriteByte(v)
	return b
}

func (b *classBuilder) u2(v uint16) *classBuilder {
	binary.Write(&b.buf, binary.BigEndian, v)
	return b
}

func (b *classBuilder) u4(v uint32) *classBuilder {
	binary.Write(&b.buf, binary.BigEndian, v)
	return b
}

func (b *classBuilder) raw(p []byte) *classBuilder {
	b.buf.Write(p)
	return b
}

func (b *classBuilder) utf8(s string) *classBuilder {
	return b.u1(uint8(ConstantUtf8)).u2(uint16(len(s))).raw([]byte(s))
}

// attribute writes name index, length and body.
func (b *classBuilder) attribute(nameIndex uint16, body *classBuilder) *classBuilder {
	return b.u2(nameIndex).u4(uint32(body.buf.Len())).raw(body.buf.Bytes())
}

func (b *classBuilder) bytes() []byte {
	return b.buf.Bytes()
}

// dummyClass is the class file javac emits for `public class Dummy {}`.
func dummyClass() []byte {
	b := &classBuilder{}
	b.u4(Magic).u2(0).u2(52)

	b.u2(13)
	b.u1(uint8(ConstantMethodref)).u2(3).u2(10) // #1
	b.u1(uint8(ConstantClass)).u2(11)           // #2
	b.u1(uint8(ConstantClass)).u2(12)           // #3
	b.utf8("<init>")                            // #4
	b.utf8("()V")                               // #5
	b.utf8("Code")                              // #6
	b.utf8("LineNumberTable")                   // #7
	b.utf8("SourceFile")                        // #8
	b.utf8("Dummy.java")                        // #9
	b.u1(uint8(ConstantNameAndType)).u2(4).u2(5) // #10
	b.utf8("Dummy")                             // #11
	b.utf8("java/lang/Object")                  // #12

	b.u2(uint16(AccPublic | AccSuper)).u2(2).u2(3)
	b.u2(0) // interfaces
	b.u2(0) // fields

	lines := (&classBuilder{}).u2(1).u2(0).u2(1)
	code := (&classBuilder{}).u2(1).u2(1).
		u4(5).raw([]byte{0x2a, 0xb7, 0x00, 0x01, 0xb1}).
		u2(0).
		u2(1).attribute(7, lines)

	b.u2(1)
	b.u2(uint16(AccPublic)).u2(4).u2(5).u2(1).attribute(6, code)

	b.u2(1).attribute(8, (&classBuilder{}).u2(9))
	return b.bytes()
}

func TestParseClassFile(t *testing.T) {
	cf, err := Parse(bytes.NewReader(dummyClass()))
	if err != nil {
		t.Fatalf("Failed to parse class file: %v", err)
	}

	t.Run("version", func(t *testing.T) {
		if cf.MajorVersion != 52 || cf.MinorVersion != 0 {
			t.Errorf("version = %d.%d, want 52.0", cf.MajorVersion, cf.MinorVersion)
		}
	})

	t.Run("class name", func(t *testing.T) {
		got, err := cf.ClassName()
		if err != nil {
			t.Fatalf("ClassName() error: %v", err)
		}
		if got != "Dummy" {
			t.Errorf("ClassName() = %q, want %q", got, "Dummy")
		}
	})

	t.Run("access flags", func(t *testing.T) {
		if !cf.AccessFlags.Has(AccPublic) || !cf.AccessFlags.Has(AccSuper) {
			t.Errorf("AccessFlags = 0x%04x, want public super", uint16(cf.AccessFlags))
		}
	})

	t.Run("source file", func(t *testing.T) {
		name, ok, err := cf.SourceFile()
		if err != nil || !ok {
			t.Fatalf("SourceFile() = %q, %v, %v", name, ok, err)
		}
		if name != "Dummy.java" {
			t.Errorf("SourceFile() = %q, want %q", name, "Dummy.java")
		}
	})

	t.Run("constructor code", func(t *testing.T) {
		if len(cf.Methods) != 1 {
			t.Fatalf("Expected 1 method, got %d", len(cf.Methods))
		}
		m := &cf.Methods[0]
		name, _ := m.Name(cf.ConstantPool)
		if name != ConstructorName {
			t.Errorf("Name() = %q, want %q", name, ConstructorName)
		}
		code, ok := m.Code(cf.ConstantPool)
		if !ok {
			t.Fatal("Expected a Code attribute")
		}
		if code.MaxStack != 1 || code.MaxLocals != 1 {
			t.Errorf("stack=%d locals=%d, want 1 and 1", code.MaxStack, code.MaxLocals)
		}
		want := []Instruction{
			{Offset: 0, Opcode: Aload0, Index: 0},
			{Offset: 1, Opcode: Invokespecial, Index: 1},
			{Offset: 4, Opcode: Return},
		}
		if len(code.Instructions) != len(want) {
			t.Fatalf("got %d instructions, want %d", len(code.Instructions), len(want))
		}
		for i, ins := range code.Instructions {
			if ins.Offset != want[i].Offset || ins.Opcode != want[i].Opcode || ins.Index != want[i].Index {
				t.Errorf("instruction %d = %+v, want %+v", i, ins, want[i])
			}
		}
		lines := code.LineNumbers()
		if len(lines) != 1 || lines[0].LineNumber != 1 || lines[0].StartPC != 0 {
			t.Errorf("LineNumbers() = %+v, want [{0 1}]", lines)
		}
	})
}

func TestParseLongOccupiesTwoSlots(t *testing.T) {
	b := &classBuilder{}
	b.u4(Magic).u2(0).u2(52)
	b.u2(6)
	b.u1(uint8(ConstantLong)).u4(0).u4(42) // #1, #2 unusable
	b.u1(uint8(ConstantClass)).u2(4)       // #3
	b.utf8("Longs")                        // #4
	b.utf8("unused")                       // #5
	b.u2(0).u2(3).u2(0)
	b.u2(0).u2(0).u2(0).u2(0)

	cf, err := Parse(bytes.NewReader(b.bytes()))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(cf.ConstantPool) != 5 {
		t.Fatalf("pool has %d slots, want 5", len(cf.ConstantPool))
	}
	if l, ok := cf.ConstantPool[0].(*ConstantLongInfo); !ok || l.Value != 42 {
		t.Errorf("#1 = %#v, want Long 42", cf.ConstantPool[0])
	}
	if cf.ConstantPool[1] != nil {
		t.Errorf("#2 = %#v, want unusable slot", cf.ConstantPool[1])
	}
	if name, err := cf.ClassName(); err != nil || name != "Longs" {
		t.Errorf("ClassName() = %q, %v", name, err)
	}
	if _, ok, err := cf.SourceFile(); ok || err != nil {
		t.Errorf("SourceFile() ok=%v err=%v, want absent", ok, err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		wantErr string
	}{
		{
			name:    "empty",
			input:   nil,
			wantErr: "failed to read magic",
		},
		{
			name:    "bad magic",
			input:   []byte{0xde, 0xad, 0xbe, 0xef},
			wantErr: "invalid magic number",
		},
		{
			name:    "truncated pool",
			input:   (&classBuilder{}).u4(Magic).u2(0).u2(52).u2(3).utf8("x").bytes(),
			wantErr: "constant pool entry #2",
		},
		{
			name:    "unknown tag",
			input:   (&classBuilder{}).u4(Magic).u2(0).u2(52).u2(2).u1(2).bytes(),
			wantErr: "unknown constant pool tag: 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(bytes.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}

	t.Run("attribute longer than input", func(t *testing.T) {
		b := (&classBuilder{}).u4(Magic).u2(0).u2(52)
		b.u2(2).utf8("Oversized")
		b.u2(0).u2(0).u2(0).u2(0).u2(0).u2(0)
		b.u2(1).u2(1).u4(0xFFFFFFFF)
		_, err := Parse(bytes.NewReader(b.bytes()))
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("error = %v, want io.ErrUnexpectedEOF", err)
		}
	})

	t.Run("truncated code attribute", func(t *testing.T) {
		b := (&classBuilder{}).u4(Magic).u2(0).u2(52)
		b.u2(2).utf8("Code")
		b.u2(0).u2(0).u2(0).u2(0).u2(0)
		b.u2(1).u2(0).u2(1).u2(1).u2(1)
		b.attribute(1, (&classBuilder{}).u2(1).u2(1).u4(10).raw([]byte{0x2a}))
		b.u2(0)
		_, err := Parse(bytes.NewReader(b.bytes()))
		if err == nil || !strings.Contains(err.Error(), "Code attribute") {
			t.Errorf("error = %v, want a Code attribute error", err)
		}
	})

	t.Run("truncated input is io error", func(t *testing.T) {
		_, err := Parse(bytes.NewReader([]byte{0xCA, 0xFE}))
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("error = %v, want io.ErrUnexpectedEOF", err)
		}
	})
}

func TestDecodeModifiedUtf8(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"ascii", []byte("hello"), "hello"},
		{"two byte nul", []byte{0xC0, 0x80}, "\x00"},
		{"three byte", []byte{0xE2, 0x82, 0xAC}, "€"},
		{"surrogate pair", []byte{0xED, 0xA0, 0xBD, 0xED, 0xB8, 0x80}, "😀"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decodeModifiedUtf8(tt.input); got != tt.want {
				t.Errorf("decodeModifiedUtf8() = %q, want %q", got, tt.want)
			}
		})
	}
}
