package format

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/dhamidi/javap/classfile"
)

func TestFormatInstruction(t *testing.T) {
	tests := []struct {
		name     string
		code     []byte
		expected []string
	}{
		{"no operands", []byte{0x2a, 0xb1}, []string{"aload_0", "return"}},
		{"constant index", []byte{0xb7, 0x00, 0x01}, []string{"invokespecial #1"}},
		{"short mnemonic is padded", []byte{0xb4, 0x00, 0x02}, []string{"getfield      #2"}},
		{"ldc", []byte{0x12, 0x04}, []string{"ldc           #4"}},
		{"bipush negative", []byte{0x10, 0xfb}, []string{"bipush        -5"}},
		{"sipush", []byte{0x11, 0x01, 0x00}, []string{"sipush        256"}},
		{"local slot", []byte{0x15, 0x05}, []string{"iload         5"}},
		{"wide local slot", []byte{0xc4, 0x15, 0x01, 0x00}, []string{"iload         256"}},
		{"iinc", []byte{0x84, 0x01, 0xff}, []string{"iinc          1, -1"}},
		{"backward branch", []byte{0x00, 0xa7, 0xff, 0xff}, []string{"nop", "goto          0"}},
		{"forward branch", []byte{0x03, 0x99, 0x00, 0x04, 0x00, 0xb1}, []string{"iconst_0", "ifeq          5", "nop", "return"}},
		{"newarray", []byte{0xbc, 0x0a}, []string{"newarray      int"}},
		{"invokeinterface", []byte{0xb9, 0x00, 0x05, 0x02, 0x00}, []string{"invokeinterface #5,  2"}},
		{"invokedynamic", []byte{0xba, 0x00, 0x07, 0x00, 0x00}, []string{"invokedynamic #7,  0"}},
		{"multianewarray", []byte{0xc5, 0x00, 0x03, 0x02}, []string{"multianewarray #3,  2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instructions, err := classfile.DecodeInstructions(tt.code)
			if err != nil {
				t.Fatalf("DecodeInstructions() error = %v", err)
			}
			if len(instructions) != len(tt.expected) {
				t.Fatalf("decoded %d instructions, want %d", len(instructions), len(tt.expected))
			}
			for i, ins := range instructions {
				if got := FormatInstruction(ins); got != tt.expected[i] {
					t.Errorf("FormatInstruction(%d) = %q, want %q", i, got, tt.expected[i])
				}
			}
		})
	}
}

func TestSwitchRendering(t *testing.T) {
	cf := dummyClass(t)
	code := codeAttribute(t, 1, 1, []byte{
		0xaa, 0x00, 0x00, 0x00, // tableswitch, padding
		0x00, 0x00, 0x00, 0x1c, // default
		0x00, 0x00, 0x00, 0x00, // low
		0x00, 0x00, 0x00, 0x01, // high
		0x00, 0x00, 0x00, 0x18,
		0x00, 0x00, 0x00, 0x1a,
		0x00, 0x00, 0x00, 0x00, // nop x4
		0x00, 0x00, 0x00, 0xb1,
	})
	cf.Methods[0].Attributes[0].Parsed = code

	got, err := encode(cf)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	want := "          0: tableswitch   { // 0 to 1          \n" +
		"                       0: 24\n" +
		"                       1: 26\n" +
		"                 default: 28\n" +
		"            }\n" +
		"         24: nop                                \n"
	if !strings.Contains(got, want) {
		t.Errorf("switch rendering mismatch:\n%s", got)
	}
}

func TestLookupSwitchHead(t *testing.T) {
	instructions, err := classfile.DecodeInstructions([]byte{
		0xab, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x14, // default
		0x00, 0x00, 0x00, 0x01, // npairs
		0xff, 0xff, 0xff, 0xfb, 0x00, 0x00, 0x00, 0x14,
	})
	if err != nil {
		t.Fatalf("DecodeInstructions() error = %v", err)
	}
	if got := FormatInstruction(instructions[0]); got != "lookupswitch  { // 1" {
		t.Errorf("FormatInstruction() = %q", got)
	}

	var sb strings.Builder
	writeSwitchCases(&sb, instructions[0])
	want := "                      -5: 20\n" +
		"                 default: 20\n" +
		"            }\n"
	if sb.String() != want {
		t.Errorf("writeSwitchCases() = %q, want %q", sb.String(), want)
	}
}

func TestConstantComment(t *testing.T) {
	cp := classfile.ConstantPool{
		&classfile.ConstantMethodrefInfo{ClassIndex: 3, NameAndTypeIndex: 10},
		&classfile.ConstantFieldrefInfo{ClassIndex: 3, NameAndTypeIndex: 11},
		&classfile.ConstantClassInfo{NameIndex: 12},
		&classfile.ConstantStringInfo{StringIndex: 13},
		&classfile.ConstantIntegerInfo{Value: 100000},
		&classfile.ConstantLongInfo{Value: 7},
		nil,
		&classfile.ConstantInvokeDynamicInfo{BootstrapMethodAttrIndex: 0, NameAndTypeIndex: 10},
		&classfile.ConstantDoubleInfo{Value: 2.5},
		&classfile.ConstantNameAndTypeInfo{NameIndex: 14, DescriptorIndex: 15},
		&classfile.ConstantNameAndTypeInfo{NameIndex: 16, DescriptorIndex: 17},
		utf8("java/lang/Object"),
		utf8("hello"),
		utf8("run"),
		utf8("()V"),
		utf8("out"),
		utf8("Ljava/io/PrintStream;"),
	}

	tests := []struct {
		name     string
		code     []byte
		expected string
	}{
		{"method", []byte{0xb6, 0x00, 0x01}, `Method java/lang/Object."run":()V`},
		{"field", []byte{0xb2, 0x00, 0x02}, `Field java/lang/Object."out":Ljava/io/PrintStream;`},
		{"class", []byte{0xbb, 0x00, 0x03}, "class java/lang/Object"},
		{"string", []byte{0x12, 0x04}, "String hello"},
		{"int", []byte{0x12, 0x05}, "int 100000"},
		{"long", []byte{0x14, 0x00, 0x06}, "long 7l"},
		{"double", []byte{0x14, 0x00, 0x09}, "double 2.5d"},
		{"invokedynamic", []byte{0xba, 0x00, 0x08, 0x00, 0x00}, `InvokeDynamic #0:"run":()V`},
		{"no constant", []byte{0x2a}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instructions, err := classfile.DecodeInstructions(tt.code)
			if err != nil {
				t.Fatalf("DecodeInstructions() error = %v", err)
			}
			got, err := constantComment(cp, instructions[0])
			if err != nil {
				t.Fatalf("constantComment() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("constantComment() = %q, want %q", got, tt.expected)
			}
		})
	}

	t.Run("unusable slot", func(t *testing.T) {
		instructions, _ := classfile.DecodeInstructions([]byte{0x14, 0x00, 0x07})
		if _, err := constantComment(cp, instructions[0]); !errors.Is(err, classfile.ErrOutOfRangeIndex) {
			t.Errorf("constantComment() error = %v, want ErrOutOfRangeIndex", err)
		}
	})
}

func TestFormatConstant(t *testing.T) {
	cp := classfile.ConstantPool{
		&classfile.ConstantIntegerInfo{Value: -3},
		&classfile.ConstantFloatInfo{Value: 1.5},
		&classfile.ConstantLongInfo{Value: 1 << 40},
		nil,
		&classfile.ConstantStringInfo{StringIndex: 7},
		&classfile.ConstantMethodHandleInfo{ReferenceKind: classfile.RefInvokeStatic, ReferenceIndex: 8},
		utf8("hi there"),
		&classfile.ConstantMethodrefInfo{ClassIndex: 9, NameAndTypeIndex: 11},
		&classfile.ConstantClassInfo{NameIndex: 10},
		utf8("Util"),
		&classfile.ConstantNameAndTypeInfo{NameIndex: 12, DescriptorIndex: 13},
		utf8("twice"),
		utf8("(I)I"),
		&classfile.ConstantMethodTypeInfo{DescriptorIndex: 13},
		&classfile.ConstantInterfaceMethodrefInfo{ClassIndex: 9, NameAndTypeIndex: 11},
	}

	tests := []struct {
		index    uint16
		expected string
	}{
		{1, "Integer             -3"},
		{2, "Float               1.5f"},
		{3, "Long                1099511627776l"},
		{5, "String              #7              // hi there"},
		{6, `MethodHandle        6:#8            // REF_invokeStatic Util."twice":(I)I`},
		{8, `Methodref           #9.#11          // Util."twice":(I)I`},
		{14, "MethodType          #13             // (I)I"},
		{15, `InterfaceMethodref  #9.#11          // Util."twice":(I)I`},
	}

	for _, tt := range tests {
		entry, err := cp.Entry(tt.index)
		if err != nil {
			t.Fatalf("Entry(%d) error = %v", tt.index, err)
		}
		got, err := formatConstant(cp, entry)
		if err != nil {
			t.Errorf("formatConstant(#%d) error = %v", tt.index, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("formatConstant(#%d) = %q, want %q", tt.index, got, tt.expected)
		}
	}
}

func TestConstantPoolSkipsUnusableSlots(t *testing.T) {
	cp := classfile.ConstantPool{
		&classfile.ConstantDoubleInfo{Value: 1e10},
		nil,
		utf8("x"),
	}
	var sb strings.Builder
	if err := writeConstantPool(&sb, cp); err != nil {
		t.Fatalf("writeConstantPool() error = %v", err)
	}
	want := "Constant pool:\n" +
		"   #1 = Double              1.0E10d\n" +
		"   #3 = Utf8                x\n"
	if sb.String() != want {
		t.Errorf("writeConstantPool() = %q, want %q", sb.String(), want)
	}
}

func TestJavaFloat(t *testing.T) {
	tests := []struct {
		value    float64
		bitSize  int
		expected string
	}{
		{1, 64, "1.0"},
		{0.5, 64, "0.5"},
		{100, 32, "100.0"},
		{1e7, 64, "1.0E7"},
		{1.25e-5, 64, "1.25E-5"},
		{0.001, 64, "0.001"},
		{math.Copysign(0, -1), 64, "-0.0"},
		{math.Inf(1), 64, "Infinity"},
		{math.Inf(-1), 32, "-Infinity"},
		{math.NaN(), 64, "NaN"},
		{float64(float32(3.14)), 32, "3.14"},
	}

	for _, tt := range tests {
		if got := javaFloat(tt.value, tt.bitSize); got != tt.expected {
			t.Errorf("javaFloat(%v, %d) = %q, want %q", tt.value, tt.bitSize, got, tt.expected)
		}
	}
}

func TestFlags(t *testing.T) {
	tests := []struct {
		name     string
		format   func(classfile.AccessFlags) string
		flags    classfile.AccessFlags
		expected string
	}{
		{"class public super", ClassFlags, classfile.AccPublic | classfile.AccSuper, "ACC_PUBLIC, ACC_SUPER"},
		{"class final before public in bits", ClassFlags, classfile.AccFinal | classfile.AccPublic, "ACC_PUBLIC, ACC_FINAL"},
		{"interface", ClassFlags, classfile.AccPublic | classfile.AccInterface | classfile.AccAbstract, "ACC_PUBLIC, ACC_INTERFACE, ACC_ABSTRACT"},
		{"enum", ClassFlags, classfile.AccFinal | classfile.AccSuper | classfile.AccEnum, "ACC_FINAL, ACC_SUPER, ACC_ENUM"},
		{"class ignores static", ClassFlags, classfile.AccStatic, ""},
		{"no flags", ClassFlags, 0, ""},
		{"method static", MethodFlags, classfile.AccPublic | classfile.AccStatic, "ACC_PUBLIC, ACC_STATIC"},
		{"method synchronized", MethodFlags, classfile.AccPrivate | classfile.AccSynchronized, "ACC_PRIVATE, ACC_SYNCHRONIZED"},
		{"method varargs", MethodFlags, classfile.AccProtected | classfile.AccVarargs | classfile.AccNative, "ACC_PROTECTED, ACC_VARARGS, ACC_NATIVE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.format(tt.flags); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}
