package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dhamidi/javap/classfile"
)

var arrayTypeNames = map[int32]string{
	4:  "boolean",
	5:  "char",
	6:  "float",
	7:  "double",
	8:  "byte",
	9:  "short",
	10: "int",
	11: "long",
}

// FormatInstruction renders the mnemonic and operands of one instruction,
// e.g. "invokespecial #1" or "goto          12". Branch operands are shown as
// absolute offsets. For switches only the opening line is returned.
func FormatInstruction(ins classfile.Instruction) string {
	name := ins.Opcode.String()

	switch ins.Opcode.Kind() {
	case classfile.KindLocal:
		return withOperand(name, strconv.Itoa(int(ins.Index)))
	case classfile.KindConstantByte, classfile.KindConstant:
		return withOperand(name, fmt.Sprintf("#%d", ins.Index))
	case classfile.KindByte, classfile.KindShort:
		return withOperand(name, strconv.Itoa(int(ins.Value)))
	case classfile.KindBranch, classfile.KindBranchWide:
		return withOperand(name, strconv.Itoa(ins.Target()))
	case classfile.KindIinc:
		return withOperand(name, fmt.Sprintf("%d, %d", ins.Index, ins.Value))
	case classfile.KindNewArray:
		typeName, ok := arrayTypeNames[ins.Value]
		if !ok {
			typeName = strconv.Itoa(int(ins.Value))
		}
		return withOperand(name, typeName)
	case classfile.KindInvokeInterface, classfile.KindMultiANewArray:
		return withOperand(name, fmt.Sprintf("#%d,  %d", ins.Index, ins.Value))
	case classfile.KindInvokeDynamic:
		return withOperand(name, fmt.Sprintf("#%d,  0", ins.Index))
	case classfile.KindTableSwitch:
		return withOperand(name, fmt.Sprintf("{ // %d to %d", ins.Switch.Low, ins.Switch.High))
	case classfile.KindLookupSwitch:
		return withOperand(name, fmt.Sprintf("{ // %d", ins.Switch.Len()))
	default:
		return name
	}
}

func withOperand(name, operand string) string {
	return fmt.Sprintf("%-13s %s", name, operand)
}

func (e *JavapEncoder) writeMethod(sb *strings.Builder, className string, m *classfile.MethodInfo) error {
	cp := e.class.ConstantPool

	name, err := m.Name(cp)
	if err != nil {
		return fmt.Errorf("method name: %w", err)
	}
	if name == classfile.ConstructorName {
		name = className
	}
	descriptor, err := m.Descriptor(cp)
	if err != nil {
		return fmt.Errorf("descriptor of %s: %w", name, err)
	}

	flags, argsSize := placeholder, placeholder
	if e.methodDetails {
		md, err := classfile.ParseMethodDescriptor(descriptor)
		if err != nil {
			return err
		}
		flags = MethodFlags(m.AccessFlags)
		argsSize = strconv.Itoa(md.ArgsSize(m.IsStatic()))
	}

	fmt.Fprintf(sb, "  %s();\n", name)
	fmt.Fprintf(sb, "    descriptor: %s\n", descriptor)
	fmt.Fprintf(sb, "    flags: %s\n", flags)

	code, ok := m.Code(cp)
	if !ok {
		if e.skipMissingCode {
			log.Debugf("%s has no code, skipping", name)
			return nil
		}
		return fmt.Errorf("%w: %s", ErrMissingCode, name)
	}

	sb.WriteString("    Code:\n")
	fmt.Fprintf(sb, "      stack=%d, locals=%d, args_size=%s\n", code.MaxStack, code.MaxLocals, argsSize)

	for _, ins := range code.Instructions {
		if err := e.writeInstruction(sb, ins); err != nil {
			return fmt.Errorf("%s at %d: %w", name, ins.Offset, err)
		}
	}

	if len(code.ExceptionTable) > 0 {
		if err := writeExceptionTable(sb, cp, code.ExceptionTable); err != nil {
			return fmt.Errorf("exception table of %s: %w", name, err)
		}
	}

	if e.lineNumbers {
		writeLineNumbers(sb, code.LineNumbers())
	}
	return nil
}

func (e *JavapEncoder) writeInstruction(sb *strings.Builder, ins classfile.Instruction) error {
	text := FormatInstruction(ins)

	comment := ""
	if e.constants {
		var err error
		if comment, err = constantComment(e.class.ConstantPool, ins); err != nil {
			return err
		}
	}

	if comment == "" {
		fmt.Fprintf(sb, "        %3d: %-35s\n", ins.Offset, text)
	} else {
		fmt.Fprintf(sb, "        %3d: %-35s// %s\n", ins.Offset, text, comment)
	}

	if ins.Switch != nil {
		writeSwitchCases(sb, ins)
	}
	return nil
}

func writeSwitchCases(sb *strings.Builder, ins classfile.Instruction) {
	s := ins.Switch
	for i, key := range s.Keys {
		fmt.Fprintf(sb, "%24d: %d\n", key, ins.Offset+int(s.Offsets[i]))
	}
	fmt.Fprintf(sb, "%24s: %d\n", "default", ins.Offset+int(s.Default))
	sb.WriteString("            }\n")
}

// constantComment resolves the constant pool operand of ins for display next
// to the instruction. It returns "" for instructions without one.
func constantComment(cp classfile.ConstantPool, ins classfile.Instruction) (string, error) {
	switch ins.Opcode.Kind() {
	case classfile.KindConstantByte, classfile.KindConstant, classfile.KindInvokeInterface,
		classfile.KindInvokeDynamic, classfile.KindMultiANewArray:
	default:
		return "", nil
	}

	entry, err := cp.Entry(ins.Index)
	if err != nil {
		return "", err
	}

	var kind, value string
	switch c := entry.(type) {
	case *classfile.ConstantFieldrefInfo:
		kind = "Field"
		value, err = memberRef(cp, c.ClassIndex, c.NameAndTypeIndex)
	case *classfile.ConstantMethodrefInfo:
		kind = "Method"
		value, err = memberRef(cp, c.ClassIndex, c.NameAndTypeIndex)
	case *classfile.ConstantInterfaceMethodrefInfo:
		kind = "InterfaceMethod"
		value, err = memberRef(cp, c.ClassIndex, c.NameAndTypeIndex)
	case *classfile.ConstantClassInfo:
		kind = "class"
		value, err = cp.Utf8(c.NameIndex)
	case *classfile.ConstantStringInfo:
		kind = "String"
		value, err = cp.Utf8(c.StringIndex)
	case *classfile.ConstantIntegerInfo:
		kind, value = "int", strconv.Itoa(int(c.Value))
	case *classfile.ConstantFloatInfo:
		kind, value = "float", javaFloat(float64(c.Value), 32)+"f"
	case *classfile.ConstantLongInfo:
		kind, value = "long", strconv.FormatInt(c.Value, 10)+"l"
	case *classfile.ConstantDoubleInfo:
		kind, value = "double", javaFloat(c.Value, 64)+"d"
	case *classfile.ConstantInvokeDynamicInfo:
		kind = "InvokeDynamic"
		value, err = dynamicRef(cp, c.BootstrapMethodAttrIndex, c.NameAndTypeIndex)
	case *classfile.ConstantDynamicInfo:
		kind = "Dynamic"
		value, err = dynamicRef(cp, c.BootstrapMethodAttrIndex, c.NameAndTypeIndex)
	case *classfile.ConstantMethodHandleInfo:
		kind = "MethodHandle"
		value, err = methodHandleRef(cp, c)
	case *classfile.ConstantMethodTypeInfo:
		kind = "MethodType"
		value, err = cp.Utf8(c.DescriptorIndex)
	default:
		return "", fmt.Errorf("%w: #%d is %s, not an instruction operand",
			classfile.ErrOutOfRangeIndex, ins.Index, entry.Tag())
	}
	if err != nil {
		return "", err
	}
	return kind + " " + value, nil
}

func writeExceptionTable(sb *strings.Builder, cp classfile.ConstantPool, table []classfile.ExceptionTableEntry) error {
	sb.WriteString("      Exception table:\n")
	sb.WriteString("         from    to  target type\n")

	for _, entry := range table {
		catchType := "any"
		if entry.CatchType != 0 {
			name, err := cp.ClassName(entry.CatchType)
			if err != nil {
				return err
			}
			catchType = "Class " + name
		}
		fmt.Fprintf(sb, "         %5d %5d %5d   %s\n", entry.StartPC, entry.EndPC, entry.HandlerPC, catchType)
	}
	return nil
}

func writeLineNumbers(sb *strings.Builder, lines []classfile.LineNumberEntry) {
	if len(lines) == 0 {
		return
	}
	sb.WriteString("      LineNumberTable:\n")
	for _, l := range lines {
		fmt.Fprintf(sb, "        line %d: %d\n", l.LineNumber, l.StartPC)
	}
}
