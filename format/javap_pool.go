package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dhamidi/javap/classfile"
)

func writeConstantPool(sb *strings.Builder, cp classfile.ConstantPool) error {
	sb.WriteString("Constant pool:\n")
	for i, entry := range cp {
		if entry == nil {
			continue
		}
		index := i + 1
		line, err := formatConstant(cp, entry)
		if err != nil {
			return fmt.Errorf("constant pool entry #%d: %w", index, err)
		}
		fmt.Fprintf(sb, "%5s = %s\n", "#"+strconv.Itoa(index), line)
	}
	return nil
}

func formatConstant(cp classfile.ConstantPool, entry classfile.ConstantPoolEntry) (string, error) {
	tag := entry.Tag().String()

	switch c := entry.(type) {
	case *classfile.ConstantUtf8Info:
		return fmt.Sprintf("%-20s%s", tag, c.Value), nil
	case *classfile.ConstantIntegerInfo:
		return fmt.Sprintf("%-20s%d", tag, c.Value), nil
	case *classfile.ConstantFloatInfo:
		return fmt.Sprintf("%-20s%sf", tag, javaFloat(float64(c.Value), 32)), nil
	case *classfile.ConstantLongInfo:
		return fmt.Sprintf("%-20s%dl", tag, c.Value), nil
	case *classfile.ConstantDoubleInfo:
		return fmt.Sprintf("%-20s%sd", tag, javaFloat(c.Value, 64)), nil

	case *classfile.ConstantClassInfo:
		name, err := cp.Utf8(c.NameIndex)
		return referenceLine(tag, fmt.Sprintf("#%d", c.NameIndex), name, err)
	case *classfile.ConstantStringInfo:
		text, err := cp.Utf8(c.StringIndex)
		return referenceLine(tag, fmt.Sprintf("#%d", c.StringIndex), text, err)
	case *classfile.ConstantFieldrefInfo:
		ref, err := memberRef(cp, c.ClassIndex, c.NameAndTypeIndex)
		return referenceLine(tag, fmt.Sprintf("#%d.#%d", c.ClassIndex, c.NameAndTypeIndex), ref, err)
	case *classfile.ConstantMethodrefInfo:
		ref, err := memberRef(cp, c.ClassIndex, c.NameAndTypeIndex)
		return referenceLine(tag, fmt.Sprintf("#%d.#%d", c.ClassIndex, c.NameAndTypeIndex), ref, err)
	case *classfile.ConstantInterfaceMethodrefInfo:
		ref, err := memberRef(cp, c.ClassIndex, c.NameAndTypeIndex)
		return referenceLine(tag, fmt.Sprintf("#%d.#%d", c.ClassIndex, c.NameAndTypeIndex), ref, err)
	case *classfile.ConstantNameAndTypeInfo:
		nat, err := nameAndType(cp, c.NameIndex, c.DescriptorIndex)
		return referenceLine(tag, fmt.Sprintf("#%d:#%d", c.NameIndex, c.DescriptorIndex), nat, err)

	case *classfile.ConstantMethodHandleInfo:
		ref, err := methodHandleRef(cp, c)
		return referenceLine(tag, fmt.Sprintf("%d:#%d", c.ReferenceKind, c.ReferenceIndex), ref, err)
	case *classfile.ConstantMethodTypeInfo:
		desc, err := cp.Utf8(c.DescriptorIndex)
		return referenceLine(tag, fmt.Sprintf("#%d", c.DescriptorIndex), desc, err)
	case *classfile.ConstantDynamicInfo:
		ref, err := dynamicRef(cp, c.BootstrapMethodAttrIndex, c.NameAndTypeIndex)
		return referenceLine(tag, fmt.Sprintf("#%d:#%d", c.BootstrapMethodAttrIndex, c.NameAndTypeIndex), ref, err)
	case *classfile.ConstantInvokeDynamicInfo:
		ref, err := dynamicRef(cp, c.BootstrapMethodAttrIndex, c.NameAndTypeIndex)
		return referenceLine(tag, fmt.Sprintf("#%d:#%d", c.BootstrapMethodAttrIndex, c.NameAndTypeIndex), ref, err)
	case *classfile.ConstantModuleInfo:
		name, err := cp.Utf8(c.NameIndex)
		return referenceLine(tag, fmt.Sprintf("#%d", c.NameIndex), name, err)
	case *classfile.ConstantPackageInfo:
		name, err := cp.Utf8(c.NameIndex)
		return referenceLine(tag, fmt.Sprintf("#%d", c.NameIndex), name, err)
	}

	return "", fmt.Errorf("unsupported constant %T", entry)
}

func referenceLine(tag, inline, comment string, err error) (string, error) {
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%-20s%-16s// %s", tag, inline, comment), nil
}

// nameAndType renders a name and descriptor pair as "name":descriptor.
func nameAndType(cp classfile.ConstantPool, nameIndex, descriptorIndex uint16) (string, error) {
	name, err := cp.Utf8(nameIndex)
	if err != nil {
		return "", err
	}
	descriptor, err := cp.Utf8(descriptorIndex)
	if err != nil {
		return "", err
	}
	return quoteMember(name, descriptor), nil
}

func nameAndTypeAt(cp classfile.ConstantPool, index uint16) (string, error) {
	name, descriptor, err := cp.NameAndType(index)
	if err != nil {
		return "", err
	}
	return quoteMember(name, descriptor), nil
}

func quoteMember(name, descriptor string) string {
	return "\"" + name + "\":" + descriptor
}

// memberRef renders a field or method reference as class."name":descriptor.
func memberRef(cp classfile.ConstantPool, classIndex, nameAndTypeIndex uint16) (string, error) {
	class, err := cp.ClassName(classIndex)
	if err != nil {
		return "", err
	}
	nat, err := nameAndTypeAt(cp, nameAndTypeIndex)
	if err != nil {
		return "", err
	}
	return class + "." + nat, nil
}

func methodHandleRef(cp classfile.ConstantPool, mh *classfile.ConstantMethodHandleInfo) (string, error) {
	entry, err := cp.Entry(mh.ReferenceIndex)
	if err != nil {
		return "", err
	}
	var ref string
	switch r := entry.(type) {
	case *classfile.ConstantFieldrefInfo:
		ref, err = memberRef(cp, r.ClassIndex, r.NameAndTypeIndex)
	case *classfile.ConstantMethodrefInfo:
		ref, err = memberRef(cp, r.ClassIndex, r.NameAndTypeIndex)
	case *classfile.ConstantInterfaceMethodrefInfo:
		ref, err = memberRef(cp, r.ClassIndex, r.NameAndTypeIndex)
	default:
		return "", fmt.Errorf("%w: method handle target #%d is %s",
			classfile.ErrOutOfRangeIndex, mh.ReferenceIndex, entry.Tag())
	}
	if err != nil {
		return "", err
	}
	return mh.ReferenceKind.String() + " " + ref, nil
}

// dynamicRef renders a bootstrap method index with its call site, as
// #0:"name":descriptor. Bootstrap indices point into the BootstrapMethods
// attribute, not the constant pool.
func dynamicRef(cp classfile.ConstantPool, bootstrapIndex, nameAndTypeIndex uint16) (string, error) {
	nat, err := nameAndTypeAt(cp, nameAndTypeIndex)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("#%d:%s", bootstrapIndex, nat), nil
}

// javaFloat formats v the way Java's Float.toString and Double.toString do.
func javaFloat(v float64, bitSize int) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		if math.Signbit(v) {
			return "-0.0"
		}
		return "0.0"
	}

	abs := math.Abs(v)
	if abs >= 1e-3 && abs < 1e7 {
		s := strconv.FormatFloat(v, 'f', -1, bitSize)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}

	s := strconv.FormatFloat(v, 'E', -1, bitSize)
	mantissa, exponent, _ := strings.Cut(s, "E")
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}
	exp, _ := strconv.Atoi(exponent)
	return mantissa + "E" + strconv.Itoa(exp)
}
