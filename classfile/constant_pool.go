package classfile

import (
	"errors"
	"fmt"
)

// ErrOutOfRangeIndex is returned when a constant pool index is zero, past the
// end of the pool, or addresses an entry of the wrong kind.
var ErrOutOfRangeIndex = errors.New("constant pool index out of range")

type ConstantPoolEntry interface {
	Tag() ConstantTag
}

type ConstantUtf8Info struct {
	Value string
}

func (c *ConstantUtf8Info) Tag() ConstantTag { return ConstantUtf8 }

type ConstantIntegerInfo struct {
	Value int32
}

func (c *ConstantIntegerInfo) Tag() ConstantTag { return ConstantInteger }

type ConstantFloatInfo struct {
	Value float32
}

func (c *ConstantFloatInfo) Tag() ConstantTag { return ConstantFloat }

type ConstantLongInfo struct {
	Value int64
}

func (c *ConstantLongInfo) Tag() ConstantTag { return ConstantLong }

type ConstantDoubleInfo struct {
	Value float64
}

func (c *ConstantDoubleInfo) Tag() ConstantTag { return ConstantDouble }

type ConstantClassInfo struct {
	NameIndex uint16
}

func (c *ConstantClassInfo) Tag() ConstantTag { return ConstantClass }

type ConstantStringInfo struct {
	StringIndex uint16
}

func (c *ConstantStringInfo) Tag() ConstantTag { return ConstantString }

type ConstantFieldrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantFieldrefInfo) Tag() ConstantTag { return ConstantFieldref }

type ConstantMethodrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantMethodrefInfo) Tag() ConstantTag { return ConstantMethodref }

type ConstantInterfaceMethodrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantInterfaceMethodrefInfo) Tag() ConstantTag { return ConstantInterfaceMethodref }

type ConstantNameAndTypeInfo struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

func (c *ConstantNameAndTypeInfo) Tag() ConstantTag { return ConstantNameAndType }

type ConstantMethodHandleInfo struct {
	ReferenceKind  MethodHandleKind
	ReferenceIndex uint16
}

func (c *ConstantMethodHandleInfo) Tag() ConstantTag { return ConstantMethodHandle }

type ConstantMethodTypeInfo struct {
	DescriptorIndex uint16
}

func (c *ConstantMethodTypeInfo) Tag() ConstantTag { return ConstantMethodType }

type ConstantDynamicInfo struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

func (c *ConstantDynamicInfo) Tag() ConstantTag { return ConstantDynamic }

type ConstantInvokeDynamicInfo struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

func (c *ConstantInvokeDynamicInfo) Tag() ConstantTag { return ConstantInvokeDynamic }

type ConstantModuleInfo struct {
	NameIndex uint16
}

func (c *ConstantModuleInfo) Tag() ConstantTag { return ConstantModule }

type ConstantPackageInfo struct {
	NameIndex uint16
}

func (c *ConstantPackageInfo) Tag() ConstantTag { return ConstantPackage }

// ConstantPool holds the entries of a class's constant pool. Entry #i lives at
// cp[i-1]; the slot following a Long or Double entry is nil.
type ConstantPool []ConstantPoolEntry

// Entry returns the entry at the 1-based index.
func (cp ConstantPool) Entry(index uint16) (ConstantPoolEntry, error) {
	if index == 0 || int(index) > len(cp) {
		return nil, fmt.Errorf("%w: #%d (pool size %d)", ErrOutOfRangeIndex, index, len(cp))
	}
	entry := cp[index-1]
	if entry == nil {
		return nil, fmt.Errorf("%w: #%d is an unusable slot", ErrOutOfRangeIndex, index)
	}
	return entry, nil
}

func (cp ConstantPool) Utf8(index uint16) (string, error) {
	entry, err := cp.Entry(index)
	if err != nil {
		return "", err
	}
	utf8, ok := entry.(*ConstantUtf8Info)
	if !ok {
		return "", wrongKind(index, ConstantUtf8, entry)
	}
	return utf8.Value, nil
}

// ClassName resolves a Class entry to its binary name, e.g. java/lang/Object.
func (cp ConstantPool) ClassName(index uint16) (string, error) {
	entry, err := cp.Entry(index)
	if err != nil {
		return "", err
	}
	class, ok := entry.(*ConstantClassInfo)
	if !ok {
		return "", wrongKind(index, ConstantClass, entry)
	}
	name, err := cp.Utf8(class.NameIndex)
	if err != nil {
		return "", fmt.Errorf("resolving name of class #%d: %w", index, err)
	}
	return name, nil
}

func (cp ConstantPool) NameAndType(index uint16) (name, descriptor string, err error) {
	entry, err := cp.Entry(index)
	if err != nil {
		return "", "", err
	}
	nat, ok := entry.(*ConstantNameAndTypeInfo)
	if !ok {
		return "", "", wrongKind(index, ConstantNameAndType, entry)
	}
	if name, err = cp.Utf8(nat.NameIndex); err != nil {
		return "", "", fmt.Errorf("resolving name of #%d: %w", index, err)
	}
	if descriptor, err = cp.Utf8(nat.DescriptorIndex); err != nil {
		return "", "", fmt.Errorf("resolving descriptor of #%d: %w", index, err)
	}
	return name, descriptor, nil
}

// String resolves a String entry to its text.
func (cp ConstantPool) String(index uint16) (string, error) {
	entry, err := cp.Entry(index)
	if err != nil {
		return "", err
	}
	str, ok := entry.(*ConstantStringInfo)
	if !ok {
		return "", wrongKind(index, ConstantString, entry)
	}
	return cp.Utf8(str.StringIndex)
}

func wrongKind(index uint16, want ConstantTag, got ConstantPoolEntry) error {
	return fmt.Errorf("%w: #%d is %s, not %s", ErrOutOfRangeIndex, index, got.Tag(), want)
}
