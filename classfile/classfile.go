package classfile

import "fmt"

type ClassFile struct {
	MinorVersion uint16
	MajorVersion uint16
	ConstantPool ConstantPool
	AccessFlags  AccessFlags
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []FieldInfo
	Methods      []MethodInfo
	Attributes   []AttributeInfo
}

// ClassName returns the binary name of this class.
func (cf *ClassFile) ClassName() (string, error) {
	name, err := cf.ConstantPool.ClassName(cf.ThisClass)
	if err != nil {
		return "", fmt.Errorf("resolving this_class: %w", err)
	}
	return name, nil
}

// SourceFile returns the name recorded in the SourceFile attribute. ok is
// false when the class has no such attribute; err is set when the attribute
// exists but its index cannot be resolved.
func (cf *ClassFile) SourceFile() (name string, ok bool, err error) {
	attr := cf.GetAttribute("SourceFile")
	if attr == nil {
		return "", false, nil
	}
	sf := attr.AsSourceFile()
	if sf == nil {
		return "", false, fmt.Errorf("malformed SourceFile attribute")
	}
	name, err = cf.ConstantPool.Utf8(sf.SourceFileIndex)
	if err != nil {
		return "", false, fmt.Errorf("resolving SourceFile: %w", err)
	}
	return name, true, nil
}

func (cf *ClassFile) GetAttribute(name string) *AttributeInfo {
	return findAttribute(cf.ConstantPool, cf.Attributes, name)
}

func findAttribute(cp ConstantPool, attrs []AttributeInfo, name string) *AttributeInfo {
	for i := range attrs {
		if attrName, err := cp.Utf8(attrs[i].NameIndex); err == nil && attrName == name {
			return &attrs[i]
		}
	}
	return nil
}
