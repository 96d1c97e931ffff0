package classfile

// ConstructorName is the reserved name of instance initializers.
const ConstructorName = "<init>"

type MethodInfo struct {
	AccessFlags     AccessFlags
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []AttributeInfo
}

func (m *MethodInfo) Name(cp ConstantPool) (string, error) {
	return cp.Utf8(m.NameIndex)
}

func (m *MethodInfo) Descriptor(cp ConstantPool) (string, error) {
	return cp.Utf8(m.DescriptorIndex)
}

func (m *MethodInfo) GetAttribute(cp ConstantPool, name string) *AttributeInfo {
	return findAttribute(cp, m.Attributes, name)
}

// Code returns the method's Code attribute. ok is false for methods without
// one, such as abstract and native methods.
func (m *MethodInfo) Code(cp ConstantPool) (code *CodeAttribute, ok bool) {
	attr := m.GetAttribute(cp, "Code")
	if attr == nil {
		return nil, false
	}
	code = attr.AsCode()
	return code, code != nil
}

func (m *MethodInfo) IsStatic() bool { return m.AccessFlags.IsStatic() }
