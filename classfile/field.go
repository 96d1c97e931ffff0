package classfile

// FieldInfo is decoded so the reader stays aligned on the methods that follow;
// the disassembly listing does not print fields.
type FieldInfo struct {
	AccessFlags     AccessFlags
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []AttributeInfo
}
