package classfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("javap.classfile")

// reader decodes big-endian class file data. The first error sticks and
// every later read returns zero values, so callers check err once per
// structure.
type reader struct {
	r   io.Reader
	err error
}

func newByteReader(data []byte) *reader {
	return &reader{r: bytes.NewReader(data)}
}

func (r *reader) fill(buf []byte) []byte {
	if r.err == nil {
		_, r.err = io.ReadFull(r.r, buf)
	}
	return buf
}

func (r *reader) readU1() uint8 {
	var buf [1]byte
	return r.fill(buf[:])[0]
}

func (r *reader) readU2() uint16 {
	var buf [2]byte
	return binary.BigEndian.Uint16(r.fill(buf[:]))
}

func (r *reader) readU4() uint32 {
	var buf [4]byte
	return binary.BigEndian.Uint32(r.fill(buf[:]))
}

func (r *reader) readU8() uint64 {
	var buf [8]byte
	return binary.BigEndian.Uint64(r.fill(buf[:]))
}

// readBytes reads n bytes without trusting n for the allocation size.
func (r *reader) readBytes(n uint32) []byte {
	if r.err != nil {
		return nil
	}
	data, err := io.ReadAll(io.LimitReader(r.r, int64(n)))
	switch {
	case err != nil:
		r.err = err
	case len(data) < int(n):
		r.err = io.ErrUnexpectedEOF
	}
	return data
}

func ParseFile(path string) (*ClassFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open class file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a class file. Code attributes are decoded down to
// instructions; attributes the disassembler does not print are kept raw.
func Parse(rd io.Reader) (*ClassFile, error) {
	r := &reader{r: rd}

	magic := r.readU4()
	if r.err != nil {
		return nil, fmt.Errorf("failed to read magic: %w", r.err)
	}
	if magic != Magic {
		return nil, fmt.Errorf("invalid magic number: 0x%08X", magic)
	}

	cf := &ClassFile{
		MinorVersion: r.readU2(),
		MajorVersion: r.readU2(),
	}

	cp, err := readConstantPool(r)
	if err != nil {
		return nil, err
	}
	cf.ConstantPool = cp

	cf.AccessFlags = AccessFlags(r.readU2())
	cf.ThisClass = r.readU2()
	cf.SuperClass = r.readU2()
	cf.Interfaces = make([]uint16, r.readU2())
	for i := range cf.Interfaces {
		cf.Interfaces[i] = r.readU2()
	}
	if r.err != nil {
		return nil, fmt.Errorf("failed to read class header: %w", r.err)
	}

	cf.Fields = make([]FieldInfo, r.readU2())
	for i := range cf.Fields {
		f := &cf.Fields[i]
		f.AccessFlags, f.NameIndex, f.DescriptorIndex = AccessFlags(r.readU2()), r.readU2(), r.readU2()
		if f.Attributes, err = readAttributes(r, cp); err != nil {
			return nil, fmt.Errorf("failed to read field %d: %w", i, err)
		}
	}

	cf.Methods = make([]MethodInfo, r.readU2())
	for i := range cf.Methods {
		m := &cf.Methods[i]
		m.AccessFlags, m.NameIndex, m.DescriptorIndex = AccessFlags(r.readU2()), r.readU2(), r.readU2()
		if m.Attributes, err = readAttributes(r, cp); err != nil {
			return nil, fmt.Errorf("failed to read method %d: %w", i, err)
		}
	}

	if cf.Attributes, err = readAttributes(r, cp); err != nil {
		return nil, fmt.Errorf("failed to read class attributes: %w", err)
	}

	log.Debugf("parsed class file %d.%d with %d fields, %d methods",
		cf.MajorVersion, cf.MinorVersion, len(cf.Fields), len(cf.Methods))

	return cf, nil
}

func readConstantPool(r *reader) (ConstantPool, error) {
	count := r.readU2()
	if r.err != nil {
		return nil, fmt.Errorf("failed to read constant pool count: %w", r.err)
	}
	if count == 0 {
		return nil, errors.New("invalid constant pool count 0")
	}

	cp := make(ConstantPool, count-1)
	for i := 1; i < int(count); i++ {
		entry, err := readConstant(r)
		if err != nil {
			return nil, fmt.Errorf("constant pool entry #%d: %w", i, err)
		}
		cp[i-1] = entry
		if tag := entry.Tag(); tag == ConstantLong || tag == ConstantDouble {
			i++
		}
	}
	log.Debugf("read %d constant pool slots", len(cp))
	return cp, nil
}

func readConstant(r *reader) (ConstantPoolEntry, error) {
	var entry ConstantPoolEntry

	switch tag := ConstantTag(r.readU1()); tag {
	case ConstantUtf8:
		entry = &ConstantUtf8Info{Value: decodeModifiedUtf8(r.readBytes(uint32(r.readU2())))}
	case ConstantInteger:
		entry = &ConstantIntegerInfo{Value: int32(r.readU4())}
	case ConstantFloat:
		entry = &ConstantFloatInfo{Value: math.Float32frombits(r.readU4())}
	case ConstantLong:
		entry = &ConstantLongInfo{Value: int64(r.readU8())}
	case ConstantDouble:
		entry = &ConstantDoubleInfo{Value: math.Float64frombits(r.readU8())}
	case ConstantClass:
		entry = &ConstantClassInfo{NameIndex: r.readU2()}
	case ConstantString:
		entry = &ConstantStringInfo{StringIndex: r.readU2()}
	case ConstantFieldref:
		entry = &ConstantFieldrefInfo{ClassIndex: r.readU2(), NameAndTypeIndex: r.readU2()}
	case ConstantMethodref:
		entry = &ConstantMethodrefInfo{ClassIndex: r.readU2(), NameAndTypeIndex: r.readU2()}
	case ConstantInterfaceMethodref:
		entry = &ConstantInterfaceMethodrefInfo{ClassIndex: r.readU2(), NameAndTypeIndex: r.readU2()}
	case ConstantNameAndType:
		entry = &ConstantNameAndTypeInfo{NameIndex: r.readU2(), DescriptorIndex: r.readU2()}
	case ConstantMethodHandle:
		entry = &ConstantMethodHandleInfo{ReferenceKind: MethodHandleKind(r.readU1()), ReferenceIndex: r.readU2()}
	case ConstantMethodType:
		entry = &ConstantMethodTypeInfo{DescriptorIndex: r.readU2()}
	case ConstantDynamic:
		entry = &ConstantDynamicInfo{BootstrapMethodAttrIndex: r.readU2(), NameAndTypeIndex: r.readU2()}
	case ConstantInvokeDynamic:
		entry = &ConstantInvokeDynamicInfo{BootstrapMethodAttrIndex: r.readU2(), NameAndTypeIndex: r.readU2()}
	case ConstantModule:
		entry = &ConstantModuleInfo{NameIndex: r.readU2()}
	case ConstantPackage:
		entry = &ConstantPackageInfo{NameIndex: r.readU2()}
	default:
		if r.err == nil {
			return nil, fmt.Errorf("unknown constant pool tag: %d", tag)
		}
	}

	if r.err != nil {
		return nil, r.err
	}
	return entry, nil
}

func readAttributes(r *reader, cp ConstantPool) ([]AttributeInfo, error) {
	attrs := make([]AttributeInfo, r.readU2())
	for i := range attrs {
		if err := readAttribute(r, cp, &attrs[i]); err != nil {
			return nil, err
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return attrs, nil
}

func readAttribute(r *reader, cp ConstantPool, attr *AttributeInfo) error {
	attr.NameIndex = r.readU2()
	attr.Info = r.readBytes(r.readU4())
	if r.err != nil {
		return r.err
	}

	name, err := cp.Utf8(attr.NameIndex)
	if err != nil {
		return fmt.Errorf("attribute name: %w", err)
	}

	switch name {
	case "Code":
		attr.Parsed, err = parseCodeAttribute(attr.Info, cp)
	case "LineNumberTable":
		attr.Parsed, err = parseLineNumberTableAttribute(attr.Info)
	case "SourceFile":
		attr.Parsed, err = parseSourceFileAttribute(attr.Info)
	default:
		log.Debugf("keeping attribute %s (%d bytes) undecoded", name, len(attr.Info))
	}
	if err != nil {
		return fmt.Errorf("%s attribute: %w", name, err)
	}
	return nil
}

// decodeModifiedUtf8 decodes the JVM's modified UTF-8, where NUL is two
// bytes and supplementary characters are stored as surrogate pairs.
func decodeModifiedUtf8(data []byte) string {
	runes := make([]rune, 0, len(data))
	for i := 0; i < len(data); {
		b := data[i]
		switch {
		case b&0x80 == 0:
			runes = append(runes, rune(b))
			i++
		case b&0xE0 == 0xC0 && i+1 < len(data):
			runes = append(runes, rune(b&0x1F)<<6|rune(data[i+1]&0x3F))
			i += 2
		case b&0xF0 == 0xE0 && i+2 < len(data):
			r := decodeThreeBytes(data[i:])
			if r >= 0xD800 && r <= 0xDBFF && i+5 < len(data) && data[i+3] == 0xED {
				if low := decodeThreeBytes(data[i+3:]); low >= 0xDC00 && low <= 0xDFFF {
					runes = append(runes, 0x10000+(r-0xD800)<<10+(low-0xDC00))
					i += 6
					continue
				}
			}
			runes = append(runes, r)
			i += 3
		default:
			runes = append(runes, rune(b))
			i++
		}
	}
	return string(runes)
}

func decodeThreeBytes(p []byte) rune {
	return rune(p[0]&0x0F)<<12 | rune(p[1]&0x3F)<<6 | rune(p[2]&0x3F)
}
