package classfile

import (
	"fmt"
	"strings"
)

type FieldType struct {
	BaseType   string
	ClassName  string
	ArrayDepth int
}

// Slots returns the number of local variable slots a value of this type
// occupies: two for long and double, one for everything else.
func (ft *FieldType) Slots() int {
	if ft.ArrayDepth == 0 && (ft.BaseType == "long" || ft.BaseType == "double") {
		return 2
	}
	return 1
}

type MethodDescriptor struct {
	Parameters []FieldType
	ReturnType *FieldType
}

// ParseMethodDescriptor parses a descriptor such as (IJLjava/lang/String;)V.
// A nil ReturnType means void.
func ParseMethodDescriptor(desc string) (*MethodDescriptor, error) {
	if len(desc) == 0 || desc[0] != '(' {
		return nil, fmt.Errorf("invalid method descriptor %q", desc)
	}

	md := &MethodDescriptor{}
	i := 1

	for i < len(desc) && desc[i] != ')' {
		ft, consumed := parseFieldType(desc, i)
		if ft == nil {
			return nil, fmt.Errorf("invalid parameter at %d in method descriptor %q", i, desc)
		}
		md.Parameters = append(md.Parameters, *ft)
		i += consumed
	}

	if i >= len(desc) || desc[i] != ')' {
		return nil, fmt.Errorf("unterminated parameters in method descriptor %q", desc)
	}
	i++

	if i >= len(desc) {
		return nil, fmt.Errorf("missing return type in method descriptor %q", desc)
	}
	if desc[i] != 'V' {
		md.ReturnType, _ = parseFieldType(desc, i)
		if md.ReturnType == nil {
			return nil, fmt.Errorf("invalid return type in method descriptor %q", desc)
		}
	}

	return md, nil
}

// ArgsSize returns the number of local variable slots taken by the
// parameters, including the receiver of instance methods.
func (md *MethodDescriptor) ArgsSize(static bool) int {
	size := 0
	if !static {
		size++
	}
	for i := range md.Parameters {
		size += md.Parameters[i].Slots()
	}
	return size
}

var baseTypes = map[byte]string{
	'B': "byte",
	'C': "char",
	'D': "double",
	'F': "float",
	'I': "int",
	'J': "long",
	'S': "short",
	'Z': "boolean",
}

// parseFieldType parses the field type starting at desc[start] and returns
// it with the number of bytes consumed, or nil if desc is malformed there.
func parseFieldType(desc string, start int) (*FieldType, int) {
	ft := &FieldType{}
	i := start
	for i < len(desc) && desc[i] == '[' {
		ft.ArrayDepth++
		i++
	}
	if i >= len(desc) {
		return nil, 0
	}

	if base, ok := baseTypes[desc[i]]; ok {
		ft.BaseType = base
		return ft, i + 1 - start
	}
	if desc[i] != 'L' {
		return nil, 0
	}
	end := strings.IndexByte(desc[i:], ';')
	if end <= 1 {
		return nil, 0
	}
	ft.ClassName = desc[i+1 : i+end]
	return ft, i + end + 1 - start
}
