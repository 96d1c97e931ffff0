package format

import (
	"encoding"

	"github.com/dhamidi/javap/classfile"
)

// Encoder renders a parsed class file to an underlying writer.
type Encoder interface {
	encoding.TextMarshaler
	Encode(cf *classfile.ClassFile) error
}

var _ Encoder = (*JavapEncoder)(nil)
