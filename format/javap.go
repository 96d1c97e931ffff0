package format

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/javap/classfile"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("javap.format")

// ErrMissingCode is returned when a method that must be listed has no Code
// attribute.
var ErrMissingCode = errors.New("method has no Code attribute")

// placeholder is printed for method flags and args_size unless
// WithMethodDetails is set.
const placeholder = "TODO"

type Option func(*JavapEncoder)

// WithFilePath sets the path printed on the "Classfile" header line. The
// caller is expected to pass an absolute path.
func WithFilePath(path string) Option {
	return func(e *JavapEncoder) { e.filePath = path }
}

// WithConstants appends the resolved constant to instructions that reference
// the constant pool.
func WithConstants() Option {
	return func(e *JavapEncoder) { e.constants = true }
}

// WithLineNumbers prints each method's LineNumberTable after its code.
func WithLineNumbers() Option {
	return func(e *JavapEncoder) { e.lineNumbers = true }
}

// WithMethodDetails prints method access flags and args_size instead of
// placeholders.
func WithMethodDetails() Option {
	return func(e *JavapEncoder) { e.methodDetails = true }
}

// WithSkipMissingCode omits the Code block of methods that have none instead
// of failing.
func WithSkipMissingCode() Option {
	return func(e *JavapEncoder) { e.skipMissingCode = true }
}

// JavapEncoder renders a class file in the text layout of javap.
type JavapEncoder struct {
	w     io.Writer
	class *classfile.ClassFile

	filePath        string
	constants       bool
	lineNumbers     bool
	methodDetails   bool
	skipMissingCode bool
}

func NewJavapEncoder(w io.Writer, opts ...Option) *JavapEncoder {
	e := &JavapEncoder{w: w}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode renders cf and writes it in a single write. Nothing is written if
// rendering fails.
func (e *JavapEncoder) Encode(cf *classfile.ClassFile) error {
	e.class = cf
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *JavapEncoder) MarshalText() ([]byte, error) {
	if e.class == nil {
		return nil, errors.New("no class file to encode")
	}
	var sb strings.Builder
	if err := e.writeClass(&sb); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

func (e *JavapEncoder) writeClass(sb *strings.Builder) error {
	cf := e.class

	className, err := cf.ClassName()
	if err != nil {
		return err
	}
	sourceFile, hasSourceFile, err := cf.SourceFile()
	if err != nil {
		return err
	}
	log.Debugf("rendering %s with %d methods", className, len(cf.Methods))

	fmt.Fprintf(sb, "Classfile %s\n", e.filePath)
	if hasSourceFile {
		fmt.Fprintf(sb, "  Compiled from: \"%s\"\n", sourceFile)
	}
	fmt.Fprintf(sb, "class %s\n", className)
	fmt.Fprintf(sb, "  minor version: %d\n", cf.MinorVersion)
	fmt.Fprintf(sb, "  major version: %d\n", cf.MajorVersion)
	fmt.Fprintf(sb, "  flags: %s\n", ClassFlags(cf.AccessFlags))

	if err := writeConstantPool(sb, cf.ConstantPool); err != nil {
		return err
	}

	sb.WriteString("{\n")
	for i := range cf.Methods {
		if err := e.writeMethod(sb, className, &cf.Methods[i]); err != nil {
			return fmt.Errorf("method %d: %w", i, err)
		}
	}
	sb.WriteString("}\n")

	if hasSourceFile {
		fmt.Fprintf(sb, "SourceFile: \"%s\"\n", sourceFile)
	}
	return nil
}
