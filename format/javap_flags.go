package format

import (
	"strings"

	"github.com/dhamidi/javap/classfile"
)

type flagName struct {
	flag classfile.AccessFlags
	name string
}

// Listing order is part of the output, so it is fixed here rather than
// derived from bit positions.
var classFlagOrder = []flagName{
	{classfile.AccPublic, "ACC_PUBLIC"},
	{classfile.AccFinal, "ACC_FINAL"},
	{classfile.AccSuper, "ACC_SUPER"},
	{classfile.AccInterface, "ACC_INTERFACE"},
	{classfile.AccAbstract, "ACC_ABSTRACT"},
	{classfile.AccSynthetic, "ACC_SYNTHETIC"},
	{classfile.AccAnnotation, "ACC_ANNOTATION"},
	{classfile.AccEnum, "ACC_ENUM"},
	{classfile.AccModule, "ACC_MODULE"},
}

var methodFlagOrder = []flagName{
	{classfile.AccPublic, "ACC_PUBLIC"},
	{classfile.AccPrivate, "ACC_PRIVATE"},
	{classfile.AccProtected, "ACC_PROTECTED"},
	{classfile.AccStatic, "ACC_STATIC"},
	{classfile.AccFinal, "ACC_FINAL"},
	{classfile.AccSynchronized, "ACC_SYNCHRONIZED"},
	{classfile.AccBridge, "ACC_BRIDGE"},
	{classfile.AccVarargs, "ACC_VARARGS"},
	{classfile.AccNative, "ACC_NATIVE"},
	{classfile.AccAbstract, "ACC_ABSTRACT"},
	{classfile.AccStrict, "ACC_STRICT"},
	{classfile.AccSynthetic, "ACC_SYNTHETIC"},
}

// ClassFlags formats class access flags as a comma separated list such as
// "ACC_PUBLIC, ACC_SUPER". Bits without a class meaning are ignored.
func ClassFlags(flags classfile.AccessFlags) string {
	return joinFlags(flags, classFlagOrder)
}

// MethodFlags is ClassFlags for method access flags.
func MethodFlags(flags classfile.AccessFlags) string {
	return joinFlags(flags, methodFlagOrder)
}

func joinFlags(flags classfile.AccessFlags, order []flagName) string {
	var names []string
	for _, f := range order {
		if flags.Has(f.flag) {
			names = append(names, f.name)
		}
	}
	return strings.Join(names, ", ")
}
