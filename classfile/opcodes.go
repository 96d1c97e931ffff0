package classfile

// Opcodes of the Java Virtual Machine instruction set.
const (
	Nop             Opcode = 0x00
	AconstNull      Opcode = 0x01
	IconstM1        Opcode = 0x02
	Iconst0         Opcode = 0x03
	Iconst1         Opcode = 0x04
	Iconst2         Opcode = 0x05
	Iconst3         Opcode = 0x06
	Iconst4         Opcode = 0x07
	Iconst5         Opcode = 0x08
	Lconst0         Opcode = 0x09
	Lconst1         Opcode = 0x0a
	Fconst0         Opcode = 0x0b
	Fconst1         Opcode = 0x0c
	Fconst2         Opcode = 0x0d
	Dconst0         Opcode = 0x0e
	Dconst1         Opcode = 0x0f
	Bipush          Opcode = 0x10
	Sipush          Opcode = 0x11
	Ldc             Opcode = 0x12
	LdcW            Opcode = 0x13
	Ldc2W           Opcode = 0x14
	Iload           Opcode = 0x15
	Lload           Opcode = 0x16
	Fload           Opcode = 0x17
	Dload           Opcode = 0x18
	Aload           Opcode = 0x19
	Iload0          Opcode = 0x1a
	Iload1          Opcode = 0x1b
	Iload2          Opcode = 0x1c
	Iload3          Opcode = 0x1d
	Lload0          Opcode = 0x1e
	Lload1          Opcode = 0x1f
	Lload2          Opcode = 0x20
	Lload3          Opcode = 0x21
	Fload0          Opcode = 0x22
	Fload1          Opcode = 0x23
	Fload2          Opcode = 0x24
	Fload3          Opcode = 0x25
	Dload0          Opcode = 0x26
	Dload1          Opcode = 0x27
	Dload2          Opcode = 0x28
	Dload3          Opcode = 0x29
	Aload0          Opcode = 0x2a
	Aload1          Opcode = 0x2b
	Aload2          Opcode = 0x2c
	Aload3          Opcode = 0x2d
	Iaload          Opcode = 0x2e
	Laload          Opcode = 0x2f
	Faload          Opcode = 0x30
	Daload          Opcode = 0x31
	Aaload          Opcode = 0x32
	Baload          Opcode = 0x33
	Caload          Opcode = 0x34
	Saload          Opcode = 0x35
	Istore          Opcode = 0x36
	Lstore          Opcode = 0x37
	Fstore          Opcode = 0x38
	Dstore          Opcode = 0x39
	Astore          Opcode = 0x3a
	Istore0         Opcode = 0x3b
	Istore1         Opcode = 0x3c
	Istore2         Opcode = 0x3d
	Istore3         Opcode = 0x3e
	Lstore0         Opcode = 0x3f
	Lstore1         Opcode = 0x40
	Lstore2         Opcode = 0x41
	Lstore3         Opcode = 0x42
	Fstore0         Opcode = 0x43
	Fstore1         Opcode = 0x44
	Fstore2         Opcode = 0x45
	Fstore3         Opcode = 0x46
	Dstore0         Opcode = 0x47
	Dstore1         Opcode = 0x48
	Dstore2         Opcode = 0x49
	Dstore3         Opcode = 0x4a
	Astore0         Opcode = 0x4b
	Astore1         Opcode = 0x4c
	Astore2         Opcode = 0x4d
	Astore3         Opcode = 0x4e
	Iastore         Opcode = 0x4f
	Lastore         Opcode = 0x50
	Fastore         Opcode = 0x51
	Dastore         Opcode = 0x52
	Aastore         Opcode = 0x53
	Bastore         Opcode = 0x54
	Castore         Opcode = 0x55
	Sastore         Opcode = 0x56
	Pop             Opcode = 0x57
	Pop2            Opcode = 0x58
	Dup             Opcode = 0x59
	DupX1           Opcode = 0x5a
	DupX2           Opcode = 0x5b
	Dup2            Opcode = 0x5c
	Dup2X1          Opcode = 0x5d
	Dup2X2          Opcode = 0x5e
	Swap            Opcode = 0x5f
	Iadd            Opcode = 0x60
	Ladd            Opcode = 0x61
	Fadd            Opcode = 0x62
	Dadd            Opcode = 0x63
	Isub            Opcode = 0x64
	Lsub            Opcode = 0x65
	Fsub            Opcode = 0x66
	Dsub            Opcode = 0x67
	Imul            Opcode = 0x68
	Lmul            Opcode = 0x69
	Fmul            Opcode = 0x6a
	Dmul            Opcode = 0x6b
	Idiv            Opcode = 0x6c
	Ldiv            Opcode = 0x6d
	Fdiv            Opcode = 0x6e
	Ddiv            Opcode = 0x6f
	Irem            Opcode = 0x70
	Lrem            Opcode = 0x71
	Frem            Opcode = 0x72
	Drem            Opcode = 0x73
	Ineg            Opcode = 0x74
	Lneg            Opcode = 0x75
	Fneg            Opcode = 0x76
	Dneg            Opcode = 0x77
	Ishl            Opcode = 0x78
	Lshl            Opcode = 0x79
	Ishr            Opcode = 0x7a
	Lshr            Opcode = 0x7b
	Iushr           Opcode = 0x7c
	Lushr           Opcode = 0x7d
	Iand            Opcode = 0x7e
	Land            Opcode = 0x7f
	Ior             Opcode = 0x80
	Lor             Opcode = 0x81
	Ixor            Opcode = 0x82
	Lxor            Opcode = 0x83
	Iinc            Opcode = 0x84
	I2l             Opcode = 0x85
	I2f             Opcode = 0x86
	I2d             Opcode = 0x87
	L2i             Opcode = 0x88
	L2f             Opcode = 0x89
	L2d             Opcode = 0x8a
	F2i             Opcode = 0x8b
	F2l             Opcode = 0x8c
	F2d             Opcode = 0x8d
	D2i             Opcode = 0x8e
	D2l             Opcode = 0x8f
	D2f             Opcode = 0x90
	I2b             Opcode = 0x91
	I2c             Opcode = 0x92
	I2s             Opcode = 0x93
	Lcmp            Opcode = 0x94
	Fcmpl           Opcode = 0x95
	Fcmpg           Opcode = 0x96
	Dcmpl           Opcode = 0x97
	Dcmpg           Opcode = 0x98
	Ifeq            Opcode = 0x99
	Ifne            Opcode = 0x9a
	Iflt            Opcode = 0x9b
	Ifge            Opcode = 0x9c
	Ifgt            Opcode = 0x9d
	Ifle            Opcode = 0x9e
	IfIcmpeq        Opcode = 0x9f
	IfIcmpne        Opcode = 0xa0
	IfIcmplt        Opcode = 0xa1
	IfIcmpge        Opcode = 0xa2
	IfIcmpgt        Opcode = 0xa3
	IfIcmple        Opcode = 0xa4
	IfAcmpeq        Opcode = 0xa5
	IfAcmpne        Opcode = 0xa6
	Goto            Opcode = 0xa7
	Jsr             Opcode = 0xa8
	Ret             Opcode = 0xa9
	Tableswitch     Opcode = 0xaa
	Lookupswitch    Opcode = 0xab
	Ireturn         Opcode = 0xac
	Lreturn         Opcode = 0xad
	Freturn         Opcode = 0xae
	Dreturn         Opcode = 0xaf
	Areturn         Opcode = 0xb0
	Return          Opcode = 0xb1
	Getstatic       Opcode = 0xb2
	Putstatic       Opcode = 0xb3
	Getfield        Opcode = 0xb4
	Putfield        Opcode = 0xb5
	Invokevirtual   Opcode = 0xb6
	Invokespecial   Opcode = 0xb7
	Invokestatic    Opcode = 0xb8
	Invokeinterface Opcode = 0xb9
	Invokedynamic   Opcode = 0xba
	New             Opcode = 0xbb
	Newarray        Opcode = 0xbc
	Anewarray       Opcode = 0xbd
	Arraylength     Opcode = 0xbe
	Athrow          Opcode = 0xbf
	Checkcast       Opcode = 0xc0
	Instanceof      Opcode = 0xc1
	Monitorenter    Opcode = 0xc2
	Monitorexit     Opcode = 0xc3
	Wide            Opcode = 0xc4
	Multianewarray  Opcode = 0xc5
	Ifnull          Opcode = 0xc6
	Ifnonnull       Opcode = 0xc7
	GotoW           Opcode = 0xc8
	JsrW            Opcode = 0xc9
)

var opcodeTable = [...]opcodeInfo{
	Nop:             {"nop", KindNone},
	AconstNull:      {"aconst_null", KindNone},
	IconstM1:        {"iconst_m1", KindNone},
	Iconst0:         {"iconst_0", KindNone},
	Iconst1:         {"iconst_1", KindNone},
	Iconst2:         {"iconst_2", KindNone},
	Iconst3:         {"iconst_3", KindNone},
	Iconst4:         {"iconst_4", KindNone},
	Iconst5:         {"iconst_5", KindNone},
	Lconst0:         {"lconst_0", KindNone},
	Lconst1:         {"lconst_1", KindNone},
	Fconst0:         {"fconst_0", KindNone},
	Fconst1:         {"fconst_1", KindNone},
	Fconst2:         {"fconst_2", KindNone},
	Dconst0:         {"dconst_0", KindNone},
	Dconst1:         {"dconst_1", KindNone},
	Bipush:          {"bipush", KindByte},
	Sipush:          {"sipush", KindShort},
	Ldc:             {"ldc", KindConstantByte},
	LdcW:            {"ldc_w", KindConstant},
	Ldc2W:           {"ldc2_w", KindConstant},
	Iload:           {"iload", KindLocal},
	Lload:           {"lload", KindLocal},
	Fload:           {"fload", KindLocal},
	Dload:           {"dload", KindLocal},
	Aload:           {"aload", KindLocal},
	Iload0:          {"iload_0", KindImplicitLocal},
	Iload1:          {"iload_1", KindImplicitLocal},
	Iload2:          {"iload_2", KindImplicitLocal},
	Iload3:          {"iload_3", KindImplicitLocal},
	Lload0:          {"lload_0", KindImplicitLocal},
	Lload1:          {"lload_1", KindImplicitLocal},
	Lload2:          {"lload_2", KindImplicitLocal},
	Lload3:          {"lload_3", KindImplicitLocal},
	Fload0:          {"fload_0", KindImplicitLocal},
	Fload1:          {"fload_1", KindImplicitLocal},
	Fload2:          {"fload_2", KindImplicitLocal},
	Fload3:          {"fload_3", KindImplicitLocal},
	Dload0:          {"dload_0", KindImplicitLocal},
	Dload1:          {"dload_1", KindImplicitLocal},
	Dload2:          {"dload_2", KindImplicitLocal},
	Dload3:          {"dload_3", KindImplicitLocal},
	Aload0:          {"aload_0", KindImplicitLocal},
	Aload1:          {"aload_1", KindImplicitLocal},
	Aload2:          {"aload_2", KindImplicitLocal},
	Aload3:          {"aload_3", KindImplicitLocal},
	Iaload:          {"iaload", KindNone},
	Laload:          {"laload", KindNone},
	Faload:          {"faload", KindNone},
	Daload:          {"daload", KindNone},
	Aaload:          {"aaload", KindNone},
	Baload:          {"baload", KindNone},
	Caload:          {"caload", KindNone},
	Saload:          {"saload", KindNone},
	Istore:          {"istore", KindLocal},
	Lstore:          {"lstore", KindLocal},
	Fstore:          {"fstore", KindLocal},
	Dstore:          {"dstore", KindLocal},
	Astore:          {"astore", KindLocal},
	Istore0:         {"istore_0", KindImplicitLocal},
	Istore1:         {"istore_1", KindImplicitLocal},
	Istore2:         {"istore_2", KindImplicitLocal},
	Istore3:         {"istore_3", KindImplicitLocal},
	Lstore0:         {"lstore_0", KindImplicitLocal},
	Lstore1:         {"lstore_1", KindImplicitLocal},
	Lstore2:         {"lstore_2", KindImplicitLocal},
	Lstore3:         {"lstore_3", KindImplicitLocal},
	Fstore0:         {"fstore_0", KindImplicitLocal},
	Fstore1:         {"fstore_1", KindImplicitLocal},
	Fstore2:         {"fstore_2", KindImplicitLocal},
	Fstore3:         {"fstore_3", KindImplicitLocal},
	Dstore0:         {"dstore_0", KindImplicitLocal},
	Dstore1:         {"dstore_1", KindImplicitLocal},
	Dstore2:         {"dstore_2", KindImplicitLocal},
	Dstore3:         {"dstore_3", KindImplicitLocal},
	Astore0:         {"astore_0", KindImplicitLocal},
	Astore1:         {"astore_1", KindImplicitLocal},
	Astore2:         {"astore_2", KindImplicitLocal},
	Astore3:         {"astore_3", KindImplicitLocal},
	Iastore:         {"iastore", KindNone},
	Lastore:         {"lastore", KindNone},
	Fastore:         {"fastore", KindNone},
	Dastore:         {"dastore", KindNone},
	Aastore:         {"aastore", KindNone},
	Bastore:         {"bastore", KindNone},
	Castore:         {"castore", KindNone},
	Sastore:         {"sastore", KindNone},
	Pop:             {"pop", KindNone},
	Pop2:            {"pop2", KindNone},
	Dup:             {"dup", KindNone},
	DupX1:           {"dup_x1", KindNone},
	DupX2:           {"dup_x2", KindNone},
	Dup2:            {"dup2", KindNone},
	Dup2X1:          {"dup2_x1", KindNone},
	Dup2X2:          {"dup2_x2", KindNone},
	Swap:            {"swap", KindNone},
	Iadd:            {"iadd", KindNone},
	Ladd:            {"ladd", KindNone},
	Fadd:            {"fadd", KindNone},
	Dadd:            {"dadd", KindNone},
	Isub:            {"isub", KindNone},
	Lsub:            {"lsub", KindNone},
	Fsub:            {"fsub", KindNone},
	Dsub:            {"dsub", KindNone},
	Imul:            {"imul", KindNone},
	Lmul:            {"lmul", KindNone},
	Fmul:            {"fmul", KindNone},
	Dmul:            {"dmul", KindNone},
	Idiv:            {"idiv", KindNone},
	Ldiv:            {"ldiv", KindNone},
	Fdiv:            {"fdiv", KindNone},
	Ddiv:            {"ddiv", KindNone},
	Irem:            {"irem", KindNone},
	Lrem:            {"lrem", KindNone},
	Frem:            {"frem", KindNone},
	Drem:            {"drem", KindNone},
	Ineg:            {"ineg", KindNone},
	Lneg:            {"lneg", KindNone},
	Fneg:            {"fneg", KindNone},
	Dneg:            {"dneg", KindNone},
	Ishl:            {"ishl", KindNone},
	Lshl:            {"lshl", KindNone},
	Ishr:            {"ishr", KindNone},
	Lshr:            {"lshr", KindNone},
	Iushr:           {"iushr", KindNone},
	Lushr:           {"lushr", KindNone},
	Iand:            {"iand", KindNone},
	Land:            {"land", KindNone},
	Ior:             {"ior", KindNone},
	Lor:             {"lor", KindNone},
	Ixor:            {"ixor", KindNone},
	Lxor:            {"lxor", KindNone},
	Iinc:            {"iinc", KindIinc},
	I2l:             {"i2l", KindNone},
	I2f:             {"i2f", KindNone},
	I2d:             {"i2d", KindNone},
	L2i:             {"l2i", KindNone},
	L2f:             {"l2f", KindNone},
	L2d:             {"l2d", KindNone},
	F2i:             {"f2i", KindNone},
	F2l:             {"f2l", KindNone},
	F2d:             {"f2d", KindNone},
	D2i:             {"d2i", KindNone},
	D2l:             {"d2l", KindNone},
	D2f:             {"d2f", KindNone},
	I2b:             {"i2b", KindNone},
	I2c:             {"i2c", KindNone},
	I2s:             {"i2s", KindNone},
	Lcmp:            {"lcmp", KindNone},
	Fcmpl:           {"fcmpl", KindNone},
	Fcmpg:           {"fcmpg", KindNone},
	Dcmpl:           {"dcmpl", KindNone},
	Dcmpg:           {"dcmpg", KindNone},
	Ifeq:            {"ifeq", KindBranch},
	Ifne:            {"ifne", KindBranch},
	Iflt:            {"iflt", KindBranch},
	Ifge:            {"ifge", KindBranch},
	Ifgt:            {"ifgt", KindBranch},
	Ifle:            {"ifle", KindBranch},
	IfIcmpeq:        {"if_icmpeq", KindBranch},
	IfIcmpne:        {"if_icmpne", KindBranch},
	IfIcmplt:        {"if_icmplt", KindBranch},
	IfIcmpge:        {"if_icmpge", KindBranch},
	IfIcmpgt:        {"if_icmpgt", KindBranch},
	IfIcmple:        {"if_icmple", KindBranch},
	IfAcmpeq:        {"if_acmpeq", KindBranch},
	IfAcmpne:        {"if_acmpne", KindBranch},
	Goto:            {"goto", KindBranch},
	Jsr:             {"jsr", KindBranch},
	Ret:             {"ret", KindLocal},
	Tableswitch:     {"tableswitch", KindTableSwitch},
	Lookupswitch:    {"lookupswitch", KindLookupSwitch},
	Ireturn:         {"ireturn", KindNone},
	Lreturn:         {"lreturn", KindNone},
	Freturn:         {"freturn", KindNone},
	Dreturn:         {"dreturn", KindNone},
	Areturn:         {"areturn", KindNone},
	Return:          {"return", KindNone},
	Getstatic:       {"getstatic", KindConstant},
	Putstatic:       {"putstatic", KindConstant},
	Getfield:        {"getfield", KindConstant},
	Putfield:        {"putfield", KindConstant},
	Invokevirtual:   {"invokevirtual", KindConstant},
	Invokespecial:   {"invokespecial", KindConstant},
	Invokestatic:    {"invokestatic", KindConstant},
	Invokeinterface: {"invokeinterface", KindInvokeInterface},
	Invokedynamic:   {"invokedynamic", KindInvokeDynamic},
	New:             {"new", KindConstant},
	Newarray:        {"newarray", KindNewArray},
	Anewarray:       {"anewarray", KindConstant},
	Arraylength:     {"arraylength", KindNone},
	Athrow:          {"athrow", KindNone},
	Checkcast:       {"checkcast", KindConstant},
	Instanceof:      {"instanceof", KindConstant},
	Monitorenter:    {"monitorenter", KindNone},
	Monitorexit:     {"monitorexit", KindNone},
	Wide:            {"wide", KindWide},
	Multianewarray:  {"multianewarray", KindMultiANewArray},
	Ifnull:          {"ifnull", KindBranch},
	Ifnonnull:       {"ifnonnull", KindBranch},
	GotoW:           {"goto_w", KindBranchWide},
	JsrW:            {"jsr_w", KindBranchWide},
}
