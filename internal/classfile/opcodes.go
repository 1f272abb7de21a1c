package classfile

import "fmt"

// Opcode is a JVM instruction opcode.
type Opcode byte

// Constants
const (
	NOP        Opcode = 0x00
	ACONSTNULL Opcode = 0x01
	ICONSTM1   Opcode = 0x02
	ICONST0    Opcode = 0x03
	ICONST1    Opcode = 0x04
	ICONST2    Opcode = 0x05
	ICONST3    Opcode = 0x06
	ICONST4    Opcode = 0x07
	ICONST5    Opcode = 0x08
	LCONST0    Opcode = 0x09
	LCONST1    Opcode = 0x0A
	FCONST0    Opcode = 0x0B
	FCONST1    Opcode = 0x0C
	FCONST2    Opcode = 0x0D
	DCONST0    Opcode = 0x0E
	DCONST1    Opcode = 0x0F
	BIPUSH     Opcode = 0x10
	SIPUSH     Opcode = 0x11
	LDC        Opcode = 0x12
	LDCW       Opcode = 0x13
	LDC2W      Opcode = 0x14
)

// Loads
const (
	ILOAD   Opcode = 0x15
	LLOAD   Opcode = 0x16
	FLOAD   Opcode = 0x17
	DLOAD   Opcode = 0x18
	ALOAD   Opcode = 0x19
	ILOAD0  Opcode = 0x1A
	ALOAD3  Opcode = 0x2D
	IALOAD  Opcode = 0x2E
	LALOAD  Opcode = 0x2F
	FALOAD  Opcode = 0x30
	DALOAD  Opcode = 0x31
	AALOAD  Opcode = 0x32
	BALOAD  Opcode = 0x33
	CALOAD  Opcode = 0x34
	SALOAD  Opcode = 0x35
	ISTORE  Opcode = 0x36
	LSTORE  Opcode = 0x37
	FSTORE  Opcode = 0x38
	DSTORE  Opcode = 0x39
	ASTORE  Opcode = 0x3A
	ISTORE0 Opcode = 0x3B
	ASTORE3 Opcode = 0x4E
	IASTORE Opcode = 0x4F
	LASTORE Opcode = 0x50
	FASTORE Opcode = 0x51
	DASTORE Opcode = 0x52
	AASTORE Opcode = 0x53
	BASTORE Opcode = 0x54
	CASTORE Opcode = 0x55
	SASTORE Opcode = 0x56
)

// Stack
const (
	POP    Opcode = 0x57
	POP2   Opcode = 0x58
	DUP    Opcode = 0x59
	DUPX1  Opcode = 0x5A
	DUPX2  Opcode = 0x5B
	DUP2   Opcode = 0x5C
	DUP2X1 Opcode = 0x5D
	DUP2X2 Opcode = 0x5E
	SWAP   Opcode = 0x5F
)

// Math and conversions
const (
	IADD  Opcode = 0x60
	LADD  Opcode = 0x61
	FADD  Opcode = 0x62
	DADD  Opcode = 0x63
	ISUB  Opcode = 0x64
	LSUB  Opcode = 0x65
	FSUB  Opcode = 0x66
	DSUB  Opcode = 0x67
	IMUL  Opcode = 0x68
	LMUL  Opcode = 0x69
	FMUL  Opcode = 0x6A
	DMUL  Opcode = 0x6B
	IDIV  Opcode = 0x6C
	LDIV  Opcode = 0x6D
	FDIV  Opcode = 0x6E
	DDIV  Opcode = 0x6F
	IREM  Opcode = 0x70
	LREM  Opcode = 0x71
	FREM  Opcode = 0x72
	DREM  Opcode = 0x73
	INEG  Opcode = 0x74
	LNEG  Opcode = 0x75
	FNEG  Opcode = 0x76
	DNEG  Opcode = 0x77
	ISHL  Opcode = 0x78
	LSHL  Opcode = 0x79
	ISHR  Opcode = 0x7A
	LSHR  Opcode = 0x7B
	IUSHR Opcode = 0x7C
	LUSHR Opcode = 0x7D
	IAND  Opcode = 0x7E
	LAND  Opcode = 0x7F
	IOR   Opcode = 0x80
	LOR   Opcode = 0x81
	IXOR  Opcode = 0x82
	LXOR  Opcode = 0x83
	IINC  Opcode = 0x84
	I2L   Opcode = 0x85
	I2F   Opcode = 0x86
	I2D   Opcode = 0x87
	L2I   Opcode = 0x88
	L2F   Opcode = 0x89
	L2D   Opcode = 0x8A
	F2I   Opcode = 0x8B
	F2L   Opcode = 0x8C
	F2D   Opcode = 0x8D
	D2I   Opcode = 0x8E
	D2L   Opcode = 0x8F
	D2F   Opcode = 0x90
	I2B   Opcode = 0x91
	I2C   Opcode = 0x92
	I2S   Opcode = 0x93
)

// Comparisons and control
const (
	LCMP      Opcode = 0x94
	FCMPL     Opcode = 0x95
	FCMPG     Opcode = 0x96
	DCMPL     Opcode = 0x97
	DCMPG     Opcode = 0x98
	IFEQ      Opcode = 0x99
	IFNE      Opcode = 0x9A
	IFLT      Opcode = 0x9B
	IFGE      Opcode = 0x9C
	IFGT      Opcode = 0x9D
	IFLE      Opcode = 0x9E
	IFICMPEQ  Opcode = 0x9F
	IFICMPNE  Opcode = 0xA0
	IFICMPLT  Opcode = 0xA1
	IFICMPGE  Opcode = 0xA2
	IFICMPGT  Opcode = 0xA3
	IFICMPLE  Opcode = 0xA4
	IFACMPEQ  Opcode = 0xA5
	IFACMPNE  Opcode = 0xA6
	GOTO      Opcode = 0xA7
	JSR       Opcode = 0xA8
	RET       Opcode = 0xA9
	TABLESW   Opcode = 0xAA
	LOOKUPSW  Opcode = 0xAB
	IRETURN   Opcode = 0xAC
	LRETURN   Opcode = 0xAD
	FRETURN   Opcode = 0xAE
	DRETURN   Opcode = 0xAF
	ARETURN   Opcode = 0xB0
	RETURN    Opcode = 0xB1
	IFNULL    Opcode = 0xC6
	IFNONNULL Opcode = 0xC7
	GOTOW     Opcode = 0xC8
	JSRW      Opcode = 0xC9
)

// References
const (
	GETSTATIC       Opcode = 0xB2
	PUTSTATIC       Opcode = 0xB3
	GETFIELD        Opcode = 0xB4
	PUTFIELD        Opcode = 0xB5
	INVOKEVIRTUAL   Opcode = 0xB6
	INVOKESPECIAL   Opcode = 0xB7
	INVOKESTATIC    Opcode = 0xB8
	INVOKEINTERFACE Opcode = 0xB9
	INVOKEDYNAMIC   Opcode = 0xBA
	NEW             Opcode = 0xBB
	NEWARRAY        Opcode = 0xBC
	ANEWARRAY       Opcode = 0xBD
	ARRAYLENGTH     Opcode = 0xBE
	ATHROW          Opcode = 0xBF
	CHECKCAST       Opcode = 0xC0
	INSTANCEOF      Opcode = 0xC1
	MONITORENTER    Opcode = 0xC2
	MONITOREXIT     Opcode = 0xC3
	WIDE            Opcode = 0xC4
	MULTIANEWARRAY  Opcode = 0xC5
)

// shape describes how an opcode's operands are encoded in the code array.
type shape uint8

const (
	shapeInvalid shape = iota
	shapeNone
	shapeByte      // s1 immediate
	shapeShort     // s2 immediate
	shapeNewArray  // u1 primitive array type
	shapeLdc       // u1 constant index
	shapeLdcWide   // u2 constant index
	shapeVar       // u1 local index
	shapeVarImplied
	shapeIinc
	shapeBranch
	shapeBranchWide
	shapeTableSwitch
	shapeLookupSwitch
	shapeField
	shapeMethod
	shapeInterface
	shapeIndy
	shapeType
	shapeMultiANewArray
	shapeWide
)

// OpcodeInfo holds metadata about an opcode.
type OpcodeInfo struct {
	Name  string
	shape shape
}

var opcodeTable [256]OpcodeInfo

func init() {
	def := func(op Opcode, name string, s shape) {
		opcodeTable[op] = OpcodeInfo{Name: name, shape: s}
	}
	none := []string{
		"nop", "aconst_null", "iconst_m1", "iconst_0", "iconst_1", "iconst_2",
		"iconst_3", "iconst_4", "iconst_5", "lconst_0", "lconst_1", "fconst_0",
		"fconst_1", "fconst_2", "dconst_0", "dconst_1",
	}
	for i, name := range none {
		def(Opcode(i), name, shapeNone)
	}
	def(BIPUSH, "bipush", shapeByte)
	def(SIPUSH, "sipush", shapeShort)
	def(LDC, "ldc", shapeLdc)
	def(LDCW, "ldc_w", shapeLdcWide)
	def(LDC2W, "ldc2_w", shapeLdcWide)

	prefixes := []string{"i", "l", "f", "d", "a"}
	for i, p := range prefixes {
		def(ILOAD+Opcode(i), p+"load", shapeVar)
		def(ISTORE+Opcode(i), p+"store", shapeVar)
		for n := 0; n < 4; n++ {
			def(ILOAD0+Opcode(i*4+n), fmt.Sprintf("%sload_%d", p, n), shapeVarImplied)
			def(ISTORE0+Opcode(i*4+n), fmt.Sprintf("%sstore_%d", p, n), shapeVarImplied)
		}
	}
	for i, p := range []string{"i", "l", "f", "d", "a", "b", "c", "s"} {
		def(IALOAD+Opcode(i), p+"aload", shapeNone)
		def(IASTORE+Opcode(i), p+"astore", shapeNone)
	}

	stack := []string{"pop", "pop2", "dup", "dup_x1", "dup_x2", "dup2", "dup2_x1", "dup2_x2", "swap"}
	for i, name := range stack {
		def(POP+Opcode(i), name, shapeNone)
	}

	arith := []string{"add", "sub", "mul", "div", "rem", "neg"}
	for i, op := range arith {
		for j, p := range prefixes[:4] {
			def(IADD+Opcode(i*4+j), p+op, shapeNone)
		}
	}
	shifts := []string{
		"ishl", "lshl", "ishr", "lshr", "iushr", "lushr",
		"iand", "land", "ior", "lor", "ixor", "lxor",
	}
	for i, name := range shifts {
		def(ISHL+Opcode(i), name, shapeNone)
	}
	def(IINC, "iinc", shapeIinc)
	conv := []string{
		"i2l", "i2f", "i2d", "l2i", "l2f", "l2d", "f2i", "f2l",
		"f2d", "d2i", "d2l", "d2f", "i2b", "i2c", "i2s",
	}
	for i, name := range conv {
		def(I2L+Opcode(i), name, shapeNone)
	}
	for i, name := range []string{"lcmp", "fcmpl", "fcmpg", "dcmpl", "dcmpg"} {
		def(LCMP+Opcode(i), name, shapeNone)
	}

	branches := []string{
		"ifeq", "ifne", "iflt", "ifge", "ifgt", "ifle",
		"if_icmpeq", "if_icmpne", "if_icmplt", "if_icmpge", "if_icmpgt", "if_icmple",
		"if_acmpeq", "if_acmpne", "goto", "jsr",
	}
	for i, name := range branches {
		def(IFEQ+Opcode(i), name, shapeBranch)
	}
	def(RET, "ret", shapeVar)
	def(TABLESW, "tableswitch", shapeTableSwitch)
	def(LOOKUPSW, "lookupswitch", shapeLookupSwitch)
	for i, name := range []string{"ireturn", "lreturn", "freturn", "dreturn", "areturn", "return"} {
		def(IRETURN+Opcode(i), name, shapeNone)
	}

	def(GETSTATIC, "getstatic", shapeField)
	def(PUTSTATIC, "putstatic", shapeField)
	def(GETFIELD, "getfield", shapeField)
	def(PUTFIELD, "putfield", shapeField)
	def(INVOKEVIRTUAL, "invokevirtual", shapeMethod)
	def(INVOKESPECIAL, "invokespecial", shapeMethod)
	def(INVOKESTATIC, "invokestatic", shapeMethod)
	def(INVOKEINTERFACE, "invokeinterface", shapeInterface)
	def(INVOKEDYNAMIC, "invokedynamic", shapeIndy)
	def(NEW, "new", shapeType)
	def(NEWARRAY, "newarray", shapeNewArray)
	def(ANEWARRAY, "anewarray", shapeType)
	def(ARRAYLENGTH, "arraylength", shapeNone)
	def(ATHROW, "athrow", shapeNone)
	def(CHECKCAST, "checkcast", shapeType)
	def(INSTANCEOF, "instanceof", shapeType)
	def(MONITORENTER, "monitorenter", shapeNone)
	def(MONITOREXIT, "monitorexit", shapeNone)
	def(WIDE, "wide", shapeWide)
	def(MULTIANEWARRAY, "multianewarray", shapeMultiANewArray)
	def(IFNULL, "ifnull", shapeBranch)
	def(IFNONNULL, "ifnonnull", shapeBranch)
	def(GOTOW, "goto_w", shapeBranchWide)
	def(JSRW, "jsr_w", shapeBranchWide)
}

// Info returns metadata for the opcode.
func (op Opcode) Info() OpcodeInfo {
	return opcodeTable[op]
}

// Valid reports whether op is a defined JVM opcode.
func (op Opcode) Valid() bool {
	return opcodeTable[op].shape != shapeInvalid
}

// String returns the mnemonic.
func (op Opcode) String() string {
	if info := opcodeTable[op]; info.shape != shapeInvalid {
		return info.Name
	}
	return fmt.Sprintf("unknown_%02x", byte(op))
}
