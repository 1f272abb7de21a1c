package classfile

import "fmt"

// Tag identifies the shape of an instruction node.
type Tag uint8

const (
	TagInsn Tag = iota + 1
	TagInt
	TagVar
	TagType
	TagField
	TagMethod
	TagInvokeDynamic
	TagJump
	TagLabel
	TagLdc
	TagIinc
	TagTableSwitch
	TagLookupSwitch
	TagMultiANewArray
	TagFrame
	TagLine
)

var tagNames = map[Tag]string{
	TagInsn:           "insn",
	TagInt:            "int",
	TagVar:            "var",
	TagType:           "type",
	TagField:          "field",
	TagMethod:         "method",
	TagInvokeDynamic:  "invokedynamic",
	TagJump:           "jump",
	TagLabel:          "label",
	TagLdc:            "ldc",
	TagIinc:           "iinc",
	TagTableSwitch:    "tableswitch",
	TagLookupSwitch:   "lookupswitch",
	TagMultiANewArray: "multianewarray",
	TagFrame:          "frame",
	TagLine:           "line",
}

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tag(%d)", uint8(t))
}

// ParseTag resolves a tag by its name.
func ParseTag(name string) (Tag, bool) {
	for t, n := range tagNames {
		if n == name {
			return t, true
		}
	}
	return 0, false
}

// Instruction is one node of a decoded method body. Pseudo nodes (labels,
// frames, line numbers) report an opcode of -1.
type Instruction interface {
	Tag() Tag
	Opcode() int
}

// InsnNode is an instruction without operands.
type InsnNode struct {
	Op Opcode
}

// IntInsnNode is bipush, sipush or newarray.
type IntInsnNode struct {
	Op      Opcode
	Operand int
}

// VarInsnNode loads, stores or returns through a local variable slot.
// Short forms such as aload_0 are normalized to their generic opcode.
type VarInsnNode struct {
	Op  Opcode
	Var int
}

// TypeInsnNode is new, anewarray, checkcast or instanceof.
type TypeInsnNode struct {
	Op   Opcode
	Desc string
}

// FieldInsnNode accesses a field.
type FieldInsnNode struct {
	Op    Opcode
	Owner string
	Name  string
	Desc  string
}

// MethodInsnNode invokes a method.
type MethodInsnNode struct {
	Op        Opcode
	Owner     string
	Name      string
	Desc      string
	Interface bool
}

// InvokeDynamicInsnNode is an invokedynamic call site.
type InvokeDynamicInsnNode struct {
	Name      string
	Desc      string
	Bootstrap Handle
	Args      []any
}

// JumpInsnNode branches to a label. goto_w and jsr_w are normalized.
type JumpInsnNode struct {
	Op     Opcode
	Target *LabelNode
}

// LabelNode marks a position in the instruction stream.
type LabelNode struct {
	Offset int
}

// LdcInsnNode pushes a constant. ldc_w and ldc2_w are normalized to ldc.
// Value is int32, float32, int64, float64, string, Type, Handle or
// *ConstantDynamic.
type LdcInsnNode struct {
	Value any
}

// IincInsnNode increments a local variable.
type IincInsnNode struct {
	Var  int
	Incr int
}

// TableSwitchInsnNode is a tableswitch.
type TableSwitchInsnNode struct {
	Min     int
	Max     int
	Default *LabelNode
	Labels  []*LabelNode
}

// LookupSwitchInsnNode is a lookupswitch.
type LookupSwitchInsnNode struct {
	Default *LabelNode
	Keys    []int
	Labels  []*LabelNode
}

// MultiANewArrayInsnNode creates a multi-dimensional array.
type MultiANewArrayInsnNode struct {
	Desc string
	Dims int
}

// FrameNode is a stack map frame in its compressed form. Chop is the number
// of locals removed by a FrameChop frame.
type FrameNode struct {
	Kind   FrameKind
	Chop   int
	Locals []any
	Stack  []any
}

// LineNumberNode associates a source line with the label that precedes it.
type LineNumberNode struct {
	Line  int
	Start *LabelNode
}

func (*InsnNode) Tag() Tag               { return TagInsn }
func (*IntInsnNode) Tag() Tag            { return TagInt }
func (*VarInsnNode) Tag() Tag            { return TagVar }
func (*TypeInsnNode) Tag() Tag           { return TagType }
func (*FieldInsnNode) Tag() Tag          { return TagField }
func (*MethodInsnNode) Tag() Tag         { return TagMethod }
func (*InvokeDynamicInsnNode) Tag() Tag  { return TagInvokeDynamic }
func (*JumpInsnNode) Tag() Tag           { return TagJump }
func (*LabelNode) Tag() Tag              { return TagLabel }
func (*LdcInsnNode) Tag() Tag            { return TagLdc }
func (*IincInsnNode) Tag() Tag           { return TagIinc }
func (*TableSwitchInsnNode) Tag() Tag    { return TagTableSwitch }
func (*LookupSwitchInsnNode) Tag() Tag   { return TagLookupSwitch }
func (*MultiANewArrayInsnNode) Tag() Tag { return TagMultiANewArray }
func (*FrameNode) Tag() Tag              { return TagFrame }
func (*LineNumberNode) Tag() Tag         { return TagLine }

func (n *InsnNode) Opcode() int             { return int(n.Op) }
func (n *IntInsnNode) Opcode() int          { return int(n.Op) }
func (n *VarInsnNode) Opcode() int          { return int(n.Op) }
func (n *TypeInsnNode) Opcode() int         { return int(n.Op) }
func (n *FieldInsnNode) Opcode() int        { return int(n.Op) }
func (n *MethodInsnNode) Opcode() int       { return int(n.Op) }
func (*InvokeDynamicInsnNode) Opcode() int  { return int(INVOKEDYNAMIC) }
func (n *JumpInsnNode) Opcode() int         { return int(n.Op) }
func (*LabelNode) Opcode() int              { return -1 }
func (*LdcInsnNode) Opcode() int            { return int(LDC) }
func (*IincInsnNode) Opcode() int           { return int(IINC) }
func (*TableSwitchInsnNode) Opcode() int    { return int(TABLESW) }
func (*LookupSwitchInsnNode) Opcode() int   { return int(LOOKUPSW) }
func (*MultiANewArrayInsnNode) Opcode() int { return int(MULTIANEWARRAY) }
func (*FrameNode) Opcode() int              { return -1 }
func (*LineNumberNode) Opcode() int         { return -1 }

// FrameKind is the compressed form a stack map frame was encoded with.
type FrameKind uint8

const (
	FrameSame FrameKind = iota + 1
	FrameSame1
	FrameChop
	FrameAppend
	FrameFull
)

// VerificationType is a primitive verification type in a stack map frame.
// Object types appear as their internal name string, uninitialized values
// as the *LabelNode of their allocating new instruction.
type VerificationType uint8

const (
	VTop VerificationType = iota
	VInteger
	VFloat
	VDouble
	VLong
	VNull
	VUninitializedThis
)

// TryCatchBlock is an exception table entry. Type is empty for finally
// handlers.
type TryCatchBlock struct {
	Start   *LabelNode
	End     *LabelNode
	Handler *LabelNode
	Type    string
}
