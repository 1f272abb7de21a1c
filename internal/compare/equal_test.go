package compare

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classkit/internal/classfile"
)

var bootstrap = classfile.Handle{
	Kind:  6,
	Owner: "java/lang/invoke/LambdaMetafactory",
	Name:  "metafactory",
	Desc:  "(Ljava/lang/invoke/MethodHandles$Lookup;)Ljava/lang/invoke/CallSite;",
}

// everyTag builds a body holding one node of every tag. Each call allocates
// fresh labels, so two results share no pointers.
func everyTag() []classfile.Instruction {
	start := &classfile.LabelNode{Offset: 0}
	loop := &classfile.LabelNode{Offset: 4}
	exit := &classfile.LabelNode{Offset: 40}
	return []classfile.Instruction{
		start,
		&classfile.LineNumberNode{Line: 10, Start: start},
		&classfile.FrameNode{Kind: classfile.FrameFull, Locals: []any{"a/B", classfile.VInteger}, Stack: []any{}},
		&classfile.IntInsnNode{Op: classfile.BIPUSH, Operand: 7},
		&classfile.VarInsnNode{Op: classfile.ISTORE, Var: 1},
		loop,
		&classfile.IincInsnNode{Var: 1, Incr: -1},
		&classfile.VarInsnNode{Op: classfile.ILOAD, Var: 1},
		&classfile.JumpInsnNode{Op: classfile.IFEQ, Target: exit},
		&classfile.TypeInsnNode{Op: classfile.NEW, Desc: "a/B"},
		&classfile.InsnNode{Op: classfile.DUP},
		&classfile.MethodInsnNode{Op: classfile.INVOKESPECIAL, Owner: "a/B", Name: "<init>", Desc: "()V"},
		&classfile.FieldInsnNode{Op: classfile.PUTSTATIC, Owner: "a/C", Name: "b", Desc: "La/B;"},
		&classfile.LdcInsnNode{Value: "text"},
		&classfile.LdcInsnNode{Value: classfile.ObjectType("a/B")},
		&classfile.InvokeDynamicInsnNode{
			Name: "run", Desc: "()Ljava/lang/Runnable;", Bootstrap: bootstrap,
			Args: []any{classfile.MethodType("()V"), bootstrap},
		},
		&classfile.InsnNode{Op: classfile.ICONST0},
		&classfile.TableSwitchInsnNode{Min: 0, Max: 1, Default: exit, Labels: []*classfile.LabelNode{loop, exit}},
		&classfile.InsnNode{Op: classfile.ICONST1},
		&classfile.LookupSwitchInsnNode{Default: exit, Keys: []int{3, 9}, Labels: []*classfile.LabelNode{loop, exit}},
		&classfile.JumpInsnNode{Op: classfile.GOTO, Target: loop},
		exit,
		&classfile.FrameNode{Kind: classfile.FrameSame},
		&classfile.InsnNode{Op: classfile.ICONST2},
		&classfile.InsnNode{Op: classfile.ICONST3},
		&classfile.MultiANewArrayInsnNode{Desc: "[[I", Dims: 2},
		&classfile.InsnNode{Op: classfile.ARETURN},
	}
}

func TestEqual_Reflexive(t *testing.T) {
	body := everyTag()

	eq, err := Equal(body, body, 0)
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = Equal(body, everyTag(), 0)
	require.NoError(t, err)
	assert.True(t, eq, "labels carry no identity")

	eq, err = EqualDefault(everyTag(), everyTag())
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = Equal(nil, []classfile.Instruction{}, 0)
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestEqual_DefaultIgnore(t *testing.T) {
	withDebug := everyTag()
	var stripped []classfile.Instruction
	for _, insn := range everyTag() {
		if insn.Tag() != classfile.TagFrame && insn.Tag() != classfile.TagLine {
			stripped = append(stripped, insn)
		}
	}

	eq, err := EqualDefault(withDebug, stripped)
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = Equal(withDebug, stripped, 0)
	require.NoError(t, err)
	assert.False(t, eq)

	eq, err = Equal(withDebug, stripped, NewTagSet(classfile.TagFrame))
	require.NoError(t, err)
	assert.False(t, eq, "line numbers still count")
}

func TestEqual_Differences(t *testing.T) {
	l1 := &classfile.LabelNode{}
	l2 := &classfile.LabelNode{}

	tests := []struct {
		name string
		a, b classfile.Instruction
	}{
		{
			name: "Opcode",
			a:    &classfile.InsnNode{Op: classfile.IADD},
			b:    &classfile.InsnNode{Op: classfile.ISUB},
		},
		{
			name: "Tag",
			a:    &classfile.InsnNode{Op: classfile.NOP},
			b:    l1,
		},
		{
			name: "IntOperand",
			a:    &classfile.IntInsnNode{Op: classfile.SIPUSH, Operand: 300},
			b:    &classfile.IntInsnNode{Op: classfile.SIPUSH, Operand: 301},
		},
		{
			name: "VarSlot",
			a:    &classfile.VarInsnNode{Op: classfile.ALOAD, Var: 0},
			b:    &classfile.VarInsnNode{Op: classfile.ALOAD, Var: 1},
		},
		{
			name: "IincIncrement",
			a:    &classfile.IincInsnNode{Var: 1, Incr: 1},
			b:    &classfile.IincInsnNode{Var: 1, Incr: 2},
		},
		{
			name: "TypeDesc",
			a:    &classfile.TypeInsnNode{Op: classfile.CHECKCAST, Desc: "a/B"},
			b:    &classfile.TypeInsnNode{Op: classfile.CHECKCAST, Desc: "a/C"},
		},
		{
			name: "FieldOwner",
			a:    &classfile.FieldInsnNode{Op: classfile.GETFIELD, Owner: "a/B", Name: "x", Desc: "I"},
			b:    &classfile.FieldInsnNode{Op: classfile.GETFIELD, Owner: "a/C", Name: "x", Desc: "I"},
		},
		{
			name: "MethodInterfaceFlag",
			a:    &classfile.MethodInsnNode{Op: classfile.INVOKESTATIC, Owner: "a/B", Name: "m", Desc: "()V"},
			b:    &classfile.MethodInsnNode{Op: classfile.INVOKESTATIC, Owner: "a/B", Name: "m", Desc: "()V", Interface: true},
		},
		{
			name: "InvokeDynamicBootstrap",
			a:    &classfile.InvokeDynamicInsnNode{Name: "run", Desc: "()V", Bootstrap: bootstrap},
			b:    &classfile.InvokeDynamicInsnNode{Name: "run", Desc: "()V", Bootstrap: classfile.Handle{Kind: 6, Owner: "x/Y"}},
		},
		{
			name: "InvokeDynamicArgs",
			a:    &classfile.InvokeDynamicInsnNode{Name: "run", Desc: "()V", Bootstrap: bootstrap, Args: []any{int32(1)}},
			b:    &classfile.InvokeDynamicInsnNode{Name: "run", Desc: "()V", Bootstrap: bootstrap, Args: []any{int32(2)}},
		},
		{
			name: "JumpMissingTarget",
			a:    &classfile.JumpInsnNode{Op: classfile.GOTO, Target: l1},
			b:    &classfile.JumpInsnNode{Op: classfile.GOTO},
		},
		{
			name: "LdcValue",
			a:    &classfile.LdcInsnNode{Value: "a"},
			b:    &classfile.LdcInsnNode{Value: "b"},
		},
		{
			name: "LdcValueType",
			a:    &classfile.LdcInsnNode{Value: int32(1)},
			b:    &classfile.LdcInsnNode{Value: int64(1)},
		},
		{
			name: "LdcNegativeZero",
			a:    &classfile.LdcInsnNode{Value: 0.0},
			b:    &classfile.LdcInsnNode{Value: math.Copysign(0, -1)},
		},
		{
			name: "LdcConstantDynamic",
			a:    &classfile.LdcInsnNode{Value: &classfile.ConstantDynamic{Name: "c", Desc: "I", Bootstrap: bootstrap}},
			b:    &classfile.LdcInsnNode{Value: &classfile.ConstantDynamic{Name: "c", Desc: "J", Bootstrap: bootstrap}},
		},
		{
			name: "TableSwitchRange",
			a:    &classfile.TableSwitchInsnNode{Min: 0, Max: 0, Default: l1, Labels: []*classfile.LabelNode{l2}},
			b:    &classfile.TableSwitchInsnNode{Min: 1, Max: 1, Default: l1, Labels: []*classfile.LabelNode{l2}},
		},
		{
			name: "TableSwitchTargets",
			a:    &classfile.TableSwitchInsnNode{Min: 0, Max: 1, Default: l1, Labels: []*classfile.LabelNode{l2, l2}},
			b:    &classfile.TableSwitchInsnNode{Min: 0, Max: 1, Default: l1, Labels: []*classfile.LabelNode{l2}},
		},
		{
			name: "LookupSwitchKeys",
			a:    &classfile.LookupSwitchInsnNode{Default: l1, Keys: []int{1}, Labels: []*classfile.LabelNode{l2}},
			b:    &classfile.LookupSwitchInsnNode{Default: l1, Keys: []int{2}, Labels: []*classfile.LabelNode{l2}},
		},
		{
			name: "MultiANewArrayDims",
			a:    &classfile.MultiANewArrayInsnNode{Desc: "[[[I", Dims: 2},
			b:    &classfile.MultiANewArrayInsnNode{Desc: "[[[I", Dims: 3},
		},
		{
			name: "FrameKind",
			a:    &classfile.FrameNode{Kind: classfile.FrameSame},
			b:    &classfile.FrameNode{Kind: classfile.FrameSame1, Stack: []any{classfile.VInteger}},
		},
		{
			name: "FrameLocals",
			a:    &classfile.FrameNode{Kind: classfile.FrameAppend, Locals: []any{classfile.VInteger}},
			b:    &classfile.FrameNode{Kind: classfile.FrameAppend, Locals: []any{classfile.VFloat}},
		},
		{
			name: "FrameUninitialized",
			a:    &classfile.FrameNode{Kind: classfile.FrameSame1, Stack: []any{l1}},
			b:    &classfile.FrameNode{Kind: classfile.FrameSame1, Stack: []any{"a/B"}},
		},
		{
			name: "LineNumber",
			a:    &classfile.LineNumberNode{Line: 1, Start: l1},
			b:    &classfile.LineNumberNode{Line: 2, Start: l1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := []classfile.Instruction{tt.a}
			b := []classfile.Instruction{tt.b}

			eq, err := Equal(a, b, 0)
			require.NoError(t, err)
			assert.False(t, eq)

			eq, err = Equal(b, a, 0)
			require.NoError(t, err)
			assert.False(t, eq, "equality is symmetric")
		})
	}
}

func TestEqual_Length(t *testing.T) {
	a := []classfile.Instruction{&classfile.InsnNode{Op: classfile.RETURN}}
	b := []classfile.Instruction{&classfile.InsnNode{Op: classfile.NOP}, &classfile.InsnNode{Op: classfile.RETURN}}

	eq, err := Equal(a, b, 0)
	require.NoError(t, err)
	assert.False(t, eq)
}

func TestEqual_NaN(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{name: "Float", value: float32(math.NaN())},
		{name: "Double", value: math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := []classfile.Instruction{&classfile.LdcInsnNode{Value: tt.value}}
			b := []classfile.Instruction{&classfile.LdcInsnNode{Value: tt.value}}
			eq, err := Equal(a, b, 0)
			require.NoError(t, err)
			assert.True(t, eq)
		})
	}
}

// strayNode claims a known tag but is not one of the decoder's types.
type strayNode struct{ tag classfile.Tag }

func (n strayNode) Tag() classfile.Tag { return n.tag }
func (strayNode) Opcode() int          { return 0 }

func TestEqual_Unsupported(t *testing.T) {
	tests := []struct {
		name string
		node classfile.Instruction
	}{
		{name: "UnknownTag", node: strayNode{tag: 99}},
		{name: "MismatchedType", node: strayNode{tag: classfile.TagInsn}},
		{name: "Nil", node: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			good := []classfile.Instruction{&classfile.InsnNode{Op: classfile.NOP}, &classfile.InsnNode{Op: classfile.RETURN}}
			bad := []classfile.Instruction{&classfile.InsnNode{Op: classfile.NOP}, tt.node}

			_, err := Equal(good, bad, 0)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnsupportedInstruction)
			assert.Contains(t, err.Error(), "instruction 1")

			_, err = Equal(bad, good, 0)
			assert.ErrorIs(t, err, ErrUnsupportedInstruction)
		})
	}
}

func TestTagSet(t *testing.T) {
	assert.True(t, DefaultIgnore.Has(classfile.TagFrame))
	assert.True(t, DefaultIgnore.Has(classfile.TagLine))
	assert.False(t, DefaultIgnore.Has(classfile.TagLabel))
	assert.Equal(t, "{frame,line}", DefaultIgnore.String())
	assert.Equal(t, "{}", TagSet(0).String())

	s := DefaultIgnore.With(classfile.TagLabel)
	assert.True(t, s.Has(classfile.TagLabel))
	assert.False(t, DefaultIgnore.Has(classfile.TagLabel), "With does not modify the receiver")
}

func TestParseTagSet(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		want    TagSet
		wantErr bool
	}{
		{name: "Empty", input: nil, want: 0},
		{name: "Default", input: []string{"frame", "line"}, want: DefaultIgnore},
		{name: "SpacesAndBlanks", input: []string{" label ", ""}, want: NewTagSet(classfile.TagLabel)},
		{name: "Unknown", input: []string{"frame", "bogus"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTagSet(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), `"bogus"`)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
