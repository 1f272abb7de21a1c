package compare

import (
	"fmt"
	"math"
	"reflect"
	"slices"

	"github.com/classkit/internal/classfile"
	apperrors "github.com/classkit/pkg/errors"
)

// ErrUnsupportedInstruction reports an instruction node outside the known
// set of shapes.
var ErrUnsupportedInstruction = apperrors.ErrUnsupportedInstruction

// Equal reports whether a and b are structurally equal once nodes whose tag
// is in ignore are removed. Labels carry no identity: two labels are equal
// wherever they line up, and jumps and switches compare their targets the
// same way.
func Equal(a, b []classfile.Instruction, ignore TagSet) (bool, error) {
	a = filter(a, ignore)
	b = filter(b, ignore)
	if len(a) != len(b) {
		return false, nil
	}
	for i := range a {
		eq, err := insnEqual(a[i], b[i])
		if err != nil {
			return false, fmt.Errorf("instruction %d: %w", i, err)
		}
		if !eq {
			return false, nil
		}
	}
	return true, nil
}

// EqualDefault is Equal with DefaultIgnore.
func EqualDefault(a, b []classfile.Instruction) (bool, error) {
	return Equal(a, b, DefaultIgnore)
}

func filter(insns []classfile.Instruction, ignore TagSet) []classfile.Instruction {
	if ignore == 0 {
		return insns
	}
	out := make([]classfile.Instruction, 0, len(insns))
	for _, insn := range insns {
		if insn == nil || !ignore.Has(insn.Tag()) {
			out = append(out, insn)
		}
	}
	return out
}

func unsupported(insn classfile.Instruction) error {
	if insn == nil {
		return apperrors.New(apperrors.CodeUnsupportedInstruction, "nil instruction")
	}
	return apperrors.Newf(apperrors.CodeUnsupportedInstruction, "unsupported instruction %T (tag %s)", insn, insn.Tag())
}

func insnEqual(x, y classfile.Instruction) (bool, error) {
	if !known(x) {
		return false, unsupported(x)
	}
	if !known(y) {
		return false, unsupported(y)
	}
	if x.Tag() != y.Tag() || x.Opcode() != y.Opcode() {
		return false, nil
	}

	switch a := x.(type) {
	case *classfile.InsnNode, *classfile.LabelNode:
		return true, nil
	case *classfile.IntInsnNode:
		return a.Operand == y.(*classfile.IntInsnNode).Operand, nil
	case *classfile.VarInsnNode:
		return a.Var == y.(*classfile.VarInsnNode).Var, nil
	case *classfile.IincInsnNode:
		b := y.(*classfile.IincInsnNode)
		return a.Var == b.Var && a.Incr == b.Incr, nil
	case *classfile.TypeInsnNode:
		return a.Desc == y.(*classfile.TypeInsnNode).Desc, nil
	case *classfile.FieldInsnNode:
		b := y.(*classfile.FieldInsnNode)
		return a.Owner == b.Owner && a.Name == b.Name && a.Desc == b.Desc, nil
	case *classfile.MethodInsnNode:
		b := y.(*classfile.MethodInsnNode)
		return a.Owner == b.Owner && a.Name == b.Name && a.Desc == b.Desc && a.Interface == b.Interface, nil
	case *classfile.InvokeDynamicInsnNode:
		b := y.(*classfile.InvokeDynamicInsnNode)
		if a.Name != b.Name || a.Desc != b.Desc || a.Bootstrap != b.Bootstrap {
			return false, nil
		}
		return listEqual(a.Args, b.Args)
	case *classfile.JumpInsnNode:
		return labelEqual(a.Target, y.(*classfile.JumpInsnNode).Target)
	case *classfile.LdcInsnNode:
		return valueEqual(a.Value, y.(*classfile.LdcInsnNode).Value)
	case *classfile.TableSwitchInsnNode:
		b := y.(*classfile.TableSwitchInsnNode)
		if a.Min != b.Min || a.Max != b.Max {
			return false, nil
		}
		return targetsEqual(a.Default, b.Default, a.Labels, b.Labels)
	case *classfile.LookupSwitchInsnNode:
		b := y.(*classfile.LookupSwitchInsnNode)
		if !slices.Equal(a.Keys, b.Keys) {
			return false, nil
		}
		return targetsEqual(a.Default, b.Default, a.Labels, b.Labels)
	case *classfile.MultiANewArrayInsnNode:
		b := y.(*classfile.MultiANewArrayInsnNode)
		return a.Desc == b.Desc && a.Dims == b.Dims, nil
	case *classfile.FrameNode:
		b := y.(*classfile.FrameNode)
		if a.Kind != b.Kind || a.Chop != b.Chop {
			return false, nil
		}
		if eq, err := listEqual(a.Locals, b.Locals); err != nil || !eq {
			return eq, err
		}
		return listEqual(a.Stack, b.Stack)
	case *classfile.LineNumberNode:
		b := y.(*classfile.LineNumberNode)
		if a.Line != b.Line {
			return false, nil
		}
		return labelEqual(a.Start, b.Start)
	}
	return false, unsupported(x)
}

// known reports whether insn is one of the decoder's node types and its
// concrete type agrees with its tag.
func known(insn classfile.Instruction) bool {
	if insn == nil {
		return false
	}
	var ok bool
	switch insn.Tag() {
	case classfile.TagInsn:
		_, ok = insn.(*classfile.InsnNode)
	case classfile.TagInt:
		_, ok = insn.(*classfile.IntInsnNode)
	case classfile.TagVar:
		_, ok = insn.(*classfile.VarInsnNode)
	case classfile.TagType:
		_, ok = insn.(*classfile.TypeInsnNode)
	case classfile.TagField:
		_, ok = insn.(*classfile.FieldInsnNode)
	case classfile.TagMethod:
		_, ok = insn.(*classfile.MethodInsnNode)
	case classfile.TagInvokeDynamic:
		_, ok = insn.(*classfile.InvokeDynamicInsnNode)
	case classfile.TagJump:
		_, ok = insn.(*classfile.JumpInsnNode)
	case classfile.TagLabel:
		_, ok = insn.(*classfile.LabelNode)
	case classfile.TagLdc:
		_, ok = insn.(*classfile.LdcInsnNode)
	case classfile.TagIinc:
		_, ok = insn.(*classfile.IincInsnNode)
	case classfile.TagTableSwitch:
		_, ok = insn.(*classfile.TableSwitchInsnNode)
	case classfile.TagLookupSwitch:
		_, ok = insn.(*classfile.LookupSwitchInsnNode)
	case classfile.TagMultiANewArray:
		_, ok = insn.(*classfile.MultiANewArrayInsnNode)
	case classfile.TagFrame:
		_, ok = insn.(*classfile.FrameNode)
	case classfile.TagLine:
		_, ok = insn.(*classfile.LineNumberNode)
	}
	return ok
}

// labelEqual compares two label references by the label rule. A missing
// label only matches another missing label.
func labelEqual(a, b *classfile.LabelNode) (bool, error) {
	if a == nil || b == nil {
		return a == nil && b == nil, nil
	}
	return insnEqual(a, b)
}

func targetsEqual(defA, defB *classfile.LabelNode, a, b []*classfile.LabelNode) (bool, error) {
	if eq, err := labelEqual(defA, defB); err != nil || !eq {
		return eq, err
	}
	if len(a) != len(b) {
		return false, nil
	}
	for i := range a {
		if eq, err := labelEqual(a[i], b[i]); err != nil || !eq {
			return eq, err
		}
	}
	return true, nil
}

func listEqual(a, b []any) (bool, error) {
	if len(a) != len(b) {
		return false, nil
	}
	for i := range a {
		if eq, err := valueEqual(a[i], b[i]); err != nil || !eq {
			return eq, err
		}
	}
	return true, nil
}

// valueEqual compares constants and frame entries. Instruction values use
// the instruction rule; floats compare by bit pattern so NaN equals itself.
func valueEqual(a, b any) (bool, error) {
	if ia, ok := a.(classfile.Instruction); ok {
		ib, ok := b.(classfile.Instruction)
		if !ok {
			return false, nil
		}
		return insnEqual(ia, ib)
	}

	switch va := a.(type) {
	case float32:
		vb, ok := b.(float32)
		return ok && math.Float32bits(va) == math.Float32bits(vb), nil
	case float64:
		vb, ok := b.(float64)
		return ok && math.Float64bits(va) == math.Float64bits(vb), nil
	case *classfile.ConstantDynamic:
		vb, ok := b.(*classfile.ConstantDynamic)
		if !ok || va == nil || vb == nil {
			return ok && va == vb, nil
		}
		if va.Name != vb.Name || va.Desc != vb.Desc || va.Bootstrap != vb.Bootstrap {
			return false, nil
		}
		return listEqual(va.Args, vb.Args)
	case []any:
		vb, ok := b.([]any)
		if !ok {
			return false, nil
		}
		return listEqual(va, vb)
	}
	return reflect.DeepEqual(a, b), nil
}
