package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classkit/internal/classfile"
	"github.com/classkit/internal/testutil"
)

func decodeClass(t *testing.T, b *testutil.ClassBuilder) *classfile.ClassModel {
	t.Helper()
	m, err := classfile.Decode(b.Bytes())
	require.NoError(t, err)
	return m
}

func TestDiff(t *testing.T) {
	ret := &testutil.Code{MaxStack: 1, MaxLocals: 1, Bytecode: []byte{0xB1}}

	oldClass := decodeClass(t, testutil.NewClassBuilder("a/B", classfile.RootClass).
		AddMethod(0x0001, "one", "()I", &testutil.Code{
			MaxStack: 1, MaxLocals: 1, Bytecode: []byte{0x04, 0xAC}, Lines: [][2]uint16{{0, 10}},
		}).
		AddMethod(0x0001, "run", "()V", ret).
		AddMethod(0x0001, "gone", "()V", ret))

	newClass := decodeClass(t, testutil.NewClassBuilder("a/B", classfile.RootClass).
		AddMethod(0x0001, "one", "()I", &testutil.Code{
			MaxStack: 1, MaxLocals: 1, Bytecode: []byte{0x04, 0xAC}, Lines: [][2]uint16{{0, 20}},
		}).
		AddMethod(0x0001, "run", "()V", &testutil.Code{MaxStack: 1, MaxLocals: 1, Bytecode: []byte{0x00, 0xB1}}).
		AddMethod(0x0001, "added", "()V", ret))

	t.Run("DefaultIgnore", func(t *testing.T) {
		d, err := Diff(oldClass, newClass, DefaultIgnore)
		require.NoError(t, err)
		assert.Equal(t, "a/B", d.Name)
		assert.Equal(t, []string{"one()I"}, d.Unchanged)
		assert.Equal(t, []string{"run()V"}, d.Changed)
		assert.Equal(t, []string{"added()V"}, d.Added)
		assert.Equal(t, []string{"gone()V"}, d.Removed)
		assert.False(t, d.Identical())
	})

	t.Run("LinesCount", func(t *testing.T) {
		d, err := Diff(oldClass, newClass, 0)
		require.NoError(t, err)
		assert.Empty(t, d.Unchanged)
		assert.Equal(t, []string{"one()I", "run()V"}, d.Changed)
	})

	t.Run("Self", func(t *testing.T) {
		d, err := Diff(oldClass, oldClass, 0)
		require.NoError(t, err)
		assert.True(t, d.Identical())
		assert.Len(t, d.Unchanged, 3)
	})
}

func TestMethodsEqual_TryCatch(t *testing.T) {
	body := []classfile.Instruction{&classfile.InsnNode{Op: classfile.RETURN}}
	handler := func(typ string) classfile.TryCatchBlock {
		return classfile.TryCatchBlock{
			Start: &classfile.LabelNode{}, End: &classfile.LabelNode{}, Handler: &classfile.LabelNode{}, Type: typ,
		}
	}

	tests := []struct {
		name string
		a, b []classfile.TryCatchBlock
		want bool
	}{
		{name: "NoHandlers", want: true},
		{name: "SameType", a: []classfile.TryCatchBlock{handler("java/io/IOException")}, b: []classfile.TryCatchBlock{handler("java/io/IOException")}, want: true},
		{name: "DifferentType", a: []classfile.TryCatchBlock{handler("java/io/IOException")}, b: []classfile.TryCatchBlock{handler("")}, want: false},
		{name: "DifferentCount", a: []classfile.TryCatchBlock{handler("")}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &classfile.MethodModel{Name: "x", Desc: "()V", TryCatch: tt.a, Instructions: body}
			b := &classfile.MethodModel{Name: "y", Desc: "()I", TryCatch: tt.b, Instructions: body}
			eq, err := MethodsEqual(a, b, DefaultIgnore)
			require.NoError(t, err)
			assert.Equal(t, tt.want, eq)
		})
	}
}
