package mapping

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classkit/internal/bytesource"
	apperrors "github.com/classkit/pkg/errors"
)

func TestSRGLoader(t *testing.T) {
	text := `
PK: . root
PK: a/b x/y

CL: a/B x/Y
	FD: a/B.c d
FD: a/B/e I x/Y/f I
MD: a/B.c ()V d
MD: a/B/g (I)V x/Y/h (I)V
`
	table, err := NewSRGLoader(FromString(text)).Mappings()
	require.NoError(t, err)

	tests := []struct {
		name   string
		lookup func() (string, bool)
		want   string
	}{
		{name: "DefaultPackage", lookup: func() (string, bool) { return table.Package("") }, want: "root"},
		{name: "Package", lookup: func() (string, bool) { return table.Package("a/b") }, want: "x/y"},
		{name: "Class", lookup: func() (string, bool) { return table.Class("a/B") }, want: "x/Y"},
		{name: "FieldTwoArgs", lookup: func() (string, bool) { return table.Field("a/B", "c", "") }, want: "d"},
		{name: "FieldFourArgs", lookup: func() (string, bool) { return table.Field("a/B", "e", "I") }, want: "f"},
		{name: "MethodThreeArgs", lookup: func() (string, bool) { return table.Method("a/B", "c", "()V") }, want: "d"},
		{name: "MethodFourArgs", lookup: func() (string, bool) { return table.Method("a/B", "g", "(I)V") }, want: "h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.lookup()
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := table.Field("a/B", "e", "")
	assert.False(t, ok, "four-argument fields keep their descriptor")
	assert.Equal(t, 7, table.Len())
}

func TestSRGLoader_ParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		message string
	}{
		{name: "UnknownRecord", text: "CL: a/B x/Y\nXX: a b", message: `line 2: unknown record "XX:"`},
		{name: "PackageArity", text: "PK: a", message: "PK expects 2 arguments, got 1"},
		{name: "ClassArity", text: "CL: a/B x/Y extra", message: "CL expects 2 arguments, got 3"},
		{name: "FieldArity", text: "FD: a/B/c I x/Y/d", message: "FD expects 2 or 4 arguments, got 3"},
		{name: "MethodArity", text: "MD: a/B/c ()V", message: "MD expects 3 or 4 arguments, got 2"},
		{name: "FieldWithoutOwner", text: "FD: c d", message: `invalid field reference "c"`},
		{name: "MethodWithoutName", text: "MD: a/B/ ()V d", message: `invalid method reference "a/B/"`},
		{name: "InvalidUTF8", text: "CL: a/B \xff", message: "not valid UTF-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := NewSRGLoader(FromString(tt.text))

			err := loader.Load()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrParse)
			assert.Contains(t, err.Error(), tt.message)

			table, err := loader.Mappings()
			assert.Nil(t, table, "a failed parse yields no partial table")
			assert.ErrorIs(t, err, ErrLoad)
			assert.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestDirectiveLoader(t *testing.T) {
	text := `
.version 3
.class_map a/B a/C
.field_map a/B/f g
.method_map a/B/m (I)V n
.source_file a/B B.java  extra tokens here
# comment-like line
`
	table, err := NewDirectiveLoader(FromString(text)).Mappings()
	require.NoError(t, err)

	got, ok := table.Class("a/B")
	require.True(t, ok)
	assert.Equal(t, "a/C", got)

	got, ok = table.Field("a/B", "f", "")
	require.True(t, ok)
	assert.Equal(t, "g", got)

	got, ok = table.Method("a/B", "m", "(I)V")
	require.True(t, ok)
	assert.Equal(t, "n", got)
	assert.Equal(t, 3, table.Len())
}

func TestDirectiveLoader_ParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		message string
	}{
		{name: "ClassArity", text: ".class_map a/B", message: "line 1: .class_map expects 2 arguments, got 1"},
		{name: "FieldArity", text: ".unknown x\n.field_map a/B/f g h", message: "line 2: .field_map expects 2 arguments, got 3"},
		{name: "MethodArity", text: ".method_map a/B/m n", message: ".method_map expects 3 arguments, got 2"},
		{name: "FieldWithoutOwner", text: ".field_map f g", message: `invalid field reference "f"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDirectiveLoader(FromString(tt.text)).Mappings()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrLoad)
			assert.True(t, apperrors.IsParseError(err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestLoader_ParsesOnce(t *testing.T) {
	var opened atomic.Int32
	open := func() (io.ReadCloser, error) {
		opened.Add(1)
		return io.NopCloser(strings.NewReader("CL: a/B x/Y")), nil
	}
	loader := NewSRGLoader(open)

	const callers = 16
	tables := make([]*Table, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			table, err := loader.Mappings()
			assert.NoError(t, err)
			tables[i] = table
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), opened.Load())
	for _, table := range tables {
		assert.Same(t, tables[0], table)
	}
	require.NoError(t, loader.Load())
	assert.Equal(t, int32(1), opened.Load())
}

func TestLoader_ErrorIsRemembered(t *testing.T) {
	var opened atomic.Int32
	cause := errors.New("disk gone")
	loader := NewDirectiveLoader(func() (io.ReadCloser, error) {
		opened.Add(1)
		return nil, cause
	})

	for range 3 {
		_, err := loader.Mappings()
		assert.ErrorIs(t, err, cause)
		assert.ErrorIs(t, err, ErrLoad)
	}
	assert.Equal(t, int32(1), opened.Load())
}

func TestLoader_Openers(t *testing.T) {
	t.Run("FromSource", func(t *testing.T) {
		src := bytesource.NewMapSource(map[string][]byte{"maps/b": []byte(".class_map a/B a/C")}, bytesource.SlashName)
		table, err := NewDirectiveLoader(FromSource(src, "maps/b")).Mappings()
		require.NoError(t, err)
		got, _ := table.Class("a/B")
		assert.Equal(t, "a/C", got)
	})

	t.Run("FromSourceMissing", func(t *testing.T) {
		src := bytesource.NewMapSource(nil, bytesource.SlashName)
		_, err := NewDirectiveLoader(FromSource(src, "maps/b")).Mappings()
		assert.ErrorIs(t, err, bytesource.ErrNotFound)
	})

	t.Run("FromFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "names.srg")
		require.NoError(t, os.WriteFile(path, []byte("CL: a/B x/Y\r\nCL: a/C x/Z\r\n"), 0o644))
		table, err := NewSRGLoader(FromFile(path)).Mappings()
		require.NoError(t, err)
		got, _ := table.Class("a/C")
		assert.Equal(t, "x/Z", got)
	})
}

func TestEmptyLoader(t *testing.T) {
	loader := NewEmptyLoader()
	require.NoError(t, loader.Load())
	table, err := loader.Mappings()
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())

	again, _ := loader.Mappings()
	assert.Same(t, table, again)
}

func TestDirectLoader(t *testing.T) {
	original := NewTable()
	original.AddClass("a/B", "x/Y")
	loader := NewDirectLoader(original)

	original.AddClass("a/B", "mutated")
	original.AddClass("a/C", "added")

	table, err := loader.Mappings()
	require.NoError(t, err)
	got, _ := table.Class("a/B")
	assert.Equal(t, "x/Y", got)
	_, ok := table.Class("a/C")
	assert.False(t, ok)

	empty, err := NewDirectLoader(nil).Mappings()
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}

func TestNewLoader(t *testing.T) {
	tests := []struct {
		dialect string
		want    any
		wantErr bool
	}{
		{dialect: "srg", want: &SRGLoader{}},
		{dialect: "SRG", want: &SRGLoader{}},
		{dialect: "directive", want: &DirectiveLoader{}},
		{dialect: "none", want: &EmptyLoader{}},
		{dialect: "", want: &EmptyLoader{}},
		{dialect: "proguard", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("Dialect_"+tt.dialect, func(t *testing.T) {
			loader, err := NewLoader(tt.dialect, FromString(""))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperrors.ErrConfigError)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, loader)
		})
	}
}
