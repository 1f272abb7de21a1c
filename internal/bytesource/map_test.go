package bytesource_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classkit/internal/bytesource"
	apperrors "github.com/classkit/pkg/errors"
)

func TestNameStyle_Normalize(t *testing.T) {
	inputs := []string{"a/b/C", "a.b.C", "a/b/C.class", "a.b.C.class"}

	tests := []struct {
		name  string
		style bytesource.NameStyle
		want  string
	}{
		{name: "SlashName", style: bytesource.SlashName, want: "a/b/C"},
		{name: "DotName", style: bytesource.DotName, want: "a.b.C"},
		{name: "SlashFile", style: bytesource.SlashFile, want: "a/b/C.class"},
		{name: "DotFile", style: bytesource.DotFile, want: "a.b.C.class"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, in := range inputs {
				assert.Equal(t, tt.want, tt.style.Normalize(in), "input %q", in)
			}
		})
	}
}

func TestMapSource_Get(t *testing.T) {
	for _, style := range []bytesource.NameStyle{bytesource.SlashName, bytesource.DotName, bytesource.SlashFile, bytesource.DotFile} {
		t.Run(style.String(), func(t *testing.T) {
			src := bytesource.NewMapSource(map[string][]byte{
				"a.b.C.class": []byte("C"),
				"a/b/D":       []byte("D"),
			}, style)

			for _, name := range []string{"a/b/C", "a.b.C", "a/b/C.class", "a.b.C.class"} {
				data, err := src.Get(name)
				require.NoError(t, err, name)
				assert.Equal(t, "C", string(data))
			}

			_, err := src.Get("a/b/E")
			require.Error(t, err)
			assert.ErrorIs(t, err, bytesource.ErrNotFound)
			assert.Equal(t, []string{style.Normalize("a/b/C"), style.Normalize("a/b/D")}, src.Names())
		})
	}
}

func TestMapSource_Enumerate(t *testing.T) {
	src := bytesource.NewMapSource(map[string][]byte{"a.b.C": []byte("C")}, bytesource.DotName)

	entries, err := bytesource.Enumerate(src)
	require.NoError(t, err)
	require.Contains(t, entries, "a/b/C")

	data, err := entries["a/b/C"]()
	require.NoError(t, err)
	assert.Equal(t, "C", string(data))
}

func TestMapSource_CopiesTable(t *testing.T) {
	table := map[string][]byte{"a/B": []byte("B")}
	src := bytesource.NewMapSource(table, bytesource.SlashName)
	delete(table, "a/B")

	_, err := src.Get("a/B")
	assert.NoError(t, err)
}

func TestEnumerate_Unsupported(t *testing.T) {
	src := bytesource.NewLoaderSource(bytesource.FSLoader(nil))
	_, err := bytesource.Enumerate(src)
	require.Error(t, err)
	assert.True(t, apperrors.IsUnsupported(err))
}

func TestInternalName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "a/b/C", want: "a/b/C"},
		{in: "a.b.C", want: "a/b/C"},
		{in: "a/b/C$Inner.class", want: "a/b/C$Inner"},
		{in: "C", want: "C"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, bytesource.InternalName(tt.in))
			assert.Equal(t, tt.want+".class", bytesource.ResourcePath(tt.in))
		})
	}
}
