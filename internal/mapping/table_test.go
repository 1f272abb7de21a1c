package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_AddAndLookup(t *testing.T) {
	table := NewTable()
	table.AddPackage("a", "x")
	table.AddClass("a/B", "x/Y")
	table.AddField("a/B", "f", "", "g")
	table.AddField("a/B", "h", "I", "k")
	table.AddMethod("a/B", "m", "()V", "n")

	tests := []struct {
		name   string
		lookup func() (string, bool)
		want   string
		found  bool
	}{
		{name: "Package", lookup: func() (string, bool) { return table.Package("a") }, want: "x", found: true},
		{name: "PackageMissing", lookup: func() (string, bool) { return table.Package("b") }},
		{name: "Class", lookup: func() (string, bool) { return table.Class("a/B") }, want: "x/Y", found: true},
		{name: "FieldNoDesc", lookup: func() (string, bool) { return table.Field("a/B", "f", "") }, want: "g", found: true},
		{name: "FieldDescFallsBack", lookup: func() (string, bool) { return table.Field("a/B", "f", "J") }, want: "g", found: true},
		{name: "FieldWithDesc", lookup: func() (string, bool) { return table.Field("a/B", "h", "I") }, want: "k", found: true},
		{name: "FieldWrongDesc", lookup: func() (string, bool) { return table.Field("a/B", "h", "J") }},
		{name: "FieldWithoutDesc", lookup: func() (string, bool) { return table.Field("a/B", "h", "") }},
		{name: "Method", lookup: func() (string, bool) { return table.Method("a/B", "m", "()V") }, want: "n", found: true},
		{name: "MethodOtherOverload", lookup: func() (string, bool) { return table.Method("a/B", "m", "(I)V") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.lookup()
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTable_Overwrite(t *testing.T) {
	table := NewTable()
	table.AddClass("a/B", "x/Y")
	table.AddClass("a/B", "x/Z")
	table.AddMethod("a/B", "m", "()V", "n")
	table.AddMethod("a/B", "m", "()V", "o")

	got, _ := table.Class("a/B")
	assert.Equal(t, "x/Z", got)
	got, _ = table.Method("a/B", "m", "()V")
	assert.Equal(t, "o", got)
	assert.Equal(t, 2, table.Len())
}

func TestTable_Copy(t *testing.T) {
	original := NewTable()
	original.AddField("a/B", "f", "", "g")

	c := original.Copy()
	c.AddField("a/B", "f", "", "changed")
	c.AddField("a/B", "extra", "", "e")

	got, _ := original.Field("a/B", "f", "")
	assert.Equal(t, "g", got)
	_, ok := original.Field("a/B", "extra", "")
	assert.False(t, ok)

	original.AddField("a/B", "late", "", "l")
	_, ok = c.Field("a/B", "late", "")
	assert.False(t, ok)
	got, _ = c.Field("a/B", "f", "")
	assert.Equal(t, "changed", got)
}

func TestTable_MapClassName(t *testing.T) {
	table := NewTable()
	table.AddClass("a/b/Named", "z/Renamed")
	table.AddPackage("a/b", "x/y")
	table.AddPackage("", "root")
	table.AddPackage("flat", "")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "ClassEntry", input: "a/b/Named", want: "z/Renamed"},
		{name: "PackageEntry", input: "a/b/Other", want: "x/y/Other"},
		{name: "DefaultPackage", input: "Top", want: "root/Top"},
		{name: "ToDefaultPackage", input: "flat/C", want: "C"},
		{name: "SubpackageUnmapped", input: "a/b/c/D", want: "a/b/c/D"},
		{name: "Unmapped", input: "q/R", want: "q/R"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, table.MapClassName(tt.input))
		})
	}
}

func TestTable_Entries(t *testing.T) {
	table := NewTable()
	table.AddMethod("a/B", "m", "()V", "n")
	table.AddField("a/B", "f", "", "g")
	table.AddClass("a/B", "x/Y")
	table.AddPackage("a", "x")

	entries := table.Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, []Entry{
		{Kind: KindPackage, Name: "a", NewName: "x"},
		{Kind: KindClass, Name: "a/B", NewName: "x/Y"},
		{Kind: KindField, Owner: "a/B", Name: "f", NewName: "g"},
		{Kind: KindMethod, Owner: "a/B", Name: "m", Desc: "()V", NewName: "n"},
	}, entries)
	assert.Equal(t, map[Kind]int{KindPackage: 1, KindClass: 1, KindField: 1, KindMethod: 1}, table.Counts())
}
