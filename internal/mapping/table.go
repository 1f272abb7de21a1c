// Package mapping holds class, field and method rename tables and the
// loaders that parse them from text.
package mapping

import (
	"cmp"
	"maps"
	"slices"
	"strings"
)

type memberKey struct {
	owner string
	name  string
	desc  string
}

// Table maps old names to new names. It is not safe for concurrent
// mutation; concurrent lookups are fine.
type Table struct {
	packages map[string]string
	classes  map[string]string
	fields   map[memberKey]string
	methods  map[memberKey]string
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{
		packages: make(map[string]string),
		classes:  make(map[string]string),
		fields:   make(map[memberKey]string),
		methods:  make(map[memberKey]string),
	}
}

// AddPackage records a package rename. The default package is "".
func (t *Table) AddPackage(oldName, newName string) {
	t.packages[oldName] = newName
}

// AddClass records a class rename.
func (t *Table) AddClass(oldName, newName string) {
	t.classes[oldName] = newName
}

// AddField records a field rename. desc may be empty.
func (t *Table) AddField(owner, name, desc, newName string) {
	t.fields[memberKey{owner, name, desc}] = newName
}

// AddMethod records a method rename.
func (t *Table) AddMethod(owner, name, desc, newName string) {
	t.methods[memberKey{owner, name, desc}] = newName
}

// Package returns the new name of a package.
func (t *Table) Package(oldName string) (string, bool) {
	v, ok := t.packages[oldName]
	return v, ok
}

// Class returns the new name of a class.
func (t *Table) Class(oldName string) (string, bool) {
	v, ok := t.classes[oldName]
	return v, ok
}

// Field returns the new name of a field. A lookup with a descriptor falls
// back to an entry recorded without one.
func (t *Table) Field(owner, name, desc string) (string, bool) {
	if v, ok := t.fields[memberKey{owner, name, desc}]; ok {
		return v, true
	}
	if desc != "" {
		v, ok := t.fields[memberKey{owner, name, ""}]
		return v, ok
	}
	return "", false
}

// Method returns the new name of a method.
func (t *Table) Method(owner, name, desc string) (string, bool) {
	v, ok := t.methods[memberKey{owner, name, desc}]
	return v, ok
}

// MapClassName renames a class by its own entry, or failing that by the
// entry of its package. Unmapped names are returned unchanged.
func (t *Table) MapClassName(name string) string {
	if v, ok := t.classes[name]; ok {
		return v
	}
	pkg, simple := "", name
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		pkg, simple = name[:i], name[i+1:]
	}
	newPkg, ok := t.packages[pkg]
	if !ok {
		return name
	}
	if newPkg == "" {
		return simple
	}
	return newPkg + "/" + simple
}

// Copy returns a table that shares no state with t.
func (t *Table) Copy() *Table {
	c := NewTable()
	maps.Copy(c.packages, t.packages)
	maps.Copy(c.classes, t.classes)
	maps.Copy(c.fields, t.fields)
	maps.Copy(c.methods, t.methods)
	return c
}

// Len returns the total number of entries.
func (t *Table) Len() int {
	return len(t.packages) + len(t.classes) + len(t.fields) + len(t.methods)
}

// Kind is the kind of a table entry.
type Kind string

const (
	KindPackage Kind = "package"
	KindClass   Kind = "class"
	KindField   Kind = "field"
	KindMethod  Kind = "method"
)

// Entry is one rename, flattened for reporting. Owner and Desc are empty
// for packages and classes.
type Entry struct {
	Kind    Kind   `json:"kind"`
	Owner   string `json:"owner,omitempty"`
	Name    string `json:"name"`
	Desc    string `json:"desc,omitempty"`
	NewName string `json:"new_name"`
}

var kindOrder = map[Kind]int{KindPackage: 0, KindClass: 1, KindField: 2, KindMethod: 3}

// Entries returns all entries ordered by kind, owner, name and descriptor.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, t.Len())
	for k, v := range t.packages {
		out = append(out, Entry{Kind: KindPackage, Name: k, NewName: v})
	}
	for k, v := range t.classes {
		out = append(out, Entry{Kind: KindClass, Name: k, NewName: v})
	}
	for k, v := range t.fields {
		out = append(out, Entry{Kind: KindField, Owner: k.owner, Name: k.name, Desc: k.desc, NewName: v})
	}
	for k, v := range t.methods {
		out = append(out, Entry{Kind: KindMethod, Owner: k.owner, Name: k.name, Desc: k.desc, NewName: v})
	}
	slices.SortFunc(out, func(a, b Entry) int {
		return cmp.Or(
			cmp.Compare(kindOrder[a.Kind], kindOrder[b.Kind]),
			cmp.Compare(a.Owner, b.Owner),
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.Desc, b.Desc),
		)
	})
	return out
}

// Counts returns the number of entries per kind.
func (t *Table) Counts() map[Kind]int {
	return map[Kind]int{
		KindPackage: len(t.packages),
		KindClass:   len(t.classes),
		KindField:   len(t.fields),
		KindMethod:  len(t.methods),
	}
}
