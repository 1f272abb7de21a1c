package bytesource

import (
	"sort"
	"strings"
)

// NameStyle is the canonical key form of a MapSource.
type NameStyle uint8

const (
	SlashName NameStyle = iota // a/b/C
	DotName                    // a.b.C
	SlashFile                  // a/b/C.class
	DotFile                    // a.b.C.class
)

// Normalize converts name in any of the four forms to style.
func (s NameStyle) Normalize(name string) string {
	internal := InternalName(name)
	switch s {
	case DotName:
		return strings.ReplaceAll(internal, "/", ".")
	case SlashFile:
		return internal + ".class"
	case DotFile:
		return strings.ReplaceAll(internal, "/", ".") + ".class"
	default:
		return internal
	}
}

func (s NameStyle) String() string {
	switch s {
	case DotName:
		return "dot-name"
	case SlashFile:
		return "slash-file"
	case DotFile:
		return "dot-file"
	default:
		return "slash-name"
	}
}

// MapSource serves classes from a preloaded table. Returned slices alias the
// table and must not be modified.
type MapSource struct {
	style   NameStyle
	entries map[string][]byte
}

// NewMapSource creates a MapSource over a copy of entries, with every key
// normalized to style.
func NewMapSource(entries map[string][]byte, style NameStyle) *MapSource {
	m := &MapSource{style: style, entries: make(map[string][]byte, len(entries))}
	for name, data := range entries {
		m.entries[style.Normalize(name)] = data
	}
	return m
}

// Get returns the bytes stored under the normalized name.
func (m *MapSource) Get(name string) ([]byte, error) {
	data, ok := m.entries[m.style.Normalize(name)]
	if !ok {
		return nil, notFound(name, nil)
	}
	return data, nil
}

// Enumerate lists every entry by internal name.
func (m *MapSource) Enumerate() (map[string]Supplier, error) {
	out := make(map[string]Supplier, len(m.entries))
	for key, data := range m.entries {
		out[InternalName(key)] = func() ([]byte, error) { return data, nil }
	}
	return out, nil
}

// Names returns the sorted keys in their stored form.
func (m *MapSource) Names() []string {
	names := make([]string, 0, len(m.entries))
	for key := range m.entries {
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}

// Style returns the key policy.
func (m *MapSource) Style() NameStyle {
	return m.style
}
