// Package testutil builds class file fixtures for tests.
package testutil

import (
	"encoding/binary"
	"math"
)

// ClassBuilder assembles minimal class file binaries for tests. Constant
// pool entries are deduplicated where the class file format allows it.
type ClassBuilder struct {
	pool     []byte
	count    uint16
	interned map[string]uint16

	access     uint16
	this       uint16
	super      uint16
	interfaces []uint16
	fields     [][]byte
	methods    [][]byte
	attrs      [][]byte
	bootstraps [][]byte
}

// NewClassBuilder starts a public class named name extending super. An empty
// super produces a class without a superclass.
func NewClassBuilder(name, super string, interfaces ...string) *ClassBuilder {
	b := &ClassBuilder{count: 1, interned: make(map[string]uint16), access: 0x0021}
	b.this = b.Class(name)
	if super != "" {
		b.super = b.Class(super)
	}
	for _, itf := range interfaces {
		b.interfaces = append(b.interfaces, b.Class(itf))
	}
	return b
}

// SetAccess replaces the class access flags.
func (b *ClassBuilder) SetAccess(flags uint16) *ClassBuilder {
	b.access = flags
	return b
}

func (b *ClassBuilder) add(key string, slots uint16, entry []byte) uint16 {
	if key != "" {
		if idx, ok := b.interned[key]; ok {
			return idx
		}
	}
	idx := b.count
	b.pool = append(b.pool, entry...)
	b.count += slots
	if key != "" {
		b.interned[key] = idx
	}
	return idx
}

// Utf8 adds a CONSTANT_Utf8 entry. Only ASCII text is encoded faithfully.
func (b *ClassBuilder) Utf8(s string) uint16 {
	return b.add("u:"+s, 1, Cat([]byte{1}, U2(uint16(len(s))), []byte(s)))
}

// RawUtf8 adds a CONSTANT_Utf8 entry with pre-encoded modified UTF-8 bytes.
func (b *ClassBuilder) RawUtf8(data []byte) uint16 {
	return b.add("", 1, Cat([]byte{1}, U2(uint16(len(data))), data))
}

// Class adds a CONSTANT_Class entry.
func (b *ClassBuilder) Class(name string) uint16 {
	n := b.Utf8(name)
	return b.add("c:"+name, 1, Cat([]byte{7}, U2(n)))
}

// String adds a CONSTANT_String entry.
func (b *ClassBuilder) String(s string) uint16 {
	n := b.Utf8(s)
	return b.add("s:"+s, 1, Cat([]byte{8}, U2(n)))
}

// Int adds a CONSTANT_Integer entry.
func (b *ClassBuilder) Int(v int32) uint16 {
	return b.add("", 1, Cat([]byte{3}, U4(uint32(v))))
}

// Float adds a CONSTANT_Float entry.
func (b *ClassBuilder) Float(v float32) uint16 {
	return b.add("", 1, Cat([]byte{4}, U4(math.Float32bits(v))))
}

// Long adds a CONSTANT_Long entry, which occupies two slots.
func (b *ClassBuilder) Long(v int64) uint16 {
	return b.add("", 2, Cat([]byte{5}, U8(uint64(v))))
}

// Double adds a CONSTANT_Double entry, which occupies two slots.
func (b *ClassBuilder) Double(v float64) uint16 {
	return b.add("", 2, Cat([]byte{6}, U8(math.Float64bits(v))))
}

// NameAndType adds a CONSTANT_NameAndType entry.
func (b *ClassBuilder) NameAndType(name, desc string) uint16 {
	n, d := b.Utf8(name), b.Utf8(desc)
	return b.add("nt:"+name+":"+desc, 1, Cat([]byte{12}, U2(n), U2(d)))
}

func (b *ClassBuilder) ref(tag byte, owner, name, desc string) uint16 {
	c, nt := b.Class(owner), b.NameAndType(name, desc)
	key := string(rune('0'+tag)) + ":" + owner + "." + name + desc
	return b.add(key, 1, Cat([]byte{tag}, U2(c), U2(nt)))
}

// Fieldref adds a CONSTANT_Fieldref entry.
func (b *ClassBuilder) Fieldref(owner, name, desc string) uint16 {
	return b.ref(9, owner, name, desc)
}

// Methodref adds a CONSTANT_Methodref entry.
func (b *ClassBuilder) Methodref(owner, name, desc string) uint16 {
	return b.ref(10, owner, name, desc)
}

// InterfaceMethodref adds a CONSTANT_InterfaceMethodref entry.
func (b *ClassBuilder) InterfaceMethodref(owner, name, desc string) uint16 {
	return b.ref(11, owner, name, desc)
}

// MethodHandle adds a CONSTANT_MethodHandle entry referring to ref.
func (b *ClassBuilder) MethodHandle(kind byte, ref uint16) uint16 {
	return b.add("", 1, Cat([]byte{15, kind}, U2(ref)))
}

// MethodType adds a CONSTANT_MethodType entry.
func (b *ClassBuilder) MethodType(desc string) uint16 {
	d := b.Utf8(desc)
	return b.add("", 1, Cat([]byte{16}, U2(d)))
}

// Bootstrap appends a BootstrapMethods entry and returns its index.
func (b *ClassBuilder) Bootstrap(handle uint16, args ...uint16) uint16 {
	entry := Cat(U2(handle), U2(uint16(len(args))))
	for _, a := range args {
		entry = append(entry, U2(a)...)
	}
	b.bootstraps = append(b.bootstraps, entry)
	return uint16(len(b.bootstraps) - 1)
}

// InvokeDynamic adds a CONSTANT_InvokeDynamic entry.
func (b *ClassBuilder) InvokeDynamic(bootstrap uint16, name, desc string) uint16 {
	nt := b.NameAndType(name, desc)
	return b.add("", 1, Cat([]byte{18}, U2(bootstrap), U2(nt)))
}

// Dynamic adds a CONSTANT_Dynamic entry.
func (b *ClassBuilder) Dynamic(bootstrap uint16, name, desc string) uint16 {
	nt := b.NameAndType(name, desc)
	return b.add("", 1, Cat([]byte{17}, U2(bootstrap), U2(nt)))
}

// Attribute encodes an attribute with the given name and payload.
func (b *ClassBuilder) Attribute(name string, payload []byte) []byte {
	return Cat(U2(b.Utf8(name)), U4(uint32(len(payload))), payload)
}

// AddAttribute appends a class-level attribute.
func (b *ClassBuilder) AddAttribute(name string, payload []byte) *ClassBuilder {
	b.attrs = append(b.attrs, b.Attribute(name, payload))
	return b
}

// AddField appends a field with optional pre-encoded attributes.
func (b *ClassBuilder) AddField(access uint16, name, desc string, attrs ...[]byte) *ClassBuilder {
	b.fields = append(b.fields, b.member(access, name, desc, attrs))
	return b
}

// AddMethod appends a method. A nil code produces an abstract or native
// method body.
func (b *ClassBuilder) AddMethod(access uint16, name, desc string, code *Code, attrs ...[]byte) *ClassBuilder {
	if code != nil {
		attrs = append([][]byte{b.Attribute("Code", b.encodeCode(code))}, attrs...)
	}
	b.methods = append(b.methods, b.member(access, name, desc, attrs))
	return b
}

func (b *ClassBuilder) member(access uint16, name, desc string, attrs [][]byte) []byte {
	out := Cat(U2(access), U2(b.Utf8(name)), U2(b.Utf8(desc)), U2(uint16(len(attrs))))
	for _, a := range attrs {
		out = append(out, a...)
	}
	return out
}

// Code is a method body.
type Code struct {
	MaxStack  uint16
	MaxLocals uint16
	Bytecode  []byte
	Handlers  []Handler
	// Lines are (start_pc, line_number) pairs.
	Lines [][2]uint16
	// StackMap is the raw StackMapTable payload, without the attribute header.
	StackMap []byte
}

// Handler is an exception table entry. CatchType 0 means any exception.
type Handler struct {
	Start, End, Target, CatchType uint16
}

func (b *ClassBuilder) encodeCode(c *Code) []byte {
	out := Cat(U2(c.MaxStack), U2(c.MaxLocals), U4(uint32(len(c.Bytecode))), c.Bytecode, U2(uint16(len(c.Handlers))))
	for _, h := range c.Handlers {
		out = append(out, Cat(U2(h.Start), U2(h.End), U2(h.Target), U2(h.CatchType))...)
	}
	var attrs [][]byte
	if len(c.Lines) > 0 {
		payload := U2(uint16(len(c.Lines)))
		for _, l := range c.Lines {
			payload = append(payload, Cat(U2(l[0]), U2(l[1]))...)
		}
		attrs = append(attrs, b.Attribute("LineNumberTable", payload))
	}
	if c.StackMap != nil {
		attrs = append(attrs, b.Attribute("StackMapTable", c.StackMap))
	}
	out = append(out, U2(uint16(len(attrs)))...)
	for _, a := range attrs {
		out = append(out, a...)
	}
	return out
}

// Bytes returns the encoded class file.
func (b *ClassBuilder) Bytes() []byte {
	attrs := b.attrs
	if len(b.bootstraps) > 0 {
		payload := U2(uint16(len(b.bootstraps)))
		for _, bm := range b.bootstraps {
			payload = append(payload, bm...)
		}
		attrs = append(attrs, b.Attribute("BootstrapMethods", payload))
	}

	out := Cat(U4(0xCAFEBABE), U2(0), U2(52), U2(b.count), b.pool)
	out = append(out, Cat(U2(b.access), U2(b.this), U2(b.super), U2(uint16(len(b.interfaces))))...)
	for _, i := range b.interfaces {
		out = append(out, U2(i)...)
	}
	out = append(out, U2(uint16(len(b.fields)))...)
	for _, f := range b.fields {
		out = append(out, f...)
	}
	out = append(out, U2(uint16(len(b.methods)))...)
	for _, m := range b.methods {
		out = append(out, m...)
	}
	out = append(out, U2(uint16(len(attrs)))...)
	for _, a := range attrs {
		out = append(out, a...)
	}
	return out
}

// SimpleClass returns a class with one field and one no-op method.
func SimpleClass(name, super string, interfaces ...string) []byte {
	return NewClassBuilder(name, super, interfaces...).
		AddField(0x0002, "value", "I").
		AddMethod(0x0001, "run", "()V", &Code{MaxStack: 1, MaxLocals: 1, Bytecode: []byte{0xB1}}).
		Bytes()
}

// Cat concatenates byte slices.
func Cat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// U2 encodes a big-endian uint16.
func U2(v uint16) []byte {
	return binary.BigEndian.AppendUint16(nil, v)
}

// U4 encodes a big-endian uint32.
func U4(v uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, v)
}

// U8 encodes a big-endian uint64.
func U8(v uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, v)
}
