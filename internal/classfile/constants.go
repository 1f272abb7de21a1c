package classfile

import (
	"fmt"
	"math"
	"unicode"
	"unicode/utf16"
)

// Constant pool tags.
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

// Method handle reference kinds.
const (
	HGetField         = 1
	HGetStatic        = 2
	HPutField         = 3
	HPutStatic        = 4
	HInvokeVirtual    = 5
	HInvokeStatic     = 6
	HInvokeSpecial    = 7
	HNewInvokeSpecial = 8
	HInvokeInterface  = 9
)

// TypeSort distinguishes the kinds of Type constants.
type TypeSort uint8

const (
	SortObject TypeSort = iota + 1
	SortArray
	SortMethod
)

// Type is a class or method type constant, identified by its descriptor.
type Type struct {
	Sort       TypeSort
	Descriptor string
}

// ObjectType returns the Type for an internal class name such as "a/B" or "[I".
func ObjectType(internalName string) Type {
	if len(internalName) > 0 && internalName[0] == '[' {
		return Type{Sort: SortArray, Descriptor: internalName}
	}
	return Type{Sort: SortObject, Descriptor: "L" + internalName + ";"}
}

// MethodType returns the Type for a method descriptor.
func MethodType(desc string) Type {
	return Type{Sort: SortMethod, Descriptor: desc}
}

// InternalName returns the slash-delimited name for object types and the
// descriptor otherwise.
func (t Type) InternalName() string {
	if t.Sort == SortObject && len(t.Descriptor) > 2 {
		return t.Descriptor[1 : len(t.Descriptor)-1]
	}
	return t.Descriptor
}

func (t Type) String() string {
	return t.Descriptor
}

// Handle is a method handle constant.
type Handle struct {
	Kind      int
	Owner     string
	Name      string
	Desc      string
	Interface bool
}

func (h Handle) String() string {
	return fmt.Sprintf("%s.%s%s (%d)", h.Owner, h.Name, h.Desc, h.Kind)
}

// ConstantDynamic is a dynamically computed constant.
type ConstantDynamic struct {
	Name      string
	Desc      string
	Bootstrap Handle
	Args      []any
}

// cpEntry is one decoded constant pool slot. Index fields hold references to
// other slots; value fields hold literal payloads.
type cpEntry struct {
	tag  uint8
	a, b uint16
	str  string
	i32  int32
	f32  float32
	i64  int64
	f64  float64
}

type constantPool struct {
	entries    []cpEntry
	bootstraps []bootstrapMethod
	depth      int
}

// maxDynamicDepth bounds nesting of dynamic constants in bootstrap arguments.
const maxDynamicDepth = 32

type bootstrapMethod struct {
	handle uint16
	args   []uint16
}

func parseConstantPool(r *reader) (*constantPool, error) {
	count := int(r.u2())
	if r.err != nil {
		return nil, r.err
	}
	cp := &constantPool{entries: make([]cpEntry, count)}
	for i := 1; i < count; i++ {
		e := &cp.entries[i]
		e.tag = r.u1()
		switch e.tag {
		case tagUtf8:
			n := int(r.u2())
			e.str = decodeModifiedUTF8(r.bytes(n))
		case tagInteger:
			e.i32 = int32(r.u4())
		case tagFloat:
			e.f32 = math.Float32frombits(r.u4())
		case tagLong:
			e.i64 = int64(r.u8())
			i++
		case tagDouble:
			e.f64 = math.Float64frombits(r.u8())
			i++
		case tagClass, tagString, tagMethodType, tagModule, tagPackage:
			e.a = r.u2()
		case tagFieldref, tagMethodref, tagInterfaceMethodref, tagNameAndType,
			tagDynamic, tagInvokeDynamic:
			e.a = r.u2()
			e.b = r.u2()
		case tagMethodHandle:
			e.a = uint16(r.u1())
			e.b = r.u2()
		default:
			if r.err == nil {
				return nil, fmt.Errorf("constant pool entry %d: unknown tag %d", i, e.tag)
			}
		}
		if r.err != nil {
			return nil, fmt.Errorf("constant pool entry %d: %w", i, r.err)
		}
	}
	return cp, nil
}

func (cp *constantPool) entry(index uint16, tags ...uint8) (*cpEntry, error) {
	if index == 0 || int(index) >= len(cp.entries) {
		return nil, fmt.Errorf("constant pool index %d out of range", index)
	}
	e := &cp.entries[index]
	for _, t := range tags {
		if e.tag == t {
			return e, nil
		}
	}
	return nil, fmt.Errorf("constant pool index %d: unexpected tag %d", index, e.tag)
}

func (cp *constantPool) utf8(index uint16) (string, error) {
	e, err := cp.entry(index, tagUtf8)
	if err != nil {
		return "", err
	}
	return e.str, nil
}

func (cp *constantPool) className(index uint16) (string, error) {
	e, err := cp.entry(index, tagClass)
	if err != nil {
		return "", err
	}
	return cp.utf8(e.a)
}

func (cp *constantPool) nameAndType(index uint16) (string, string, error) {
	e, err := cp.entry(index, tagNameAndType)
	if err != nil {
		return "", "", err
	}
	name, err := cp.utf8(e.a)
	if err != nil {
		return "", "", err
	}
	desc, err := cp.utf8(e.b)
	if err != nil {
		return "", "", err
	}
	return name, desc, nil
}

// memberRef resolves a field, method or interface method reference whose tag
// is one of tags.
func (cp *constantPool) memberRef(index uint16, tags ...uint8) (owner, name, desc string, itf bool, err error) {
	e, err := cp.entry(index, tags...)
	if err != nil {
		return "", "", "", false, err
	}
	if owner, err = cp.className(e.a); err != nil {
		return "", "", "", false, err
	}
	if name, desc, err = cp.nameAndType(e.b); err != nil {
		return "", "", "", false, err
	}
	return owner, name, desc, e.tag == tagInterfaceMethodref, nil
}

func (cp *constantPool) handle(index uint16) (Handle, error) {
	e, err := cp.entry(index, tagMethodHandle)
	if err != nil {
		return Handle{}, err
	}
	owner, name, desc, itf, err := cp.memberRef(e.b, tagFieldref, tagMethodref, tagInterfaceMethodref)
	if err != nil {
		return Handle{}, err
	}
	return Handle{Kind: int(e.a), Owner: owner, Name: name, Desc: desc, Interface: itf}, nil
}

// bootstrap resolves a bootstrap method table entry and its static arguments.
func (cp *constantPool) bootstrap(index uint16) (Handle, []any, error) {
	if int(index) >= len(cp.bootstraps) {
		return Handle{}, nil, fmt.Errorf("bootstrap method %d out of range", index)
	}
	bsm := cp.bootstraps[index]
	h, err := cp.handle(bsm.handle)
	if err != nil {
		return Handle{}, nil, err
	}
	args := make([]any, len(bsm.args))
	for i, a := range bsm.args {
		if args[i], err = cp.loadable(a); err != nil {
			return Handle{}, nil, fmt.Errorf("bootstrap argument %d: %w", i, err)
		}
	}
	return h, args, nil
}

// loadable resolves a constant usable by ldc or as a bootstrap argument.
func (cp *constantPool) loadable(index uint16) (any, error) {
	e, err := cp.entry(index, tagInteger, tagFloat, tagLong, tagDouble, tagString,
		tagClass, tagMethodType, tagMethodHandle, tagDynamic)
	if err != nil {
		return nil, err
	}
	switch e.tag {
	case tagInteger:
		return e.i32, nil
	case tagFloat:
		return e.f32, nil
	case tagLong:
		return e.i64, nil
	case tagDouble:
		return e.f64, nil
	case tagString:
		return cp.utf8(e.a)
	case tagClass:
		name, err := cp.utf8(e.a)
		if err != nil {
			return nil, err
		}
		return ObjectType(name), nil
	case tagMethodType:
		desc, err := cp.utf8(e.a)
		if err != nil {
			return nil, err
		}
		return MethodType(desc), nil
	case tagMethodHandle:
		return cp.handle(index)
	default:
		name, desc, err := cp.nameAndType(e.b)
		if err != nil {
			return nil, err
		}
		if cp.depth >= maxDynamicDepth {
			return nil, fmt.Errorf("dynamic constant %d nested too deeply", index)
		}
		cp.depth++
		h, args, err := cp.bootstrap(e.a)
		cp.depth--
		if err != nil {
			return nil, err
		}
		return &ConstantDynamic{Name: name, Desc: desc, Bootstrap: h, Args: args}, nil
	}
}

// decodeModifiedUTF8 decodes the JVM's modified UTF-8 encoding, where NUL is
// two bytes and supplementary characters are encoded as surrogate pairs.
func decodeModifiedUTF8(b []byte) string {
	ascii := true
	for _, c := range b {
		if c >= 0x80 || c == 0 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(b)
	}

	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c < 0x80:
			units = append(units, uint16(c))
			i++
		case c&0xE0 == 0xC0 && i+1 < len(b):
			units = append(units, uint16(c&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0 && i+2 < len(b):
			units = append(units, uint16(c&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			units = append(units, uint16(unicode.ReplacementChar))
			i++
		}
	}
	return string(utf16.Decode(units))
}
