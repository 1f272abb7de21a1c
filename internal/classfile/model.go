// Package classfile decodes compiled JVM class files into immutable models.
package classfile

import "strings"

// AccessFlags is the access and property bit set of a class or member.
type AccessFlags uint16

const (
	AccPublic       AccessFlags = 0x0001
	AccPrivate      AccessFlags = 0x0002
	AccProtected    AccessFlags = 0x0004
	AccStatic       AccessFlags = 0x0008
	AccFinal        AccessFlags = 0x0010
	AccSuper        AccessFlags = 0x0020
	AccSynchronized AccessFlags = 0x0020
	AccVolatile     AccessFlags = 0x0040
	AccBridge       AccessFlags = 0x0040
	AccTransient    AccessFlags = 0x0080
	AccVarargs      AccessFlags = 0x0080
	AccNative       AccessFlags = 0x0100
	AccInterface    AccessFlags = 0x0200
	AccAbstract     AccessFlags = 0x0400
	AccStrict       AccessFlags = 0x0800
	AccSynthetic    AccessFlags = 0x1000
	AccAnnotation   AccessFlags = 0x2000
	AccEnum         AccessFlags = 0x4000
	AccModule       AccessFlags = 0x8000
)

// Has reports whether all bits of flag are set.
func (f AccessFlags) Has(flag AccessFlags) bool {
	return f&flag == flag
}

// ClassString renders class-level flags in source order.
func (f AccessFlags) ClassString() string {
	return f.render([]flagName{
		{AccPublic, "public"}, {AccFinal, "final"}, {AccAbstract, "abstract"},
		{AccInterface, "interface"}, {AccAnnotation, "annotation"}, {AccEnum, "enum"},
		{AccSynthetic, "synthetic"}, {AccModule, "module"},
	})
}

// MemberString renders field or method flags in source order.
func (f AccessFlags) MemberString() string {
	return f.render([]flagName{
		{AccPublic, "public"}, {AccPrivate, "private"}, {AccProtected, "protected"},
		{AccStatic, "static"}, {AccFinal, "final"}, {AccAbstract, "abstract"},
		{AccNative, "native"}, {AccSynthetic, "synthetic"},
	})
}

type flagName struct {
	flag AccessFlags
	name string
}

func (f AccessFlags) render(names []flagName) string {
	var parts []string
	for _, n := range names {
		if f.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, " ")
}

// RootClass is the only class without a supertype.
const RootClass = "java/lang/Object"

// ClassModel is a decoded class. It is never mutated after Decode returns.
type ClassModel struct {
	Name         string
	Access       AccessFlags
	SuperName    string // empty only for the root class
	Interfaces   []string
	Fields       []FieldModel
	Methods      []MethodModel
	Annotations  []Annotation
	SourceFile   string
	MajorVersion uint16
	MinorVersion uint16
}

// HasSuper reports whether the class declares a supertype.
func (c *ClassModel) HasSuper() bool {
	return c.SuperName != ""
}

// IsInterface reports whether the class is an interface.
func (c *ClassModel) IsInterface() bool {
	return c.Access.Has(AccInterface)
}

// FindMethod returns the method with the given name and descriptor.
func (c *ClassModel) FindMethod(name, desc string) *MethodModel {
	for i := range c.Methods {
		if c.Methods[i].Name == name && c.Methods[i].Desc == desc {
			return &c.Methods[i]
		}
	}
	return nil
}

// FindField returns the first field with the given name.
func (c *ClassModel) FindField(name string) *FieldModel {
	for i := range c.Fields {
		if c.Fields[i].Name == name {
			return &c.Fields[i]
		}
	}
	return nil
}

// FieldModel is a declared field.
type FieldModel struct {
	Access      AccessFlags
	Name        string
	Desc        string
	Annotations []Annotation
}

// MethodModel is a declared method and its decoded body. Abstract and
// native methods have no instructions.
type MethodModel struct {
	Access       AccessFlags
	Name         string
	Desc         string
	Exceptions   []string
	MaxStack     int
	MaxLocals    int
	Instructions []Instruction
	TryCatch     []TryCatchBlock
	Annotations  []Annotation

	// AnnotationDefault is the declared default of an annotation member,
	// or nil.
	AnnotationDefault any
}

// Key returns name+descriptor, which identifies a method within its class.
func (m *MethodModel) Key() string {
	return m.Name + m.Desc
}

// Annotation is a decoded annotation with its explicitly present elements.
type Annotation struct {
	Desc     string
	Visible  bool
	Elements []Element
}

// Element is a name/value pair of an annotation.
type Element struct {
	Name  string
	Value any
}

// Get returns the explicitly present value of an element.
func (a *Annotation) Get(name string) (any, bool) {
	for _, e := range a.Elements {
		if e.Name == name {
			return e.Value, true
		}
	}
	return nil, false
}

// TypeName returns the internal name of the annotation type.
func (a *Annotation) TypeName() string {
	return Type{Sort: SortObject, Descriptor: a.Desc}.InternalName()
}

// EnumValue is an enum constant element value.
type EnumValue struct {
	Desc string
	Name string
}
