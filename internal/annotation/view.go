// Package annotation exposes decoded annotations through the members their
// annotation type declares.
package annotation

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/classkit/internal/classfile"
	"github.com/classkit/internal/hierarchy"
	apperrors "github.com/classkit/pkg/errors"
	"github.com/classkit/pkg/utils"
)

// Signatures of the members every annotation answers regardless of its type.
const (
	SigToString       = "toString()Ljava/lang/String;"
	SigHashCode       = "hashCode()I"
	SigEquals         = "equals(Ljava/lang/Object;)Z"
	SigAnnotationType = "annotationType()Ljava/lang/Class;"
)

// Handler answers one member of a view.
type Handler func(v *View, args []any) (any, error)

// builtins are looked up before declared members.
var builtins = map[string]Handler{
	SigToString: func(v *View, _ []any) (any, error) {
		return v.String(), nil
	},
	SigHashCode: func(v *View, _ []any) (any, error) {
		return v.HashCode(), nil
	},
	SigEquals: func(v *View, args []any) (any, error) {
		if len(args) != 1 {
			return nil, apperrors.Newf(apperrors.CodeUnsupported, "equals takes 1 argument, got %d", len(args))
		}
		return v.Equals(args[0]), nil
	},
	SigAnnotationType: func(v *View, _ []any) (any, error) {
		return classfile.ObjectType(v.TypeName()), nil
	},
}

var identities atomic.Int32

// View dispatches member calls of one annotation instance. Element values
// come from the annotation itself, then from the defaults declared by its
// annotation type.
type View struct {
	factory  *Factory
	ann      *classfile.Annotation
	members  map[string]Handler
	order    []string
	identity int32
}

// TypeName returns the internal name of the annotation type.
func (v *View) TypeName() string {
	return v.ann.TypeName()
}

// Annotation returns the decoded annotation.
func (v *View) Annotation() *classfile.Annotation {
	return v.ann
}

// Members returns the declared member signatures in declaration order.
func (v *View) Members() []string {
	return append([]string(nil), v.order...)
}

// Invoke calls the member with the given signature, e.g. "value()I".
func (v *View) Invoke(signature string, args ...any) (any, error) {
	if h, ok := builtins[signature]; ok {
		return h(v, args)
	}
	if h, ok := v.members[signature]; ok {
		return h(v, args)
	}
	return nil, apperrors.Newf(apperrors.CodeUnsupported, "%s has no member %s", v.TypeName(), signature)
}

// Get returns the value of the element named name.
func (v *View) Get(name string) (any, error) {
	for _, sig := range v.order {
		if memberName(sig) == name {
			return v.Invoke(sig)
		}
	}
	return nil, apperrors.Newf(apperrors.CodeUnsupported, "%s has no member %s", v.TypeName(), name)
}

// String returns the identity string: the dotted type name and the identity
// hash in hex.
func (v *View) String() string {
	return fmt.Sprintf("%s@%x", strings.ReplaceAll(v.TypeName(), "/", "."), uint32(v.identity))
}

// HashCode returns the identity hash, unique per view.
func (v *View) HashCode() int32 {
	return v.identity
}

// Equals reports whether other is this very view.
func (v *View) Equals(other any) bool {
	o, ok := other.(*View)
	return ok && o == v
}

// Format renders the annotation in source form with every member resolved,
// e.g. @a.Anno(count=3, value="x"). Members without a value are omitted.
func (v *View) Format() string {
	var sb strings.Builder
	sb.WriteString("@")
	sb.WriteString(strings.ReplaceAll(v.TypeName(), "/", "."))
	if len(v.order) == 0 {
		return sb.String()
	}
	sb.WriteString("(")
	first := true
	for _, sig := range v.order {
		val, err := v.Invoke(sig)
		if err != nil {
			continue
		}
		if !first {
			sb.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&sb, "%s=%s", memberName(sig), formatValue(val))
	}
	sb.WriteString(")")
	return sb.String()
}

func formatValue(val any) string {
	switch x := val.(type) {
	case string:
		return fmt.Sprintf("%q", x)
	case *View:
		return x.Format()
	case classfile.EnumValue:
		return classfile.Type{Sort: classfile.SortObject, Descriptor: x.Desc}.InternalName() + "." + x.Name
	case classfile.Type:
		return x.String()
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = formatValue(e)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return fmt.Sprint(val)
}

func memberName(signature string) string {
	if i := strings.IndexByte(signature, '('); i >= 0 {
		return signature[:i]
	}
	return signature
}

// Factory builds views, reading declared members and their defaults from
// annotation types loaded through a resolver.
type Factory struct {
	resolver *hierarchy.Resolver
	logger   utils.Logger
}

// Option configures a Factory.
type Option func(*Factory)

// WithLogger sets the factory's logger.
func WithLogger(logger utils.Logger) Option {
	return func(f *Factory) {
		f.logger = utils.OrNull(logger)
	}
}

// NewFactory creates a Factory. A nil resolver limits views to the elements
// present on each annotation.
func NewFactory(resolver *hierarchy.Resolver, opts ...Option) *Factory {
	f := &Factory{resolver: resolver, logger: &utils.NullLogger{}}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// View builds the dispatch table for ann. An annotation type that cannot be
// found is tolerated; any other resolution error is returned.
func (f *Factory) View(ann *classfile.Annotation) (*View, error) {
	v := &View{
		factory:  f,
		ann:      ann,
		members:  make(map[string]Handler),
		identity: identities.Add(1),
	}

	declared, found, err := f.declaredMembers(ann.TypeName())
	if err != nil {
		return nil, err
	}
	if !found {
		// Without the type, members are inferred from the present elements.
		for _, e := range ann.Elements {
			declared = append(declared, classfile.MethodModel{Name: e.Name, Desc: "()" + descriptorOf(e.Value)})
		}
	}

	for i := range declared {
		m := &declared[i]
		sig := m.Key()
		if _, dup := v.members[sig]; dup {
			continue
		}
		v.members[sig] = elementHandler(m.Name, m.AnnotationDefault)
		v.order = append(v.order, sig)
	}
	return v, nil
}

// Views builds a view for every annotation in anns.
func (f *Factory) Views(anns []classfile.Annotation) ([]*View, error) {
	out := make([]*View, 0, len(anns))
	for i := range anns {
		v, err := f.View(&anns[i])
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// declaredMembers returns the abstract no-argument methods of the
// annotation type. found is false when the type is unavailable.
func (f *Factory) declaredMembers(typeName string) (members []classfile.MethodModel, found bool, err error) {
	if f.resolver == nil {
		return nil, false, nil
	}
	info, err := f.resolver.Resolve(typeName)
	if err != nil {
		if apperrors.IsNotFound(err) {
			f.logger.Debug("annotation type %s not found, using present elements only", typeName)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to resolve annotation type %s: %w", typeName, err)
	}

	for _, m := range info.Methods() {
		if m.Access.Has(classfile.AccStatic) || !strings.HasPrefix(m.Desc, "()") {
			continue
		}
		members = append(members, m)
	}
	return members, true, nil
}

// elementHandler answers a member from the annotation's element, falling
// back to def.
func elementHandler(name string, def any) Handler {
	return func(v *View, _ []any) (any, error) {
		val, ok := v.ann.Get(name)
		if !ok {
			if def == nil {
				return nil, apperrors.Newf(apperrors.CodeNotFound, "%s.%s has no value and no default", v.TypeName(), name)
			}
			val = def
		}
		return v.factory.wrap(val)
	}
}

// wrap turns nested annotations into views.
func (f *Factory) wrap(val any) (any, error) {
	switch x := val.(type) {
	case *classfile.Annotation:
		return f.View(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			w, err := f.wrap(e)
			if err != nil {
				return nil, err
			}
			out[i] = w
		}
		return out, nil
	}
	return val, nil
}

// descriptorOf guesses the return descriptor of an element value.
func descriptorOf(val any) string {
	switch x := val.(type) {
	case int8:
		return "B"
	case uint16:
		return "C"
	case int16:
		return "S"
	case int32:
		return "I"
	case int64:
		return "J"
	case float32:
		return "F"
	case float64:
		return "D"
	case bool:
		return "Z"
	case string:
		return "Ljava/lang/String;"
	case classfile.Type:
		return "Ljava/lang/Class;"
	case classfile.EnumValue:
		return x.Desc
	case *classfile.Annotation:
		return x.Desc
	case []any:
		if len(x) == 0 {
			return "[Ljava/lang/Object;"
		}
		return "[" + descriptorOf(x[0])
	}
	return "Ljava/lang/Object;"
}
