package classfile

import "fmt"

// maxElementDepth bounds nested annotation and array element values.
const maxElementDepth = 64

func readAnnotations(r *reader, cp *constantPool, visible bool) ([]Annotation, error) {
	n := int(r.u2())
	out := make([]Annotation, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		a, err := readAnnotation(r, cp, visible, 0)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, r.err
}

func readAnnotation(r *reader, cp *constantPool, visible bool, depth int) (*Annotation, error) {
	typeIdx := r.u2()
	pairs := int(r.u2())
	if r.err != nil {
		return nil, r.err
	}
	desc, err := cp.utf8(typeIdx)
	if err != nil {
		return nil, err
	}
	a := &Annotation{Desc: desc, Visible: visible}
	for i := 0; i < pairs; i++ {
		name, err := cp.utf8(r.u2())
		if r.err != nil {
			return nil, r.err
		}
		if err != nil {
			return nil, err
		}
		v, err := readElementValue(r, cp, depth)
		if err != nil {
			return nil, fmt.Errorf("element %s: %w", name, err)
		}
		a.Elements = append(a.Elements, Element{Name: name, Value: v})
	}
	return a, nil
}

// readElementValue decodes one element_value. Primitive values keep their
// declared width: B is int8, C is uint16, S is int16, Z is bool.
func readElementValue(r *reader, cp *constantPool, depth int) (any, error) {
	if depth > maxElementDepth {
		return nil, fmt.Errorf("element values nested too deeply")
	}
	tag := r.u1()
	if r.err != nil {
		return nil, r.err
	}
	switch tag {
	case 'B', 'C', 'S', 'I', 'Z':
		e, err := cp.entry(r.u2(), tagInteger)
		if err != nil {
			return nil, firstErr(r.err, err)
		}
		switch tag {
		case 'B':
			return int8(e.i32), nil
		case 'C':
			return uint16(e.i32), nil
		case 'S':
			return int16(e.i32), nil
		case 'Z':
			return e.i32 != 0, nil
		}
		return e.i32, nil
	case 'J':
		e, err := cp.entry(r.u2(), tagLong)
		if err != nil {
			return nil, firstErr(r.err, err)
		}
		return e.i64, nil
	case 'F':
		e, err := cp.entry(r.u2(), tagFloat)
		if err != nil {
			return nil, firstErr(r.err, err)
		}
		return e.f32, nil
	case 'D':
		e, err := cp.entry(r.u2(), tagDouble)
		if err != nil {
			return nil, firstErr(r.err, err)
		}
		return e.f64, nil
	case 's':
		s, err := cp.utf8(r.u2())
		return s, firstErr(r.err, err)
	case 'e':
		typeIdx, nameIdx := r.u2(), r.u2()
		if r.err != nil {
			return nil, r.err
		}
		desc, err := cp.utf8(typeIdx)
		if err != nil {
			return nil, err
		}
		name, err := cp.utf8(nameIdx)
		if err != nil {
			return nil, err
		}
		return EnumValue{Desc: desc, Name: name}, nil
	case 'c':
		desc, err := cp.utf8(r.u2())
		if err = firstErr(r.err, err); err != nil {
			return nil, err
		}
		if desc != "" && desc[0] == '[' {
			return Type{Sort: SortArray, Descriptor: desc}, nil
		}
		return Type{Sort: SortObject, Descriptor: desc}, nil
	case '@':
		return readAnnotation(r, cp, true, depth+1)
	case '[':
		n := int(r.u2())
		if r.err != nil {
			return nil, r.err
		}
		values := make([]any, 0, n)
		for i := 0; i < n; i++ {
			v, err := readElementValue(r, cp, depth+1)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		return values, nil
	default:
		return nil, fmt.Errorf("unknown element value tag %q", tag)
	}
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
