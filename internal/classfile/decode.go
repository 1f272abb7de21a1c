package classfile

import (
	"fmt"

	apperrors "github.com/classkit/pkg/errors"
)

const magic = 0xCAFEBABE

// ErrMalformedClass matches every error returned by Decode.
var ErrMalformedClass = apperrors.ErrMalformedClass

// rawMethod holds a method whose Code attribute is decoded once the class
// attributes, including BootstrapMethods, have been read.
type rawMethod struct {
	model *MethodModel
	code  []byte
}

// Decode parses a compiled class binary. It performs no I/O and fails with an
// error matching ErrMalformedClass if data is not a valid class file.
func Decode(data []byte) (*ClassModel, error) {
	m, err := decode(data)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeMalformedClass, "decode class", err)
	}
	return m, nil
}

func decode(data []byte) (*ClassModel, error) {
	r := newReader(data)
	if got := r.u4(); r.err == nil && got != magic {
		return nil, fmt.Errorf("bad magic 0x%08X", got)
	}
	m := &ClassModel{}
	m.MinorVersion = r.u2()
	m.MajorVersion = r.u2()
	if r.err != nil {
		return nil, fmt.Errorf("reading header: %w", r.err)
	}

	cp, err := parseConstantPool(r)
	if err != nil {
		return nil, fmt.Errorf("reading constant pool: %w", err)
	}

	m.Access = AccessFlags(r.u2())
	thisIdx := r.u2()
	superIdx := r.u2()
	if r.err != nil {
		return nil, fmt.Errorf("reading class header: %w", r.err)
	}
	if m.Name, err = cp.className(thisIdx); err != nil {
		return nil, fmt.Errorf("reading this_class: %w", err)
	}
	if superIdx != 0 {
		if m.SuperName, err = cp.className(superIdx); err != nil {
			return nil, fmt.Errorf("reading super_class: %w", err)
		}
	} else if m.Name != RootClass && !m.Access.Has(AccModule) {
		return nil, fmt.Errorf("class %s has no superclass", m.Name)
	}

	if m.Interfaces, err = readInterfaces(r, cp); err != nil {
		return nil, fmt.Errorf("reading interfaces: %w", err)
	}
	if m.Fields, err = readFields(r, cp); err != nil {
		return nil, fmt.Errorf("reading fields: %w", err)
	}
	methods, err := readMethods(r, cp, m)
	if err != nil {
		return nil, fmt.Errorf("reading methods: %w", err)
	}

	err = readAttributes(r, cp, func(name string, ar *reader) error {
		switch name {
		case "BootstrapMethods":
			return readBootstrapMethods(ar, cp)
		case "SourceFile":
			s, err := cp.utf8(ar.u2())
			if ar.err != nil {
				return ar.err
			}
			m.SourceFile = s
			return err
		case "RuntimeVisibleAnnotations", "RuntimeInvisibleAnnotations":
			anns, err := readAnnotations(ar, cp, name == "RuntimeVisibleAnnotations")
			m.Annotations = append(m.Annotations, anns...)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading class attributes: %w", err)
	}

	for _, rm := range methods {
		if rm.code == nil {
			continue
		}
		if err := decodeMethodBody(cp, rm); err != nil {
			return nil, fmt.Errorf("method %s%s: %w", rm.model.Name, rm.model.Desc, err)
		}
	}
	return m, nil
}

func readInterfaces(r *reader, cp *constantPool) ([]string, error) {
	n := int(r.u2())
	if r.err != nil {
		return nil, r.err
	}
	var out []string
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		name, err := cp.className(r.u2())
		if r.err != nil {
			return nil, r.err
		}
		if err != nil {
			return nil, err
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out, nil
}

// memberHeader reads access_flags, name_index and descriptor_index.
func memberHeader(r *reader, cp *constantPool) (AccessFlags, string, string, error) {
	access := AccessFlags(r.u2())
	nameIdx, descIdx := r.u2(), r.u2()
	if r.err != nil {
		return 0, "", "", r.err
	}
	name, err := cp.utf8(nameIdx)
	if err != nil {
		return 0, "", "", err
	}
	desc, err := cp.utf8(descIdx)
	if err != nil {
		return 0, "", "", err
	}
	return access, name, desc, nil
}

func readFields(r *reader, cp *constantPool) ([]FieldModel, error) {
	n := int(r.u2())
	fields := make([]FieldModel, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		access, name, desc, err := memberHeader(r, cp)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		f := FieldModel{Access: access, Name: name, Desc: desc}
		err = readAttributes(r, cp, func(attr string, ar *reader) error {
			if attr == "RuntimeVisibleAnnotations" || attr == "RuntimeInvisibleAnnotations" {
				anns, err := readAnnotations(ar, cp, attr == "RuntimeVisibleAnnotations")
				f.Annotations = append(f.Annotations, anns...)
				return err
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		fields = append(fields, f)
	}
	return fields, r.err
}

func readMethods(r *reader, cp *constantPool, m *ClassModel) ([]rawMethod, error) {
	n := int(r.u2())
	if r.err != nil {
		return nil, r.err
	}
	m.Methods = make([]MethodModel, n)
	raws := make([]rawMethod, n)
	for i := 0; i < n; i++ {
		access, name, desc, err := memberHeader(r, cp)
		if err != nil {
			return nil, fmt.Errorf("method %d: %w", i, err)
		}
		mm := &m.Methods[i]
		mm.Access, mm.Name, mm.Desc = access, name, desc
		raws[i].model = mm

		err = readAttributes(r, cp, func(attr string, ar *reader) error {
			switch attr {
			case "Code":
				if raws[i].code != nil {
					return fmt.Errorf("duplicate Code attribute")
				}
				raws[i].code = ar.buf
			case "Exceptions":
				count := int(ar.u2())
				for k := 0; k < count && ar.err == nil; k++ {
					ex, err := cp.className(ar.u2())
					if ar.err == nil && err != nil {
						return err
					}
					mm.Exceptions = append(mm.Exceptions, ex)
				}
				return ar.err
			case "RuntimeVisibleAnnotations", "RuntimeInvisibleAnnotations":
				anns, err := readAnnotations(ar, cp, attr == "RuntimeVisibleAnnotations")
				mm.Annotations = append(mm.Annotations, anns...)
				return err
			case "AnnotationDefault":
				v, err := readElementValue(ar, cp, 0)
				if err != nil {
					return err
				}
				mm.AnnotationDefault = v
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("method %s%s: %w", name, desc, err)
		}
	}
	return raws, nil
}

func decodeMethodBody(cp *constantPool, rm rawMethod) error {
	rc, err := parseCode(cp, rm.code)
	if err != nil {
		return err
	}
	insns, blocks, err := decodeInstructions(cp, rc)
	if err != nil {
		return err
	}
	rm.model.MaxStack = int(rc.maxStack)
	rm.model.MaxLocals = int(rc.maxLocals)
	rm.model.Instructions = insns
	rm.model.TryCatch = blocks
	return nil
}

func readBootstrapMethods(r *reader, cp *constantPool) error {
	n := int(r.u2())
	for i := 0; i < n && r.err == nil; i++ {
		bm := bootstrapMethod{handle: r.u2()}
		argc := int(r.u2())
		for k := 0; k < argc && r.err == nil; k++ {
			bm.args = append(bm.args, r.u2())
		}
		cp.bootstraps = append(cp.bootstraps, bm)
	}
	return r.err
}

// readAttributes walks an attribute table, handing each attribute's payload
// to fn through its own bounded reader. Unknown attributes are skipped.
func readAttributes(r *reader, cp *constantPool, fn func(name string, ar *reader) error) error {
	n := int(r.u2())
	for i := 0; i < n; i++ {
		nameIdx := r.u2()
		length := int(r.u4())
		payload := r.bytes(length)
		if r.err != nil {
			return r.err
		}
		name, err := cp.utf8(nameIdx)
		if err != nil {
			return fmt.Errorf("attribute %d: %w", i, err)
		}
		if err := fn(name, newReader(payload)); err != nil {
			return fmt.Errorf("attribute %s: %w", name, err)
		}
	}
	return r.err
}
