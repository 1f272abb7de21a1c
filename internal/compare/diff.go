package compare

import (
	"fmt"

	"github.com/classkit/internal/classfile"
)

// MethodsEqual reports whether two methods have equal bodies and the same
// exception handler types in the same order. Names and descriptors are not
// compared.
func MethodsEqual(a, b *classfile.MethodModel, ignore TagSet) (bool, error) {
	if len(a.TryCatch) != len(b.TryCatch) {
		return false, nil
	}
	for i := range a.TryCatch {
		if a.TryCatch[i].Type != b.TryCatch[i].Type {
			return false, nil
		}
	}
	return Equal(a.Instructions, b.Instructions, ignore)
}

// ClassDiff classifies the methods of two versions of a class by
// name and descriptor.
type ClassDiff struct {
	Name      string   `json:"name"`
	Unchanged []string `json:"unchanged"`
	Changed   []string `json:"changed"`
	Added     []string `json:"added"`
	Removed   []string `json:"removed"`
}

// Identical reports whether no method was changed, added or removed.
func (d *ClassDiff) Identical() bool {
	return len(d.Changed) == 0 && len(d.Added) == 0 && len(d.Removed) == 0
}

// Diff compares every method of oldClass with its counterpart in newClass.
// Methods keep the declaration order of the class they come from.
func Diff(oldClass, newClass *classfile.ClassModel, ignore TagSet) (*ClassDiff, error) {
	d := &ClassDiff{Name: newClass.Name}

	for i := range oldClass.Methods {
		om := &oldClass.Methods[i]
		nm := newClass.FindMethod(om.Name, om.Desc)
		if nm == nil {
			d.Removed = append(d.Removed, om.Key())
			continue
		}
		eq, err := MethodsEqual(om, nm, ignore)
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", om.Key(), err)
		}
		if eq {
			d.Unchanged = append(d.Unchanged, om.Key())
		} else {
			d.Changed = append(d.Changed, om.Key())
		}
	}

	for i := range newClass.Methods {
		nm := &newClass.Methods[i]
		if oldClass.FindMethod(nm.Name, nm.Desc) == nil {
			d.Added = append(d.Added, nm.Key())
		}
	}
	return d, nil
}
