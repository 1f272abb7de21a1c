// Package bytesource resolves class names to their binary class-file
// content. Names are slash-delimited internal names such as a/b/C; the
// dotted and .class-suffixed forms are accepted wherever a name is looked up.
package bytesource

import (
	"fmt"
	"io"
	"strings"

	apperrors "github.com/classkit/pkg/errors"
)

// Errors reported by sources. They match the shared apperrors sentinels
// under errors.Is.
var (
	ErrNotFound    = apperrors.ErrNotFound
	ErrUnsupported = apperrors.ErrUnsupported
	ErrClosed      = apperrors.ErrClosed
)

// Source resolves a class name to its bytes.
type Source interface {
	// Get returns the class bytes, or an error matching ErrNotFound when
	// this source cannot resolve name.
	Get(name string) ([]byte, error)
}

// Supplier reads one enumerated class on demand.
type Supplier func() ([]byte, error)

// Enumerator is implemented by sources that can list every class they hold.
type Enumerator interface {
	// Enumerate maps each internal class name to a supplier of its bytes.
	Enumerate() (map[string]Supplier, error)
}

// Enumerate lists the classes of src, or fails with ErrUnsupported when src
// cannot enumerate.
func Enumerate(src Source) (map[string]Supplier, error) {
	e, ok := src.(Enumerator)
	if !ok {
		return nil, apperrors.Newf(apperrors.CodeUnsupported, "%T does not support enumeration", src)
	}
	return e.Enumerate()
}

// Close releases src if it owns resources.
func Close(src Source) error {
	if c, ok := src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// InternalName converts a dotted or file-style class name to the
// slash-delimited internal form.
func InternalName(name string) string {
	name = strings.TrimSuffix(name, ".class")
	return strings.ReplaceAll(name, ".", "/")
}

// ResourcePath returns the relative path of a class file, a/b/C.class.
func ResourcePath(name string) string {
	return InternalName(name) + ".class"
}

func notFound(name string, cause error) error {
	return apperrors.Wrap(apperrors.CodeNotFound, fmt.Sprintf("class %s not found", name), cause)
}

func closed(name string) error {
	return apperrors.Newf(apperrors.CodeClosed, "get %s: source closed", name)
}
