package bytesource

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/classkit/pkg/errors"
)

// DirSource serves classes from a class-path directory, a/b/C from
// <root>/a/b/C.class.
type DirSource struct {
	root string
}

// NewDirSource creates a DirSource rooted at root. The directory is not
// required to exist until the first lookup.
func NewDirSource(root string) *DirSource {
	return &DirSource{root: root}
}

// Root returns the directory the source reads from.
func (d *DirSource) Root() string {
	return d.root
}

// Get reads the class file for name.
func (d *DirSource) Get(name string) ([]byte, error) {
	rel := filepath.FromSlash(ResourcePath(name))
	if !filepath.IsLocal(rel) {
		return nil, notFound(name, fmt.Errorf("path %q escapes %s", rel, d.root))
	}

	data, err := os.ReadFile(filepath.Join(d.root, rel))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFound(name, err)
		}
		return nil, apperrors.Wrap(apperrors.CodeStorageError, fmt.Sprintf("read class %s", name), err)
	}
	return data, nil
}

// Enumerate walks the whole tree and lists every .class file.
func (d *DirSource) Enumerate() (map[string]Supplier, error) {
	out := make(map[string]Supplier)
	err := filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".class") {
			return nil
		}
		rel, err := filepath.Rel(d.root, path)
		if err != nil {
			return err
		}
		out[InternalName(filepath.ToSlash(rel))] = func() ([]byte, error) {
			return os.ReadFile(path)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageError, fmt.Sprintf("walk %s", d.root), err)
	}
	return out, nil
}
